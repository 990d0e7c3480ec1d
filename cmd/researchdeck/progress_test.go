package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/smallnest/researchdeck/research"
	"github.com/stretchr/testify/assert"
)

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf)
	at := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)

	obj := research.Objective{ID: "obj-1", Title: "Market size", Status: research.StatusPending}
	p.OnSnapshot([]research.Objective{obj})

	obj.Status = research.StatusSearching
	obj.Logs = []research.LogEntry{{Role: research.RoleInvestigator, Message: "Searching the web", Timestamp: at}}
	p.OnSnapshot([]research.Objective{obj})

	// Same state again prints nothing new.
	p.OnSnapshot([]research.Objective{obj})

	obj.Status = research.StatusCompleted
	obj.Logs = append(obj.Logs, research.LogEntry{Role: research.RoleCritic, Message: "Looks complete", Timestamp: at})
	p.OnSnapshot([]research.Objective{obj})

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "Searching the web"))
	assert.Equal(t, 1, strings.Count(out, "Looks complete"))
	assert.Equal(t, 3, strings.Count(out, "Market size"))
	assert.Contains(t, out, "[1/1]")
	assert.Contains(t, out, "completed")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &research.Project{
		ID: "proj-1",
		Objectives: []research.Objective{{
			ID:           "obj-1",
			Title:        "Market size",
			Status:       research.StatusCompleted,
			Sources:      []research.Source{{Title: "A", URI: "https://a.example"}},
			QualityAudit: &research.QualityAudit{AuthenticityScore: 88, HallucinationRisk: research.RiskLow},
		}},
		Report: &research.Report{Summary: "Batteries are getting better."},
	})

	out := buf.String()
	assert.Contains(t, out, "proj-1")
	assert.Contains(t, out, "sources=1")
	assert.Contains(t, out, "88/100 (low risk)")
	assert.Contains(t, out, "Batteries are getting better.")
}
