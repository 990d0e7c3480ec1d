package prompt

import (
	"strings"
	"testing"

	"github.com/smallnest/researchdeck/research"
	"github.com/stretchr/testify/assert"
)

func TestSearchPrompt(t *testing.T) {
	first := Search(research.SearchRequest{Title: "GPU supply"})
	assert.Contains(t, first, "Investigate this specific research objective")
	assert.NotContains(t, first, "PREVIOUS FINDINGS")

	refine := Search(research.SearchRequest{Title: "GPU supply", Iteration: 1, Feedback: "cite 2024 data", PriorFindings: "TSMC"})
	assert.Contains(t, refine, "PREVIOUS FINDINGS: TSMC")
	assert.Contains(t, refine, "CRITIQUE FEEDBACK: cite 2024 data")

	// A retry after a quota failure carries no refinement context.
	retry := Search(research.SearchRequest{Title: "GPU supply", Iteration: 1})
	assert.Equal(t, first, retry)

	assert.Equal(t, "GPU supply cite 2024 data", SearchQuery(research.SearchRequest{Title: "GPU supply", Iteration: 1, Feedback: "cite 2024 data"}))
}

func TestDesignPromptTruncatesFindings(t *testing.T) {
	long := strings.Repeat("x", DesignFindingsLimit+500)
	p := Design(research.DesignRequest{Title: "t", Findings: long, SpeakerPersona: "sp", VisualPersona: "vp"})
	assert.Contains(t, p, strings.Repeat("x", DesignFindingsLimit))
	assert.NotContains(t, p, strings.Repeat("x", DesignFindingsLimit+1))
	assert.Contains(t, p, `"split-left", "split-right", "bottom-overlay", "centered"`)
}

func TestScriptPrompt(t *testing.T) {
	p := Script(research.SlideDesign{Title: "T", Points: []string{"a", "b"}}, "calm")
	assert.Contains(t, p, "POINTS: a, b")
	assert.Contains(t, p, "100% GROUNDED")
}

func TestReportPrompt(t *testing.T) {
	p := Report("topic", []research.Objective{{Title: "One", Findings: "f1"}, {Title: "Two", Findings: "f2"}})
	assert.Contains(t, p, "Objective: One\nFinal Integrated Findings: f1\n\nObjective: Two")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héll", Truncate("héllo", 4))
	assert.Equal(t, "hi", Truncate("hi", 10))
	assert.Equal(t, "", Truncate("hi", 0))
}
