// Package storetest holds the behavior every store.ProjectStore backend must
// share. Backend packages call Run from their tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/smallnest/researchdeck/research"
	"github.com/smallnest/researchdeck/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewProject returns a populated project updated at the given time.
func NewProject(id string, updated time.Time) *research.Project {
	return &research.Project{
		ID:        id,
		Topic:     "Topic " + id,
		CreatedAt: updated.Add(-time.Hour).UTC(),
		UpdatedAt: updated.UTC(),
		Objectives: []research.Objective{
			{
				ID:                 id + "-o1",
				Title:              "Market size",
				Status:             research.StatusCompleted,
				Iteration:          1,
				Findings:           "Large and growing.",
				FindingsHistory:    []string{"Large.", "Large and growing."},
				Sources:            []research.Source{{Title: "IEA", URI: "https://iea.org"}},
				SlideDesign:        &research.SlideDesign{Title: "Market", Points: []string{"big"}, VisualPrompt: "chart", Layout: research.LayoutCentered},
				PresentationScript: "The market is large.",
				QualityAudit:       &research.QualityAudit{AuthenticityScore: 90, HallucinationRisk: research.RiskLow, Critique: "ok"},
			},
			{ID: id + "-o2", Title: "Risks", Status: research.StatusError},
		},
		Report: &research.Report{Summary: "Summary", KeyFindings: []string{"growth"}},
	}
}

// Run exercises s through save, load, list, overwrite and delete.
// The store must be empty.
func Run(t *testing.T, s store.ProjectStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("load missing", func(t *testing.T) {
		_, err := s.Load(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		p := NewProject("p-1", base)
		require.NoError(t, s.Save(ctx, p))

		got, err := s.Load(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, p.Topic, got.Topic)
		assert.True(t, p.UpdatedAt.Equal(got.UpdatedAt))
		require.Len(t, got.Objectives, 2)
		assert.Equal(t, p.Objectives[0].FindingsHistory, got.Objectives[0].FindingsHistory)
		assert.Equal(t, p.Objectives[0].Sources, got.Objectives[0].Sources)
		assert.Equal(t, 90, got.Objectives[0].QualityAudit.AuthenticityScore)
		assert.Equal(t, research.StatusError, got.Objectives[1].Status)
		assert.Equal(t, "Summary", got.Report.Summary)
	})

	t.Run("loaded project is a copy", func(t *testing.T) {
		got, err := s.Load(ctx, "p-1")
		require.NoError(t, err)
		got.Objectives[0].Title = "mutated"

		again, err := s.Load(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, "Market size", again.Objectives[0].Title)
	})

	t.Run("save overwrites", func(t *testing.T) {
		p := NewProject("p-1", base.Add(time.Minute))
		p.Topic = "Renamed"
		require.NoError(t, s.Save(ctx, p))

		got, err := s.Load(ctx, "p-1")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Topic)
	})

	t.Run("save requires id", func(t *testing.T) {
		assert.Error(t, s.Save(ctx, &research.Project{Topic: "no id"}))
	})

	t.Run("list newest first", func(t *testing.T) {
		require.NoError(t, s.Save(ctx, NewProject("p-2", base.Add(time.Hour))))
		require.NoError(t, s.Save(ctx, NewProject("p-3", base.Add(-time.Hour))))

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"p-2", "p-1", "p-3"}, []string{list[0].ID, list[1].ID, list[2].ID})
		assert.Equal(t, 2, list[0].Objectives)
		assert.Equal(t, "Renamed", list[1].Topic)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, "p-3"))
		_, err := s.Load(ctx, "p-3")
		assert.ErrorIs(t, err, store.ErrNotFound)

		require.NoError(t, s.Delete(ctx, "p-3"))

		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("concurrent saves", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := range 10 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, s.Save(ctx, NewProject(fmt.Sprintf("c-%d", i), base.Add(time.Duration(i)*time.Second))))
			}(i)
		}
		wg.Wait()

		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 12)
	})
}
