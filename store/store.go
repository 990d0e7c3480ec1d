package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/smallnest/researchdeck/research"
)

// ErrNotFound is returned when a project id is unknown.
var ErrNotFound = errors.New("project not found")

// ProjectStore defines the interface for project persistence.
type ProjectStore interface {
	// Save inserts or replaces a project.
	Save(ctx context.Context, p *research.Project) error

	// Load retrieves a project by id.
	Load(ctx context.Context, id string) (*research.Project, error)

	// List returns a summary of every stored project, newest first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a project. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id string) error
}

// Summary is the listing view of a project.
type Summary struct {
	ID         string    `json:"id"`
	Topic      string    `json:"topic"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Objectives int       `json:"objectives"`
}

// Summarize builds the Summary of p.
func Summarize(p *research.Project) Summary {
	return Summary{
		ID:         p.ID,
		Topic:      p.Topic,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
		Objectives: len(p.Objectives),
	}
}

// SortSummaries orders summaries newest first, ties broken by id.
func SortSummaries(s []Summary) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].UpdatedAt.Equal(s[j].UpdatedAt) {
			return s[i].UpdatedAt.After(s[j].UpdatedAt)
		}
		return s[i].ID < s[j].ID
	})
}

// Marshal encodes a project for storage. Projects without an id are rejected.
func Marshal(p *research.Project) ([]byte, error) {
	if p == nil || p.ID == "" {
		return nil, errors.New("project id is required")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal project: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a stored project.
func Unmarshal(data []byte) (*research.Project, error) {
	var p research.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	return &p, nil
}

// NotFound wraps ErrNotFound with the missing id.
func NotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
