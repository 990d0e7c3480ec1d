// Package memory provides an in-process store.ProjectStore.
package memory

import (
	"context"
	"sync"

	"github.com/smallnest/researchdeck/research"
	"github.com/smallnest/researchdeck/store"
)

// MemoryProjectStore keeps encoded projects in a map. Loads decode a fresh
// copy so callers never share state with the store.
type MemoryProjectStore struct {
	mu       sync.RWMutex
	projects map[string][]byte
	summary  map[string]store.Summary
}

var _ store.ProjectStore = (*MemoryProjectStore)(nil)

// NewMemoryProjectStore creates an empty store.
func NewMemoryProjectStore() *MemoryProjectStore {
	return &MemoryProjectStore{
		projects: make(map[string][]byte),
		summary:  make(map[string]store.Summary),
	}
}

// Save stores a project.
func (m *MemoryProjectStore) Save(_ context.Context, p *research.Project) error {
	data, err := store.Marshal(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = data
	m.summary[p.ID] = store.Summarize(p)
	return nil
}

// Load retrieves a project by id.
func (m *MemoryProjectStore) Load(_ context.Context, id string) (*research.Project, error) {
	m.mu.RLock()
	data, ok := m.projects[id]
	m.mu.RUnlock()
	if !ok {
		return nil, store.NotFound(id)
	}
	return store.Unmarshal(data)
}

// List returns all project summaries.
func (m *MemoryProjectStore) List(_ context.Context) ([]store.Summary, error) {
	m.mu.RLock()
	out := make([]store.Summary, 0, len(m.summary))
	for _, s := range m.summary {
		out = append(out, s)
	}
	m.mu.RUnlock()
	store.SortSummaries(out)
	return out, nil
}

// Delete removes a project.
func (m *MemoryProjectStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	delete(m.summary, id)
	return nil
}
