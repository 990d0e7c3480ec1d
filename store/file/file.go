// Package file provides a store.ProjectStore that keeps one JSON document per
// project in a directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/smallnest/researchdeck/research"
	"github.com/smallnest/researchdeck/store"
)

const ext = ".json"

// FileProjectStore stores projects as <dir>/<id>.json.
type FileProjectStore struct {
	dir string
	mu  sync.RWMutex
}

var _ store.ProjectStore = (*FileProjectStore)(nil)

// NewFileProjectStore creates the directory if needed.
func NewFileProjectStore(dir string) (*FileProjectStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}
	return &FileProjectStore{dir: dir}, nil
}

func (s *FileProjectStore) path(id string) (string, error) {
	if id == "" || id != filepath.Base(id) || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid project id %q", id)
	}
	return filepath.Join(s.dir, id+ext), nil
}

// Save writes the project through a temporary file and rename.
func (s *FileProjectStore) Save(_ context.Context, p *research.Project) error {
	data, err := store.Marshal(p)
	if err != nil {
		return err
	}
	path, err := s.path(p.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+p.ID+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write project: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write project: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// Load reads a project by id.
func (s *FileProjectStore) Load(_ context.Context, id string) (*research.Project, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, store.NotFound(id)
	}

	s.mu.RLock()
	data, err := os.ReadFile(path)
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, store.NotFound(id)
		}
		return nil, fmt.Errorf("failed to read project: %w", err)
	}
	return store.Unmarshal(data)
}

// List decodes every project file in the directory.
func (s *FileProjectStore) List(_ context.Context) ([]store.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read project directory: %w", err)
	}

	out := []store.Summary{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ext {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to read project %s: %w", name, err)
		}
		p, err := store.Unmarshal(data)
		if err != nil {
			return nil, err
		}
		out = append(out, store.Summarize(p))
	}
	store.SortSummaries(out)
	return out, nil
}

// Delete removes a project file.
func (s *FileProjectStore) Delete(_ context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}
