package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smallnest/researchdeck/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileProjectStore(t *testing.T) {
	s, err := NewFileProjectStore(filepath.Join(t.TempDir(), "projects"))
	require.NoError(t, err)
	storetest.Run(t, s)
}

func TestFileProjectStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	_, err := NewFileProjectStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileProjectStore_RejectsPathIDs(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileProjectStore(dir)
	require.NoError(t, err)

	p := storetest.NewProject("../escape", time.Now())
	assert.Error(t, s.Save(context.Background(), p))

	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileProjectStore_IgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileProjectStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, s.Save(context.Background(), storetest.NewProject("p-1", time.Now())))

	list, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
