package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveCreatesFolderAndFile(t *testing.T) {
	base := t.TempDir()
	m, err := NewManager(base, "Threads", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "Threads"), m.Dir())

	path, err := m.Save(context.Background(), "threads_john-ABC-1.mp4", strings.NewReader("video"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "Threads", "threads_john-ABC-1.mp4"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "video", string(data))
	assert.True(t, m.Exists("threads_john-ABC-1.mp4"))
	assert.Equal(t, 1, m.Saved())
}

func TestSaveUniquifiesTakenNames(t *testing.T) {
	m, err := NewManager(t.TempDir(), "Threads", false)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := m.Save(ctx, "a.jpg", strings.NewReader("1"))
	require.NoError(t, err)
	second, err := m.Save(ctx, "a.jpg", strings.NewReader("2"))
	require.NoError(t, err)
	third, err := m.Save(ctx, "a.jpg", strings.NewReader("3"))
	require.NoError(t, err)

	assert.Equal(t, "a.jpg", filepath.Base(first))
	assert.Equal(t, "a (1).jpg", filepath.Base(second))
	assert.Equal(t, "a (2).jpg", filepath.Base(third))
}

func TestSaveOverwrite(t *testing.T) {
	m, err := NewManager(t.TempDir(), "Threads", true)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = m.Save(ctx, "a.jpg", strings.NewReader("old"))
	require.NoError(t, err)
	path, err := m.Save(ctx, "a.jpg", strings.NewReader("new"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestSaveConcurrentNeverClobbers(t *testing.T) {
	m, err := NewManager(t.TempDir(), "Threads", false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	paths := make([]string, 8)
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := m.Save(context.Background(), "same.zip", strings.NewReader("x"))
			assert.NoError(t, err)
			paths[i] = p
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, p := range paths {
		assert.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}
	assert.Equal(t, 8, m.Saved())
}

func TestSaveRejectsEscapingNames(t *testing.T) {
	base := t.TempDir()
	m, err := NewManager(base, "Threads", false)
	require.NoError(t, err)

	path, err := m.Save(context.Background(), "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "Threads", "passwd"), path, "directories are stripped")

	_, err = m.Save(context.Background(), "..", strings.NewReader("x"))
	assert.Error(t, err)
	_, err = m.Save(context.Background(), "", strings.NewReader("x"))
	assert.Error(t, err)
}
