// Package storage writes downloaded files into the download folder.
//
// Files are written to a temporary name and renamed into place. Picking the
// final name and renaming happen under a lock file, so concurrent downloads
// (and concurrent processes) never overwrite each other: a taken name gets a
// " (n)" suffix.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"threadsdl/pkg/errors"
)

const lockName = ".threadsdl.lock"

// Manager owns one download folder
type Manager struct {
	dir       string
	overwrite bool
	lock      *flock.Flock
	// flock is reentrant within a process; renameMu serializes our goroutines
	renameMu sync.Mutex

	mu    sync.Mutex
	saved int
}

// NewManager creates folder under base if needed. With overwrite set, an
// existing file of the same name is replaced instead of kept.
func NewManager(base, folder string, overwrite bool) (*Manager, error) {
	dir := filepath.Join(base, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeStorage, "failed to create download folder", err)
	}
	return &Manager{
		dir:       dir,
		overwrite: overwrite,
		lock:      flock.New(filepath.Join(dir, lockName)),
	}, nil
}

// Dir returns the download folder
func (m *Manager) Dir() string { return m.dir }

// Saved returns how many files this manager wrote
func (m *Manager) Saved() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}

// Exists reports whether name is already present in the folder
func (m *Manager) Exists(name string) bool {
	clean, err := cleanName(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(m.dir, clean))
	return err == nil
}

// Save writes r as name and returns the path it was stored under
func (m *Manager) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(m.dir, ".part-*")
	if err != nil {
		return "", errors.Wrap(errors.ErrorTypeStorage, "failed to create temporary file", err)
	}
	tmpName := tmp.Name()
	_, err = io.Copy(tmp, r)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return "", errors.Wrap(errors.ErrorTypeStorage, "failed to write file data", err)
	}

	m.renameMu.Lock()
	defer m.renameMu.Unlock()
	locked, err := m.lock.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil || !locked {
		os.Remove(tmpName)
		return "", errors.Wrap(errors.ErrorTypeStorage, "failed to lock download folder", err)
	}
	defer m.lock.Unlock()

	final := filepath.Join(m.dir, clean)
	if !m.overwrite {
		final = m.available(clean)
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", errors.Wrap(errors.ErrorTypeStorage, "failed to move file into place", err)
	}

	m.mu.Lock()
	m.saved++
	m.mu.Unlock()
	return final, nil
}

// available returns the first free path for name: name, name (1), ...
func (m *Manager) available(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(m.dir, name)
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = filepath.Join(m.dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}

// cleanName rejects names that would escape the folder
func cleanName(name string) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." || base == lockName || strings.HasPrefix(base, ".part-") {
		return "", errors.New(errors.ErrorTypeStorage, fmt.Sprintf("invalid file name %q", name))
	}
	return base, nil
}
