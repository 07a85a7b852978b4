package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"threadsdl/pkg/logger"
)

// FileName is the checkpoint file inside a download folder
const FileName = ".threadsdl-checkpoint.json"

const version = 1

// Checkpoint is the download record of one folder
type Checkpoint struct {
	Downloaded      map[string]string `json:"downloaded"` // media url -> filename
	TotalDownloaded int               `json:"total_downloaded"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Version         int               `json:"version"`
}

// IsDownloaded reports whether url was saved before
func (c *Checkpoint) IsDownloaded(url string) bool {
	_, ok := c.Downloaded[url]
	return ok
}

// Manager loads and saves the checkpoint of one folder. Downloads finish
// concurrently, so recording is serialized.
type Manager struct {
	path   string
	logger logger.Logger

	mu sync.Mutex
	cp *Checkpoint
}

// NewManager creates a manager for the checkpoint in dir
func NewManager(dir string, log logger.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Manager{
		path:   filepath.Join(dir, FileName),
		logger: log.WithField("component", "checkpoint"),
	}, nil
}

// Path returns the checkpoint file location
func (m *Manager) Path() string { return m.path }

// Load reads the checkpoint, starting a fresh one when the file is missing
func (m *Manager) Load() (*Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := os.Open(m.path)
	if os.IsNotExist(err) {
		now := time.Now()
		m.cp = &Checkpoint{
			Downloaded: make(map[string]string),
			CreatedAt:  now,
			UpdatedAt:  now,
			Version:    version,
		}
		return m.cp, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var cp Checkpoint
	if err := json.NewDecoder(file).Decode(&cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.Downloaded == nil {
		cp.Downloaded = make(map[string]string)
	}
	m.cp = &cp

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"total_downloaded": cp.TotalDownloaded,
		"updated_at":       cp.UpdatedAt,
	})
	return m.cp, nil
}

// RecordDownload adds url to the loaded checkpoint and saves it
func (m *Manager) RecordDownload(url, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cp == nil {
		return fmt.Errorf("checkpoint not loaded")
	}
	if _, ok := m.cp.Downloaded[url]; !ok {
		m.cp.TotalDownloaded++
	}
	m.cp.Downloaded[url] = filename
	return m.save(m.cp)
}

// save writes cp atomically; m.mu must be held
func (m *Manager) save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()

	tempPath := m.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}
	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"total_downloaded": cp.TotalDownloaded,
	})
	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	m.cp = nil
	m.logger.Info("Checkpoint deleted")
	return nil
}
