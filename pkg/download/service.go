// Package download hands files to the download destination: one media URL
// at a time, or an in-memory blob such as a ZIP archive.
package download

import (
	"bytes"
	"context"
	"sync"

	"github.com/google/uuid"

	"threadsdl/internal/downloader"
	"threadsdl/pkg/config"
	"threadsdl/pkg/fetch"
	"threadsdl/pkg/logger"
	"threadsdl/pkg/storage"
)

// Result is what a download request reports back
type Result struct {
	Success bool   `json:"success"`
	ID      string `json:"downloadId,omitempty"`
	Path    string `json:"path,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Service accepts download requests
type Service interface {
	// Request downloads url into the download folder as filename
	Request(ctx context.Context, url, filename string) Result
	// SaveBlob stores data in the download folder as filename
	SaveBlob(ctx context.Context, filename string, data []byte) Result
}

// LocalService downloads into a folder on the local disk
type LocalService struct {
	pool    *downloader.WorkerPool
	storage *storage.Manager
	log     logger.Logger

	mu      sync.Mutex
	pending map[string]chan downloader.Result
	done    chan struct{}
}

// NewLocalService starts a service writing under cfg.BaseDirectory/cfg.Folder.
// A nil fetcher selects an HTTP client built from cfg.
func NewLocalService(cfg *config.DownloadConfig, fetcher downloader.Fetcher, log logger.Logger) (*LocalService, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	store, err := storage.NewManager(cfg.BaseDirectory, cfg.Folder, cfg.OverwriteExisting)
	if err != nil {
		return nil, err
	}
	if fetcher == nil {
		fetcher = fetch.New(fetch.OptionsFromConfig(cfg, log))
	}

	s := &LocalService{
		pool:    downloader.NewWorkerPool(cfg.ConcurrentDownloads, fetcher, store, log),
		storage: store,
		log:     log.WithField("component", "download"),
		pending: make(map[string]chan downloader.Result),
		done:    make(chan struct{}),
	}
	s.pool.Start()
	go s.collect()
	return s, nil
}

// Dir returns the folder files are written to
func (s *LocalService) Dir() string { return s.storage.Dir() }

// collect routes pool results to their waiting requests
func (s *LocalService) collect() {
	defer close(s.done)
	for r := range s.pool.Results() {
		s.mu.Lock()
		ch, ok := s.pending[r.Job.ID]
		delete(s.pending, r.Job.ID)
		s.mu.Unlock()
		if ok {
			ch <- r
		}
	}
}

// Request implements Service
func (s *LocalService) Request(ctx context.Context, url, filename string) Result {
	id := uuid.NewString()
	ch := make(chan downloader.Result, 1)

	s.mu.Lock()
	s.pending[id] = ch
	s.mu.Unlock()

	job := downloader.Job{ID: id, URL: url, Filename: filename}
	if err := s.pool.Submit(ctx, job); err != nil {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
		logger.LogDownload(s.log, filename, id, err)
		return Result{ID: id, Error: err.Error()}
	}

	select {
	case r := <-ch:
		logger.LogDownload(s.log, filename, id, r.Error)
		if r.Error != nil {
			return Result{ID: id, Error: r.Error.Error()}
		}
		return Result{Success: true, ID: id, Path: r.Path}
	case <-ctx.Done():
		// the job still completes; its result is dropped by collect
		return Result{ID: id, Error: ctx.Err().Error()}
	}
}

// SaveBlob implements Service
func (s *LocalService) SaveBlob(ctx context.Context, filename string, data []byte) Result {
	id := uuid.NewString()
	path, err := s.storage.Save(ctx, filename, bytes.NewReader(data))
	logger.LogDownload(s.log, filename, id, err)
	if err != nil {
		return Result{ID: id, Error: err.Error()}
	}
	return Result{Success: true, ID: id, Path: path}
}

// Close waits for queued downloads and stops the workers
func (s *LocalService) Close() error {
	s.pool.Stop()
	<-s.done
	return nil
}
