// Package downloader runs media downloads on a fixed set of workers.
package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"threadsdl/pkg/logger"
)

// Job is a single download task
type Job struct {
	ID       string
	URL      string
	Filename string
}

// Result is the outcome of a Job
type Result struct {
	Job      Job
	Path     string
	Size     int
	Error    error
	Duration time.Duration
}

// Success reports whether the file was stored
func (r Result) Success() bool { return r.Error == nil }

// Fetcher retrieves the bytes behind a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Storage persists fetched bytes under a filename
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// WorkerPool manages concurrent download workers
type WorkerPool struct {
	numWorkers  int
	jobQueue    chan Job
	resultQueue chan Result
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	fetcher     Fetcher
	storage     Storage
	logger      logger.Logger

	mu     sync.RWMutex
	closed bool
}

// NewWorkerPool creates a pool; call Start before submitting
func NewWorkerPool(numWorkers int, fetcher Fetcher, storage Storage, log logger.Logger) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job, numWorkers*2),
		resultQueue: make(chan Result, numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		fetcher:     fetcher,
		storage:     storage,
		logger:      log.WithField("component", "downloader"),
	}
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	wp.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": wp.numWorkers,
	})
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop lets queued jobs finish, then closes Results
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.jobQueue)
	wp.mu.Unlock()

	wp.wg.Wait()
	close(wp.resultQueue)
	wp.cancel()
	wp.logger.Debug("Worker pool stopped")
}

// Submit queues a job, blocking while the queue is full
func (wp *WorkerPool) Submit(ctx context.Context, job Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return fmt.Errorf("worker pool is shutting down")
	}
	select {
	case wp.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Results delivers one Result per submitted job
func (wp *WorkerPool) Results() <-chan Result {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for job := range wp.jobQueue {
		wp.resultQueue <- wp.processJob(job, id)
	}
}

func (wp *WorkerPool) processJob(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}
	fields := map[string]interface{}{
		"worker_id": workerID,
		"job_id":    job.ID,
		"filename":  job.Filename,
	}

	data, err := wp.fetcher.Fetch(wp.ctx, job.URL)
	if err != nil {
		result.Error = fmt.Errorf("download failed: %w", err)
		result.Duration = time.Since(start)
		wp.logger.WithError(err).WarnWithFields("Worker failed to fetch media", fields)
		return result
	}
	result.Size = len(data)

	path, err := wp.storage.Save(wp.ctx, job.Filename, bytes.NewReader(data))
	if err != nil {
		result.Error = fmt.Errorf("save failed: %w", err)
		result.Duration = time.Since(start)
		wp.logger.WithError(err).ErrorWithFields("Worker failed to save media", fields)
		return result
	}

	result.Path = path
	result.Duration = time.Since(start)
	fields["size"] = result.Size
	fields["duration"] = result.Duration
	wp.logger.DebugWithFields("Worker completed job", fields)
	return result
}

// QueueSize returns the number of jobs waiting
func (wp *WorkerPool) QueueSize() int {
	return len(wp.jobQueue)
}

// Workers returns the number of workers
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}
