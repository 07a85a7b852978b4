// Package archive bundles the media of a post into a single ZIP.
package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"threadsdl/pkg/errors"
	"threadsdl/pkg/logger"
)

const (
	DefaultConcurrency      = 4
	DefaultCompressionLevel = 6
)

// ErrNothingFetched is returned when no entry could be fetched
var ErrNothingFetched = errors.New(errors.ErrorTypeArchive, "all files failed to download")

// Entry is one file to put in the archive
type Entry struct {
	URL      string
	Filename string
}

// Fetcher retrieves the bytes behind a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Progress is called after each entry finishes, from any goroutine
type Progress func(done, total int)

// Failure records an entry left out of the archive
type Failure struct {
	Entry Entry
	Err   error
}

// Result is a finished archive
type Result struct {
	Data      []byte
	Succeeded int
	Failed    []Failure
}

// Builder fetches entries concurrently and packs them
type Builder struct {
	fetcher     Fetcher
	concurrency int
	level       int
	log         logger.Logger
	now         func() time.Time
}

// New creates a builder. Non-positive values select the defaults.
func New(fetcher Fetcher, concurrency, level int, log logger.Logger) *Builder {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if level < flate.HuffmanOnly || level > flate.BestCompression {
		level = DefaultCompressionLevel
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Builder{
		fetcher:     fetcher,
		concurrency: concurrency,
		level:       level,
		log:         log.WithField("component", "archive"),
		now:         time.Now,
	}
}

// Build fetches every entry and writes the successful ones into a ZIP in
// input order. It fails only when nothing was fetched or ctx is done.
func (b *Builder) Build(ctx context.Context, entries []Entry, progress Progress) (*Result, error) {
	if len(entries) == 0 {
		return nil, ErrNothingFetched
	}

	pool, err := ants.NewPool(b.concurrency, ants.WithPreAlloc(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeArchive, "failed to create fetch pool", err)
	}
	defer pool.Release()

	data := make([][]byte, len(entries))
	errs := make([]error, len(entries))
	var finished atomic.Int32
	var wg sync.WaitGroup

	for i, e := range entries {
		wg.Add(1)
		i, e := i, e
		task := func() {
			defer wg.Done()
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
			} else {
				data[i], errs[i] = b.fetcher.Fetch(ctx, e.URL)
			}
			n := int(finished.Add(1))
			if progress != nil {
				progress(n, len(entries))
			}
		}
		if err := pool.Submit(task); err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, b.level)
	})

	modified := b.now()
	for i, e := range entries {
		if errs[i] != nil {
			b.log.WithError(errs[i]).WarnWithFields("Left file out of archive", map[string]interface{}{
				"filename": e.Filename,
			})
			res.Failed = append(res.Failed, Failure{Entry: e, Err: errs[i]})
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     e.Filename,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrorTypeArchive, fmt.Sprintf("failed to add %s", e.Filename), err)
		}
		if _, err := w.Write(data[i]); err != nil {
			return nil, errors.Wrap(errors.ErrorTypeArchive, fmt.Sprintf("failed to write %s", e.Filename), err)
		}
		res.Succeeded++
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrorTypeArchive, "failed to finish archive", err)
	}

	if res.Succeeded == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNothingFetched, stderrors.Join(causes(res.Failed)...))
	}
	res.Data = buf.Bytes()

	b.log.DebugWithFields("Archive built", map[string]interface{}{
		"files":  res.Succeeded,
		"failed": len(res.Failed),
		"size":   len(res.Data),
	})
	return res, nil
}

func causes(failed []Failure) []error {
	out := make([]error, len(failed))
	for i, f := range failed {
		out[i] = f.Err
	}
	return out
}
