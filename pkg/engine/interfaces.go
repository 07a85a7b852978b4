package engine

import (
	"context"

	"threadsdl/pkg/archive"
	"threadsdl/pkg/download"
)

// Archiver packs several media files into one ZIP
type Archiver interface {
	Build(ctx context.Context, entries []archive.Entry, progress archive.Progress) (*archive.Result, error)
}

// Downloader is the download service as seen by the engine
type Downloader = download.Service
