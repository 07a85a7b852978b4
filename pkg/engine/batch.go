package engine

import (
	"context"

	"threadsdl/pkg/archive"
	"threadsdl/pkg/download"
	"threadsdl/pkg/errors"
	"threadsdl/pkg/filename"
	"threadsdl/pkg/models"
)

// Download requests one discovered item from the download service without
// going through the page
func (e *Engine) Download(ctx context.Context, item Item) download.Result {
	res := e.downloads.Request(ctx, item.Media.URL, item.Filename)
	if !res.Success {
		e.log.WithFields(map[string]interface{}{"filename": item.Filename, "error": res.Error}).Warn("Download failed")
	}
	return res
}

// ArchivePost packs every item of post into one ZIP and saves it. The
// archive result lists the items that were left out.
func (e *Engine) ArchivePost(ctx context.Context, post Discovered, progress archive.Progress) (download.Result, *archive.Result, error) {
	entries := make([]archive.Entry, len(post.Items))
	for i, item := range post.Items {
		entries[i] = archive.Entry{URL: item.Media.URL, Filename: item.Filename}
	}

	res, err := e.archiver.Build(ctx, entries, progress)
	if err != nil {
		return download.Result{}, nil, err
	}

	name := filename.GenerateZip(post.Info, e.Settings().AddPrefix, models.ScopeAll)
	saved := e.downloads.SaveBlob(ctx, name, res.Data)
	if !saved.Success {
		return saved, res, errors.New(errors.ErrorTypeArchive, "failed to save "+name+": "+saved.Error)
	}
	return saved, res, nil
}
