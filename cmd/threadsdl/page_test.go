package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadsdl/pkg/config"
	"threadsdl/pkg/engine"
	"threadsdl/pkg/logger"
	"threadsdl/pkg/metadata"
	"threadsdl/pkg/models"
	"threadsdl/pkg/settings"
)

const snapshot = `<html><body><a href="/@john/post/ABC">3h</a></body></html>`

func TestLoadPageFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feed.html")
	require.NoError(t, os.WriteFile(path, []byte(snapshot), 0644))

	doc, err := loadPage(context.Background(), config.DefaultConfig(), logger.NewNopLogger(), path, "")
	require.NoError(t, err)
	assert.Equal(t, defaultLocation, doc.Location())
	assert.Equal(t, "https://www.threads.net/@john/post/ABC", doc.ResolveURL("/@john/post/ABC"))

	_, err = loadPage(context.Background(), config.DefaultConfig(), logger.NewNopLogger(), filepath.Join(t.TempDir(), "missing.html"), "")
	assert.Error(t, err)
}

func TestLoadPageFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(snapshot))
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Download.RetryAttempts = 1
	doc, err := loadPage(context.Background(), cfg, logger.NewNopLogger(), srv.URL+"/@john/post/ABC", "")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/@john/post/ABC", doc.Location())
	assert.NotNil(t, doc.Body())
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultConfig()

	store, err := openStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &settings.MemoryStore{}, store)
	require.NoError(t, store.Close())

	cfg.Settings.Backend = "sqlite"
	cfg.Settings.Path = filepath.Join(t.TempDir(), "settings.db")
	store, err = openStore(ctx, cfg)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Set(ctx, settings.KeyAddPrefix, "false"))
	v, ok, err := store.Get(ctx, settings.KeyAddPrefix)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "false", v)
}

func TestCheckpointAndSidecars(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Download.BaseDirectory = t.TempDir()
	s := &session{page: defaultLocation, cfg: cfg, log: logger.NewNopLogger()}
	require.NoError(t, os.MkdirAll(s.downloadDir(), 0755))

	info := &models.PostInfo{Username: "john", PostID: "p1-id"}
	first := engine.Item{Media: models.NewMediaItem(models.MediaTypeVideo, "https://cdn.example/a.mp4", "", nil), Filename: "threads_john-p1-id-1.mp4"}
	second := engine.Item{Media: models.NewMediaItem(models.MediaTypeImage, "https://cdn.example/b.jpg", "", nil), Filename: "threads_john-p1-id-2.jpg"}
	post := engine.Discovered{Info: info, Items: []engine.Item{first, second}}

	found, cp, err := skipDownloaded(s, []engine.Discovered{post})
	require.NoError(t, err)
	require.Len(t, found[0].Items, 2)

	path := filepath.Join(s.downloadDir(), first.Filename)
	require.NoError(t, os.WriteFile(path, []byte("video"), 0644))
	sidecars = true
	defer func() { sidecars = false }()
	recordSaved(s, cp, post, first, path)

	meta, err := metadata.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/a.mp4", meta.URL)
	assert.Equal(t, defaultLocation, meta.Page)

	post.Items = []engine.Item{first, second}
	found, _, err = skipDownloaded(s, []engine.Discovered{post})
	require.NoError(t, err)
	require.Len(t, found[0].Items, 1)
	assert.Equal(t, second.Filename, found[0].Items[0].Filename)
}
