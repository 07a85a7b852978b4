package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadsdl/pkg/config"
	"threadsdl/pkg/logger"
)

func newService(t *testing.T, log logger.Logger) *LocalService {
	t.Helper()
	cfg := config.DefaultConfig().Download
	cfg.BaseDirectory = t.TempDir()
	cfg.RetryAttempts = 1

	s, err := NewLocalService(&cfg, nil, log)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func cdn(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("payload" + r.URL.Path))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestRequestWritesIntoThreadsFolder(t *testing.T) {
	log := logger.NewTestLogger()
	s := newService(t, log)
	server := cdn(t)

	res := s.Request(context.Background(), server.URL+"/v1.mp4", "threads_john-ABC-1.mp4")
	require.True(t, res.Success, res.Error)
	_, err := uuid.Parse(res.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Threads", filepath.Base(filepath.Dir(res.Path)))

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "payload/v1.mp4", string(data))
	assert.True(t, log.HasMessage("Download started"))
}

func TestRequestReportsFailure(t *testing.T) {
	log := logger.NewTestLogger()
	s := newService(t, log)
	server := cdn(t)

	res := s.Request(context.Background(), server.URL+"/missing.jpg", "threads_image_1.jpg")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.ID)
	assert.Contains(t, res.Error, "not_found")
	var failed int
	for _, m := range log.GetMessages() {
		if m.Message == "Download failed" {
			failed++
		}
	}
	assert.Equal(t, 1, failed, "one result line per request")

	res = s.Request(context.Background(), "blob:https://www.threads.net/abc", "threads_video_1.mp4")
	assert.False(t, res.Success)
}

func TestConcurrentRequests(t *testing.T) {
	s := newService(t, nil)
	server := cdn(t)

	results := make(chan Result, 6)
	for i := 0; i < 6; i++ {
		go func() {
			results <- s.Request(context.Background(), server.URL+"/same.jpg", "threads_same.jpg")
		}()
	}

	paths := make(map[string]bool)
	for i := 0; i < 6; i++ {
		r := <-results
		require.True(t, r.Success, r.Error)
		paths[r.Path] = true
	}
	assert.Len(t, paths, 6, "every download lands in its own file")
}

func TestSaveBlob(t *testing.T) {
	s := newService(t, nil)

	res := s.SaveBlob(context.Background(), "threads_john-ABC-all.zip", []byte("PK"))
	require.True(t, res.Success, res.Error)
	assert.Equal(t, filepath.Join(s.Dir(), "threads_john-ABC-all.zip"), res.Path)

	res = s.SaveBlob(context.Background(), "..", []byte("PK"))
	assert.False(t, res.Success)
}
