package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"threadsdl/pkg/config"
	"threadsdl/pkg/errors"
	"threadsdl/pkg/logger"
	"threadsdl/pkg/retry"
)

func testClient(log logger.Logger) *Client {
	return New(Options{
		Retry:  &retry.Config{MaxAttempts: 3, Backoff: &retry.ConstantBackoff{Delay: time.Millisecond}},
		Logger: log,
	})
}

func TestFetchSendsBrowserHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultReferer, r.Header.Get("Referer"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "1", r.Header.Get("X-Custom"))
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	c := testClient(nil)
	c.SetHeader("X-Custom", "1")
	data, err := c.Fetch(context.Background(), server.URL+"/v/t51/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	data, err := testClient(nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchStatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		wantType errors.ErrorType
		attempts int32
	}{
		{http.StatusNotFound, errors.ErrorTypeNotFound, 1},
		{http.StatusForbidden, errors.ErrorTypeNotFound, 1},
		{http.StatusTooManyRequests, errors.ErrorTypeRateLimit, 3},
		{http.StatusBadGateway, errors.ErrorTypeServerError, 3},
		{http.StatusTeapot, errors.ErrorTypeUnknown, 1},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := testClient(nil).Fetch(context.Background(), server.URL)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, errors.TypeOf(err))
			assert.Equal(t, tt.attempts, hits.Load())
		})
	}
}

func TestFetchRejectsPageOnlyURLs(t *testing.T) {
	_, err := testClient(nil).Fetch(context.Background(), "blob:https://www.threads.net/1234")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeNotFound))
}

func TestFetchHonoursCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := testClient(nil).Fetch(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Download
	cfg.RetryAttempts = 5
	cfg.RetryDelay = 10 * time.Millisecond

	opts := OptionsFromConfig(&cfg, nil)
	require.NotNil(t, opts.Retry)
	assert.Equal(t, 5, opts.Retry.MaxAttempts)
	assert.NotNil(t, opts.Limiter)

	log := logger.NewTestLogger()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()
	opts.Logger = log
	_, err := New(opts).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, log.HasMessage("Fetched media"))
}
