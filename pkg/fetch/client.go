// Package fetch retrieves media bytes from the CDN the way the page would,
// with browser-like headers, per-host rate limiting and retries.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"threadsdl/pkg/config"
	"threadsdl/pkg/errors"
	"threadsdl/pkg/logger"
	"threadsdl/pkg/ratelimit"
	"threadsdl/pkg/retry"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"
	DefaultReferer   = "https://www.threads.net/"
	DefaultTimeout   = 60 * time.Second

	// MaxMediaSize caps a single response body
	MaxMediaSize = 1 << 30
)

// Fetcher returns the body of a media URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Client is an HTTP media client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger
}

// Options configure a Client. Zero values select defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Referer   string
	Limiter   ratelimit.Limiter
	Retry     *retry.Config
	Logger    logger.Logger
}

// OptionsFromConfig maps the download section of the configuration
func OptionsFromConfig(cfg *config.DownloadConfig, log logger.Logger) Options {
	opts := Options{
		Timeout:   cfg.DownloadTimeout,
		UserAgent: cfg.UserAgent,
		Referer:   cfg.Referer,
		Limiter:   ratelimit.NewHostLimiter(cfg.RequestsPerMinute, time.Minute, cfg.BurstSize),
		Logger:    log,
	}
	if cfg.RetryAttempts > 0 {
		opts.Retry = &retry.Config{MaxAttempts: cfg.RetryAttempts, Logger: log}
		if cfg.RetryDelay > 0 {
			opts.Retry.Backoff = &retry.ExponentialBackoff{
				BaseDelay:    cfg.RetryDelay,
				MaxDelay:     30 * cfg.RetryDelay,
				Multiplier:   2.0,
				JitterFactor: 0.1,
			}
		}
	}
	return opts
}

// New creates a client
func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Referer == "" {
		opts.Referer = DefaultReferer
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.NewHostLimiter(0, 0, 1)
	}
	if opts.Retry == nil {
		opts.Retry = retry.DefaultConfig()
	}
	if opts.Retry.Logger == nil {
		opts.Retry.Logger = log
	}

	return &Client{
		httpClient: &http.Client{Timeout: opts.Timeout},
		headers: map[string]string{
			"User-Agent":      opts.UserAgent,
			"Referer":         opts.Referer,
			"Accept":          "image/avif,image/webp,image/apng,video/*,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
			"Sec-Fetch-Dest":  "empty",
			"Sec-Fetch-Mode":  "cors",
			"Sec-Fetch-Site":  "cross-site",
		},
		limiter: opts.Limiter,
		retry:   opts.Retry,
		logger:  log.WithField("component", "fetch"),
	}
}

// SetHeader sets a custom request header
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// Fetch downloads url, retrying transient failures
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, errors.New(errors.ErrorTypeNotFound, fmt.Sprintf("cannot fetch %q outside the page", truncate(url)))
	}
	return retry.DoWithResult(ctx, func() ([]byte, error) {
		return c.fetchOnce(ctx, url)
	}, c.retry)
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, ratelimit.HostOf(url)); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeUnknown, "failed to create request", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.DebugWithFields("HTTP request failed", map[string]interface{}{
			"url":      truncate(url),
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, errors.Wrap(errors.ErrorTypeNetwork, "request failed", err)
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxMediaSize))
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, "failed to read response body", err)
	}

	c.logger.DebugWithFields("Fetched media", map[string]interface{}{
		"url":      truncate(url),
		"size":     len(data),
		"duration": time.Since(start),
	})
	return data, nil
}

// checkResponseStatus maps HTTP failures onto typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return &errors.Error{Type: errors.ErrorTypeNotFound, Message: "media not found", Code: code}
	case code == http.StatusForbidden:
		// expired signed CDN links answer 403
		return &errors.Error{Type: errors.ErrorTypeNotFound, Message: "media link expired", Code: code}
	case code == http.StatusTooManyRequests:
		c.logger.WarnWithFields("Rate limit exceeded", map[string]interface{}{
			"status": code,
			"url":    truncate(resp.Request.URL.String()),
		})
		return &errors.Error{Type: errors.ErrorTypeRateLimit, Message: "rate limit exceeded", Code: code}
	case code >= 500:
		return &errors.Error{Type: errors.ErrorTypeServerError, Message: "server error", Code: code}
	default:
		return &errors.Error{Type: errors.ErrorTypeUnknown, Message: fmt.Sprintf("unexpected status code: %d", code), Code: code}
	}
}

func truncate(url string) string {
	if len(url) > 120 {
		return url[:120] + "..."
	}
	return url
}
