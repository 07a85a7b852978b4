// Package ratelimit spaces out requests to each media host.
package ratelimit

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates requests per host
type Limiter interface {
	// Allow reports whether a request to host may proceed now
	Allow(host string) bool
	// Wait blocks until a request to host may proceed or ctx is done
	Wait(ctx context.Context, host string) error
}

// HostLimiter keeps one token bucket per host
type HostLimiter struct {
	mu    sync.Mutex
	hosts map[string]*rate.Limiter
	r     rate.Limit
	b     int
}

// NewHostLimiter allows requests per duration per host with the given burst.
// A non-positive request count disables limiting.
// Example: NewHostLimiter(60, time.Minute, 5) -> one request per second per
// host, five in a row
func NewHostLimiter(requests int, per time.Duration, burst int) *HostLimiter {
	r := rate.Inf
	if requests > 0 && per > 0 {
		r = rate.Every(per / time.Duration(requests))
	}
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		hosts: make(map[string]*rate.Limiter),
		r:     r,
		b:     burst,
	}
}

func (l *HostLimiter) limiter(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.hosts[host]
	if !ok {
		lim = rate.NewLimiter(l.r, l.b)
		l.hosts[host] = lim
	}
	return lim
}

// Allow implements Limiter
func (l *HostLimiter) Allow(host string) bool {
	return l.limiter(host).Allow()
}

// Wait implements Limiter
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	return l.limiter(host).Wait(ctx)
}

// Hosts returns how many hosts have been seen
func (l *HostLimiter) Hosts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hosts)
}

// HostOf returns the host of rawURL, or rawURL itself when it does not parse
func HostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
