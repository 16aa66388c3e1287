package collector

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// RateLimitedTransport is an http.RoundTripper that paces requests per
// host with a token bucket. Requests wait for a token or for their
// context to be canceled.
type RateLimitedTransport struct {
	next      http.RoundTripper
	perSecond rate.Limit
	burst     int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	requests atomic.Int64
}

// NewRateLimitedTransport wraps next (http.DefaultTransport when nil).
// A perSecond of zero or less disables pacing.
func NewRateLimitedTransport(next http.RoundTripper, perSecond float64, burst int) *RateLimitedTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedTransport{
		next:      next,
		perSecond: limit,
		burst:     burst,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// RoundTrip waits for the host's limiter and forwards the request.
func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter(req.URL.Host).Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}
	t.requests.Add(1)
	return t.next.RoundTrip(req)
}

// Requests returns the number of requests forwarded so far.
func (t *RateLimitedTransport) Requests() int64 {
	return t.requests.Load()
}

func (t *RateLimitedTransport) limiter(host string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.limiters[host]
	if !ok {
		l = rate.NewLimiter(t.perSecond, t.burst)
		t.limiters[host] = l
	}
	return l
}
