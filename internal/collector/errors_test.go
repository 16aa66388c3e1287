package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		statusCode int
		want       string
	}{
		{name: "nil", err: nil, statusCode: 0, want: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, want: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, want: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, want: "connection"},
		{name: "generic network error", err: errors.New("EOF"), want: "connection"},
		{name: "rate limited", err: errors.New("Too Many Requests"), statusCode: http.StatusTooManyRequests, want: "rate_limited"},
		{name: "not found", err: errors.New("Not Found"), statusCode: http.StatusNotFound, want: "status"},
		{name: "server error", statusCode: http.StatusBadGateway, want: "status"},
		{name: "redirects", err: fmt.Errorf("Get \"x\": %w", ErrTooManyRedirects), want: "redirects"},
		{name: "canceled is left alone", err: context.Canceled, want: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Category(classifyError(tt.err, tt.statusCode)))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "timeout", err: ErrTimeout{Err: context.DeadlineExceeded}, want: true},
		{name: "connection", err: ErrConnection{Err: errors.New("reset")}, want: true},
		{name: "rate limited", err: ErrRateLimited{Err: errors.New("429")}, want: true},
		{name: "5xx", err: ErrStatus{StatusCode: 503, Err: errors.New("unavailable")}, want: true},
		{name: "4xx", err: ErrStatus{StatusCode: 404, Err: errors.New("not found")}, want: false},
		{name: "parse", err: ErrParse{Err: errors.New("bad json")}, want: false},
		{name: "redirects", err: ErrTooManyRedirects, want: false},
		{name: "wrapped timeout", err: fmt.Errorf("source x: %w", ErrTimeout{Err: errors.New("slow")}), want: true},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestIsPermanent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "parse", err: ErrParse{Err: errors.New("bad html")}, want: true},
		{name: "4xx", err: ErrStatus{StatusCode: 404, Err: errors.New("not found")}, want: true},
		{name: "wrapped 4xx", err: fmt.Errorf("page 2: %w", ErrStatus{StatusCode: 410, Err: errors.New("gone")}), want: true},
		{name: "5xx", err: ErrStatus{StatusCode: 502, Err: errors.New("bad gateway")}, want: false},
		{name: "429 status", err: ErrStatus{StatusCode: 429, Err: errors.New("slow down")}, want: false},
		{name: "timeout", err: ErrTimeout{Err: context.DeadlineExceeded}, want: false},
		{name: "redirects", err: ErrTooManyRedirects, want: false},
		{name: "plain error", err: errors.New("nil pointer in extractor"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsPermanent(tt.err))
		})
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	assert.True(t, IsFatal(ErrTooManyRedirects))
	assert.True(t, IsFatal(fmt.Errorf("visiting: %w", ErrTooManyRedirects)))
	assert.False(t, IsFatal(ErrTimeout{Err: errors.New("slow")}))
	assert.False(t, IsFatal(nil))
}

func TestErrorMessagesUnwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("inner")
	for _, err := range []error{
		ErrTimeout{Err: inner},
		ErrConnection{Err: inner},
		ErrRateLimited{Err: inner},
		ErrStatus{StatusCode: 500, Err: inner},
		ErrParse{Err: inner},
	} {
		assert.ErrorIs(t, err, inner)
		assert.Contains(t, err.Error(), "inner")
	}
}
