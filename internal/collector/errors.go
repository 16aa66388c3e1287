package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ErrTooManyRedirects is returned when a page redirects past the limit.
// It is fatal for the whole cycle.
var ErrTooManyRedirects = errors.New("too many redirects")

// ErrUnknownSource is returned by the Registry for an unrecognised source.
var ErrUnknownSource = errors.New("unknown source")

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrRateLimited indicates the source answered 429.
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string {
	return fmt.Errorf("rate_limited: %w", e.Err).Error()
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
}

// ErrStatus is any other non-2xx response.
type ErrStatus struct {
	StatusCode int
	Err        error
}

func (e ErrStatus) Error() string {
	return fmt.Errorf("http status %d: %w", e.StatusCode, e.Err).Error()
}

func (e ErrStatus) Unwrap() error {
	return e.Err
}

// ErrParse indicates the source returned a payload that could not be read.
type ErrParse struct {
	Err error
}

func (e ErrParse) Error() string {
	return fmt.Errorf("parse: %w", e.Err).Error()
}

func (e ErrParse) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a transient transport failure worth
// retrying the whole cycle for.
func IsRetryable(err error) bool {
	if err == nil || IsFatal(err) {
		return false
	}
	var (
		timeout ErrTimeout
		conn    ErrConnection
		limited ErrRateLimited
		status  ErrStatus
	)
	switch {
	case errors.As(err, &timeout), errors.As(err, &conn), errors.As(err, &limited):
		return true
	case errors.As(err, &status):
		return status.StatusCode >= http.StatusInternalServerError
	default:
		return false
	}
}

// IsPermanent reports whether err is a failure confined to one source that
// another attempt would not fix: an unreadable page or a 4xx answer.
func IsPermanent(err error) bool {
	if err == nil || IsFatal(err) {
		return false
	}
	var (
		status ErrStatus
		parse  ErrParse
	)
	switch {
	case errors.As(err, &parse):
		return true
	case errors.As(err, &status):
		return status.StatusCode < http.StatusInternalServerError &&
			status.StatusCode != http.StatusTooManyRequests
	default:
		return false
	}
}

// IsFatal reports whether err must abort retrying.
func IsFatal(err error) bool {
	return errors.Is(err, ErrTooManyRedirects)
}

// Category returns a short metrics label for err.
func Category(err error) string {
	if err == nil {
		return "unknown"
	}
	var (
		timeout ErrTimeout
		conn    ErrConnection
		limited ErrRateLimited
		status  ErrStatus
		parse   ErrParse
	)
	switch {
	case errors.Is(err, ErrTooManyRedirects):
		return "redirects"
	case errors.As(err, &timeout):
		return "timeout"
	case errors.As(err, &conn):
		return "connection"
	case errors.As(err, &limited):
		return "rate_limited"
	case errors.As(err, &status):
		return "status"
	case errors.As(err, &parse):
		return "parse"
	default:
		return "other"
	}
}

// classifyError wraps a raw transport error (and optional HTTP status)
// into the taxonomy above.
func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, ErrTooManyRedirects) || errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = errors.New(http.StatusText(statusCode))
		}
		if statusCode == http.StatusTooManyRequests {
			return ErrRateLimited{Err: wrapped}
		}
		return ErrStatus{StatusCode: statusCode, Err: wrapped}
	}

	return ErrConnection{Err: err}
}
