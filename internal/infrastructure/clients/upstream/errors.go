package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Shivhare-Ayush/Axxess-Hackathon/pkg/retry"
)

// Failure kinds reported in logs and metrics
const (
	KindTransport = "transport"
	KindTimeout   = "timeout"
	KindCanceled  = "canceled"
	KindStatus    = "status"
	KindDecode    = "decode"
)

// StatusError is returned for any non-2xx response
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
	retryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s returned status %d", e.Endpoint, e.StatusCode)
}

// RetryAfter exposes the server's Retry-After hint to pkg/retry
func (e *StatusError) RetryAfter() time.Duration {
	return e.retryAfter
}

// Temporary reports whether the status is worth retrying (429 or 5xx)
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// DecodeError wraps a malformed response body
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Kind classifies err for structured logging
func Kind(err error) string {
	var se *StatusError
	var de *DecodeError
	var ne net.Error
	switch {
	case err == nil:
		return ""
	case errors.As(err, &se):
		return KindStatus
	case errors.As(err, &de):
		return KindDecode
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &ne) && ne.Timeout():
		return KindTimeout
	default:
		return KindTransport
	}
}

// Retryable marks errors that should not be retried as permanent: non-temporary
// statuses, decode failures and cancellation.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	var se *StatusError
	if errors.As(err, &se) && !se.Temporary() {
		return retry.Permanent(err)
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return retry.Permanent(err)
	}
	if errors.Is(err, context.Canceled) {
		return retry.Permanent(err)
	}
	return err
}

// ParseRetryAfter accepts either delay-seconds or an HTTP date.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
