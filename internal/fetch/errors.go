package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// TransientError marks a fetch failure worth retrying: network glitches,
// timeouts, rate limits and server-side errors.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a fetch failure that retrying cannot fix:
// not-found, permission, quota, malformed URLs, unsupported providers.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Transient wraps err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// Permanent wraps err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Permanentf formats a non-retryable error.
func Permanentf(format string, args ...any) error {
	return &PermanentError{Err: fmt.Errorf(format, args...)}
}

// IsTransient reports whether err should be retried. Unclassified errors
// are treated as transient when they look like network failures and
// permanent otherwise, so unknown provider errors are not hammered.
func IsTransient(err error) bool {
	var transient *TransientError
	if errors.As(err, &transient) {
		return true
	}
	var permanent *PermanentError
	if errors.As(err, &permanent) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

// classifyStatus converts a non-2xx HTTP status into the error taxonomy.
func classifyStatus(status int, url string) error {
	err := fmt.Errorf("HTTP %d fetching %s", status, url)
	switch {
	case status == http.StatusTooManyRequests:
		return Transient(err)
	case status >= 500:
		return Transient(err)
	default:
		return Permanent(err)
	}
}
