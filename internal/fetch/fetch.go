// Package fetch performs single network operations with bounded retry,
// classifying each failure as terminal or transient.
package fetch

import (
	"errors"
	"fmt"
	"time"
)

// ErrTooManyFailures is returned once the attempt ceiling is reached
// without a success.
var ErrTooManyFailures = errors.New("too many failures")

// ErrUnavailable marks a transient "service unavailable" condition whose
// response body must not be logged (it tends to be a full HTML page).
var ErrUnavailable = errors.New("service unavailable")

// TerminalError wraps an error that must never be retried: the remote
// service rejected the request semantically.
type TerminalError struct {
	Err error
}

func (e *TerminalError) Error() string { return e.Err.Error() }
func (e *TerminalError) Unwrap() error { return e.Err }

// Fetcher retries an operation up to Attempts times, sleeping a fixed
// Delay between tries. There is no backoff growth.
type Fetcher struct {
	Attempts int
	Delay    time.Duration
	Logf     func(format string, v ...any)
}

func (f *Fetcher) logf(format string, v ...any) {
	if f.Logf != nil {
		f.Logf(format, v...)
	}
}

// Do runs op until it succeeds, fails terminally, or the attempt ceiling
// is reached. Every failed attempt emits one diagnostic line.
func (f *Fetcher) Do(op func() error) error {
	attempts := f.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	for attempt := 0; attempt < attempts; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		var term *TerminalError
		if errors.As(err, &term) {
			f.logf("API error: %v", term.Err)
			return err
		}
		if errors.Is(err, ErrUnavailable) {
			// Don't print the error; it carries a big HTML page.
			f.logf("HTTP 503; retrying")
		} else {
			f.logf("HTTP transport error: %v; retrying", err)
		}
		if attempt < attempts-1 && f.Delay > 0 {
			time.Sleep(f.Delay)
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrTooManyFailures, attempts)
}
