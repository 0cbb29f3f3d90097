package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Retry defaults: three attempts with a linear 1s, 2s wait between them.
const (
	DefaultAttempts  = 3
	DefaultRetryStep = time.Second
)

// StatusError is an unexpected HTTP status returned by a provider API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Body)
}

// CheckStatus returns a *StatusError for any non-2xx response.  The body
// is read (up to 512 bytes) into the error for logging.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
}

// IsRetryable reports whether err is a transient network failure or a 5xx
// response.  Everything else (4xx, decode errors) fails immediately.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNABORTED) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// linearBackOff waits step, 2*step, 3*step...
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.step
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

// Retrier configures Retry.  The zero value uses the defaults.
type Retrier struct {
	Attempts int
	Step     time.Duration
	// Timer replaces the real timer, tests use it to skip waiting.
	Timer backoff.Timer
	// Notify is called before each wait with the error and the delay.
	Notify func(err error, wait time.Duration)
}

// Retry runs op until it succeeds, fails with a non-retryable error, the
// attempts are exhausted or ctx is done.  The last error is returned
// unwrapped.
func Retry[T any](ctx context.Context, r Retrier, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	step := r.Step
	if step <= 0 {
		step = DefaultRetryStep
	}

	var out T
	operation := func() error {
		v, err := op(ctx)
		if err != nil {
			if !IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = v
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(&linearBackOff{step: step}, uint64(attempts-1)), ctx)
	var notify backoff.Notify
	if r.Notify != nil {
		notify = r.Notify
	}
	if err := backoff.RetryNotifyWithTimer(operation, b, notify, r.Timer); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
