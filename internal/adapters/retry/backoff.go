package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
)

// BackoffConfig describes an exponential backoff: the wait doubles from
// InitialInterval, is capped at MaxInterval, and at most MaxRetries retries
// follow the first attempt.
type BackoffConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxRetries      int
}

// HTTPConfig is the policy used for chat completion requests.
func HTTPConfig() BackoffConfig {
	return BackoffConfig{
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		MaxRetries:      3,
	}
}

// Backoff builds the go-retry policy for cfg
func (cfg BackoffConfig) Backoff() retry.Backoff {
	base := cfg.InitialInterval
	if base <= 0 {
		base = time.Millisecond
	}
	b := retry.NewExponential(base)
	if cfg.MaxInterval > 0 {
		b = retry.WithCappedDuration(cfg.MaxInterval, b)
	}
	return retry.WithMaxRetries(uint64(max(cfg.MaxRetries, 0)), b)
}

func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		// IsNotFound indicates a definitive NXDOMAIN, which shouldn't be retried
		return !dnsErr.IsNotFound
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
		if errors.Is(opErr.Err, syscall.ECONNRESET) {
			return true
		}
		if errors.Is(opErr.Err, syscall.EPIPE) {
			return true
		}
	}

	return false
}

func IsRetryableHTTPStatus(statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}

	if statusCode >= 500 && statusCode < 600 {
		return true
	}

	return statusCode == http.StatusRequestTimeout
}

// ShouldRetry decides from an attempt's outcome. A response status takes
// precedence over the error describing it.
func ShouldRetry(err error, statusCode int) bool {
	if statusCode >= 400 {
		return IsRetryableHTTPStatus(statusCode)
	}
	return IsRetryableError(err)
}

// WithBackoffHTTP runs fn until it reports a 2xx status, a non-retryable
// outcome, or the retry budget is spent. fn returns status 0 when no
// response was received.
func WithBackoffHTTP(ctx context.Context, cfg BackoffConfig, fn func() (int, error)) error {
	var (
		attempt    int
		lastStatus int
		exhausted  bool
	)

	err := retry.Do(ctx, cfg.Backoff(), func(ctx context.Context) error {
		attempt++
		exhausted = false
		statusCode, err := fn()
		lastStatus = statusCode

		if err == nil && statusCode >= 200 && statusCode < 300 {
			return nil
		}

		if !ShouldRetry(err, statusCode) {
			if err != nil {
				return fmt.Errorf("non-retryable error on attempt %d (status %d): %w", attempt, statusCode, err)
			}
			return fmt.Errorf("non-retryable status code %d on attempt %d", statusCode, attempt)
		}

		exhausted = true
		if err == nil {
			err = fmt.Errorf("unexpected status code %d", statusCode)
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return err
	}
	if exhausted {
		return fmt.Errorf("max retries (%d) exceeded (status %d): %w", cfg.MaxRetries, lastStatus, err)
	}
	return err
}
