// Package retry wraps LLM and embedding services with retries for
// transient failures: rate limits, server errors, timeouts and empty answers.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/url"
	"time"

	"github.com/custodia-labs/taxonomist/internal/core/ports/driven"
	"github.com/custodia-labs/taxonomist/internal/logger"
)

// Default retry settings.
const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultJitter      = 0.2
)

// Option configures a Policy.
type Option func(*Policy)

// WithMaxAttempts overrides the attempt count (defaults to 5).
func WithMaxAttempts(attempts int) Option {
	return func(p *Policy) {
		p.maxAttempts = attempts
	}
}

// WithBackoff overrides the backoff delays.
func WithBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(p *Policy) {
		p.baseDelay = baseDelay
		p.maxDelay = maxDelay
	}
}

// WithJitter sets the fraction of each backoff delay that is randomized
// (defaults to 0.2). A delay d becomes a value in [d*(1-fraction), d].
// Zero disables jitter. Retry-After hints are never jittered.
func WithJitter(fraction float64) Option {
	return func(p *Policy) {
		p.jitter = min(max(fraction, 0), 1)
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(p *Policy) {
		p.sleeper = sleeper
	}
}

// Policy decides whether and when a failed call is retried.
type Policy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
	jitter      float64
	sleeper     func(time.Duration)
}

// NewPolicy creates a policy with defaults overridden by opts.
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		maxDelay:    DefaultMaxDelay,
		jitter:      DefaultJitter,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Do runs fn until it succeeds, fails permanently or attempts run out.
func Do[T any](ctx context.Context, p *Policy, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.attempts()
	var zero T
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}

		delay, retry := p.delay(ctx, err, attempt, attempts)
		if !retry {
			if attempt == 1 {
				return zero, err
			}
			return zero, fmt.Errorf("%s: failed after %d attempts: %w", op, attempt, err)
		}
		logger.Debug("%s: attempt %d/%d failed, retrying in %s: %v", op, attempt, attempts, delay, err)
		if err := p.sleep(ctx, delay); err != nil {
			return zero, err
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = errors.New("unknown retry failure")
	}
	return zero, fmt.Errorf("%s: failed after %d attempts: %w", op, attempts, lastErr)
}

func (p *Policy) attempts() int {
	if p == nil || p.maxAttempts <= 0 {
		return 1
	}
	return p.maxAttempts
}

func (p *Policy) delay(ctx context.Context, err error, attempt, maxAttempts int) (time.Duration, bool) {
	if attempt >= maxAttempts || err == nil {
		return 0, false
	}
	if ctx.Err() != nil {
		return 0, false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}

	if errors.Is(err, driven.ErrEmptyResponse) {
		return p.backoff(attempt), true
	}

	var statusErr *driven.StatusError
	if errors.As(err, &statusErr) {
		if !statusErr.Temporary() {
			return 0, false
		}
		if statusErr.RetryAfter > 0 {
			return p.capDelay(statusErr.RetryAfter), true
		}
		return p.backoff(attempt), true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return p.backoff(attempt), true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return p.backoff(attempt), true
	}

	return 0, false
}

// backoff doubles from the base delay: attempt 1 -> base, 2 -> base*2, ...
// then shaves off up to the jitter fraction so concurrent workers spread out.
func (p *Policy) backoff(attempt int) time.Duration {
	if p.baseDelay <= 0 {
		return 0
	}
	maxDelay := p.maxDelayOrDefault()

	delay := p.baseDelay
	for i := 1; i < max(1, attempt); i++ {
		if delay > maxDelay/2 {
			delay = maxDelay
			break
		}
		delay *= 2
	}
	if p.jitter > 0 {
		delay -= time.Duration(float64(delay) * p.jitter * rand.Float64())
	}
	return p.capDelay(delay)
}

func (p *Policy) capDelay(delay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if maxDelay := p.maxDelayOrDefault(); delay > maxDelay {
		return maxDelay
	}
	return delay
}

func (p *Policy) maxDelayOrDefault() time.Duration {
	if p.maxDelay > 0 {
		return p.maxDelay
	}
	return DefaultMaxDelay
}

func (p *Policy) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.sleeper != nil {
		p.sleeper(delay)
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
