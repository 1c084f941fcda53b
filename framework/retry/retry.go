package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Default retry configuration values
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 1 * time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultMultiplier   = 2.0
	DefaultJitter       = 0.1
)

// ErrConditionNotMet is returned by Until when attempts ran out before the
// result satisfied the condition
var ErrConditionNotMet = errors.New("condition not met")

// Backoff returns the delay to wait after the given failed attempt (1-based).
type Backoff func(attempt int, cfg *Config) time.Duration

// Exponential grows the delay by Multiplier after every attempt.
func Exponential(attempt int, cfg *Config) time.Duration {
	if attempt <= 1 {
		return cfg.InitialDelay
	}
	return time.Duration(float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1)))
}

// Fibonacci waits InitialDelay times the attempt-th Fibonacci number
// (1, 1, 2, 3, 5, 8, ...).
func Fibonacci(attempt int, cfg *Config) time.Duration {
	a, b := 1, 1
	for i := 1; i < attempt; i++ {
		a, b = b, a+b
	}
	return time.Duration(a) * cfg.InitialDelay
}

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (including the first)
	MaxAttempts int

	// InitialDelay is the base unit of the backoff
	InitialDelay time.Duration

	// MaxDelay caps a single delay
	MaxDelay time.Duration

	// Multiplier is used by Exponential
	Multiplier float64

	// Jitter adds randomness to the delay (0.0-1.0, as a fraction of delay)
	Jitter float64

	// Backoff computes delays, Exponential if nil
	Backoff Backoff

	// RetryIf is a function that determines if an error should be retried
	// If nil, all errors are retried
	RetryIf func(error) bool

	// OnRetry is called before each retry with the attempt number and error
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
		Multiplier:   DefaultMultiplier,
		Jitter:       DefaultJitter,
		Backoff:      Exponential,
	}
}

// Option is a function that modifies Config
type Option func(*Config)

// WithMaxAttempts sets the maximum number of attempts
func WithMaxAttempts(n int) Option {
	return func(c *Config) {
		c.MaxAttempts = n
	}
}

// WithInitialDelay sets the initial delay
func WithInitialDelay(d time.Duration) Option {
	return func(c *Config) {
		c.InitialDelay = d
	}
}

// WithMaxDelay sets the maximum delay
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = d
	}
}

// WithMultiplier sets the backoff multiplier
func WithMultiplier(m float64) Option {
	return func(c *Config) {
		c.Multiplier = m
	}
}

// WithJitter sets the jitter factor
func WithJitter(j float64) Option {
	return func(c *Config) {
		c.Jitter = j
	}
}

// WithBackoff sets the delay strategy
func WithBackoff(b Backoff) Option {
	return func(c *Config) {
		c.Backoff = b
	}
}

// WithRetryIf sets the retry predicate function
func WithRetryIf(fn func(error) bool) Option {
	return func(c *Config) {
		c.RetryIf = fn
	}
}

// WithOnRetry sets the retry callback function
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(c *Config) {
		c.OnRetry = fn
	}
}

// PermanentError wraps an error to indicate it should not be retried
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps an error to mark it as permanent (non-retryable)
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent returns true if the error is marked as permanent
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

func newConfig(opts []Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Backoff == nil {
		cfg.Backoff = Exponential
	}
	return cfg
}

// delay computes the wait after attempt, capped and jittered.
func (c *Config) delay(attempt int) time.Duration {
	d := c.Backoff(attempt, c)
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	if c.Jitter > 0 {
		jitterRange := float64(d) * c.Jitter
		d = time.Duration(float64(d) + (rand.Float64()*2-1)*jitterRange)
	}
	return d
}

// Do executes the function with retries according to the configuration
func Do(ctx context.Context, fn func(ctx context.Context) error, opts ...Option) error {
	cfg := newConfig(opts)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var pe *PermanentError
		if errors.As(lastErr, &pe) {
			return pe.Err
		}

		if cfg.RetryIf != nil && !cfg.RetryIf(lastErr) {
			return lastErr
		}

		if attempt >= cfg.MaxAttempts {
			break
		}

		d := cfg.delay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr, d)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}

	return lastErr
}

// DoWithData executes the function with retries and returns a result
func DoWithData[T any](ctx context.Context, fn func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var result T
	err := Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	}, opts...)
	return result, err
}

// Until calls fn until done accepts its result. Errors from fn are retried
// like in Do. When attempts run out the last result is returned together
// with ErrConditionNotMet.
func Until[T any](ctx context.Context, fn func(ctx context.Context) (T, error), done func(T) bool, opts ...Option) (T, error) {
	var last T
	attempts := 0
	err := Do(ctx, func(ctx context.Context) error {
		attempts++
		result, err := fn(ctx)
		if err != nil {
			return err
		}
		last = result
		if !done(result) {
			return errNotDone
		}
		return nil
	}, opts...)

	if errors.Is(err, errNotDone) {
		return last, fmt.Errorf("%w after %d attempts", ErrConditionNotMet, attempts)
	}
	return last, err
}

var errNotDone = errors.New("not done")

// IsConditionNotMet returns true if Until ran out of attempts
func IsConditionNotMet(err error) bool {
	return errors.Is(err, ErrConditionNotMet)
}
