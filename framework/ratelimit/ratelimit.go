// Package ratelimit drives the leaky bucket scenario of the APIcast
// rate_limit policy: bursts of simultaneous requests from two applications
// are fired until the gateway behaves consistently, then judged.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/3scale-qe/testsuite/test/framework/concurrent"
	"github.com/3scale-qe/testsuite/test/framework/gateway"
	"github.com/3scale-qe/testsuite/test/framework/retry"
)

// TotalRequests is the size of one burst.
const TotalRequests = 6

// Defaults of RetryUntilStable
const (
	DefaultAttempts = 8
	DefaultUnit     = time.Second
	RequestPath     = "/get"
)

// Getter sends a GET request through the gateway.
type Getter interface {
	Get(ctx context.Context, path string) (*gateway.Response, error)
}

// Fire sends total GET requests alternating between c1 and c2 on total+1
// workers released together. Status codes are returned in request order.
func Fire(ctx context.Context, c1, c2 Getter, total int) ([]int, error) {
	clients := make([]Getter, total)
	for i := range clients {
		if i%2 == 0 {
			clients[i] = c1
		} else {
			clients[i] = c2
		}
	}
	return concurrent.Burst(ctx, clients, total+1, func(ctx context.Context, c Getter) (int, error) {
		resp, err := c.Get(ctx, RequestPath)
		if err != nil {
			return 0, err
		}
		return resp.StatusCode, nil
	})
}

// Stable reports whether codes show the expected behavior: at least one
// rejection when the limit applies, only successes otherwise.
func Stable(applied bool) func(codes []int) bool {
	return func(codes []int) bool {
		if applied {
			return count(codes, http.StatusTooManyRequests) > 0
		}
		return count(codes, http.StatusOK) == len(codes)
	}
}

// Option configures RetryUntilStable.
type Option func(*options)

type options struct {
	attempts int
	unit     time.Duration
	total    int
	logger   *slog.Logger
}

// WithAttempts sets how many bursts are fired at most.
func WithAttempts(n int) Option {
	return func(o *options) { o.attempts = n }
}

// WithUnit sets the Fibonacci backoff unit.
func WithUnit(d time.Duration) Option {
	return func(o *options) { o.unit = d }
}

// WithTotal sets the burst size.
func WithTotal(n int) Option {
	return func(o *options) { o.total = n }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// RetryUntilStable fires bursts with Fibonacci backoff and no jitter until
// Stable(applied) holds or the attempts run out. The status codes of the
// last burst are returned in both cases; running out of attempts is not an
// error, Verify decides the outcome.
func RetryUntilStable(ctx context.Context, c1, c2 Getter, applied bool, opts ...Option) ([]int, error) {
	o := &options{attempts: DefaultAttempts, unit: DefaultUnit, total: TotalRequests, logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	codes, err := retry.Until(ctx, func(ctx context.Context) ([]int, error) {
		return Fire(ctx, c1, c2, o.total)
	}, Stable(applied),
		retry.WithBackoff(retry.Fibonacci),
		retry.WithMaxAttempts(o.attempts),
		retry.WithInitialDelay(o.unit),
		retry.WithMaxDelay(0),
		retry.WithJitter(0),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			o.logger.Debug("rate limit not stable yet", "attempt", attempt, "delay", delay, "error", err)
		}),
	)
	if err != nil && !retry.IsConditionNotMet(err) {
		return codes, err
	}
	return codes, nil
}

// Verify checks the final status codes: with the limit applied at least two
// requests pass and at least one is rejected, otherwise all pass.
func Verify(applied bool, codes []int) error {
	ok := count(codes, http.StatusOK)
	if applied {
		rejected := count(codes, http.StatusTooManyRequests)
		if ok < 2 || rejected < 1 {
			return fmt.Errorf("expected at least 2 successful and 1 rejected request, got %d and %d: %v", ok, rejected, codes)
		}
		return nil
	}
	if ok != len(codes) {
		return fmt.Errorf("expected all %d requests to succeed, got %d: %v", len(codes), ok, codes)
	}
	return nil
}

func count(codes []int, code int) int {
	n := 0
	for _, c := range codes {
		if c == code {
			n++
		}
	}
	return n
}
