// Package retry retries operations that fail transiently.
//
// Do retries a function until it succeeds or the attempts run out:
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//	    return client.DeployProxy(ctx, serviceID)
//	}, retry.WithMaxAttempts(5))
//
// Until retries while a successful result is not yet acceptable, which is
// how eventually consistent gateway behavior is checked:
//
//	codes, err := retry.Until(ctx, fire, stable,
//	    retry.WithBackoff(retry.Fibonacci),
//	    retry.WithMaxAttempts(8),
//	    retry.WithJitter(0),
//	)
//
// Errors wrapped with Permanent stop retrying immediately. RetryIf limits
// retries to matching errors.
package retry
