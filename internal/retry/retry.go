// Package retry implements the shared bounded-retry policy: run an
// operation, validate its post-condition, wait a fixed delay and try
// again. Both the list acquisition and the historical batch fetch use it.
package retry

import (
	"context"
	"time"
)

// Options bounds a retry loop. Fixed delay, no backoff: the collaborators
// are interactive sources where a short fixed pause is the observed
// recovery time.
type Options struct {
	Tries int
	Delay time.Duration

	// OnRetry is called after each failed attempt with the 1-based
	// attempt number and its error. Callers use it for operator-visible
	// logging; failures here never abort the loop.
	OnRetry func(attempt int, err error)
}

// Do runs op, then validate when op succeeded. On failure it waits
// Options.Delay and retries, up to Options.Tries total attempts, returning
// nil on the first success or the last error after exhaustion. The wait is
// context-aware; a cancelled context returns ctx.Err().
func Do(ctx context.Context, op func(context.Context) error, validate func() error, opts Options) error {
	tries := opts.Tries
	if tries < 1 {
		tries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= tries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(opts.Delay):
			}
		}

		err := op(ctx)
		if err == nil && validate != nil {
			err = validate()
		}
		if err == nil {
			return nil
		}

		lastErr = err
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, err)
		}
	}
	return lastErr
}
