// =============================================================================
// OC Harvester - Bounded Retry
// =============================================================================
//
// Every call against the public API is wrapped in a fixed number of attempts
// with a fixed pause between them. There is no exponential backoff: the API
// is rate sensitive and the operator wants to read predictable timings in
// the log.
//
// =============================================================================

package retry

import (
	"context"
	"time"
)

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper used outside tests.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NoSleep returns immediately. Tests use it to keep retry loops instant.
func NoSleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// Policy describes how many times to try and how long to wait in between.
type Policy struct {
	// Attempts is the total number of calls, including the first one.
	Attempts int

	// Delay is the pause between two consecutive attempts.
	Delay time.Duration

	// Sleep defaults to Sleep when nil.
	Sleep Sleeper
}

// Result is the outcome of Do.
type Result[T any] struct {
	// Value is the value returned by the successful attempt.
	Value T

	// OK is true when one of the attempts succeeded.
	OK bool

	// Attempts is how many calls were made.
	Attempts int

	// Err is set only when the context ended the loop early.
	Err error
}

// Do calls fn until it reports success or the attempts are used up.
//
// fn receives the 1-based attempt number and returns (value, ok). A false ok
// is a retryable miss. The pause is only taken between attempts, never after
// the last one.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, bool)) Result[T] {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	var res Result[T]
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}

		res.Attempts = attempt
		v, ok := fn(ctx, attempt)
		if ok {
			res.Value = v
			res.OK = true
			return res
		}

		if attempt < attempts {
			if err := sleep(ctx, p.Delay); err != nil {
				res.Err = err
				return res
			}
		}
	}
	return res
}
