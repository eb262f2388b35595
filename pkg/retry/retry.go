// Package retry bounds repeated backend calls with exponential backoff.
// The document store's connect path uses it to ride out a Cloudant instance
// that drops a request mid-scaling, without hammering the service. Callers
// mark errors that must not be retried, such as rejected credentials, with
// NonRetryable; Do stops on those immediately.
//
// All functions are safe for concurrent use. Backoff respects context
// cancellation both between attempts and during the delay.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// shared jitter source, guarded because components connect concurrently
var (
	randMu  sync.Mutex
	randSrc = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// Config bounds one retried operation.
type Config struct {
	MaxAttempts  int           // total attempts including the first; 0 means one
	InitialDelay time.Duration // delay before the second attempt
	MaxDelay     time.Duration // cap on the growing delay
	Multiplier   float64       // delay growth factor per attempt
	AddJitter    bool          // spread delays by up to 25% to avoid lockstep
}

// DefaultConfig suits ordinary backend calls.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 5 * time.Second
	}
	if c.MaxDelay < c.InitialDelay {
		c.MaxDelay = c.InitialDelay
	}
	if c.Multiplier < 1 {
		c.Multiplier = 2.0
	}
	return c
}

// NonRetryableError marks a failure that retrying cannot fix.
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("non-retryable: %v", e.Err)
}

func (e *NonRetryableError) Unwrap() error {
	return e.Err
}

// NonRetryable wraps an error so Do gives up on it immediately.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetryableError{Err: err}
}

// IsNonRetryable reports whether err carries the non-retryable marker.
func IsNonRetryable(err error) bool {
	var nre *NonRetryableError
	return errors.As(err, &nre)
}

// Do runs fn until it succeeds, the attempts are spent, the error is marked
// non-retryable, or the context ends. A non-retryable error is returned
// unwrapped so IsNonRetryable still holds at the call site; an exhausted
// budget returns the last error wrapped with the attempt count.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	cfg = cfg.withDefaults()

	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("attempt %d aborted: %w", attempt, err)
		}

		err := fn()
		if err == nil {
			return nil
		}
		if IsNonRetryable(err) {
			return err
		}
		lastErr = err

		if attempt == cfg.MaxAttempts {
			break
		}

		wait := delay
		if cfg.AddJitter {
			wait += jitter(delay / 4)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("backoff before attempt %d aborted: %w", attempt+1, ctx.Err())
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay || delay < 0 {
			delay = cfg.MaxDelay
		}
	}

	return fmt.Errorf("gave up after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	randMu.Lock()
	defer randMu.Unlock()
	return time.Duration(randSrc.Int63n(int64(max)))
}
