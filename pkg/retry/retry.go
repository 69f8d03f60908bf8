// Package retry re-runs a unit of work that lost an optimistic-concurrency
// race. The unit must re-read, re-validate and re-apply from scratch on every
// attempt; it is never a replay of stale state.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopworks/order-service/pkg/database"
)

// ExhaustedError is returned once every attempt ended in a conflict.
type ExhaustedError struct {
	Attempts int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed to process operation after %d attempts due to concurrent modifications", e.Attempts)
}

type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Log         *slog.Logger
}

// Default matches the service-wide policy: three attempts with a linearly
// growing delay (attempt x 100ms) to spread out re-collisions.
func Default(log *slog.Logger) Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, Log: log}
}

// Do runs op until it returns nil or a non-conflict error. Conflicts are
// retried up to MaxAttempts; the backoff sleep honours ctx cancellation.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil || !errors.Is(err, database.ErrConflict) {
			return err
		}
		if attempt >= p.MaxAttempts {
			return &ExhaustedError{Attempts: p.MaxAttempts}
		}
		if p.Log != nil {
			p.Log.Warn("retrying after optimistic lock conflict", "attempt", attempt)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * p.BaseDelay):
		}
	}
}
