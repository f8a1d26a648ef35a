// Package util provides utility functions for common operations.
package util

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// ContextSleep waits for d on clock. Returns an error if the context is
// cancelled before the sleep completes.
func ContextSleep(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sleep cancelled: %w", err)
	}
	if d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("sleep cancelled: %w", ctx.Err())
	case <-clock.After(d):
		return nil
	}
}

// WrapContextError wraps a context error with a descriptive message.
func WrapContextError(ctx context.Context, operation string) error {
	if ctx.Err() == nil {
		return nil
	}
	return fmt.Errorf("%s cancelled: %w", operation, ctx.Err())
}
