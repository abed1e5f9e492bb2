package resilience

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/ics-search-engine/pkg/errors"
)

// WithTimeout runs fn under a context that expires after timeout. A
// non-positive timeout runs fn under ctx unchanged. An expired deadline is
// reported as both apperrors.ErrTimeout and context.DeadlineExceeded, even
// when fn itself ignores cancellation; cancellation of ctx is reported as is.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(tctx) }()

	var err error
	select {
	case err = <-done:
		if err == nil || tctx.Err() == nil {
			return err
		}
	case <-tctx.Done():
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", name, ctx.Err())
	}
	return fmt.Errorf("%s: %w after %v: %w", name, apperrors.ErrTimeout, timeout, context.DeadlineExceeded)
}
