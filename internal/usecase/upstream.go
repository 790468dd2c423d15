package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"news-chat/internal/domain"
	"news-chat/internal/infra/metrics"
)

// Timeouts bound each collaborator call on the chat path. A zero value leaves
// the call bounded only by the caller's context.
type Timeouts struct {
	Cache    time.Duration
	Embed    time.Duration
	Search   time.Duration
	Generate time.Duration
}

// callUpstream runs fn under its own deadline, records its duration, and
// classifies a failure as kind, or as ErrUpstreamTimeout when the deadline expired.
func callUpstream(ctx context.Context, upstream string, timeout time.Duration, kind error, fn func(ctx context.Context) error) error {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(callCtx)
	metrics.ObserveUpstream(upstream, err, time.Since(start).Seconds())
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", domain.ErrUpstreamTimeout, upstream, err)
	}
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", kind, upstream, err)
}
