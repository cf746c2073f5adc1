// Package publish makes a staged view generation visible atomically, under
// the destination-prefix lock.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/animus-labs/facetview/internal/domain"
	"github.com/animus-labs/facetview/internal/lock"
)

// Swapper atomically replaces the visible content of a live prefix with the
// staged content. A failed swap must leave the live prefix exactly as it
// was.
type Swapper interface {
	Swap(ctx context.Context, staged, live string) error
}

type Coordinator struct {
	locks       lock.Service
	swapper     Swapper
	logger      *slog.Logger
	lockTimeout time.Duration
}

func NewCoordinator(locks lock.Service, swapper Swapper, logger *slog.Logger, lockTimeout time.Duration) (*Coordinator, error) {
	if locks == nil {
		return nil, fmt.Errorf("lock service is required")
	}
	if swapper == nil {
		return nil, fmt.Errorf("swapper is required")
	}
	if lockTimeout <= 0 {
		return nil, fmt.Errorf("lock timeout must be positive")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{locks: locks, swapper: swapper, logger: logger, lockTimeout: lockTimeout}, nil
}

// Publish acquires the lock for the live prefix, swaps the staged content
// into place, and releases the lock on every path. The lock is held only
// around the swap, not the whole write phase.
func (c *Coordinator) Publish(ctx context.Context, staged, live string) (err error) {
	handle, err := c.locks.Acquire(ctx, live, c.lockTimeout)
	if err != nil {
		var lockErr *domain.LockError
		if errors.As(err, &lockErr) {
			return err
		}
		return &domain.LockError{Prefix: live, Err: err}
	}
	c.logger.Info("publish lock acquired", "prefix", live)

	defer func() {
		// Release must happen even when the run context is already gone.
		releaseCtx := context.WithoutCancel(ctx)
		if relErr := handle.Release(releaseCtx); relErr != nil {
			c.logger.Error("publish lock release failed", "prefix", live, "error", relErr)
			if err == nil {
				err = &domain.LockError{Prefix: live, Err: relErr}
			}
			return
		}
		c.logger.Info("publish lock released", "prefix", live)
	}()

	if swapErr := c.swapper.Swap(ctx, staged, live); swapErr != nil {
		return &domain.PublishError{Err: swapErr}
	}
	c.logger.Info("view published", "staged", staged, "live", live)
	return nil
}
