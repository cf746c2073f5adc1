// Package lock provides the exclusive, path-prefix-scoped publish lock.
// Publishes targeting the same destination prefix serialize; different
// prefixes never block each other.
package lock

import (
	"context"
	"time"
)

// Handle is a held lock. Release must be safe to call exactly once per
// acquisition and must succeed on both success and failure publish paths.
type Handle interface {
	Release(ctx context.Context) error
}

// Service hands out exclusive locks named by destination path prefix.
// Acquire blocks until the lock is available or the timeout elapses.
type Service interface {
	Acquire(ctx context.Context, prefix string, timeout time.Duration) (Handle, error)
}
