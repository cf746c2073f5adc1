package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/animus-labs/facetview/internal/domain"
)

// PostgresService maps each destination prefix to a 64-bit advisory lock
// key. Advisory locks are session-scoped, so every acquisition pins one
// dedicated connection until release; that gives cross-process mutual
// exclusion for publishes sharing a destination.
type PostgresService struct {
	db *sql.DB
}

func NewPostgresService(db *sql.DB) (*PostgresService, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	return &PostgresService{db: db}, nil
}

func (s *PostgresService) Acquire(ctx context.Context, prefix string, timeout time.Duration) (Handle, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, &domain.LockError{Prefix: prefix, Err: err}
	}

	key := advisoryKey(prefix)
	acquireCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := conn.ExecContext(acquireCtx, "SELECT pg_advisory_lock($1)", key); err != nil {
		_ = conn.Close()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timeout after %s: %w", timeout, err)
		}
		return nil, &domain.LockError{Prefix: prefix, Err: err}
	}

	return &postgresHandle{conn: conn, key: key}, nil
}

type postgresHandle struct {
	conn *sql.Conn
	key  int64
	once sync.Once
}

func (h *postgresHandle) Release(ctx context.Context) error {
	var err error
	h.once.Do(func() {
		_, unlockErr := h.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", h.key)
		closeErr := h.conn.Close()
		if unlockErr != nil {
			err = fmt.Errorf("unlock: %w", unlockErr)
			return
		}
		err = closeErr
	})
	return err
}

func advisoryKey(prefix string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(prefix))
	return int64(h.Sum64())
}
