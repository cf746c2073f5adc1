package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/animus-labs/facetview/internal/domain"
)

// MemoryService serializes publishes within one process. Used by tests and
// by single-process deployments that have no Postgres.
type MemoryService struct {
	mu   sync.Mutex
	sems map[string]chan struct{}
}

func NewMemoryService() *MemoryService {
	return &MemoryService{sems: make(map[string]chan struct{})}
}

func (s *MemoryService) sem(prefix string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.sems[prefix]
	if !ok {
		ch = make(chan struct{}, 1)
		s.sems[prefix] = ch
	}
	return ch
}

func (s *MemoryService) Acquire(ctx context.Context, prefix string, timeout time.Duration) (Handle, error) {
	ch := s.sem(prefix)
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ch <- struct{}{}:
		return &memoryHandle{ch: ch}, nil
	case <-timer.C:
		return nil, &domain.LockError{Prefix: prefix, Err: errors.New("timeout")}
	case <-ctx.Done():
		return nil, &domain.LockError{Prefix: prefix, Err: ctx.Err()}
	}
}

type memoryHandle struct {
	ch   chan struct{}
	once sync.Once
}

func (h *memoryHandle) Release(ctx context.Context) error {
	h.once.Do(func() { <-h.ch })
	return nil
}
