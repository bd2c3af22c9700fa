package persistence

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/cadence/internal/automations/domain"
)

// DefaultRunCapacity is the number of runs kept by capped stores.
const DefaultRunCapacity = 200

// MemoryRunStore keeps the most recent runs in memory.
type MemoryRunStore struct {
	mu       sync.RWMutex
	runs     []domain.Run // oldest first
	capacity int
}

// NewMemoryRunStore creates a store holding at most capacity runs.
func NewMemoryRunStore(capacity int) *MemoryRunStore {
	if capacity <= 0 {
		capacity = DefaultRunCapacity
	}
	return &MemoryRunStore{capacity: capacity}
}

// Record appends a run, evicting the oldest beyond capacity.
func (s *MemoryRunStore) Record(ctx context.Context, run domain.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	run.Errors = append([]string(nil), run.Errors...)
	s.runs = append(s.runs, run)
	if over := len(s.runs) - s.capacity; over > 0 {
		s.runs = append([]domain.Run(nil), s.runs[over:]...)
	}
	return nil
}

// Recent returns up to limit runs, newest first. A non-positive limit returns all.
func (s *MemoryRunStore) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.runs)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]domain.Run, 0, n)
	for i := len(s.runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.runs[i])
	}
	return out, nil
}
