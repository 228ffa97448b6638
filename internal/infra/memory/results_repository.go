package memory

import (
	"context"
	"sync"

	"verbquiz-service/internal/domain"
)

// DefaultResultsCapacity is how many finished games the in-memory history keeps.
const DefaultResultsCapacity = 100

// ResultsRepository keeps the most recent results in a fixed-size ring.
type ResultsRepository struct {
	mu       sync.RWMutex
	capacity int
	results  []domain.Result
	next     int
}

func NewResultsRepository(capacity int) *ResultsRepository {
	if capacity <= 0 {
		capacity = DefaultResultsCapacity
	}
	return &ResultsRepository{
		capacity: capacity,
		results:  make([]domain.Result, 0, capacity),
	}
}

func (r *ResultsRepository) Record(_ context.Context, result domain.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) < r.capacity {
		r.results = append(r.results, result)
		r.next = len(r.results) % r.capacity
		return nil
	}
	r.results[r.next] = result
	r.next = (r.next + 1) % r.capacity
	return nil
}

// Recent returns up to limit results, newest first. A non-positive limit returns all.
func (r *ResultsRepository) Recent(_ context.Context, limit int) ([]domain.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.results)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.Result, 0, limit)
	for i := 0; i < limit; i++ {
		// next points one past the newest entry.
		idx := (r.next - 1 - i + 2*n) % n
		out = append(out, r.results[idx])
	}
	return out, nil
}
