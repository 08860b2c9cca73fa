package journal

import (
	"context"
	"sync"
	"time"
)

// DefaultMemoryCapacity bounds the in-memory store when no capacity is given.
const DefaultMemoryCapacity = 10000

// MemoryStore keeps records in a bounded ring. When full, the oldest record
// is evicted. Useful for tests and for runs without a journal file.
type MemoryStore struct {
	mu       sync.RWMutex
	records  []*Record
	capacity int
}

// NewMemoryStore creates an in-memory store holding at most capacity
// records. Non-positive capacity uses DefaultMemoryCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		records:  make([]*Record, 0, capacity),
		capacity: capacity,
	}
}

// Save appends a record, evicting the oldest when at capacity.
func (s *MemoryStore) Save(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) >= s.capacity {
		copy(s.records, s.records[1:])
		s.records = s.records[:len(s.records)-1]
	}
	s.records = append(s.records, record)
	return nil
}

// Query returns matching records, newest first.
func (s *MemoryStore) Query(_ context.Context, filter Filter) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Record
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if !matches(r, filter) {
			continue
		}
		out = append(out, r)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Prune deletes records older than the cutoff.
func (s *MemoryStore) Prune(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var removed int64
	for _, r := range s.records {
		if r.Timestamp.Before(before) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = nil
	}
	s.records = kept
	return removed, nil
}

// Len reports how many records are held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

func matches(r *Record, f Filter) bool {
	if f.Provider != "" && r.Provider != f.Provider {
		return false
	}
	if f.Model != "" && r.Model != f.Model {
		return false
	}
	if f.Outcome != "" && r.Outcome != f.Outcome {
		return false
	}
	if !f.Since.IsZero() && r.Timestamp.Before(f.Since) {
		return false
	}
	return true
}
