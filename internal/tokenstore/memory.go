package tokenstore

import (
	"sync"
	"time"
)

// MemoryStore is a mutex-guarded in-process Store. It preserves the same
// TTL and at-most-one-live-token contract as FileStore and suits hosts that
// run every guard invocation inside a single process.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	tokens map[string]time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryClock overrides the time source. Used by tests.
func WithMemoryClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty in-memory store with the given TTL.
func NewMemoryStore(ttl time.Duration, opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		ttl:    ttl,
		now:    time.Now,
		tokens: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue records a token for key, overwriting any previous one.
func (s *MemoryStore) Issue(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[key] = s.now()
	return nil
}

// TryConsume removes and reports the token for key iff it is still live.
func (s *MemoryStore) TryConsume(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	issued, ok := s.tokens[key]
	if !ok {
		return false, nil
	}
	delete(s.tokens, key)
	return s.now().Sub(issued) < s.ttl, nil
}

// SweepExpired removes expired tokens, inspecting at most maxChecked
// entries in map order.
func (s *MemoryStore) SweepExpired(maxChecked int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	checked := 0
	for key, issued := range s.tokens {
		if checked >= maxChecked {
			break
		}
		checked++
		if s.now().Sub(issued) >= s.ttl {
			delete(s.tokens, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored tokens, live or expired.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}
