package security

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// WindowResult reports the outcome of one admission attempt.
type WindowResult struct {
	Allowed bool
	// Count includes the current request.
	Count int
	Limit int
}

// WindowStore counts requests per key over a trailing interval. Allow must record
// and evaluate atomically per key; denied requests are not retained.
type WindowStore interface {
	Allow(ctx context.Context, key string, limit int, interval time.Duration) (WindowResult, error)
}

// MemoryWindowStore keeps timestamps in process memory. The key map is bounded
// by an LRU so clients that never return do not grow it without limit.
type MemoryWindowStore struct {
	mu      sync.Mutex
	windows *simplelru.LRU[string, *window]
	now     func() time.Time
}

type window struct {
	mu   sync.Mutex
	hits []time.Time
}

// NewMemoryWindowStore creates a store tracking at most maxKeys keys.
func NewMemoryWindowStore(maxKeys int) (*MemoryWindowStore, error) {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	cache, err := simplelru.NewLRU[string, *window](maxKeys, nil)
	if err != nil {
		return nil, fmt.Errorf("window cache: %w", err)
	}
	return &MemoryWindowStore{windows: cache, now: time.Now}, nil
}

// Allow implements WindowStore.
func (s *MemoryWindowStore) Allow(_ context.Context, key string, limit int, interval time.Duration) (WindowResult, error) {
	w := s.window(key)
	now := s.now()

	w.mu.Lock()
	defer w.mu.Unlock()

	w.evictBefore(now.Add(-interval))
	count := len(w.hits) + 1
	if count > limit {
		return WindowResult{Allowed: false, Count: count, Limit: limit}, nil
	}
	w.hits = append(w.hits, now)
	return WindowResult{Allowed: true, Count: count, Limit: limit}, nil
}

// Len reports how many keys are tracked.
func (s *MemoryWindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows.Len()
}

func (s *MemoryWindowStore) window(key string) *window {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.windows.Get(key); ok {
		return w
	}
	w := &window{}
	s.windows.Add(key, w)
	return w
}

// evictBefore drops hits at or before cutoff. Hits are appended in order.
func (w *window) evictBefore(cutoff time.Time) {
	i := 0
	for i < len(w.hits) && !w.hits[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.hits = append(w.hits[:0], w.hits[i:]...)
	}
}
