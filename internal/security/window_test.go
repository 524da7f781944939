package security

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newMemoryStore(t *testing.T, clock *fakeClock) *MemoryWindowStore {
	t.Helper()
	store, err := NewMemoryWindowStore(100)
	require.NoError(t, err)
	store.now = clock.Now
	return store
}

// admitted sends n requests one second apart and counts admissions.
func admitted(t *testing.T, store WindowStore, clock *fakeClock, key string, limit, n int) int {
	t.Helper()
	ok := 0
	for i := 0; i < n; i++ {
		res, err := store.Allow(context.Background(), key, limit, time.Minute)
		require.NoError(t, err)
		if res.Allowed {
			ok++
		}
		clock.Advance(time.Second)
	}
	return ok
}

func TestMemoryWindowAdmitsExactlyCeiling(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryStore(t, clock)

	assert.Equal(t, 5, admitted(t, store, clock, "guest:1.2.3.4", 5, 6))

	res, err := store.Allow(context.Background(), "guest:1.2.3.4", 5, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 6, res.Count)
}

func TestMemoryWindowResetsAfterInterval(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryStore(t, clock)

	assert.Equal(t, 5, admitted(t, store, clock, "k", 5, 10))

	clock.Advance(time.Minute)
	assert.Equal(t, 5, admitted(t, store, clock, "k", 5, 5))
}

func TestMemoryWindowSlides(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryStore(t, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := store.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}
	clock.Advance(30 * time.Second)
	res, _ := store.Allow(ctx, "k", 3, time.Minute)
	assert.False(t, res.Allowed)

	// the first three hits age out exactly one interval after they were recorded
	clock.Advance(30 * time.Second)
	res, _ = store.Allow(ctx, "k", 3, time.Minute)
	assert.True(t, res.Allowed)
}

func TestMemoryWindowKeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	store := newMemoryStore(t, clock)

	assert.Equal(t, 2, admitted(t, store, clock, "guest:a", 2, 3))
	assert.Equal(t, 2, admitted(t, store, clock, "guest:b", 2, 3))
}

func TestMemoryWindowConcurrentCallersNeverExceedCeiling(t *testing.T) {
	store, err := NewMemoryWindowStore(10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var ok int64
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := store.Allow(context.Background(), "user:10.0.0.1", 10, time.Minute)
			if err == nil && res.Allowed {
				atomic.AddInt64(&ok, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(10), ok)
}

func TestMemoryWindowBoundsKeys(t *testing.T) {
	store, err := NewMemoryWindowStore(3)
	require.NoError(t, err)

	for _, key := range []string{"a", "b", "c", "d", "e"} {
		_, err := store.Allow(context.Background(), key, 1, time.Minute)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, store.Len())
}
