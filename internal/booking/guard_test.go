package booking

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuard(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)
	g := NewMemoryGuard()
	g.now = func() time.Time { return now }

	ok, err := g.Acquire(ctx, "k", "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = g.Acquire(ctx, "k", "b", time.Minute)
	assert.False(t, ok, "second holder must be rejected while reserved")

	ok, _ = g.Acquire(ctx, "k", "a", time.Minute)
	assert.True(t, ok, "the same holder may re-acquire")

	ok, _ = g.Acquire(ctx, "other", "b", time.Minute)
	assert.True(t, ok, "keys are independent")

	now = now.Add(2 * time.Minute)
	ok, _ = g.Acquire(ctx, "k", "b", time.Minute)
	assert.True(t, ok, "expired reservations are released")
}

func TestMemoryGuard_Concurrent(t *testing.T) {
	g := NewMemoryGuard()
	var winners int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			holder := string(rune('a' + i%26)) + string(rune('a'+i/26))
			if ok, _ := g.Acquire(context.Background(), "slot", holder, time.Minute); ok {
				atomic.AddInt32(&winners, 1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners)
}

func newRedisGuard(t *testing.T) (*RedisGuard, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGuard(client, "execassist:"), mr
}

func TestRedisGuard(t *testing.T) {
	ctx := context.Background()
	g, mr := newRedisGuard(t)

	ok, err := g.Acquire(ctx, "slot:primary:x", "event-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("execassist:slot:primary:x"))

	ok, err = g.Acquire(ctx, "slot:primary:x", "event-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = g.Acquire(ctx, "slot:primary:x", "event-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = g.Acquire(ctx, "slot:primary:x", "event-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisGuard_Unavailable(t *testing.T) {
	g, mr := newRedisGuard(t)
	mr.Close()

	_, err := g.Acquire(context.Background(), "k", "h", time.Minute)
	assert.Error(t, err)
}
