package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultGuardTTL bounds how long a slot stays reserved for one booking.
const DefaultGuardTTL = 2 * time.Minute

// MemoryGuard is an in-process SlotGuard. It only serialises bookings made
// by the same process; use RedisGuard when several replicas write to one
// calendar.
type MemoryGuard struct {
	mu      sync.Mutex
	holders map[string]reservation
	now     func() time.Time
}

type reservation struct {
	holder  string
	expires time.Time
}

// NewMemoryGuard creates an empty MemoryGuard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{
		holders: make(map[string]reservation),
		now:     time.Now,
	}
}

// Acquire implements SlotGuard.
func (g *MemoryGuard) Acquire(_ context.Context, key, holder string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if r, ok := g.holders[key]; ok && now.Before(r.expires) && r.holder != holder {
		return false, nil
	}
	g.holders[key] = reservation{holder: holder, expires: now.Add(ttl)}

	for k, r := range g.holders {
		if !now.Before(r.expires) {
			delete(g.holders, k)
		}
	}
	return true, nil
}

// RedisGuard is a SlotGuard shared through Redis with SET NX PX.
type RedisGuard struct {
	client redis.Cmdable
	prefix string
}

// NewRedisGuard creates a RedisGuard. Keys are namespaced with prefix.
func NewRedisGuard(client redis.Cmdable, prefix string) *RedisGuard {
	return &RedisGuard{client: client, prefix: prefix}
}

// Acquire implements SlotGuard.
func (g *RedisGuard) Acquire(ctx context.Context, key, holder string, ttl time.Duration) (bool, error) {
	key = g.prefix + key
	ok, err := g.client.SetNX(ctx, key, holder, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve slot %s: %w", key, err)
	}
	if ok {
		return true, nil
	}

	current, err := g.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		return g.client.SetNX(ctx, key, holder, ttl).Result()
	}
	if err != nil {
		return false, fmt.Errorf("failed to read slot reservation %s: %w", key, err)
	}
	return current == holder, nil
}
