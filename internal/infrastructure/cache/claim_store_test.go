package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/estateflow/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryClaimStore_Claim(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 2, 2, 0, 0, 0, time.UTC)

	store := NewInMemoryClaimStore(0)
	defer store.Close()
	store.now = func() time.Time { return now }

	ok, err := store.Claim(ctx, "reconcile:02:00", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Claim(ctx, "reconcile:02:00", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "live claim is exclusive")

	claimed, err := store.IsClaimed(ctx, "reconcile:02:00")
	require.NoError(t, err)
	assert.True(t, claimed)

	now = now.Add(time.Minute)
	claimed, err = store.IsClaimed(ctx, "reconcile:02:00")
	require.NoError(t, err)
	assert.False(t, claimed, "claim expires at its ttl")

	ok, err = store.Claim(ctx, "reconcile:02:00", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestInMemoryClaimStore_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 2, 2, 0, 0, 0, time.UTC)

	store := NewInMemoryClaimStore(0)
	defer store.Close()
	store.now = func() time.Time { return now }

	_, _ = store.Claim(ctx, "a", time.Minute)
	_, _ = store.Claim(ctx, "b", time.Hour)
	assert.Equal(t, 2, store.size())

	now = now.Add(2 * time.Minute)
	store.sweep()
	assert.Equal(t, 1, store.size())
}

func TestInMemoryClaimStore_Concurrent(t *testing.T) {
	store := NewInMemoryClaimStore(time.Hour)
	defer store.Close()

	var (
		wins atomic.Int32
		wg   sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Claim(context.Background(), "digest:08:00", time.Minute)
			if err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestRedisClaimStore_Claim(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisClaimStoreWithClient(client, "test:claim:")
	defer store.Close()

	ok, err := store.Claim(ctx, "reconcile:02:00", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("test:claim:reconcile:02:00"))
	assert.Equal(t, time.Minute, mr.TTL("test:claim:reconcile:02:00"))

	// a second process sharing redis loses the race
	other := NewRedisClaimStoreWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:claim:")
	defer other.Close()
	ok, err = other.Claim(ctx, "reconcile:02:00", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	claimed, err := other.IsClaimed(ctx, "reconcile:02:00")
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestEntityLockerFactory_CreateClaimStore(t *testing.T) {
	lockCfg := config.LockConfig{TTL: time.Second, AcquireTimeout: 50 * time.Millisecond, RetryInterval: 5 * time.Millisecond}

	t.Run("memory backend", func(t *testing.T) {
		cfg := lockCfg
		cfg.Backend = "memory"
		store, err := NewEntityLockerFactory(cfg, config.RedisConfig{}).CreateClaimStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryClaimStore{}, store)
	})

	t.Run("redis unavailable falls back when allowed", func(t *testing.T) {
		cfg := lockCfg
		cfg.Backend = "redis"
		cfg.AllowFallback = true
		store, err := NewEntityLockerFactory(cfg, config.RedisConfig{Host: "127.0.0.1", Port: 1}).CreateClaimStore()
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryClaimStore{}, store)
	})

	t.Run("redis unavailable fails without fallback", func(t *testing.T) {
		cfg := lockCfg
		cfg.Backend = "redis"
		_, err := NewEntityLockerFactory(cfg, config.RedisConfig{Host: "127.0.0.1", Port: 1}).CreateClaimStore()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis required")
	})
}
