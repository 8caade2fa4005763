package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultClaimKeyPrefix = "estate:claim:"

// RedisClaimStore records claims with SET NX so that every process sharing
// the Redis instance sees them
type RedisClaimStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisClaimStore connects to Redis and verifies the connection
func NewRedisClaimStore(cfg RedisConfig) (*RedisClaimStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisClaimStoreWithClient(client, defaultClaimKeyPrefix), nil
}

// NewRedisClaimStoreWithClient creates a store over an existing client
func NewRedisClaimStoreWithClient(client *redis.Client, keyPrefix string) *RedisClaimStore {
	if keyPrefix == "" {
		keyPrefix = defaultClaimKeyPrefix
	}
	return &RedisClaimStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Claim takes key for ttl. It returns false while another claim is live.
func (s *RedisClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return ok, nil
}

// IsClaimed reports whether key holds a live claim
func (s *RedisClaimStore) IsClaimed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check claim %s: %w", key, err)
	}
	return n > 0, nil
}

// Close closes the Redis client
func (s *RedisClaimStore) Close() error {
	return s.client.Close()
}
