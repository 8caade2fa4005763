package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultLockKeyPrefix = "estate:lock:"

// releaseScript deletes the lock only if it is still held by the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisEntityLocker implements EntityLocker using Redis SET NX with a TTL.
// This is suitable for distributed deployments where several worker
// processes mutate the same inventory
type RedisEntityLocker struct {
	client    *redis.Client
	keyPrefix string
	config    shared.LockConfig
	logger    *zap.Logger
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisEntityLocker creates a new Redis-based entity locker
func NewRedisEntityLocker(cfg RedisConfig, lockCfg shared.LockConfig, logger *zap.Logger) (*RedisEntityLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisEntityLockerWithClient(client, cfg.KeyPrefix, lockCfg, logger), nil
}

// NewRedisEntityLockerWithClient creates a locker with an existing Redis client
// This is useful for testing or when sharing a client across components
func NewRedisEntityLockerWithClient(client *redis.Client, keyPrefix string, lockCfg shared.LockConfig, logger *zap.Logger) *RedisEntityLocker {
	if keyPrefix == "" {
		keyPrefix = defaultLockKeyPrefix
	}
	defaults := shared.DefaultLockConfig()
	if lockCfg.TTL <= 0 {
		lockCfg.TTL = defaults.TTL
	}
	if lockCfg.AcquireTimeout <= 0 {
		lockCfg.AcquireTimeout = defaults.AcquireTimeout
	}
	if lockCfg.RetryInterval <= 0 {
		lockCfg.RetryInterval = defaults.RetryInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisEntityLocker{
		client:    client,
		keyPrefix: keyPrefix,
		config:    lockCfg,
		logger:    logger,
	}
}

// Acquire polls SET NX until the key is taken, the acquire timeout passes
// or ctx is done
func (l *RedisEntityLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.keyPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.config.AcquireTimeout)

	ticker := time.NewTicker(l.config.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.config.TTL).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return l.releaseFunc(redisKey, token), nil
		}
		if !time.Now().Before(deadline) {
			return nil, shared.NewLockTimeoutError(key)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *RedisEntityLocker) releaseFunc(redisKey, token string) func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true

		// The caller's context may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		n, err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Int()
		if err != nil && !errors.Is(err, redis.Nil) {
			l.logger.Warn("failed to release entity lock",
				zap.String("key", redisKey),
				zap.Error(err),
			)
			return
		}
		if n == 0 {
			l.logger.Warn("entity lock expired before release",
				zap.String("key", redisKey),
				zap.Duration("ttl", l.config.TTL),
			)
		}
	}
}

// Close closes the Redis client
func (l *RedisEntityLocker) Close() error {
	return l.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (l *RedisEntityLocker) GetClient() *redis.Client {
	return l.client
}

// Ensure RedisEntityLocker implements EntityLocker
var _ shared.EntityLocker = (*RedisEntityLocker)(nil)
