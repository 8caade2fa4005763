package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/estateflow/backend/internal/domain/shared"
	"github.com/estateflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ClaimStore hands out expiring exclusive claims on string keys
type ClaimStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsClaimed(ctx context.Context, key string) (bool, error)
	Close() error
}

// claimSweepInterval is how often in-memory claim stores drop expired keys
const claimSweepInterval = 5 * time.Minute

// EntityLockerFactory creates entity lockers based on configuration
type EntityLockerFactory struct {
	lockConfig  config.LockConfig
	redisConfig config.RedisConfig
	logger      *zap.Logger
}

// EntityLockerFactoryOption is a functional option for configuring the factory
type EntityLockerFactoryOption func(*EntityLockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) EntityLockerFactoryOption {
	return func(f *EntityLockerFactory) {
		f.logger = logger
	}
}

// NewEntityLockerFactory creates a new factory
func NewEntityLockerFactory(lockCfg config.LockConfig, redisCfg config.RedisConfig, opts ...EntityLockerFactoryOption) *EntityLockerFactory {
	f := &EntityLockerFactory{
		lockConfig:  lockCfg,
		redisConfig: redisCfg,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisLocker creates a Redis-based entity locker
func (f *EntityLockerFactory) CreateRedisLocker() (shared.EntityLocker, error) {
	redisCfg := RedisConfig{
		Host:      f.redisConfig.Host,
		Port:      f.redisConfig.Port,
		Password:  f.redisConfig.Password,
		DB:        f.redisConfig.DB,
		KeyPrefix: f.redisConfig.KeyPrefix,
	}

	locker, err := NewRedisEntityLocker(redisCfg, f.lockConfig.ToShared(), f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis entity locker: %w", err)
	}

	return locker, nil
}

// CreateInMemoryLocker creates an in-process entity locker
// WARNING: In-memory locks are not shared across process instances,
// so concurrent sales from two workers are not serialized
func (f *EntityLockerFactory) CreateInMemoryLocker() shared.EntityLocker {
	return NewInMemoryEntityLocker(f.lockConfig.ToShared())
}

// CreateLocker creates the locker named by lock.backend.
// The redis backend falls back to in-memory when Redis is unreachable and
// fallback is allowed
func (f *EntityLockerFactory) CreateLocker() (shared.EntityLocker, error) {
	if f.lockConfig.Backend != "redis" {
		f.logger.Info("using in-memory entity locker")
		return f.CreateInMemoryLocker(), nil
	}

	locker, err := f.CreateRedisLocker()
	if err == nil {
		f.logger.Info("using Redis entity locker")
		return locker, nil
	}

	if !f.lockConfig.AllowFallback {
		return nil, fmt.Errorf("Redis required for entity locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory entity locker. "+
		"Sales from separate processes will not be serialized.",
		zap.Error(err),
	)
	return f.CreateInMemoryLocker(), nil
}

// CreateClaimStore creates the claim store for the lock backend, with the
// same Redis fallback rules as CreateLocker
func (f *EntityLockerFactory) CreateClaimStore() (ClaimStore, error) {
	if f.lockConfig.Backend != "redis" {
		return NewInMemoryClaimStore(claimSweepInterval), nil
	}

	store, err := NewRedisClaimStore(RedisConfig{
		Host:      f.redisConfig.Host,
		Port:      f.redisConfig.Port,
		Password:  f.redisConfig.Password,
		DB:        f.redisConfig.DB,
		KeyPrefix: f.redisConfig.KeyPrefix,
	})
	if err == nil {
		return store, nil
	}

	if !f.lockConfig.AllowFallback {
		return nil, fmt.Errorf("Redis required for job claims but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory job claims", zap.Error(err))
	return NewInMemoryClaimStore(claimSweepInterval), nil
}

var (
	_ ClaimStore = (*InMemoryClaimStore)(nil)
	_ ClaimStore = (*RedisClaimStore)(nil)
)
