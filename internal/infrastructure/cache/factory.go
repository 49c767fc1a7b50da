package cache

import (
	"fmt"

	"github.com/offeringbowl/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// FactoryOption configures NewUserCache
type FactoryOption func(*factory)

type factory struct {
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// WithLogger sets the logger used to report the chosen backend
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis falls back to
// the in-memory cache. Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewUserCache returns a Redis cache when Redis is enabled and reachable,
// otherwise an in-memory cache.
func NewUserCache(cfg config.RedisConfig, opts ...FactoryOption) (UserCache, error) {
	f := &factory{logger: zap.NewNop(), allowInMemoryFallback: true}
	for _, opt := range opts {
		opt(f)
	}

	if !cfg.Enabled {
		f.logger.Info("using in-memory user cache")
		return NewInMemoryUserCache(cfg.UserCacheTTL), nil
	}

	c, err := NewRedisUserCache(cfg)
	if err == nil {
		f.logger.Info("using Redis user cache", zap.String("addr", cfg.Addr()))
		return c, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for user cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory user cache", zap.Error(err))
	return NewInMemoryUserCache(cfg.UserCacheTTL), nil
}
