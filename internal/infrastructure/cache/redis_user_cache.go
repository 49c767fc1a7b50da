package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/offeringbowl/backend/internal/domain/identity"
	"github.com/offeringbowl/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const defaultUserKeyPrefix = "ob:user:"

// RedisUserCache implements UserCache on Redis. Entries are JSON encoded
// users that expire after ttl.
type RedisUserCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewRedisUserCache connects to Redis and verifies the connection
func NewRedisUserCache(cfg config.RedisConfig) (*RedisUserCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisUserCacheWithClient(client, "", cfg.UserCacheTTL), nil
}

// NewRedisUserCacheWithClient wraps an existing client
func NewRedisUserCacheWithClient(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisUserCache {
	if keyPrefix == "" {
		keyPrefix = defaultUserKeyPrefix
	}
	return &RedisUserCache{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

// Get implements UserCache
func (c *RedisUserCache) Get(ctx context.Context, uid string) (*identity.User, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+uid).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached user: %w", err)
	}

	var user identity.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &user, nil
}

// Set implements UserCache
func (c *RedisUserCache) Set(ctx context.Context, uid string, user *identity.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+uid, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	return nil
}

// Delete implements UserCache
func (c *RedisUserCache) Delete(ctx context.Context, uid string) error {
	if err := c.client.Del(ctx, c.keyPrefix+uid).Err(); err != nil {
		return fmt.Errorf("failed to evict cached user: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisUserCache) Close() error {
	return c.client.Close()
}

var _ UserCache = (*RedisUserCache)(nil)
