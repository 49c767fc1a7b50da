// Package cache holds the caller hydration cache.
package cache

import (
	"context"
	"errors"

	"github.com/offeringbowl/backend/internal/domain/identity"
)

// ErrCacheMiss is returned by Get when no entry exists for a uid
var ErrCacheMiss = errors.New("cache miss")

// UserCache caches stored users by identity-provider subject
type UserCache interface {
	Get(ctx context.Context, uid string) (*identity.User, error)
	Set(ctx context.Context, uid string, user *identity.User) error
	Delete(ctx context.Context, uid string) error
	Close() error
}
