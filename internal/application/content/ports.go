// Package content implements posts, the patron feed and media uploads.
package content

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/offeringbowl/backend/internal/domain/shared"
	"github.com/offeringbowl/backend/internal/infrastructure/telemetry"
)

// MediaStorage issues upload URLs for media objects
type MediaStorage interface {
	// UploadURL returns a presigned PUT URL for key and when it expires
	UploadURL(ctx context.Context, key, contentType string) (string, time.Time, error)
	// ObjectURI returns the permanent location of key
	ObjectURI(key string) string
}

// ContractChecker answers the sponsorship questions post visibility and the
// feed depend on.
type ContractChecker interface {
	HasActive(ctx context.Context, patronID, monasticID string) (bool, error)
	ActiveMonasticIDsForPatron(ctx context.Context, patronID string) ([]string, error)
}

// Page size bounds
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

func clampLimit(limit int32) int32 {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

type options struct {
	now     func() time.Time
	newID   func() string
	metrics *telemetry.Metrics
}

// Option configures the services in this package
type Option func(*options)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDGenerator overrides primary id generation
func WithIDGenerator(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// WithMetrics observes feed fan-out
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) timestamp() string {
	return o.now().UTC().Format(shared.TimeLayout)
}
