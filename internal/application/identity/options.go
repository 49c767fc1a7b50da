// Package identity implements the user, settings and profile use cases.
package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/offeringbowl/backend/internal/domain/shared"
)

// MsgNotPermitted is returned when a caller acts on another user's record
const MsgNotPermitted = "User does not have the necessary permissions."

type options struct {
	now   func() time.Time
	newID func() string
}

// Option configures the services in this package
type Option func(*options)

// WithClock overrides the time source used for createdAt
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDGenerator overrides primary id generation
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		o.newID = newID
	}
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
