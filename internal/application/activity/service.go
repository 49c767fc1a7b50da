package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/offeringbowl/backend/internal/domain/activity"
	"github.com/offeringbowl/backend/internal/domain/shared"
	"github.com/offeringbowl/backend/internal/infrastructure/logger"
	"github.com/offeringbowl/backend/internal/infrastructure/store"
	"github.com/offeringbowl/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Recorder appends entries to a user's activity log. Recording never fails
// the calling operation.
type Recorder interface {
	Record(ctx context.Context, userID string, activityType activity.Type, details map[string]string)
}

// Service handles activity log writes and reads
type Service struct {
	store   store.Store
	metrics *telemetry.Metrics
	now     func() time.Time
}

// Option configures a Service
type Option func(*Service)

// WithMetrics counts recorded and failed activities
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new activity Service
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store: st,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record writes one activity entry. Failures are logged and counted, not
// returned.
func (s *Service) Record(ctx context.Context, userID string, activityType activity.Type, details map[string]string) {
	entry := activity.Activity{
		ActivityID: uuid.NewString(),
		UserID:     userID,
		Type:       activityType,
		Details:    details,
		CreatedAt:  s.now().UTC().Format(shared.TimeLayout),
	}

	err := shared.Validate("activity", &entry)
	if err == nil {
		err = s.store.Put(ctx, store.TableActivities, &entry)
	}
	if err != nil {
		s.metrics.ActivityFailed()
		logger.L(ctx).Warn("Failed to record activity",
			zap.String("user_id", userID),
			zap.String("type", string(activityType)),
			zap.Error(err),
		)
		return
	}
	s.metrics.ActivityRecorded(string(activityType))
}

// ListResult is one page of a user's activity log
type ListResult struct {
	Activities []activity.Activity
	Cursor     string
}

// ListForUser returns the user's activities, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string, limit int32, cursor string) (*ListResult, error) {
	page, err := s.store.Query(ctx, store.Query{
		Table:     store.TableActivities,
		Index:     store.IndexUserID,
		Partition: store.Condition{Name: "userId", Value: userID},
		Limit:     limit,
		Cursor:    cursor,
	})
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	var activities []activity.Activity
	if err := page.Decode(&activities); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	if activities == nil {
		activities = []activity.Activity{}
	}
	return &ListResult{Activities: activities, Cursor: page.Cursor}, nil
}

var _ Recorder = (*Service)(nil)
