package identity

import (
	"context"
	"fmt"

	activityapp "github.com/offeringbowl/backend/internal/application/activity"
	"github.com/offeringbowl/backend/internal/domain/activity"
	"github.com/offeringbowl/backend/internal/domain/identity"
	"github.com/offeringbowl/backend/internal/domain/shared"
	"github.com/offeringbowl/backend/internal/infrastructure/logger"
	"github.com/offeringbowl/backend/internal/infrastructure/store"
	"go.uber.org/zap"
)

// UserCacheInvalidator drops a cached user after it changes
type UserCacheInvalidator interface {
	Delete(ctx context.Context, uid string) error
}

// UserService handles user account operations
type UserService struct {
	store    store.Store
	activity activityapp.Recorder
	cache    UserCacheInvalidator
	opts     options
}

// NewUserService creates a new UserService. cache may be nil.
func NewUserService(st store.Store, recorder activityapp.Recorder, cache UserCacheInvalidator, opts ...Option) *UserService {
	return &UserService{
		store:    st,
		activity: recorder,
		cache:    cache,
		opts:     buildOptions(opts),
	}
}

// Create stores a new user for the calling subject and records a signup.
// The user id defaults to the caller and may not differ from it.
func (s *UserService) Create(ctx context.Context, caller string, user identity.User) (*identity.User, error) {
	if user.UserID == "" {
		user.UserID = caller
	}
	if user.UserID != caller {
		return nil, shared.Forbidden(MsgNotPermitted)
	}
	if user.CreatedAt == "" {
		user.CreatedAt = s.opts.timestamp()
	}
	if err := shared.Validate("user", &user); err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, store.TableUsers, &user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.invalidate(ctx, user.UserID)
	s.activity.Record(ctx, user.UserID, activity.TypeSignup, map[string]string{"role": string(user.Role)})

	return &user, nil
}

// Get returns the user with the given id
func (s *UserService) Get(ctx context.Context, userID string) (*identity.User, error) {
	var user identity.User
	found, err := s.store.Get(ctx, store.TableUsers, store.Key{"userId": userID}, &user)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !found {
		return nil, shared.NotFound("User not found.")
	}
	return &user, nil
}

// Update merges patch onto the stored user. The merged record is validated
// against the full user schema.
func (s *UserService) Update(ctx context.Context, userID string, patch shared.Patch) (*identity.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	role, createdAt := user.Role, user.CreatedAt
	if err := patch.ApplyTo("user", user); err != nil {
		return nil, err
	}
	// role is fixed at signup; tokens and route guards rely on it
	user.UserID, user.Role, user.CreatedAt = userID, role, createdAt

	if err := shared.Validate("user", user); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, store.TableUsers, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.invalidate(ctx, userID)

	return user, nil
}

// Delete removes the user. Deleting a missing user succeeds.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, store.TableUsers, store.Key{"userId": userID}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// UserList is one page of users
type UserList struct {
	Users  []identity.User
	Cursor string
}

// ListByRole pages through the users with role
func (s *UserService) ListByRole(ctx context.Context, role identity.Role, limit int32, cursor string) (*UserList, error) {
	if !role.Valid() {
		return nil, shared.Unprocessable(fmt.Sprintf("Invalid role: %s", role))
	}

	page, err := s.store.Query(ctx, store.Query{
		Table:     store.TableUsers,
		Index:     store.IndexRole,
		Partition: store.Condition{Name: "role", Value: string(role)},
		Ascending: true,
		Limit:     limit,
		Cursor:    cursor,
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var users []identity.User
	if err := page.Decode(&users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	if users == nil {
		users = []identity.User{}
	}
	return &UserList{Users: users, Cursor: page.Cursor}, nil
}

func (s *UserService) invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userID); err != nil {
		logger.L(ctx).Warn("Failed to invalidate cached user",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}
