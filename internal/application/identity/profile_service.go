package identity

import (
	"context"
	"fmt"

	activityapp "github.com/offeringbowl/backend/internal/application/activity"
	"github.com/offeringbowl/backend/internal/domain/activity"
	"github.com/offeringbowl/backend/internal/domain/identity"
	"github.com/offeringbowl/backend/internal/domain/shared"
	"github.com/offeringbowl/backend/internal/infrastructure/store"
)

// ProfileService handles public profiles
type ProfileService struct {
	store    store.Store
	users    *UserService
	activity activityapp.Recorder
	opts     options
}

// NewProfileService creates a new ProfileService
func NewProfileService(st store.Store, users *UserService, recorder activityapp.Recorder, opts ...Option) *ProfileService {
	return &ProfileService{
		store:    st,
		users:    users,
		activity: recorder,
		opts:     buildOptions(opts),
	}
}

// Create stores a profile for caller. When the owning user exists the
// profile kind must match the user's role; a missing kind is derived from it.
func (s *ProfileService) Create(ctx context.Context, caller string, profile identity.Profile) (*identity.Profile, error) {
	if profile.UserID == "" {
		profile.UserID = caller
	}
	if profile.UserID != caller {
		return nil, shared.Forbidden(MsgNotPermitted)
	}

	owner, err := s.users.Get(ctx, profile.UserID)
	switch {
	case err == nil:
		want := identity.KindForRole(owner.Role)
		if profile.Kind == "" {
			profile.Kind = want
		}
		if profile.Kind != want {
			return nil, shared.Unprocessable(fmt.Sprintf("Invalid profile data: kind must be %s for a %s", want, owner.Role),
				shared.FieldError{Field: "kind", Message: "Must match the user's role"})
		}
	case !shared.IsKind(err, shared.KindNotFound):
		return nil, err
	}

	if profile.ProfileID == "" {
		profile.ProfileID = s.opts.newID()
	}
	if profile.CreatedAt == "" {
		profile.CreatedAt = s.opts.timestamp()
	}
	if err := shared.Validate("profile", &profile); err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, store.TableProfiles, &profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return &profile, nil
}

// Get returns a profile by id
func (s *ProfileService) Get(ctx context.Context, profileID string) (*identity.Profile, error) {
	var profile identity.Profile
	found, err := s.store.Get(ctx, store.TableProfiles, store.Key{"profileId": profileID}, &profile)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if !found {
		return nil, shared.NotFound("Profile not found.")
	}
	return &profile, nil
}

// GetForUser returns the profile owned by userID
func (s *ProfileService) GetForUser(ctx context.Context, userID string) (*identity.Profile, error) {
	page, err := s.store.Query(ctx, store.Query{
		Table:     store.TableProfiles,
		Index:     store.IndexUserID,
		Partition: store.Condition{Name: "userId", Value: userID},
		Limit:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("get profile for user: %w", err)
	}
	if len(page.Items) == 0 {
		return nil, shared.NotFound("Profile not found.")
	}

	var profile identity.Profile
	if err := store.UnmarshalItem(page.Items[0], &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

// Update merges patch onto the caller's profile and records the change.
func (s *ProfileService) Update(ctx context.Context, caller, profileID string, patch shared.Patch) (*identity.Profile, error) {
	profile, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, caller, profile, patch)
}

// UpdateForUser is Update addressed by owner rather than profile id
func (s *ProfileService) UpdateForUser(ctx context.Context, caller, userID string, patch shared.Patch) (*identity.Profile, error) {
	profile, err := s.GetForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, caller, profile, patch)
}

func (s *ProfileService) update(ctx context.Context, caller string, profile *identity.Profile, patch shared.Patch) (*identity.Profile, error) {
	if profile.UserID != caller {
		return nil, shared.Forbidden(MsgNotPermitted)
	}

	// identity fields survive the merge
	profileID, owner, kind := profile.ProfileID, profile.UserID, profile.Kind
	if err := patch.ApplyTo("profile", profile); err != nil {
		return nil, err
	}
	profile.ProfileID, profile.UserID, profile.Kind = profileID, owner, kind

	if err := shared.Validate("profile", profile); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, store.TableProfiles, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.activity.Record(ctx, owner, activity.TypeProfileUpdated, map[string]string{"profileId": profileID})

	return profile, nil
}
