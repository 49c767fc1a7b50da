package identity

import (
	"context"
	"fmt"

	"github.com/offeringbowl/backend/internal/domain/identity"
	"github.com/offeringbowl/backend/internal/domain/shared"
	"github.com/offeringbowl/backend/internal/infrastructure/store"
)

// SettingsService handles account settings
type SettingsService struct {
	store store.Store
	opts  options
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(st store.Store, opts ...Option) *SettingsService {
	return &SettingsService{store: st, opts: buildOptions(opts)}
}

// Create stores settings owned by caller
func (s *SettingsService) Create(ctx context.Context, caller string, settings identity.Settings) (*identity.Settings, error) {
	if settings.UserID == "" {
		settings.UserID = caller
	}
	if settings.UserID != caller {
		return nil, shared.Forbidden(MsgNotPermitted)
	}
	if settings.SettingsID == "" {
		settings.SettingsID = s.opts.newID()
	}
	if settings.CreatedAt == "" {
		settings.CreatedAt = s.opts.timestamp()
	}
	if settings.BlockedUserIDs == nil {
		settings.BlockedUserIDs = []string{}
	}
	if err := shared.Validate("settings", &settings); err != nil {
		return nil, err
	}

	if err := s.store.Put(ctx, store.TableSettings, &settings); err != nil {
		return nil, fmt.Errorf("create settings: %w", err)
	}
	return &settings, nil
}

// Get returns settings by id
func (s *SettingsService) Get(ctx context.Context, settingsID string) (*identity.Settings, error) {
	var settings identity.Settings
	found, err := s.store.Get(ctx, store.TableSettings, store.Key{"settingsId": settingsID}, &settings)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if !found {
		return nil, shared.NotFound("Settings not found.")
	}
	return &settings, nil
}

// GetForUser returns the first settings record owned by userID
func (s *SettingsService) GetForUser(ctx context.Context, userID string) (*identity.Settings, error) {
	page, err := s.store.Query(ctx, store.Query{
		Table:     store.TableSettings,
		Index:     store.IndexUserID,
		Partition: store.Condition{Name: "userId", Value: userID},
		Limit:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("get settings for user: %w", err)
	}
	if len(page.Items) == 0 {
		return nil, shared.NotFound("Settings not found.")
	}

	var settings identity.Settings
	if err := store.UnmarshalItem(page.Items[0], &settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &settings, nil
}

// Update merges patch onto the caller's settings record
func (s *SettingsService) Update(ctx context.Context, caller, settingsID string, patch shared.Patch) (*identity.Settings, error) {
	settings, err := s.Get(ctx, settingsID)
	if err != nil {
		return nil, err
	}
	if settings.UserID != caller {
		return nil, shared.Forbidden(MsgNotPermitted)
	}

	owner := settings.UserID
	if err := patch.ApplyTo("settings", settings); err != nil {
		return nil, err
	}
	settings.SettingsID = settingsID
	settings.UserID = owner

	if err := shared.Validate("settings", settings); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, store.TableSettings, settings); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return settings, nil
}
