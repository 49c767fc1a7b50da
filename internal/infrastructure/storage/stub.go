package storage

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	contentapp "github.com/offeringbowl/backend/internal/application/content"
)

var _ contentapp.MediaStorage = (*StubMediaStorage)(nil)

// StubMediaStorage returns predictable URLs without talking to any backend.
// It serves local development when no bucket is configured.
type StubMediaStorage struct {
	BaseURL    string
	Expiration time.Duration
}

// NewStubMediaStorage creates a StubMediaStorage
func NewStubMediaStorage(baseURL string) *StubMediaStorage {
	if baseURL == "" {
		baseURL = "http://localhost:8080/media-objects"
	}
	return &StubMediaStorage{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Expiration: 15 * time.Minute,
	}
}

// UploadURL implements contentapp.MediaStorage
func (s *StubMediaStorage) UploadURL(_ context.Context, key, _ string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}
	expiresAt := time.Now().Add(s.Expiration)
	return s.ObjectURI(key) + "?upload=1&expires=" + url.QueryEscape(expiresAt.UTC().Format(time.RFC3339)), expiresAt, nil
}

// ObjectURI implements contentapp.MediaStorage
func (s *StubMediaStorage) ObjectURI(key string) string {
	return s.BaseURL + "/" + strings.TrimLeft(key, "/")
}
