package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubMediaStorage(t *testing.T) {
	s := NewStubMediaStorage("https://cdn.offeringbowl.test/")

	assert.Equal(t, "https://cdn.offeringbowl.test/media/m1", s.ObjectURI("media/m1"))

	u, expiresAt, err := s.UploadURL(context.Background(), "media/m1", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "https://cdn.offeringbowl.test/media/m1?upload=1"))
	assert.False(t, expiresAt.IsZero())

	_, _, err = s.UploadURL(context.Background(), "", "image/png")
	assert.Error(t, err)
}

func TestNewStubMediaStorage_DefaultBase(t *testing.T) {
	s := NewStubMediaStorage("")
	assert.Equal(t, "http://localhost:8080/media-objects/k", s.ObjectURI("k"))
}
