package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/offeringbowl/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testStorageConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Bucket:       "offering-bowl-media",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		Region:       "us-east-1",
		Endpoint:     "http://localhost:9000",
		UsePathStyle: true,
	}
}

func TestNewS3MediaStorage_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("nil config returns error", func(t *testing.T) {
		_, err := NewS3MediaStorage(ctx, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration is required")
	})

	t.Run("missing bucket returns error", func(t *testing.T) {
		_, err := NewS3MediaStorage(ctx, &config.StorageConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket is required")
	})

	t.Run("valid config uses defaults", func(t *testing.T) {
		s, err := NewS3MediaStorage(ctx, testStorageConfig(), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "offering-bowl-media", s.Bucket())
		assert.Equal(t, 15*time.Minute, s.presignExpiration)
	})

	t.Run("option overrides expiration", func(t *testing.T) {
		s, err := NewS3MediaStorage(ctx, testStorageConfig(), WithPresignExpiration(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, time.Minute, s.presignExpiration)
	})
}

func TestS3MediaStorage_UploadURL(t *testing.T) {
	s, err := NewS3MediaStorage(context.Background(), testStorageConfig())
	require.NoError(t, err)

	raw, expiresAt, err := s.UploadURL(context.Background(), "media/m1", "image/jpeg")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/offering-bowl-media/media/m1", u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	_, _, err = s.UploadURL(context.Background(), "", "image/jpeg")
	assert.Error(t, err)
}

func TestObjectBaseURL(t *testing.T) {
	tests := []struct {
		name      string
		public    string
		endpoint  string
		pathStyle bool
		want      string
	}{
		{"public base wins", "https://cdn.example.org/", "http://localhost:9000", true, "https://cdn.example.org"},
		{"path style endpoint", "", "http://localhost:9000", true, "http://localhost:9000/bucket"},
		{"virtual host endpoint", "", "https://s3.example.org", false, "https://bucket.s3.example.org"},
		{"aws default", "", "", false, "https://bucket.s3.eu-west-1.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, objectBaseURL(tt.public, tt.endpoint, "bucket", "eu-west-1", tt.pathStyle))
		})
	}
}

func TestS3MediaStorage_ObjectURI(t *testing.T) {
	s, err := NewS3MediaStorage(context.Background(), testStorageConfig())
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000/offering-bowl-media/media/m1", s.ObjectURI("/media/m1"))
}
