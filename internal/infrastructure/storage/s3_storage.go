// Package storage provides media object storage.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	contentapp "github.com/offeringbowl/backend/internal/application/content"
	"github.com/offeringbowl/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ contentapp.MediaStorage = (*S3MediaStorage)(nil)

// S3MediaStorage hands out presigned PUT URLs for media objects on S3 or
// any S3-compatible endpoint.
type S3MediaStorage struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	baseURL           string
	presignExpiration time.Duration
	logger            *zap.Logger
}

// S3MediaStorageOption is a functional option for configuring S3MediaStorage
type S3MediaStorageOption func(*S3MediaStorage)

// WithLogger sets a custom logger for S3MediaStorage
func WithLogger(logger *zap.Logger) S3MediaStorageOption {
	return func(s *S3MediaStorage) {
		s.logger = logger
	}
}

// WithPresignExpiration sets a custom presign expiration duration
func WithPresignExpiration(d time.Duration) S3MediaStorageOption {
	return func(s *S3MediaStorage) {
		s.presignExpiration = d
	}
}

// NewS3MediaStorage creates an S3MediaStorage from configuration. Static
// credentials are optional; without them the default AWS chain is used.
func NewS3MediaStorage(ctx context.Context, cfg *config.StorageConfig, opts ...S3MediaStorageOption) (*S3MediaStorage, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	endpoint := cfg.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	if endpoint != "" {
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	s := &S3MediaStorage{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		baseURL:           objectBaseURL(cfg.PublicBaseURL, endpoint, cfg.Bucket, region, cfg.UsePathStyle),
		presignExpiration: cfg.PresignExpiration,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.presignExpiration == 0 {
		s.presignExpiration = 15 * time.Minute
	}

	return s, nil
}

// objectBaseURL picks the URL prefix under which uploaded objects are served
func objectBaseURL(public, endpoint, bucket, region string, pathStyle bool) string {
	switch {
	case public != "":
		return strings.TrimRight(public, "/")
	case endpoint != "" && pathStyle:
		return strings.TrimRight(endpoint, "/") + "/" + bucket
	case endpoint != "":
		u, err := url.Parse(endpoint)
		if err != nil {
			return strings.TrimRight(endpoint, "/") + "/" + bucket
		}
		u.Host = bucket + "." + u.Host
		return strings.TrimRight(u.String(), "/")
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
}

// Bucket returns the configured bucket name
func (s *S3MediaStorage) Bucket() string {
	return s.bucket
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3MediaStorage) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating media bucket", zap.String("bucket", s.bucket))
	if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// UploadURL presigns a PUT for key. The URL expires after the configured
// presign expiration.
func (s *S3MediaStorage) UploadURL(ctx context.Context, key, contentType string) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := s.presignClient.PresignPutObject(ctx, input, s3.WithPresignExpires(s.presignExpiration))
	if err != nil {
		s.logger.Error("presign upload failed", zap.String("key", key), zap.Error(err))
		return "", time.Time{}, fmt.Errorf("failed to generate upload URL: %w", err)
	}
	return req.URL, time.Now().Add(s.presignExpiration), nil
}

// ObjectURI returns the URI the object under key is served from
func (s *S3MediaStorage) ObjectURI(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}
