package content

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	activityapp "github.com/offeringbowl/backend/internal/application/activity"
	"github.com/offeringbowl/backend/internal/domain/activity"
	"github.com/offeringbowl/backend/internal/domain/content"
	"github.com/offeringbowl/backend/internal/domain/shared"
	"github.com/offeringbowl/backend/internal/infrastructure/store"
)

// UploadRequest asks for a presigned upload slot
type UploadRequest struct {
	ContentType string `json:"contentType" validate:"required,max=100,contains=/"`
	FileName    string `json:"fileName,omitempty" validate:"max=255"`
}

// Upload is a created media record plus where to PUT its bytes
type Upload struct {
	Media     *content.Media
	UploadURL string
	ExpiresAt time.Time
}

// MediaService handles media records and their upload URLs
type MediaService struct {
	store    store.Store
	storage  MediaStorage
	activity activityapp.Recorder
	opts     options
}

// NewMediaService creates a new MediaService
func NewMediaService(st store.Store, storage MediaStorage, recorder activityapp.Recorder, opts ...Option) *MediaService {
	return &MediaService{
		store:    st,
		storage:  storage,
		activity: recorder,
		opts:     buildOptions(opts),
	}
}

// CreateUpload stores a media record for caller and returns a presigned URL
// the client uploads the object to.
func (s *MediaService) CreateUpload(ctx context.Context, caller string, req UploadRequest) (*Upload, error) {
	if err := shared.Validate("media", &req); err != nil {
		return nil, err
	}

	mediaID := s.opts.newID()
	key := objectKey(caller, mediaID, req.FileName)
	media := content.Media{
		MediaID:   mediaID,
		URI:       s.storage.ObjectURI(key),
		CreatedAt: s.opts.timestamp(),
	}
	if err := shared.Validate("media", &media); err != nil {
		return nil, err
	}

	url, expires, err := s.storage.UploadURL(ctx, key, req.ContentType)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}
	if err := s.store.Put(ctx, store.TableMedia, &media); err != nil {
		return nil, fmt.Errorf("create media: %w", err)
	}
	s.activity.Record(ctx, caller, activity.TypeMediaUploaded, map[string]string{"mediaId": mediaID})

	return &Upload{Media: &media, UploadURL: url, ExpiresAt: expires}, nil
}

// Get returns a media record by id
func (s *MediaService) Get(ctx context.Context, mediaID string) (*content.Media, error) {
	var media content.Media
	found, err := s.store.Get(ctx, store.TableMedia, store.Key{"mediaId": mediaID}, &media)
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	if !found {
		return nil, shared.NotFound("Media not found.")
	}
	return &media, nil
}

// objectKey places objects under the uploader, keeping the file extension
func objectKey(owner, mediaID, fileName string) string {
	ext := strings.ToLower(path.Ext(path.Base(fileName)))
	if len(ext) > 10 {
		ext = ""
	}
	return "media/" + owner + "/" + mediaID + ext
}
