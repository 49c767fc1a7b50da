package handler

import (
	"github.com/gin-gonic/gin"
	contentapp "github.com/offeringbowl/backend/internal/application/content"
	"github.com/offeringbowl/backend/internal/interfaces/http/dto"
)

// MediaHandler handles the /media routes
type MediaHandler struct {
	BaseHandler
	media *contentapp.MediaService
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(media *contentapp.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

// Create godoc
// @Summary   Create a media record and a presigned upload URL
// @Tags      media
// @Security  BearerAuth
// @Router    /media [post]
func (h *MediaHandler) Create(c *gin.Context) {
	var req contentapp.UploadRequest
	if !h.BindJSON(c, "media", &req) {
		return
	}

	up, err := h.media.CreateUpload(c.Request.Context(), caller(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewSuccessResponse().
		With("media", up.Media).
		With("uploadUrl", up.UploadURL).
		With("expiresAt", up.ExpiresAt).
		WithMessage("Media created successfully."))
}

// Get godoc
// @Summary   Get a media record
// @Tags      media
// @Security  BearerAuth
// @Router    /media/{mediaId} [get]
func (h *MediaHandler) Get(c *gin.Context) {
	media, err := h.media.Get(c.Request.Context(), c.Param("mediaId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("media", media))
}
