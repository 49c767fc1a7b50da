package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/offeringbowl/backend/internal/application/identity"
	"github.com/offeringbowl/backend/internal/domain/identity"
	"github.com/offeringbowl/backend/internal/interfaces/http/dto"
)

// SettingsHandler handles the /settings routes
type SettingsHandler struct {
	BaseHandler
	settings *identityapp.SettingsService
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settings *identityapp.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Create godoc
// @Summary   Create the caller's settings
// @Tags      settings
// @Security  BearerAuth
// @Router    /settings [post]
func (h *SettingsHandler) Create(c *gin.Context) {
	var settings identity.Settings
	if !h.BindJSON(c, "settings", &settings) {
		return
	}

	created, err := h.settings.Create(c.Request.Context(), caller(c), settings)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewSuccessResponse().With("settings", created).WithMessage("Settings created successfully."))
}

// GetForUser godoc
// @Summary   Get a user's settings
// @Tags      settings
// @Security  BearerAuth
// @Router    /settings/{userId} [get]
func (h *SettingsHandler) GetForUser(c *gin.Context) {
	settings, err := h.settings.GetForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.HandleLookupError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("settings", settings))
}

// Update godoc
// @Summary   Update settings by id
// @Tags      settings
// @Security  BearerAuth
// @Router    /settings/{settingsId} [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	patch, ok := h.BindPatch(c, "settings")
	if !ok {
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), caller(c), c.Param("settingsId"), patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("settings", settings).WithMessage("Settings updated successfully."))
}
