package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/offeringbowl/backend/internal/application/identity"
	"github.com/offeringbowl/backend/internal/domain/identity"
	"github.com/offeringbowl/backend/internal/interfaces/http/dto"
)

// ProfileHandler handles the /profiles routes
type ProfileHandler struct {
	BaseHandler
	profiles *identityapp.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profiles *identityapp.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Create godoc
// @Summary   Create the caller's profile
// @Tags      profiles
// @Security  BearerAuth
// @Router    /profiles [post]
func (h *ProfileHandler) Create(c *gin.Context) {
	var profile identity.Profile
	if !h.BindJSON(c, "profile", &profile) {
		return
	}

	created, err := h.profiles.Create(c.Request.Context(), caller(c), profile)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewSuccessResponse().With("profile", created).WithMessage("Profile created successfully."))
}

// Get godoc
// @Summary   Get a profile by id
// @Tags      profiles
// @Security  BearerAuth
// @Router    /profiles/{profileId} [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), c.Param("profileId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("profile", profile))
}

// GetForUser godoc
// @Summary   Get a user's profile
// @Tags      profiles
// @Security  BearerAuth
// @Router    /profiles/user/{userId} [get]
func (h *ProfileHandler) GetForUser(c *gin.Context) {
	profile, err := h.profiles.GetForUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("profile", profile))
}

// Update godoc
// @Summary   Update a profile by id
// @Tags      profiles
// @Security  BearerAuth
// @Router    /profiles/{profileId} [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	patch, ok := h.BindPatch(c, "profile")
	if !ok {
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), caller(c), c.Param("profileId"), patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("profile", profile).WithMessage("Profile updated successfully."))
}

// UpdateForUser godoc
// @Summary   Update a user's profile
// @Tags      profiles
// @Security  BearerAuth
// @Router    /profiles/user/{userId} [put]
func (h *ProfileHandler) UpdateForUser(c *gin.Context) {
	patch, ok := h.BindPatch(c, "profile")
	if !ok {
		return
	}

	profile, err := h.profiles.UpdateForUser(c.Request.Context(), caller(c), c.Param("userId"), patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("profile", profile).WithMessage("Profile updated successfully."))
}
