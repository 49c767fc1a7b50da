package handler

import (
	"github.com/gin-gonic/gin"
	identityapp "github.com/offeringbowl/backend/internal/application/identity"
	"github.com/offeringbowl/backend/internal/domain/identity"
	"github.com/offeringbowl/backend/internal/interfaces/http/dto"
)

// UserHandler handles the /users routes
type UserHandler struct {
	BaseHandler
	users *identityapp.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *identityapp.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Create godoc
// @Summary   Register the caller's user record
// @Tags      users
// @Security  BearerAuth
// @Router    /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var user identity.User
	if !h.BindJSON(c, "user", &user) {
		return
	}

	created, err := h.users.Create(c.Request.Context(), caller(c), user)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewSuccessResponse().With("user", created).WithMessage("User created successfully."))
}

// Get godoc
// @Summary   Get a user
// @Tags      users
// @Security  BearerAuth
// @Router    /users/{userId} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.HandleLookupError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("user", user))
}

// Update godoc
// @Summary   Update a user
// @Tags      users
// @Security  BearerAuth
// @Router    /users/{userId} [put]
func (h *UserHandler) Update(c *gin.Context) {
	patch, ok := h.BindPatch(c, "user")
	if !ok {
		return
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("userId"), patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("user", user).WithMessage("User updated successfully."))
}
