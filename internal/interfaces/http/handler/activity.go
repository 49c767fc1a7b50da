package handler

import (
	"github.com/gin-gonic/gin"
	activityapp "github.com/offeringbowl/backend/internal/application/activity"
	"github.com/offeringbowl/backend/internal/interfaces/http/dto"
)

// ActivityHandler serves a user's activity log
type ActivityHandler struct {
	BaseHandler
	activities *activityapp.Service
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(activities *activityapp.Service) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// List godoc
// @Summary   List a user's activities, newest first
// @Tags      activities
// @Security  BearerAuth
// @Router    /activities/{userId} [get]
func (h *ActivityHandler) List(c *gin.Context) {
	q := pageQuery(c)
	result, err := h.activities.ListForUser(c.Request.Context(), c.Param("userId"), q.Limit, q.Cursor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.NewSuccessResponse().With("activities", result.Activities).WithCursor(result.Cursor))
}
