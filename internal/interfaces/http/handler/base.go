package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/offeringbowl/backend/internal/domain/shared"
	"github.com/offeringbowl/backend/internal/infrastructure/logger"
	"github.com/offeringbowl/backend/internal/interfaces/http/dto"
	"github.com/offeringbowl/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// OK sends a 200 response
func (h *BaseHandler) OK(c *gin.Context, r dto.Response) {
	c.JSON(http.StatusOK, r)
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, r dto.Response) {
	c.JSON(http.StatusCreated, r)
}

// HandleError maps err to its status code and the failure envelope.
// Unclassified errors are logged and reported as a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) && domainErr.Kind != shared.KindInternal {
		c.JSON(dto.StatusForKind(domainErr.Kind), dto.NewErrorResponseWithDetails(domainErr.Message, domainErr.Details))
		return
	}

	logger.L(c.Request.Context()).Error("Request failed",
		zap.String("route", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.MsgInternal))
}

// HandleLookupError is HandleError for reads whose miss answers
// {"success":false,"message":...}
func (h *BaseHandler) HandleLookupError(c *gin.Context, err error) {
	if shared.IsKind(err, shared.KindNotFound) {
		_ = c.Error(err)
		c.JSON(http.StatusNotFound, dto.NewMissingResponse(err.Error()))
		return
	}
	h.HandleError(c, err)
}

// BindJSON strictly decodes the request body into dst. On failure it
// writes the 422 response and returns false.
func (h *BaseHandler) BindJSON(c *gin.Context, entity string, dst any) bool {
	if err := dto.DecodeJSON(c.Request.Body, entity, dst); err != nil {
		h.HandleError(c, err)
		return false
	}
	return true
}

// BindPatch reads the request body as a partial update
func (h *BaseHandler) BindPatch(c *gin.Context, entity string) (shared.Patch, bool) {
	patch, err := dto.ReadPatch(c.Request.Body, entity)
	if err != nil {
		h.HandleError(c, err)
		return nil, false
	}
	return patch, true
}

// caller returns the authenticated subject
func caller(c *gin.Context) string {
	return middleware.GetUID(c)
}

// pageQuery parses ?limit=&cursor=
func pageQuery(c *gin.Context) dto.PageQuery {
	return dto.ParsePageQuery(c.Query("limit"), c.Query("cursor"))
}
