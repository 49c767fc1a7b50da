package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/offeringbowl/backend/internal/interfaces/http/dto"
)

// Version is the API version reported by /health
const Version = "1.0.0"

// SystemHandler serves the liveness routes
type SystemHandler struct {
	BaseHandler
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
	}
}

// HealthResponse is the /health payload
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"goVersion"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// Root godoc
// @Summary  Liveness message
// @Tags     system
// @Router   / [get]
func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to Offering Bowl!"})
}

// Health godoc
// @Summary  Service health and uptime
// @Tags     system
// @Router   /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	h.OK(c, dto.NewSuccessResponse().With("health", HealthResponse{
		Status:    "ok",
		Version:   Version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}))
}

// NoRoute answers unmatched routes
func (h *SystemHandler) NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.RouteNotFound())
}
