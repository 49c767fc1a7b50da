package router

import (
	"github.com/gin-gonic/gin"
	"github.com/offeringbowl/backend/internal/infrastructure/config"
	"github.com/offeringbowl/backend/internal/infrastructure/logger"
	"github.com/offeringbowl/backend/internal/infrastructure/telemetry"
	"github.com/offeringbowl/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Deps is everything New wires into the engine. Metrics and Limiter are
// optional.
type Deps struct {
	Config   *config.Config
	Logger   *zap.Logger
	Metrics  *telemetry.Metrics
	Limiter  *middleware.RateLimiter
	Handlers Handlers
	Guards   Guards
}

// New builds the gin engine serving the API.
//
// Global middleware runs in this order: request id, panic recovery, request
// logging, tracing, Prometheus metrics, secure headers, CORS, body limit and
// rate limiting.
func New(deps Deps) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Tracing(cfg.Telemetry.ServiceName, cfg.Telemetry.Enabled)...)
	engine.Use(middleware.Metrics(deps.Metrics))
	engine.Use(middleware.Secure(cfg.IsProduction()))
	engine.Use(middleware.CORS(middleware.CORSConfigFrom(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if deps.Limiter != nil {
		engine.Use(middleware.RateLimit(deps.Limiter, deps.Metrics))
	}

	system := deps.Handlers.System
	engine.GET("/", system.Root)
	engine.GET("/health", system.Health)
	if cfg.Metrics.Enabled && deps.Metrics != nil {
		engine.GET(cfg.Metrics.Path, gin.WrapH(deps.Metrics.Handler()))
	}
	engine.NoRoute(system.NoRoute)

	r := NewRouter(engine)
	for _, g := range Groups(deps.Handlers, deps.Guards) {
		r.Register(g)
	}
	r.Setup()

	return engine
}
