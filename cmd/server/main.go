package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	activityapp "github.com/offeringbowl/backend/internal/application/activity"
	contentapp "github.com/offeringbowl/backend/internal/application/content"
	identityapp "github.com/offeringbowl/backend/internal/application/identity"
	patronageapp "github.com/offeringbowl/backend/internal/application/patronage"
	"github.com/offeringbowl/backend/internal/infrastructure/auth"
	"github.com/offeringbowl/backend/internal/infrastructure/cache"
	"github.com/offeringbowl/backend/internal/infrastructure/config"
	"github.com/offeringbowl/backend/internal/infrastructure/logger"
	"github.com/offeringbowl/backend/internal/infrastructure/storage"
	"github.com/offeringbowl/backend/internal/infrastructure/store"
	"github.com/offeringbowl/backend/internal/infrastructure/telemetry"
	"github.com/offeringbowl/backend/internal/interfaces/http/handler"
	"github.com/offeringbowl/backend/internal/interfaces/http/middleware"
	"github.com/offeringbowl/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			Offering Bowl API
//	@version		1.0
//	@description	Patronage platform connecting monastics with their patrons

//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log, cfg.App.Env)
	defer func() {
		_ = log.Sync()
	}()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting Offering Bowl",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracer, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	var metrics *telemetry.Metrics
	if cfg.Metrics.Enabled {
		metrics = telemetry.NewMetrics()
	}

	// Document store
	dynamo, err := store.NewDynamoClient(ctx, &cfg.DynamoDB)
	if err != nil {
		log.Fatal("Failed to create DynamoDB client", zap.Error(err))
	}
	if cfg.DynamoDB.CreateTables {
		if err := store.EnsureTables(ctx, dynamo, cfg.DynamoDB.TablePrefix, log); err != nil {
			log.Fatal("Failed to bootstrap tables", zap.Error(err))
		}
	}
	st := store.NewDynamoStore(dynamo,
		store.WithLogger(logger.NewStoreLogger(log,
			logger.MapStoreLogLevel(cfg.DynamoDB.LogLevel),
			logger.WithSlowThreshold(cfg.DynamoDB.SlowThreshold),
		)),
		store.WithTablePrefix(cfg.DynamoDB.TablePrefix),
	)

	userCache, err := cache.NewUserCache(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	)
	if err != nil {
		log.Fatal("Failed to initialize user cache", zap.Error(err))
	}
	defer func() {
		if err := userCache.Close(); err != nil {
			log.Error("Error closing user cache", zap.Error(err))
		}
	}()

	mediaStorage, err := newMediaStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize media storage", zap.Error(err))
	}

	verifier, err := auth.NewJWTVerifier(cfg.Auth)
	if err != nil {
		log.Fatal("Failed to initialize token verifier", zap.Error(err))
	}

	// Application services
	activities := activityapp.NewService(st, activityapp.WithMetrics(metrics))
	users := identityapp.NewUserService(st, activities, userCache)
	settings := identityapp.NewSettingsService(st)
	profiles := identityapp.NewProfileService(st, users, activities)
	contracts := patronageapp.NewContractService(st, activities)
	receipts := patronageapp.NewReceiptService(st, contracts, activities)
	posts := contentapp.NewPostService(st, contracts, activities, contentapp.WithMetrics(metrics))
	media := contentapp.NewMediaService(st, mediaStorage, activities)

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Close()
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	engine := router.New(router.Deps{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics,
		Limiter: limiter,
		Handlers: router.Handlers{
			System:     handler.NewSystemHandler(),
			Users:      handler.NewUserHandler(users),
			Settings:   handler.NewSettingsHandler(settings),
			Profiles:   handler.NewProfileHandler(profiles),
			Posts:      handler.NewPostHandler(posts),
			Contracts:  handler.NewContractHandler(contracts),
			Receipts:   handler.NewReceiptHandler(receipts),
			Media:      handler.NewMediaHandler(media),
			Activities: handler.NewActivityHandler(activities),
		},
		Guards: router.Guards{Verifier: verifier, Users: users, Cache: userCache},
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

// newMediaStorage presigns against S3 when a bucket is configured. Without
// one, development falls back to predictable local URLs.
func newMediaStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (contentapp.MediaStorage, error) {
	if cfg.Storage.Bucket == "" {
		if cfg.IsProduction() {
			return nil, errors.New("storage.bucket is required in production")
		}
		log.Warn("No storage bucket configured, media upload URLs are stubbed")
		return storage.NewStubMediaStorage(cfg.Storage.PublicBaseURL), nil
	}
	return storage.NewS3MediaStorage(ctx, &cfg.Storage, storage.WithLogger(log))
}
