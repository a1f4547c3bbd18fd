// @title           EcoTrack API
// @version         1.0
// @description     Eco activity tracking with points, badges, events and partner coupons.

// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecotrack/internal/cache"
	"ecotrack/internal/config"
	"ecotrack/internal/database"
	"ecotrack/internal/events"
	"ecotrack/internal/geocoding"
	"ecotrack/internal/middleware"
	"ecotrack/internal/realtime"
	"ecotrack/internal/repositories"
	"ecotrack/internal/response"
	"ecotrack/internal/router"
	"ecotrack/internal/services"
	"ecotrack/internal/utils"
	"ecotrack/internal/utils/appinfo"
	"ecotrack/internal/verification"

	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger, level, err := initLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	logger.Info("Starting EcoTrack", zap.String("version", appinfo.GetVersion()))

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		logger.Warn("Ignoring invalid LOG_LEVEL", zap.String("level", cfg.Logging.Level))
	}
	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("storage", cfg.Storage.Provider),
		zap.String("cache", cfg.Cache.Provider))

	ctx := context.Background()

	// Storage
	var dbManager *database.Manager
	if cfg.Storage.Provider != repositories.ProviderMemory {
		dbManager, err = database.InitDB(ctx, cfg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
	}
	repos, err := repositories.NewCollectionForProvider(cfg.Storage.Provider, dbManager, logger)
	if err != nil {
		logger.Fatal("Failed to create repositories", zap.Error(err))
	}

	// Cache
	cacheConfig := &cache.Config{
		Provider:        cfg.Cache.Provider,
		TTL:             cfg.Cache.DefaultTTL,
		MaxKeys:         10000,
		CleanupInterval: 5 * time.Minute,
		RedisURL:        cfg.Cache.RedisURL,
		RedisDB:         cfg.Cache.RedisDB,
		RedisPassword:   cfg.Cache.RedisPassword,
		PoolSize:        10,
	}
	cacheInstance, err := cache.NewCache(cacheConfig, logger)
	if err != nil {
		logger.Fatal("Failed to initialize cache", zap.Error(err))
	}
	sets, err := cache.NewSetStore(cacheConfig, logger)
	if err != nil {
		logger.Fatal("Failed to initialize set store", zap.Error(err))
	}

	eventBus := events.NewInMemoryEventBus(events.DefaultEventBusConfig(), logger)
	if err := eventBus.Start(ctx); err != nil {
		logger.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Integrations
	var images utils.ImageStore
	if cfg.Cloudinary.Enabled() {
		cloudinary, err := utils.NewCloudinaryService(cfg.Cloudinary, logger)
		if err != nil {
			logger.Warn("Cloudinary unavailable, uploads disabled", zap.Error(err))
		} else {
			images = cloudinary
		}
	}
	verifier := verification.NewClient(cfg.Verification, logger)
	geocoder := geocoding.NewClient(cfg.Geocoding, cacheInstance, logger)

	serviceCollection, err := services.NewServiceCollection(&services.Dependencies{
		Config:       cfg,
		Repositories: repos,
		Cache:        cacheInstance,
		Sets:         sets,
		EventBus:     eventBus,
		Verifier:     verifier,
		Geocoder:     geocoder,
		Images:       images,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("Failed to create services", zap.Error(err))
	}

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if err := serviceCollection.AuthService.SeedAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			logger.Error("Failed to seed admin account", zap.Error(err))
		}
	}

	hub := realtime.NewHub(cfg.Server.CORSOrigin, logger)
	if err := hub.Subscribe(eventBus); err != nil {
		logger.Fatal("Failed to subscribe realtime hub", zap.Error(err))
	}

	// HTTP
	responseConfig := response.DefaultConfig()
	responseConfig.APIVersion = appinfo.GetVersion()
	responseConfig.MaskInternalErrors = cfg.IsProduction()
	responseConfig.PrettyJSON = cfg.IsDevelopment()
	responseBuilder := response.NewBuilder(responseConfig, logger)

	authConfig := middleware.DefaultAuthConfig()
	authConfig.LogSuccessfulAuth = cfg.IsDevelopment()

	handler := router.SetupRouter(&router.Dependencies{
		Config:          cfg,
		Services:        serviceCollection,
		AuthMiddleware:  middleware.NewAuthMiddleware(authConfig, serviceCollection.AuthService, logger),
		RateLimiter:     middleware.NewRateLimiter(cacheInstance, logger),
		ResponseBuilder: responseBuilder,
		Hub:             hub,
		Metrics:         middleware.NewMetrics(),
		Logger:          logger,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sig := <-quit
	logger.Info("Shutting down", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := hub.Close(shutdownCtx); err != nil {
		logger.Warn("Realtime hub close failed", zap.Error(err))
	}
	if err := serviceCollection.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Event bus shutdown failed", zap.Error(err))
	}
	if err := sets.Close(); err != nil {
		logger.Warn("Set store close failed", zap.Error(err))
	}
	if err := cacheInstance.Close(); err != nil {
		logger.Warn("Cache close failed", zap.Error(err))
	}
	if dbManager != nil {
		if err := dbManager.Close(); err != nil {
			logger.Warn("Database close failed", zap.Error(err))
		}
	}

	logger.Info("Server stopped")
}

// initLogger initializes the structured logger based on environment
func initLogger() (*zap.Logger, zap.AtomicLevel, error) {
	var config zap.Config

	switch appinfo.GetEnvironment() {
	case "production":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "staging":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	default:
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, config.Level, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, config.Level, nil
}
