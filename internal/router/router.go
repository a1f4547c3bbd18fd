package router

import (
	"net/http"

	"ecotrack/internal/config"
	_ "ecotrack/internal/docs" // registers the OpenAPI document
	"ecotrack/internal/middleware"
	"ecotrack/internal/realtime"
	"ecotrack/internal/response"
	"ecotrack/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Dependencies carries everything the router wires into handlers
type Dependencies struct {
	Config          *config.Config
	Services        *services.ServiceCollection
	AuthMiddleware  *middleware.AuthMiddleware
	RateLimiter     *middleware.RateLimiter
	ResponseBuilder *response.Builder
	Hub             *realtime.Hub
	Metrics         *middleware.Metrics
	Logger          *zap.Logger
}

// SetupRouter configures all HTTP routes and returns the main handler
func SetupRouter(deps *Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	builder := deps.ResponseBuilder
	if builder == nil {
		builder = response.NewBuilder(response.DefaultConfig(), logger)
	}
	if deps.Metrics == nil {
		deps.Metrics = middleware.NewMetrics()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID(logger))
	r.Use(response.Middleware(builder))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.EnhancedLogging(deps.Metrics))
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(deps.Config.Server.CORSOrigin))
	r.Use(middleware.MaxBody(deps.Config.Server.MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		builder.WriteNotFound(w, r, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		builder.WriteMethodNotAllowed(w, r)
	})

	swagger := middleware.DefaultSwaggerConfig()
	swagger.Username = deps.Config.Server.SwaggerUsername
	swagger.Password = deps.Config.Server.SwaggerPassword
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
	r.Handle("/swagger/*", middleware.SwaggerHandler(swagger))

	r.Route("/api/v1", func(api chi.Router) {
		AddAPIv1Routes(api, deps, builder, logger)
	})

	logger.Info("Router setup completed",
		zap.String("api", "/api/v1"),
		zap.String("swagger_ui", "/swagger/index.html"))

	return r
}
