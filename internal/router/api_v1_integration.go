package router

import (
	"time"

	"ecotrack/internal/handlers/api/v1/activities"
	"ecotrack/internal/handlers/api/v1/admin"
	"ecotrack/internal/handlers/api/v1/auth"
	"ecotrack/internal/handlers/api/v1/coupons"
	"ecotrack/internal/handlers/api/v1/events"
	"ecotrack/internal/handlers/api/v1/functions"
	"ecotrack/internal/handlers/api/v1/gamification"
	"ecotrack/internal/handlers/api/v1/geocoding"
	"ecotrack/internal/handlers/api/v1/organizers"
	"ecotrack/internal/handlers/api/v1/system"
	"ecotrack/internal/handlers/api/v1/uploads"
	"ecotrack/internal/middleware"
	"ecotrack/internal/models"
	"ecotrack/internal/response"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddAPIv1Routes mounts every /api/v1 endpoint on r
func AddAPIv1Routes(r chi.Router, deps *Dependencies, responseBuilder *response.Builder, logger *zap.Logger) {
	sc := deps.Services
	am := deps.AuthMiddleware
	cfg := deps.Config

	authController := auth.NewAuthController(sc, logger, responseBuilder)
	activityController := activities.NewActivitiesController(sc, logger, responseBuilder)
	eventController := events.NewEventsController(sc, logger, responseBuilder)
	couponController := coupons.NewCouponsController(sc, logger, responseBuilder)
	gamificationController := gamification.NewGamificationController(sc, logger, responseBuilder)
	organizerController := organizers.NewOrganizersController(sc, logger, responseBuilder)
	adminController := admin.NewAdminController(sc, logger, responseBuilder)
	functionController := functions.NewFunctionsController(sc, logger, responseBuilder)
	geocodingController := geocoding.NewGeocodingController(sc, logger, responseBuilder)
	uploadController := uploads.NewUploadsController(sc, logger, responseBuilder)
	systemController := system.NewSystemController(sc, deps.Hub, deps.Metrics, logger, responseBuilder)

	limiter := deps.RateLimiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(nil, logger)
	}

	// ===============================
	// PUBLIC ENDPOINTS
	// ===============================

	r.Get("/health", systemController.Health)
	r.Get("/stats/landing", systemController.LandingStats)

	r.Post("/auth/register", authController.Register)
	r.Post("/auth/login", authController.Login)
	r.Get("/auth/google/login", authController.GoogleLogin)
	r.Get("/auth/google/callback", authController.GoogleCallback)

	r.Get("/leaderboard", gamificationController.Leaderboard)
	r.Get("/badges", gamificationController.Badges)
	r.Get("/rewards", gamificationController.Rewards)

	r.Group(func(r chi.Router) {
		r.Use(am.OptionalAuth())
		r.Use(limiter.Limit("geocode", cfg.Geocoding.RateLimit, time.Minute, middleware.KeyByUserOrIP))
		r.Get("/geocode/search", geocodingController.Search)
		r.Get("/geocode/reverse", geocodingController.Reverse)
	})

	r.Group(func(r chi.Router) {
		r.Use(am.OptionalAuth())
		r.Get("/events", eventController.List)
		r.Get("/events/{id}", eventController.Get)
	})

	// ===============================
	// AUTHENTICATED ENDPOINTS
	// ===============================

	r.Group(func(r chi.Router) {
		r.Use(am.RequireAuth())

		r.Get("/ws", systemController.WebSocket)

		r.Get("/me", authController.Me)
		r.Put("/me", authController.UpdateMe)
		r.Get("/roles/check", authController.CheckRole)

		r.Get("/dashboard", gamificationController.Dashboard)
		r.Get("/badges/new", gamificationController.NewBadges)
		r.Post("/badges/seen", gamificationController.MarkSeen)

		r.Post("/activities", activityController.Submit)
		r.Get("/activities/mine", activityController.Mine)
		r.Get("/activities/{id}", activityController.Get)
		r.Get("/activities/{id}/certificate", activityController.Certificate)

		r.Post("/events/{id}/join", eventController.Join)
		r.Delete("/events/{id}/join", eventController.Leave)
		r.Post("/events/checkin", eventController.CheckIn)
		r.Get("/checkins/mine", eventController.MyCheckins)

		r.Get("/coupons", couponController.List)
		r.Get("/coupons/mine", couponController.Mine)
		r.Post("/coupons/{id}/redeem", couponController.Redeem)

		r.Post("/organizer-applications", organizerController.Apply)
		r.Get("/organizer-applications/mine", organizerController.Mine)

		r.Post("/uploads", uploadController.Upload)

		// Admin checks happen inside; failures answer 400 {error}
		r.Post("/functions/manage-user-status", functionController.ManageUserStatus)
		r.With(
			middleware.WithRateLimitResponder(functions.RateLimited),
			limiter.Limit("verify_image", cfg.Verification.RateLimit, cfg.Verification.RateLimitWindow, middleware.KeyByUserOrIP),
		).Post("/functions/verify-activity-image", functionController.VerifyActivityImage)

		// ===============================
		// REVIEWERS (organizer or admin)
		// ===============================

		r.Group(func(r chi.Router) {
			r.Use(am.RequireRole(models.RoleOrganizer, models.RoleAdmin))

			r.Get("/activities/pending", activityController.Pending)
			r.Post("/activities/{id}/approve", activityController.Approve)
			r.Post("/activities/{id}/reject", activityController.Reject)

			r.Post("/events", eventController.Create)
			r.Delete("/events/{id}", eventController.Delete)
			r.Get("/events/{id}/checkin-payload", eventController.CheckinPayload)

			r.Get("/organizer/dashboard", eventController.OrganizerDashboard)
		})

		// ===============================
		// ADMIN
		// ===============================

		r.Route("/admin", func(r chi.Router) {
			r.Use(am.RequireRole(models.RoleAdmin))

			r.Get("/overview", adminController.Overview)
			r.Get("/activities", activityController.All)

			r.Post("/coupons", couponController.Create)
			r.Patch("/coupons/{id}", couponController.SetActive)

			r.Get("/organizer-applications", organizerController.List)
			r.Post("/organizer-applications/{id}/approve", organizerController.Approve)
			r.Post("/organizer-applications/{id}/reject", organizerController.Reject)
		})
	})
}
