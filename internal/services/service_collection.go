// file: internal/services/service_collection.go
package services

import (
	"context"
	"fmt"
	"time"

	"ecotrack/internal/cache"
	"ecotrack/internal/config"
	"ecotrack/internal/database"
	"ecotrack/internal/events"
	"ecotrack/internal/repositories"
	"ecotrack/internal/utils"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Dependencies are the infrastructure pieces the services are built from.
// Optional integrations (Verifier, Geocoder, Images, Sets) may be nil.
type Dependencies struct {
	Config       *config.Config
	Repositories *repositories.Collection
	Cache        cache.Cache
	Sets         cache.SetStore
	EventBus     events.EventBus
	Verifier     ImageVerifier
	Geocoder     Geocoder
	Images       utils.ImageStore
	Tokens       *TokenIssuer
	OAuth        *oauth2.Config
	Logger       *zap.Logger
	Clock        func() time.Time
}

// ServiceCollection holds every domain service
type ServiceCollection struct {
	AuthService         AuthService
	ActivityService     ActivityService
	EventService        EventService
	CouponService       CouponService
	GamificationService GamificationService
	OrganizerService    OrganizerService
	AdminService        AdminService
	StatsService        StatsService
	VerificationService VerificationService
	GeocodingService    GeocodingService
	FileService         FileService

	Repositories *repositories.Collection
	Cache        cache.Cache
	EventBus     events.EventBus
	Logger       *zap.Logger

	startTime time.Time
}

// ServiceHealth represents the health status of the service collection
type ServiceHealth struct {
	Status       string                   `json:"status"`
	Timestamp    time.Time                `json:"timestamp"`
	Dependencies map[string]ServiceStatus `json:"dependencies"`
	Uptime       string                   `json:"uptime"`
	Issues       []string                 `json:"issues,omitempty"`
}

// ServiceStatus represents the status of one dependency
type ServiceStatus struct {
	Name     string                 `json:"name"`
	Status   string                 `json:"status"` // healthy, degraded, unhealthy
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// NewServiceCollection wires the services and subscribes their event handlers
func NewServiceCollection(deps *Dependencies) (*ServiceCollection, error) {
	if deps == nil || deps.Repositories == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Now().UTC() }
	}
	if deps.Tokens == nil {
		if deps.Config == nil {
			return nil, fmt.Errorf("configuration or token issuer is required")
		}
		deps.Tokens = NewTokenIssuer(deps.Config.Auth.JWTSecret, deps.Config.Auth.JWTExpiration)
	}
	if deps.OAuth == nil && deps.Config != nil && deps.Config.Auth.GoogleOAuthEnabled() {
		deps.OAuth = &oauth2.Config{
			ClientID:     deps.Config.Auth.GoogleClientID,
			ClientSecret: deps.Config.Auth.GoogleClientSecret,
			RedirectURL:  deps.Config.Auth.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}

	sc := &ServiceCollection{
		AuthService:         NewAuthService(deps),
		ActivityService:     NewActivityService(deps),
		EventService:        NewEventService(deps),
		CouponService:       NewCouponService(deps),
		GamificationService: NewGamificationService(deps),
		OrganizerService:    NewOrganizerService(deps),
		AdminService:        NewAdminService(deps),
		StatsService:        NewStatsService(deps),
		VerificationService: NewVerificationService(deps),
		GeocodingService:    NewGeocodingService(deps),
		FileService:         NewFileService(deps),
		Repositories:        deps.Repositories,
		Cache:               deps.Cache,
		EventBus:            deps.EventBus,
		Logger:              deps.Logger,
		startTime:           deps.Clock(),
	}

	if err := sc.registerEventHandlers(); err != nil {
		return nil, fmt.Errorf("failed to register event handlers: %w", err)
	}

	deps.Logger.Info("Service collection initialized",
		zap.String("storage", deps.Repositories.Provider()),
		zap.Bool("google_oauth", deps.OAuth != nil),
		zap.Bool("image_store", deps.Images != nil),
		zap.Bool("verification", deps.Verifier != nil && deps.Verifier.Enabled()))
	return sc, nil
}

// ===============================
// EVENT HANDLERS
// ===============================

func (sc *ServiceCollection) registerEventHandlers() error {
	if sc.EventBus == nil {
		return nil
	}

	if sc.Cache != nil {
		invalidateRankings := events.NewEventHandlerFunc("rankings-invalidation", func(ctx context.Context, e events.Event) error {
			if err := sc.Cache.DeletePattern(ctx, leaderboardKeyPattern); err != nil {
				return err
			}
			return sc.Cache.Delete(ctx, landingStatsKey)
		})
		for _, eventType := range events.PointsChanged {
			if err := sc.EventBus.Subscribe(eventType, invalidateRankings); err != nil {
				return err
			}
		}

		invalidateAccount := events.NewEventHandlerFunc("account-invalidation", func(ctx context.Context, e events.Event) error {
			return sc.Cache.Delete(ctx, accountKeyPrefix+e.GetUserID())
		})
		for _, eventType := range []string{events.OrganizerApproved, events.AccountStatusChanged} {
			if err := sc.EventBus.Subscribe(eventType, invalidateAccount); err != nil {
				return err
			}
		}
	}

	audit := sc.Logger.Named("audit")
	return sc.EventBus.SubscribePattern("*", events.NewEventHandlerFunc("audit-log", func(_ context.Context, e events.Event) error {
		audit.Info("Domain event",
			zap.String("event_type", e.GetEventType()),
			zap.String("event_id", e.GetEventID()),
			zap.String("user_id", e.GetUserID()),
			zap.Time("timestamp", e.GetTimestamp()))
		return nil
	}))
}

// ===============================
// HEALTH AND LIFECYCLE
// ===============================

// HealthCheck reports storage, cache and event bus health
func (sc *ServiceCollection) HealthCheck(ctx context.Context) *ServiceHealth {
	health := &ServiceHealth{
		Status:       database.StatusHealthy,
		Timestamp:    time.Now().UTC(),
		Dependencies: make(map[string]ServiceStatus),
		Uptime:       time.Since(sc.startTime).Round(time.Second).String(),
	}

	storage := sc.Repositories.HealthCheck(ctx)
	status, _ := storage["status"].(string)
	health.record(ServiceStatus{Name: "storage", Status: status, Metadata: storage})

	if sc.Cache != nil {
		health.record(checkStatus("cache", sc.Cache.Health(ctx)))
	}
	if sc.EventBus != nil {
		health.record(checkStatus("events", sc.EventBus.Health()))
	}
	return health
}

func checkStatus(name string, err error) ServiceStatus {
	if err != nil {
		return ServiceStatus{Name: name, Status: database.StatusUnhealthy, Error: err.Error()}
	}
	return ServiceStatus{Name: name, Status: database.StatusHealthy}
}

func (h *ServiceHealth) record(s ServiceStatus) {
	h.Dependencies[s.Name] = s
	if s.Status == database.StatusHealthy {
		return
	}
	h.Issues = append(h.Issues, fmt.Sprintf("%s: %s", s.Name, s.Status))
	// Storage failures take the service down; anything else degrades it
	if s.Name == "storage" && s.Status == database.StatusUnhealthy {
		h.Status = database.StatusUnhealthy
	} else if h.Status == database.StatusHealthy {
		h.Status = database.StatusDegraded
	}
}

// Shutdown drains the event bus
func (sc *ServiceCollection) Shutdown(ctx context.Context) error {
	if sc.EventBus == nil {
		return nil
	}
	sc.Logger.Info("Stopping event bus")
	return sc.EventBus.Stop(ctx)
}
