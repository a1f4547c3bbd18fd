package services

import (
	"context"
	"errors"
	"time"

	"ecotrack/internal/cache"
	"ecotrack/internal/events"
	"ecotrack/internal/models"
	"ecotrack/internal/repositories"
	"ecotrack/internal/validation"

	"go.uber.org/zap"
)

// Cache keys shared between services and event handlers
const (
	leaderboardKeyPattern = "leaderboard:*"
	landingStatsKey       = "stats:landing"
	accountKeyPrefix      = "account:"
	seenBadgesKeyPrefix   = "badges:seen:"
)

const (
	leaderboardTTL  = 60 * time.Second
	landingStatsTTL = 60 * time.Second
	accountStateTTL = 60 * time.Second
)

// baseService carries the dependencies every domain service shares
type baseService struct {
	repos  *repositories.Collection
	cache  cache.Cache
	bus    events.EventBus
	logger *zap.Logger
	now    func() time.Time
}

func newBaseService(deps *Dependencies, name string) baseService {
	return baseService{
		repos:  deps.Repositories,
		cache:  deps.Cache,
		bus:    deps.EventBus,
		logger: deps.Logger.Named(name),
		now:    deps.Clock,
	}
}

// validate runs struct validation and maps failures to VALIDATION_ERROR
func (b *baseService) validate(req interface{}) error {
	if err := validation.ValidateStruct(req); err != nil {
		serviceErr := NewValidationError(err.Error(), err)
		var fields validation.Errors
		if errors.As(err, &fields) {
			serviceErr.WithDetail("fields", fields.Fields())
		}
		return serviceErr
	}
	return nil
}

// roleOf reads the authoritative role row
func (b *baseService) roleOf(ctx context.Context, repos *repositories.Collection, userID string) (models.Role, error) {
	role, err := repos.Role.GetRole(ctx, userID)
	if err != nil {
		return "", wrapInternal("Failed to check role", err)
	}
	return role, nil
}

// requireRole fails with message unless userID holds one of allowed
func (b *baseService) requireRole(ctx context.Context, userID, message string, allowed ...models.Role) (models.Role, error) {
	if userID == "" {
		return "", NewUnauthorizedError("Authentication required")
	}
	role, err := b.roleOf(ctx, b.repos, userID)
	if err != nil {
		return "", err
	}
	for _, r := range allowed {
		if role == r {
			return role, nil
		}
	}
	return role, NewForbiddenError(message)
}

// publish hands the event to the bus without blocking the caller
func (b *baseService) publish(ctx context.Context, event events.Event) {
	if b.bus == nil {
		return
	}
	if err := b.bus.PublishAsync(ctx, event); err != nil {
		b.logger.Warn("Failed to publish event",
			zap.String("event_type", event.GetEventType()),
			zap.String("user_id", event.GetUserID()),
			zap.Error(err))
	}
}

// invalidate drops cache keys; failures only degrade freshness
func (b *baseService) invalidate(ctx context.Context, keys ...string) {
	if b.cache == nil {
		return
	}
	for _, key := range keys {
		if err := b.cache.Delete(ctx, key); err != nil {
			b.logger.Debug("Cache delete failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// txError passes service errors through and masks everything else
func txError(message string, err error) error {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return wrapInternal(message, err)
}
