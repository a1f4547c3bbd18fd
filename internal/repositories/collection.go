// file: internal/repositories/collection.go
package repositories

import (
	"context"
	"fmt"

	"ecotrack/internal/database"

	"go.uber.org/zap"
)

const (
	ProviderPostgres = "postgres"
	ProviderMemory   = "memory"
)

// Collection holds all repository instances for dependency injection.
// Inside WithTransaction every repository shares one transaction.
type Collection struct {
	User         UserRepository
	Profile      ProfileRepository
	Role         RoleRepository
	Activity     ActivityRepository
	Event        EventRepository
	Gamification GamificationRepository
	Coupon       CouponRepository
	Application  ApplicationRepository
	Stats        StatsRepository

	provider string
	inTx     bool
	db       *database.Manager
	memory   *memoryStore
	logger   *zap.Logger
}

// NewCollection creates a Postgres-backed repository collection
func NewCollection(db *database.Manager, logger *zap.Logger) (*Collection, error) {
	if db == nil {
		return nil, fmt.Errorf("database manager is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	collection := newPostgresCollection(db, db, logger, false)
	logger.Info("Repository collection initialized", zap.String("provider", ProviderPostgres))
	return collection, nil
}

// NewCollectionForProvider builds the collection selected by provider.
// db may be nil for the memory provider.
func NewCollectionForProvider(provider string, db *database.Manager, logger *zap.Logger) (*Collection, error) {
	switch provider {
	case ProviderMemory:
		return NewMemoryCollection(logger), nil
	case ProviderPostgres, "":
		return NewCollection(db, logger)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", provider)
	}
}

func newPostgresCollection(q database.Querier, db *database.Manager, logger *zap.Logger, inTx bool) *Collection {
	return &Collection{
		User:         NewUserRepository(q, logger),
		Profile:      NewProfileRepository(q, logger),
		Role:         NewRoleRepository(q, logger),
		Activity:     NewActivityRepository(q, logger),
		Event:        NewEventRepository(q, logger),
		Gamification: NewGamificationRepository(q, logger),
		Coupon:       NewCouponRepository(q, logger),
		Application:  NewApplicationRepository(q, logger),
		Stats:        NewStatsRepository(q, logger),
		provider:     ProviderPostgres,
		inTx:         inTx,
		db:           db,
		logger:       logger,
	}
}

// Provider names the storage backend
func (c *Collection) Provider() string {
	return c.provider
}

// WithTransaction runs fn with repositories bound to a single transaction.
// fn's error rolls everything back. Nested calls join the outer transaction.
func (c *Collection) WithTransaction(ctx context.Context, fn func(*Collection) error) error {
	if c.inTx {
		return fn(c)
	}
	if c.memory != nil {
		return c.memory.withTransaction(ctx, fn)
	}
	return c.postgresTransaction(ctx, fn)
}

func (c *Collection) postgresTransaction(ctx context.Context, fn func(*Collection) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newPostgresCollection(tx, c.db, c.logger, true)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.logger.Error("Failed to rollback transaction",
				zap.Error(rbErr),
				zap.NamedError("cause", err),
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// HealthCheck reports storage health
func (c *Collection) HealthCheck(ctx context.Context) map[string]interface{} {
	health := map[string]interface{}{"provider": c.provider}

	if c.db == nil {
		health["status"] = database.StatusHealthy
		return health
	}

	dbHealth := c.db.Health(ctx)
	health["status"] = dbHealth.Status
	health["response_time"] = dbHealth.ResponseTime.String()
	if len(dbHealth.Errors) > 0 {
		health["errors"] = dbHealth.Errors
	}

	metrics := c.db.Metrics()
	health["performance"] = map[string]interface{}{
		"query_count":        metrics.QueryCount,
		"error_count":        metrics.ErrorCount,
		"slow_query_count":   metrics.SlowQueryCount,
		"avg_query_duration": metrics.AvgQueryDuration.String(),
	}
	return health
}
