package repositories

import (
	"context"

	"ecotrack/internal/database"
	"ecotrack/internal/models"

	"go.uber.org/zap"
)

type statsRepository struct {
	*BaseRepository
}

// NewStatsRepository creates a Postgres landing statistics repository
func NewStatsRepository(q database.Querier, logger *zap.Logger) StatsRepository {
	return &statsRepository{BaseRepository: NewBaseRepository(q, logger)}
}

func (r *statsRepository) LandingStats(ctx context.Context) (*models.LandingStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM activities WHERE status = 'approved'),
			(SELECT COUNT(*) FROM profiles),
			(SELECT COUNT(*) FROM events),
			(SELECT COUNT(*) FROM activities WHERE status = 'approved' AND type = 'tree_plantation'),
			(SELECT COALESCE(SUM(waste_kg), 0) FROM activities WHERE status = 'approved')`

	var s models.LandingStats
	err := r.q.QueryRowContext(ctx, query).Scan(
		&s.ApprovedActivities, &s.Volunteers, &s.Events, &s.TreesPlanted, &s.WasteCollectedKg)
	if err != nil {
		return nil, r.wrap("failed to load landing stats", err)
	}
	return &s, nil
}
