package services

import (
	"context"

	"ecotrack/internal/cache"
	"ecotrack/internal/models"
)

type statsService struct {
	baseService
}

// NewStatsService creates the public statistics service
func NewStatsService(deps *Dependencies) StatsService {
	return &statsService{baseService: newBaseService(deps, "stats")}
}

func (s *statsService) Landing(ctx context.Context) (*models.LandingStats, error) {
	load := func() (*models.LandingStats, error) {
		stats, err := s.repos.Stats.LandingStats(ctx)
		if err != nil {
			return nil, wrapInternal("Failed to load statistics", err)
		}
		return stats, nil
	}
	if s.cache == nil {
		return load()
	}
	return cache.Remember(ctx, s.cache, s.logger, landingStatsKey, landingStatsTTL, load)
}
