package services

import (
	"context"
	"fmt"
	"time"

	"ecotrack/internal/cache"
	"ecotrack/internal/events"
	"ecotrack/internal/gamification"
	"ecotrack/internal/models"
	"ecotrack/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

const (
	recentActivityLimit     = 5
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
)

type gamificationService struct {
	baseService
	sets cache.SetStore
}

// NewGamificationService creates the badge, reward and leaderboard service
func NewGamificationService(deps *Dependencies) GamificationService {
	return &gamificationService{
		baseService: newBaseService(deps, "gamification"),
		sets:        deps.Sets,
	}
}

// ===============================
// AWARD EVALUATION
// ===============================

// statsFor aggregates the user's approved activities and current streak
func statsFor(ctx context.Context, tx *repositories.Collection, userID string) (gamification.Stats, []models.Activity, *models.UserStreak, error) {
	activities, err := tx.Activity.ListByUser(ctx, userID, 0)
	if err != nil {
		return gamification.Stats{}, nil, nil, fmt.Errorf("failed to load activities: %w", err)
	}
	streak, err := tx.Gamification.GetStreak(ctx, userID)
	if err != nil {
		return gamification.Stats{}, nil, nil, fmt.Errorf("failed to load streak: %w", err)
	}
	if streak == nil {
		streak = &models.UserStreak{UserID: userID}
	}
	return gamification.Aggregate(activities, streak.CurrentStreak), activities, streak, nil
}

// evaluateBadges inserts every badge the user's stats now cross and returns
// the ones that were new
func evaluateBadges(ctx context.Context, tx *repositories.Collection, userID string) ([]models.Badge, error) {
	stats, _, _, err := statsFor(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	badges, err := tx.Gamification.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load badges: %w", err)
	}
	unlocked, err := tx.Gamification.UserBadges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user badges: %w", err)
	}
	owned := make(map[string]bool, len(unlocked))
	for _, ub := range unlocked {
		owned[ub.BadgeID] = true
	}

	var fresh []models.Badge
	for _, badge := range gamification.CrossedBadges(badges, stats, owned) {
		inserted, err := tx.Gamification.AwardBadge(ctx, userID, badge.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to award badge %s: %w", badge.ID, err)
		}
		if inserted {
			fresh = append(fresh, badge)
		}
	}
	return fresh, nil
}

// evaluateRewards inserts every reward the user's balance now reaches
func evaluateRewards(ctx context.Context, tx *repositories.Collection, userID string) ([]models.Reward, error) {
	profile, err := tx.Profile.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil {
		return nil, nil
	}

	rewards, err := tx.Gamification.ListRewards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rewards: %w", err)
	}
	reached, err := tx.Gamification.UserRewards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user rewards: %w", err)
	}
	owned := make(map[string]bool, len(reached))
	for _, ur := range reached {
		owned[ur.RewardID] = true
	}

	var fresh []models.Reward
	for _, reward := range gamification.ReachedRewards(rewards, profile.Points, owned) {
		inserted, err := tx.Gamification.AwardReward(ctx, userID, reward.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to award reward %s: %w", reward.ID, err)
		}
		if inserted {
			fresh = append(fresh, reward)
		}
	}
	return fresh, nil
}

// badgeEvents builds one unlock event per badge
func badgeEvents(userID string, badges []models.Badge) []events.Event {
	out := make([]events.Event, 0, len(badges))
	for _, b := range badges {
		out = append(out, &events.BadgeUnlockedEvent{
			BaseEvent: events.NewBaseEvent(events.BadgeUnlocked, userID),
			BadgeID:   b.ID,
			BadgeName: b.Name,
			Icon:      b.Icon,
		})
	}
	return out
}

// ===============================
// DASHBOARD
// ===============================

func (s *gamificationService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	profile, err := s.repos.Profile.GetByUserID(ctx, userID)
	if err != nil {
		return nil, wrapInternal("Failed to load profile", err)
	}
	if profile == nil {
		return nil, EntityNotFoundError("profile", userID)
	}
	role, err := s.roleOf(ctx, s.repos, userID)
	if err != nil {
		return nil, err
	}

	stats, activities, streak, err := statsFor(ctx, s.repos, userID)
	if err != nil {
		return nil, wrapInternal("Failed to load dashboard", err)
	}

	badges, err := s.badgeProgress(ctx, userID, stats)
	if err != nil {
		return nil, err
	}
	rewards, catalog, err := s.rewardStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	recent := activities
	if len(recent) > recentActivityLimit {
		recent = recent[:recentActivityLimit]
	}

	newIDs, err := s.newBadgeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Profile:            *profile,
		Role:               role,
		Stats:              stats,
		Badges:             badges,
		Rewards:            rewards,
		NextReward:         gamification.NextReward(catalog, profile.Points),
		NextRewardProgress: gamification.RewardProgress(catalog, profile.Points),
		Streak:             *streak,
		Monthly:            gamification.MonthlySeries(activities),
		ByType:             gamification.TypeBreakdown(activities),
		RecentActivities:   slices.Clone(recent),
		NewBadgeIDs:        newIDs,
	}, nil
}

func (s *gamificationService) badgeProgress(ctx context.Context, userID string, stats gamification.Stats) ([]BadgeProgress, error) {
	catalog, err := s.repos.Gamification.ListBadges(ctx)
	if err != nil {
		return nil, wrapInternal("Failed to load badges", err)
	}
	unlocked, err := s.repos.Gamification.UserBadges(ctx, userID)
	if err != nil {
		return nil, wrapInternal("Failed to load badges", err)
	}
	unlockedAt := make(map[string]time.Time, len(unlocked))
	for _, ub := range unlocked {
		unlockedAt[ub.BadgeID] = ub.UnlockedAt
	}

	out := make([]BadgeProgress, 0, len(catalog))
	for _, b := range catalog {
		item := BadgeProgress{Badge: b, Progress: gamification.ProgressFor(b, stats)}
		if at, ok := unlockedAt[b.ID]; ok {
			at := at
			item.Unlocked = true
			item.UnlockedAt = &at
			item.Progress = 100
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *gamificationService) rewardStatus(ctx context.Context, userID string) ([]RewardStatus, []models.Reward, error) {
	catalog, err := s.repos.Gamification.ListRewards(ctx)
	if err != nil {
		return nil, nil, wrapInternal("Failed to load rewards", err)
	}
	gamification.SortRewards(catalog)

	reached, err := s.repos.Gamification.UserRewards(ctx, userID)
	if err != nil {
		return nil, nil, wrapInternal("Failed to load rewards", err)
	}
	reachedAt := make(map[string]time.Time, len(reached))
	for _, ur := range reached {
		reachedAt[ur.RewardID] = ur.UnlockedAt
	}

	out := make([]RewardStatus, 0, len(catalog))
	for _, r := range catalog {
		item := RewardStatus{Reward: r}
		if at, ok := reachedAt[r.ID]; ok {
			at := at
			item.Unlocked = true
			item.UnlockedAt = &at
		}
		out = append(out, item)
	}
	return out, catalog, nil
}

// ===============================
// NEW BADGE DETECTION
// ===============================

func (s *gamificationService) newBadgeIDs(ctx context.Context, userID string) ([]string, error) {
	unlocked, err := s.repos.Gamification.UserBadges(ctx, userID)
	if err != nil {
		return nil, wrapInternal("Failed to load badges", err)
	}
	ids := make([]string, 0, len(unlocked))
	for _, ub := range unlocked {
		ids = append(ids, ub.BadgeID)
	}

	var seen []string
	if s.sets != nil {
		seen, err = s.sets.Members(ctx, seenBadgesKeyPrefix+userID)
		if err != nil {
			// Losing the seen set only replays the celebration
			s.logger.Warn("Failed to read seen badges", zap.String("user_id", userID), zap.Error(err))
			seen = nil
		}
	}
	return gamification.NewBadges(ids, seen), nil
}

func (s *gamificationService) NewBadges(ctx context.Context, userID string) ([]models.Badge, error) {
	ids, err := s.newBadgeIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.Badge{}, nil
	}

	catalog, err := s.repos.Gamification.ListBadges(ctx)
	if err != nil {
		return nil, wrapInternal("Failed to load badges", err)
	}
	byID := make(map[string]models.Badge, len(catalog))
	for _, b := range catalog {
		byID[b.ID] = b
	}

	out := make([]models.Badge, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *gamificationService) MarkBadgesSeen(ctx context.Context, userID string, badgeIDs []string) error {
	if err := s.validate(&MarkSeenRequest{BadgeIDs: badgeIDs}); err != nil {
		return err
	}
	if s.sets == nil {
		return nil
	}
	if err := s.sets.Add(ctx, seenBadgesKeyPrefix+userID, badgeIDs...); err != nil {
		s.logger.Warn("Failed to store seen badges", zap.String("user_id", userID), zap.Error(err))
		return NewServiceUnavailableError("Could not save badge state")
	}
	return nil
}

// ===============================
// CATALOG & LEADERBOARD
// ===============================

func (s *gamificationService) ListBadges(ctx context.Context) ([]models.Badge, error) {
	badges, err := s.repos.Gamification.ListBadges(ctx)
	if err != nil {
		return nil, wrapInternal("Failed to load badges", err)
	}
	return badges, nil
}

func (s *gamificationService) ListRewards(ctx context.Context) ([]models.Reward, error) {
	rewards, err := s.repos.Gamification.ListRewards(ctx)
	if err != nil {
		return nil, wrapInternal("Failed to load rewards", err)
	}
	gamification.SortRewards(rewards)
	return rewards, nil
}

func (s *gamificationService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}

	load := func() ([]models.LeaderboardEntry, error) {
		return s.buildLeaderboard(ctx, limit)
	}
	if s.cache == nil {
		return load()
	}
	return cache.Remember(ctx, s.cache, s.logger, fmt.Sprintf("leaderboard:%d", limit), leaderboardTTL, load)
}

func (s *gamificationService) buildLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	profiles, err := s.repos.Profile.Leaderboard(ctx, limit)
	if err != nil {
		return nil, wrapInternal("Failed to load leaderboard", err)
	}

	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.UserID)
	}
	icons, err := s.repos.Gamification.BadgeIconsByUser(ctx, ids)
	if err != nil {
		return nil, wrapInternal("Failed to load leaderboard", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(profiles))
	for i, p := range profiles {
		badgeIcons := icons[p.UserID]
		if badgeIcons == nil {
			badgeIcons = []string{}
		}
		entries = append(entries, models.LeaderboardEntry{
			Rank:       i + 1,
			UserID:     p.UserID,
			Name:       p.Name,
			City:       p.City,
			AvatarURL:  p.AvatarURL,
			Points:     p.Points,
			BadgeIcons: badgeIcons,
		})
	}
	return entries, nil
}
