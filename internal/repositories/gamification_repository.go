package repositories

import (
	"context"

	"ecotrack/internal/database"
	"ecotrack/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type gamificationRepository struct {
	*BaseRepository
}

// NewGamificationRepository creates a Postgres badge, reward and streak repository
func NewGamificationRepository(q database.Querier, logger *zap.Logger) GamificationRepository {
	return &gamificationRepository{BaseRepository: NewBaseRepository(q, logger)}
}

func (r *gamificationRepository) ListBadges(ctx context.Context) ([]models.Badge, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, description, icon, category, criteria_type, criteria_value, created_at
		FROM badges ORDER BY category, criteria_value`)
	if err != nil {
		return nil, r.wrap("failed to list badges", err)
	}
	defer rows.Close()

	badges := []models.Badge{}
	for rows.Next() {
		var b models.Badge
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon, &b.Category,
			&b.CriteriaType, &b.CriteriaValue, &b.CreatedAt); err != nil {
			return nil, r.wrap("failed to scan badge", err)
		}
		badges = append(badges, b)
	}
	return badges, rows.Err()
}

func (r *gamificationRepository) UserBadges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, badge_id, unlocked_at FROM user_badges
		WHERE user_id = $1 ORDER BY unlocked_at ASC, id ASC`, userID)
	if err != nil {
		return nil, r.wrap("failed to list user badges", err)
	}
	defer rows.Close()

	unlocks := []models.UserBadge{}
	for rows.Next() {
		var ub models.UserBadge
		if err := rows.Scan(&ub.ID, &ub.UserID, &ub.BadgeID, &ub.UnlockedAt); err != nil {
			return nil, r.wrap("failed to scan user badge", err)
		}
		unlocks = append(unlocks, ub)
	}
	return unlocks, rows.Err()
}

func (r *gamificationRepository) AwardBadge(ctx context.Context, userID, badgeID string) (bool, error) {
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO user_badges (id, user_id, badge_id) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, badge_id) DO NOTHING`, uuid.NewString(), userID, badgeID)
	if err != nil {
		return false, r.wrap("failed to award badge", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, r.wrap("failed to award badge", err)
	}
	return n > 0, nil
}

func (r *gamificationRepository) BadgeIconsByUser(ctx context.Context, userIDs []string) (map[string][]string, error) {
	icons := make(map[string][]string, len(userIDs))
	if len(userIDs) == 0 {
		return icons, nil
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT ub.user_id, b.icon
		FROM user_badges ub
		JOIN badges b ON b.id = ub.badge_id
		WHERE ub.user_id = ANY($1)
		ORDER BY ub.unlocked_at ASC`, pq.Array(userIDs))
	if err != nil {
		return nil, r.wrap("failed to load badge icons", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, icon string
		if err := rows.Scan(&userID, &icon); err != nil {
			return nil, r.wrap("failed to scan badge icon", err)
		}
		icons[userID] = append(icons[userID], icon)
	}
	return icons, rows.Err()
}

func (r *gamificationRepository) ListRewards(ctx context.Context) ([]models.Reward, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, description, icon, points_required FROM rewards ORDER BY points_required ASC`)
	if err != nil {
		return nil, r.wrap("failed to list rewards", err)
	}
	defer rows.Close()

	rewards := []models.Reward{}
	for rows.Next() {
		var rw models.Reward
		if err := rows.Scan(&rw.ID, &rw.Name, &rw.Description, &rw.Icon, &rw.PointsRequired); err != nil {
			return nil, r.wrap("failed to scan reward", err)
		}
		rewards = append(rewards, rw)
	}
	return rewards, rows.Err()
}

func (r *gamificationRepository) UserRewards(ctx context.Context, userID string) ([]models.UserReward, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, reward_id, unlocked_at FROM user_rewards
		WHERE user_id = $1 ORDER BY unlocked_at ASC`, userID)
	if err != nil {
		return nil, r.wrap("failed to list user rewards", err)
	}
	defer rows.Close()

	unlocks := []models.UserReward{}
	for rows.Next() {
		var ur models.UserReward
		if err := rows.Scan(&ur.ID, &ur.UserID, &ur.RewardID, &ur.UnlockedAt); err != nil {
			return nil, r.wrap("failed to scan user reward", err)
		}
		unlocks = append(unlocks, ur)
	}
	return unlocks, rows.Err()
}

func (r *gamificationRepository) AwardReward(ctx context.Context, userID, rewardID string) (bool, error) {
	result, err := r.q.ExecContext(ctx, `
		INSERT INTO user_rewards (id, user_id, reward_id) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, reward_id) DO NOTHING`, uuid.NewString(), userID, rewardID)
	if err != nil {
		return false, r.wrap("failed to award reward", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, r.wrap("failed to award reward", err)
	}
	return n > 0, nil
}

func (r *gamificationRepository) GetStreak(ctx context.Context, userID string) (*models.UserStreak, error) {
	return r.getStreak(ctx, userID, false)
}

func (r *gamificationRepository) GetStreakForUpdate(ctx context.Context, userID string) (*models.UserStreak, error) {
	return r.getStreak(ctx, userID, true)
}

func (r *gamificationRepository) getStreak(ctx context.Context, userID string, forUpdate bool) (*models.UserStreak, error) {
	query := `SELECT id, user_id, current_streak, longest_streak, last_activity_date
		FROM user_streaks WHERE user_id = $1` + lockClause(forUpdate)

	var s models.UserStreak
	err := r.q.QueryRowContext(ctx, query, userID).
		Scan(&s.ID, &s.UserID, &s.CurrentStreak, &s.LongestStreak, &s.LastActivityDate)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, r.wrap("failed to get streak", err)
	}
	return &s, nil
}

func (r *gamificationRepository) SaveStreak(ctx context.Context, s *models.UserStreak) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO user_streaks (id, user_id, current_streak, longest_streak, last_activity_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_activity_date = EXCLUDED.last_activity_date
		RETURNING id`,
		s.ID, s.UserID, s.CurrentStreak, s.LongestStreak, s.LastActivityDate).Scan(&s.ID)
	if err != nil {
		return r.wrap("failed to save streak", err)
	}
	return nil
}
