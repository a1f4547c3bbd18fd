package repositories

import (
	"context"

	"ecotrack/internal/database"
	"ecotrack/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const profileColumns = `id, user_id, name, city, avatar_url, points, account_status, created_at, updated_at`

type profileRepository struct {
	*BaseRepository
}

// NewProfileRepository creates a Postgres profile repository
func NewProfileRepository(q database.Querier, logger *zap.Logger) ProfileRepository {
	return &profileRepository{BaseRepository: NewBaseRepository(q, logger)}
}

func scanProfile(row rowScanner, p *models.Profile) error {
	return row.Scan(&p.ID, &p.UserID, &p.Name, &p.City, &p.AvatarURL,
		&p.Points, &p.AccountStatus, &p.CreatedAt, &p.UpdatedAt)
}

func (r *profileRepository) Create(ctx context.Context, p *models.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.AccountStatus == "" {
		p.AccountStatus = models.AccountActive
	}
	query := `
		INSERT INTO profiles (id, user_id, name, city, avatar_url, points, account_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.q.QueryRowContext(ctx, query,
		p.ID, p.UserID, p.Name, p.City, p.AvatarURL, p.Points, p.AccountStatus,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return r.wrap("failed to create profile", err)
	}
	return nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	return r.get(ctx, userID, false)
}

func (r *profileRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*models.Profile, error) {
	return r.get(ctx, userID, true)
}

func (r *profileRepository) get(ctx context.Context, userID string, forUpdate bool) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1` + lockClause(forUpdate)

	var p models.Profile
	if err := scanProfile(r.q.QueryRowContext(ctx, query, userID), &p); err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, r.wrap("failed to get profile", err)
	}
	return &p, nil
}

func (r *profileRepository) Update(ctx context.Context, p *models.Profile) error {
	query := `
		UPDATE profiles SET name = $2, city = $3, avatar_url = $4, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at`

	err := r.q.QueryRowContext(ctx, query, p.UserID, p.Name, p.City, p.AvatarURL).Scan(&p.UpdatedAt)
	if err != nil {
		if r.IsNotFound(err) {
			return ErrNotFound
		}
		return r.wrap("failed to update profile", err)
	}
	return nil
}

func (r *profileRepository) AddPoints(ctx context.Context, userID string, delta int) (int, error) {
	query := `
		UPDATE profiles SET points = points + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING points`

	var points int
	if err := r.q.QueryRowContext(ctx, query, userID, delta).Scan(&points); err != nil {
		if r.IsNotFound(err) {
			return 0, ErrNotFound
		}
		return 0, r.wrap("failed to add points", err)
	}
	return points, nil
}

func (r *profileRepository) SetAccountStatus(ctx context.Context, userID string, status models.AccountStatus) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE profiles SET account_status = $2, updated_at = NOW() WHERE user_id = $1`, userID, status)
	if err != nil {
		return r.wrap("failed to set account status", err)
	}
	return r.expectAffected("failed to set account status", result)
}

func (r *profileRepository) Leaderboard(ctx context.Context, limit int) ([]models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles
		WHERE account_status = 'active'
		ORDER BY points DESC, created_at ASC
		LIMIT $1`

	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, r.wrap("failed to load leaderboard", err)
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		var p models.Profile
		if err := scanProfile(rows, &p); err != nil {
			return nil, r.wrap("failed to scan profile", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (r *profileRepository) ListSummaries(ctx context.Context) ([]models.UserSummary, error) {
	query := `
		SELECT p.id, p.user_id, p.name, p.city, p.avatar_url, p.points, p.account_status,
		       p.created_at, p.updated_at, u.email, COALESCE(ur.role, 'citizen')
		FROM profiles p
		JOIN users u ON u.id = p.user_id
		LEFT JOIN user_roles ur ON ur.user_id = p.user_id
		ORDER BY p.created_at DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, r.wrap("failed to list users", err)
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &s.City, &s.AvatarURL, &s.Points,
			&s.AccountStatus, &s.CreatedAt, &s.UpdatedAt, &s.Email, &s.Role); err != nil {
			return nil, r.wrap("failed to scan user", err)
		}
		users = append(users, s)
	}
	return users, rows.Err()
}

func (r *profileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0, r.wrap("failed to count profiles", err)
	}
	return n, nil
}

func (r *profileRepository) TotalPoints(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT COALESCE(SUM(points), 0) FROM profiles`).Scan(&n); err != nil {
		return 0, r.wrap("failed to sum points", err)
	}
	return n, nil
}
