// file: internal/repositories/user_repository.go
package repositories

import (
	"context"
	"time"

	"ecotrack/internal/database"
	"ecotrack/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type userRepository struct {
	*BaseRepository
}

// NewUserRepository creates a Postgres user repository
func NewUserRepository(q database.Querier, logger *zap.Logger) UserRepository {
	return &userRepository{BaseRepository: NewBaseRepository(q, logger)}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	query := `
		INSERT INTO users (id, email, password_hash)
		VALUES ($1, LOWER($2), $3)
		RETURNING email, created_at`

	err := r.q.QueryRowContext(ctx, query, user.ID, user.Email, user.PasswordHash).
		Scan(&user.Email, &user.CreatedAt)
	if err != nil {
		return r.wrap("failed to create user", err)
	}

	r.logger.Info("User created", zap.String("user_id", user.ID))
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = LOWER($1)", email)
}

func (r *userRepository) getOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := `SELECT id, email, password_hash, banned_until, created_at FROM users WHERE ` + where

	var user models.User
	err := r.q.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.BannedUntil, &user.CreatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, r.wrap("failed to get user", err)
	}
	return &user, nil
}

func (r *userRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return r.wrap("failed to set password", err)
	}
	return r.expectAffected("failed to set password", result)
}

func (r *userRepository) SetBannedUntil(ctx context.Context, id string, until *time.Time) error {
	result, err := r.q.ExecContext(ctx, `UPDATE users SET banned_until = $2 WHERE id = $1`, id, until)
	if err != nil {
		return r.wrap("failed to set ban", err)
	}
	return r.expectAffected("failed to set ban", result)
}
