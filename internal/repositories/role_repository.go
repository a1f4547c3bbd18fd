package repositories

import (
	"context"

	"ecotrack/internal/database"
	"ecotrack/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type roleRepository struct {
	*BaseRepository
}

// NewRoleRepository creates a Postgres role repository
func NewRoleRepository(q database.Querier, logger *zap.Logger) RoleRepository {
	return &roleRepository{BaseRepository: NewBaseRepository(q, logger)}
}

func (r *roleRepository) GetRole(ctx context.Context, userID string) (models.Role, error) {
	var role models.Role
	err := r.q.QueryRowContext(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, userID).Scan(&role)
	if err != nil {
		if r.IsNotFound(err) {
			return "", nil
		}
		return "", r.wrap("failed to get role", err)
	}
	return role, nil
}

func (r *roleRepository) SetRole(ctx context.Context, userID string, role models.Role) error {
	query := `
		INSERT INTO user_roles (id, user_id, role) VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`

	if _, err := r.q.ExecContext(ctx, query, uuid.NewString(), userID, role); err != nil {
		return r.wrap("failed to set role", err)
	}
	r.logger.Info("Role assigned", zap.String("user_id", userID), zap.String("role", string(role)))
	return nil
}
