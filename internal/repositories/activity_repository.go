package repositories

import (
	"context"

	"ecotrack/internal/database"
	"ecotrack/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const activityColumns = `a.id, a.user_id, a.type, a.description, a.image_url, a.waste_kg,
	a.latitude, a.longitude, a.status, a.points_awarded, a.reviewed_by, a.created_at`

type activityRepository struct {
	*BaseRepository
}

// NewActivityRepository creates a Postgres activity repository
func NewActivityRepository(q database.Querier, logger *zap.Logger) ActivityRepository {
	return &activityRepository{BaseRepository: NewBaseRepository(q, logger)}
}

func scanActivity(row rowScanner, a *models.Activity, extra ...interface{}) error {
	dest := []interface{}{&a.ID, &a.UserID, &a.Type, &a.Description, &a.ImageURL, &a.WasteKg,
		&a.Latitude, &a.Longitude, &a.Status, &a.PointsAwarded, &a.ReviewedBy, &a.CreatedAt}
	return row.Scan(append(dest, extra...)...)
}

func (r *activityRepository) Create(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.ActivityPending
	}
	query := `
		INSERT INTO activities (id, user_id, type, description, image_url, waste_kg, latitude, longitude, status, points_awarded)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	err := r.q.QueryRowContext(ctx, query,
		a.ID, a.UserID, a.Type, a.Description, a.ImageURL, a.WasteKg,
		a.Latitude, a.Longitude, a.Status, a.PointsAwarded,
	).Scan(&a.CreatedAt)
	if err != nil {
		return r.wrap("failed to create activity", err)
	}
	return nil
}

func (r *activityRepository) GetByID(ctx context.Context, id string) (*models.Activity, error) {
	return r.get(ctx, id, false)
}

func (r *activityRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Activity, error) {
	return r.get(ctx, id, true)
}

func (r *activityRepository) get(ctx context.Context, id string, forUpdate bool) (*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities a WHERE a.id = $1` + lockClause(forUpdate)

	var a models.Activity
	if err := scanActivity(r.q.QueryRowContext(ctx, query, id), &a); err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, r.wrap("failed to get activity", err)
	}
	return &a, nil
}

func (r *activityRepository) UpdateReview(ctx context.Context, a *models.Activity) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE activities SET status = $2, points_awarded = $3, reviewed_by = $4 WHERE id = $1`,
		a.ID, a.Status, a.PointsAwarded, a.ReviewedBy)
	if err != nil {
		return r.wrap("failed to update activity review", err)
	}
	return r.expectAffected("failed to update activity review", result)
}

func (r *activityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities a WHERE a.user_id = $1 ORDER BY a.created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return r.list(ctx, query, false, args...)
}

func (r *activityRepository) ListByStatus(ctx context.Context, status models.ActivityStatus, limit int) ([]models.Activity, error) {
	query := `SELECT ` + activityColumns + `, COALESCE(p.name, '')
		FROM activities a
		LEFT JOIN profiles p ON p.user_id = a.user_id
		WHERE a.status = $1
		ORDER BY a.created_at DESC`
	args := []interface{}{status}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return r.list(ctx, query, true, args...)
}

func (r *activityRepository) List(ctx context.Context, params models.PaginationParams) ([]models.Activity, int64, error) {
	var total int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`).Scan(&total); err != nil {
		return nil, 0, r.wrap("failed to count activities", err)
	}

	query, args := paginate(`SELECT `+activityColumns+`, COALESCE(p.name, '')
		FROM activities a
		LEFT JOIN profiles p ON p.user_id = a.user_id
		ORDER BY a.created_at DESC`, params, 1, nil)

	activities, err := r.list(ctx, query, true, args...)
	if err != nil {
		return nil, 0, err
	}
	return activities, total, nil
}

func (r *activityRepository) list(ctx context.Context, query string, withName bool, args ...interface{}) ([]models.Activity, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.wrap("failed to list activities", err)
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		var extra []interface{}
		if withName {
			extra = append(extra, &a.SubmitterName)
		}
		if err := scanActivity(rows, &a, extra...); err != nil {
			return nil, r.wrap("failed to scan activity", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (r *activityRepository) Counts(ctx context.Context) (*models.ActivityCounts, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT status, type, COUNT(*) FROM activities GROUP BY status, type`)
	if err != nil {
		return nil, r.wrap("failed to count activities", err)
	}
	defer rows.Close()

	counts := &models.ActivityCounts{
		ByStatus: make(map[models.ActivityStatus]int64),
		ByType:   make(map[models.ActivityType]int64),
	}
	for rows.Next() {
		var status models.ActivityStatus
		var activityType models.ActivityType
		var n int64
		if err := rows.Scan(&status, &activityType, &n); err != nil {
			return nil, r.wrap("failed to scan activity counts", err)
		}
		counts.ByStatus[status] += n
		counts.ByType[activityType] += n
	}
	return counts, rows.Err()
}
