package repositories

import (
	"context"

	"ecotrack/internal/database"
	"ecotrack/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const applicationColumns = `id, user_id, organization_name, organizer_type, official_email, contact_number,
	website_url, purpose, proof_type, proof_url, status, admin_remarks, reviewed_by, reviewed_at, created_at`

type applicationRepository struct {
	*BaseRepository
}

// NewApplicationRepository creates a Postgres organizer application repository
func NewApplicationRepository(q database.Querier, logger *zap.Logger) ApplicationRepository {
	return &applicationRepository{BaseRepository: NewBaseRepository(q, logger)}
}

func scanApplication(row rowScanner, a *models.OrganizerApplication) error {
	return row.Scan(&a.ID, &a.UserID, &a.OrganizationName, &a.OrganizerType, &a.OfficialEmail,
		&a.ContactNumber, &a.WebsiteURL, &a.Purpose, &a.ProofType, &a.ProofURL, &a.Status,
		&a.AdminRemarks, &a.ReviewedBy, &a.ReviewedAt, &a.CreatedAt)
}

func (r *applicationRepository) Create(ctx context.Context, a *models.OrganizerApplication) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = models.ApplicationPending
	}
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO organizer_applications (id, user_id, organization_name, organizer_type, official_email,
			contact_number, website_url, purpose, proof_type, proof_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`,
		a.ID, a.UserID, a.OrganizationName, a.OrganizerType, a.OfficialEmail,
		a.ContactNumber, a.WebsiteURL, a.Purpose, a.ProofType, a.ProofURL, a.Status,
	).Scan(&a.CreatedAt)
	if err != nil {
		return r.wrap("failed to create application", err)
	}
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*models.OrganizerApplication, error) {
	return r.getOne(ctx, `SELECT `+applicationColumns+` FROM organizer_applications WHERE id = $1`, id)
}

func (r *applicationRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.OrganizerApplication, error) {
	return r.getOne(ctx, `SELECT `+applicationColumns+` FROM organizer_applications WHERE id = $1 FOR UPDATE`, id)
}

func (r *applicationRepository) LatestByUser(ctx context.Context, userID string) (*models.OrganizerApplication, error) {
	return r.getOne(ctx, `SELECT `+applicationColumns+` FROM organizer_applications
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID)
}

func (r *applicationRepository) getOne(ctx context.Context, query string, arg string) (*models.OrganizerApplication, error) {
	var a models.OrganizerApplication
	if err := scanApplication(r.q.QueryRowContext(ctx, query, arg), &a); err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, r.wrap("failed to get application", err)
	}
	return &a, nil
}

func (r *applicationRepository) HasPending(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM organizer_applications WHERE user_id = $1 AND status = 'pending')`,
		userID).Scan(&exists)
	if err != nil {
		return false, r.wrap("failed to check pending application", err)
	}
	return exists, nil
}

func (r *applicationRepository) List(ctx context.Context, status *models.ApplicationStatus) ([]models.OrganizerApplication, error) {
	query := `SELECT ` + applicationColumns + ` FROM organizer_applications`
	var args []interface{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.wrap("failed to list applications", err)
	}
	defer rows.Close()

	apps := []models.OrganizerApplication{}
	for rows.Next() {
		var a models.OrganizerApplication
		if err := scanApplication(rows, &a); err != nil {
			return nil, r.wrap("failed to scan application", err)
		}
		apps = append(apps, a)
	}
	return apps, rows.Err()
}

func (r *applicationRepository) UpdateReview(ctx context.Context, a *models.OrganizerApplication) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE organizer_applications
		SET status = $2, admin_remarks = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1`, a.ID, a.Status, a.AdminRemarks, a.ReviewedBy, a.ReviewedAt)
	if err != nil {
		return r.wrap("failed to update application review", err)
	}
	return r.expectAffected("failed to update application review", result)
}
