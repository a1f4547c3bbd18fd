package repositories

import (
	"context"

	"ecotrack/internal/database"
	"ecotrack/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const couponColumns = `c.id, c.title, c.description, c.partner_name, c.points_cost, c.coupon_code,
	c.expiry_date, c.max_redemptions, c.total_redeemed, c.is_active, c.created_at`

type couponRepository struct {
	*BaseRepository
}

// NewCouponRepository creates a Postgres coupon repository
func NewCouponRepository(q database.Querier, logger *zap.Logger) CouponRepository {
	return &couponRepository{BaseRepository: NewBaseRepository(q, logger)}
}

func scanCoupon(row rowScanner, c *models.Coupon, extra ...interface{}) error {
	dest := []interface{}{&c.ID, &c.Title, &c.Description, &c.PartnerName, &c.PointsCost, &c.CouponCode,
		&c.ExpiryDate, &c.MaxRedemptions, &c.TotalRedeemed, &c.IsActive, &c.CreatedAt}
	return row.Scan(append(dest, extra...)...)
}

func (r *couponRepository) Create(ctx context.Context, c *models.Coupon) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO coupons (id, title, description, partner_name, points_cost, coupon_code,
			expiry_date, max_redemptions, total_redeemed, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		c.ID, c.Title, c.Description, c.PartnerName, c.PointsCost, c.CouponCode,
		c.ExpiryDate, c.MaxRedemptions, c.TotalRedeemed, c.IsActive,
	).Scan(&c.CreatedAt)
	if err != nil {
		return r.wrap("failed to create coupon", err)
	}
	return nil
}

func (r *couponRepository) GetByID(ctx context.Context, id string) (*models.Coupon, error) {
	return r.get(ctx, id, false)
}

func (r *couponRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Coupon, error) {
	return r.get(ctx, id, true)
}

func (r *couponRepository) get(ctx context.Context, id string, forUpdate bool) (*models.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons c WHERE c.id = $1` + lockClause(forUpdate)

	var c models.Coupon
	if err := scanCoupon(r.q.QueryRowContext(ctx, query, id), &c); err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, r.wrap("failed to get coupon", err)
	}
	return &c, nil
}

func (r *couponRepository) ListActive(ctx context.Context) ([]models.Coupon, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+couponColumns+` FROM coupons c WHERE c.is_active ORDER BY c.points_cost ASC, c.created_at ASC`)
	if err != nil {
		return nil, r.wrap("failed to list coupons", err)
	}
	defer rows.Close()

	coupons := []models.Coupon{}
	for rows.Next() {
		var c models.Coupon
		if err := scanCoupon(rows, &c); err != nil {
			return nil, r.wrap("failed to scan coupon", err)
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func (r *couponRepository) SetActive(ctx context.Context, id string, active bool) error {
	result, err := r.q.ExecContext(ctx, `UPDATE coupons SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return r.wrap("failed to update coupon", err)
	}
	return r.expectAffected("failed to update coupon", result)
}

func (r *couponRepository) IncrementRedeemed(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `UPDATE coupons SET total_redeemed = total_redeemed + 1 WHERE id = $1`, id)
	if err != nil {
		return r.wrap("failed to increment redemptions", err)
	}
	return r.expectAffected("failed to increment redemptions", result)
}

func (r *couponRepository) GetRedemption(ctx context.Context, userID, couponID string) (*models.UserCoupon, error) {
	var uc models.UserCoupon
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, coupon_id, points_spent, redeemed_at
		FROM user_coupons WHERE user_id = $1 AND coupon_id = $2`, userID, couponID).
		Scan(&uc.ID, &uc.UserID, &uc.CouponID, &uc.PointsSpent, &uc.RedeemedAt)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, r.wrap("failed to get redemption", err)
	}
	return &uc, nil
}

func (r *couponRepository) CreateRedemption(ctx context.Context, uc *models.UserCoupon) error {
	if uc.ID == "" {
		uc.ID = uuid.NewString()
	}
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO user_coupons (id, user_id, coupon_id, points_spent)
		VALUES ($1, $2, $3, $4)
		RETURNING redeemed_at`, uc.ID, uc.UserID, uc.CouponID, uc.PointsSpent).Scan(&uc.RedeemedAt)
	if err != nil {
		return r.wrap("failed to create redemption", err)
	}
	return nil
}

func (r *couponRepository) RedemptionsByUser(ctx context.Context, userID string) ([]models.RedeemedCoupon, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+couponColumns+`, uc.id, uc.user_id, uc.coupon_id, uc.points_spent, uc.redeemed_at
		FROM user_coupons uc
		JOIN coupons c ON c.id = uc.coupon_id
		WHERE uc.user_id = $1
		ORDER BY uc.redeemed_at DESC`, userID)
	if err != nil {
		return nil, r.wrap("failed to list redemptions", err)
	}
	defer rows.Close()

	redeemed := []models.RedeemedCoupon{}
	for rows.Next() {
		var rc models.RedeemedCoupon
		if err := scanCoupon(rows, &rc.Coupon,
			&rc.ID, &rc.UserID, &rc.CouponID, &rc.PointsSpent, &rc.RedeemedAt); err != nil {
			return nil, r.wrap("failed to scan redemption", err)
		}
		redeemed = append(redeemed, rc)
	}
	return redeemed, rows.Err()
}
