package models

import "time"

// Coupon is a partner offer bought with points
type Coupon struct {
	ID             string     `json:"id" db:"id"`
	Title          string     `json:"title" db:"title"`
	Description    *string    `json:"description,omitempty" db:"description"`
	PartnerName    *string    `json:"partner_name,omitempty" db:"partner_name"`
	PointsCost     int        `json:"points_cost" db:"points_cost"`
	CouponCode     string     `json:"coupon_code,omitempty" db:"coupon_code"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty" db:"expiry_date"`
	MaxRedemptions *int       `json:"max_redemptions,omitempty" db:"max_redemptions"`
	TotalRedeemed  int        `json:"total_redeemed" db:"total_redeemed"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// IsExpired reports whether the coupon has expired at now
func (c *Coupon) IsExpired(now time.Time) bool {
	return c.ExpiryDate != nil && !now.Before(*c.ExpiryDate)
}

// IsSoldOut reports whether every unit has been redeemed
func (c *Coupon) IsSoldOut() bool {
	return c.MaxRedemptions != nil && c.TotalRedeemed >= *c.MaxRedemptions
}

// UserCoupon records a redemption
type UserCoupon struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	CouponID    string    `json:"coupon_id" db:"coupon_id"`
	PointsSpent int       `json:"points_spent" db:"points_spent"`
	RedeemedAt  time.Time `json:"redeemed_at" db:"redeemed_at"`
}

// CouponListing is an active coupon as seen by one user
type CouponListing struct {
	Coupon
	Redeemed  bool `json:"redeemed"`
	CanAfford bool `json:"can_afford"`
}

// RedeemedCoupon is a redemption joined with its coupon
type RedeemedCoupon struct {
	UserCoupon
	Coupon Coupon `json:"coupon"`
}
