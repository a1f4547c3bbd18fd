package services

import (
	"context"
	"errors"
	"strings"

	"ecotrack/internal/events"
	"ecotrack/internal/models"
	"ecotrack/internal/repositories"
	"ecotrack/internal/utils"

	"go.uber.org/zap"
)

const couponAdminMessage = "Only admins can manage coupons"

type couponService struct {
	baseService
}

// NewCouponService creates the coupon marketplace service
func NewCouponService(deps *Dependencies) CouponService {
	return &couponService{baseService: newBaseService(deps, "coupons")}
}

func (s *couponService) List(ctx context.Context, userID string) ([]models.CouponListing, error) {
	coupons, err := s.repos.Coupon.ListActive(ctx)
	if err != nil {
		return nil, wrapInternal("Failed to load coupons", err)
	}

	points := 0
	redeemed := map[string]bool{}
	if userID != "" {
		profile, err := s.repos.Profile.GetByUserID(ctx, userID)
		if err != nil {
			return nil, wrapInternal("Failed to load profile", err)
		}
		if profile != nil {
			points = profile.Points
		}
		mine, err := s.repos.Coupon.RedemptionsByUser(ctx, userID)
		if err != nil {
			return nil, wrapInternal("Failed to load redemptions", err)
		}
		for _, r := range mine {
			redeemed[r.CouponID] = true
		}
	}

	now := s.now()
	listings := make([]models.CouponListing, 0, len(coupons))
	for _, c := range coupons {
		if c.IsExpired(now) {
			continue
		}
		listing := models.CouponListing{
			Coupon:    c,
			Redeemed:  redeemed[c.ID],
			CanAfford: points >= c.PointsCost,
		}
		// The code is the product; it is only shown once paid for
		if !listing.Redeemed {
			listing.CouponCode = ""
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

func (s *couponService) Mine(ctx context.Context, userID string) ([]models.RedeemedCoupon, error) {
	redeemed, err := s.repos.Coupon.RedemptionsByUser(ctx, userID)
	if err != nil {
		return nil, wrapInternal("Failed to load redemptions", err)
	}
	return redeemed, nil
}

func (s *couponService) Redeem(ctx context.Context, userID, couponID string) (*RedeemResult, error) {
	if userID == "" {
		return nil, NewUnauthorizedError("Authentication required")
	}

	var result *RedeemResult
	err := s.repos.WithTransaction(ctx, func(tx *repositories.Collection) error {
		coupon, err := tx.Coupon.GetByIDForUpdate(ctx, couponID)
		if err != nil {
			return err
		}
		if coupon == nil {
			return EntityNotFoundError("coupon", couponID)
		}
		if !coupon.IsActive {
			return NewBusinessError("This coupon is no longer available", CodeCouponInactive)
		}
		if coupon.IsExpired(s.now()) {
			return NewBusinessError("This coupon has expired", CodeCouponExpired)
		}
		existing, err := tx.Coupon.GetRedemption(ctx, userID, couponID)
		if err != nil {
			return err
		}
		if existing != nil {
			return NewConflictError("You have already redeemed this coupon", CodeCouponAlreadyRedeemed)
		}
		if coupon.IsSoldOut() {
			return NewConflictError("This coupon is sold out", CodeCouponSoldOut)
		}

		profile, err := tx.Profile.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if profile == nil {
			return EntityNotFoundError("profile", userID)
		}
		if profile.Points < coupon.PointsCost {
			return NewBusinessError("Not enough points to redeem this coupon", CodeInsufficientPoints).
				WithDetail("required", coupon.PointsCost).
				WithDetail("available", profile.Points)
		}

		remaining, err := tx.Profile.AddPoints(ctx, userID, -coupon.PointsCost)
		if err != nil {
			return err
		}
		if err := tx.Coupon.IncrementRedeemed(ctx, couponID); err != nil {
			return err
		}
		redemption := &models.UserCoupon{UserID: userID, CouponID: couponID, PointsSpent: coupon.PointsCost}
		if err := tx.Coupon.CreateRedemption(ctx, redemption); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return NewConflictError("You have already redeemed this coupon", CodeCouponAlreadyRedeemed)
			}
			return err
		}

		coupon.TotalRedeemed++
		result = &RedeemResult{Redemption: *redemption, Coupon: *coupon, RemainingPoints: remaining}
		return nil
	})
	if err != nil {
		return nil, txError("Failed to redeem coupon", err)
	}

	s.logger.Info("Coupon redeemed",
		zap.String("coupon_id", couponID),
		zap.String("user_id", userID),
		zap.Int("points_spent", result.Redemption.PointsSpent),
		zap.Int("remaining", result.RemainingPoints))
	s.publish(ctx, &events.CouponRedeemedEvent{
		BaseEvent:   events.NewBaseEvent(events.CouponRedeemed, userID),
		CouponID:    couponID,
		CouponTitle: result.Coupon.Title,
		PointsSpent: result.Redemption.PointsSpent,
		Remaining:   result.RemainingPoints,
	})
	return result, nil
}

func (s *couponService) Create(ctx context.Context, callerID string, req *CreateCouponRequest) (*models.Coupon, error) {
	if _, err := s.requireRole(ctx, callerID, couponAdminMessage, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	coupon := &models.Coupon{
		Title:          strings.TrimSpace(req.Title),
		Description:    utils.OptionalString(req.Description),
		PartnerName:    utils.OptionalString(req.PartnerName),
		PointsCost:     req.PointsCost,
		CouponCode:     strings.TrimSpace(req.CouponCode),
		ExpiryDate:     req.ExpiryDate,
		MaxRedemptions: req.MaxRedemptions,
		IsActive:       true,
	}
	if err := s.repos.Coupon.Create(ctx, coupon); err != nil {
		return nil, wrapInternal("Failed to create coupon", err)
	}

	s.logger.Info("Coupon created", zap.String("coupon_id", coupon.ID), zap.String("created_by", callerID))
	return coupon, nil
}

func (s *couponService) SetActive(ctx context.Context, callerID, couponID string, active bool) (*models.Coupon, error) {
	if _, err := s.requireRole(ctx, callerID, couponAdminMessage, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.repos.Coupon.SetActive(ctx, couponID, active); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, EntityNotFoundError("coupon", couponID)
		}
		return nil, wrapInternal("Failed to update coupon", err)
	}

	coupon, err := s.repos.Coupon.GetByID(ctx, couponID)
	if err != nil {
		return nil, wrapInternal("Failed to load coupon", err)
	}
	if coupon == nil {
		return nil, EntityNotFoundError("coupon", couponID)
	}
	return coupon, nil
}
