package coupons

import (
	"net/http"

	"ecotrack/internal/handlers/api/v1/base"
	"ecotrack/internal/response"
	"ecotrack/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CouponsController sells partner coupons for points
type CouponsController struct {
	base.Controller
	coupons services.CouponService
}

// NewCouponsController creates the controller
func NewCouponsController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *CouponsController {
	return &CouponsController{
		Controller: base.New(serviceCollection, logger, responseBuilder),
		coupons:    serviceCollection.CouponService,
	}
}

// List returns active, unexpired coupons with the caller's redemption state
func (c *CouponsController) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	coupons, err := c.coupons.List(ctx, c.UserID(r))
	if err != nil {
		c.Fail(w, r, err, "list_coupons")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, coupons)
}

func (c *CouponsController) Mine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	coupons, err := c.coupons.Mine(ctx, c.UserID(r))
	if err != nil {
		c.Fail(w, r, err, "my_coupons")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, coupons)
}

// Redeem godoc
// @Summary Redeem a coupon for points
// @Tags Coupons
// @Security BearerAuth
// @Produce json
// @Param id path string true "Coupon ID"
// @Success 200 {object} response.APIResponse{data=services.RedeemResult}
// @Failure 409 {object} response.APIResponse "Already redeemed"
// @Failure 422 {object} response.APIResponse "Insufficient points, sold out, expired or inactive"
// @Router /coupons/{id}/redeem [post]
func (c *CouponsController) Redeem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	result, err := c.coupons.Redeem(ctx, c.UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		c.Fail(w, r, err, "redeem_coupon")
		return
	}
	c.Log(r, "redeem_coupon").Info("Coupon redeemed",
		zap.String("coupon_id", result.Coupon.ID),
		zap.Int("remaining_points", result.RemainingPoints))
	c.ResponseBuilder.WriteSuccess(w, r, result)
}

// ===============================
// ADMIN
// ===============================

func (c *CouponsController) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	var req services.CreateCouponRequest
	if !c.Decode(w, r, &req) {
		return
	}

	coupon, err := c.coupons.Create(ctx, c.UserID(r), &req)
	if err != nil {
		c.Fail(w, r, err, "create_coupon")
		return
	}
	c.ResponseBuilder.WriteCreated(w, r, coupon)
}

// SetActive toggles a coupon: PATCH /admin/coupons/{id} {"is_active": bool}
func (c *CouponsController) SetActive(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	var req services.SetCouponActiveRequest
	if !c.Decode(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		c.Fail(w, r, services.InvalidInputError("is_active", "is required"), "set_coupon_active")
		return
	}

	coupon, err := c.coupons.SetActive(ctx, c.UserID(r), chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		c.Fail(w, r, err, "set_coupon_active")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, coupon)
}
