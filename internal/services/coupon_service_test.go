package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"ecotrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createCoupon(t *testing.T, env *testEnv, cost int, max *int) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{
		Title:          fmt.Sprintf("Coupon %d", cost),
		PointsCost:     cost,
		CouponCode:     "CODE123",
		MaxRedemptions: max,
		IsActive:       true,
	}
	require.NoError(t, env.repos.Coupon.Create(context.Background(), coupon))
	return coupon
}

func TestRedeemCoupon(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.user("asha")
	env.grant(buyer, 100)
	coupon := createCoupon(t, env, 80, ptr(1))

	result, err := env.sc.CouponService.Redeem(ctx, buyer, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, result.RemainingPoints)
	assert.Equal(t, 80, result.Redemption.PointsSpent)
	assert.Equal(t, 1, result.Coupon.TotalRedeemed)
	assert.Equal(t, 20, env.points(buyer))

	stored, err := env.repos.Coupon.GetByID(ctx, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalRedeemed)

	second := env.user("ravi")
	env.grant(second, 100)
	_, err = env.sc.CouponService.Redeem(ctx, second, coupon.ID)
	requireCode(t, err, http.StatusConflict, CodeCouponSoldOut)
	assert.Equal(t, 100, env.points(second))
}

func TestRedeemTwiceIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.user("asha")
	env.grant(buyer, 200)
	coupon := createCoupon(t, env, 50, nil)

	_, err := env.sc.CouponService.Redeem(ctx, buyer, coupon.ID)
	require.NoError(t, err)

	_, err = env.sc.CouponService.Redeem(ctx, buyer, coupon.ID)
	requireCode(t, err, http.StatusConflict, CodeCouponAlreadyRedeemed)
	assert.Equal(t, 150, env.points(buyer))
}

func TestRedeemLastUnitTwiceBySameUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.user("asha")
	env.grant(buyer, 100)
	coupon := createCoupon(t, env, 80, ptr(1))

	_, err := env.sc.CouponService.Redeem(ctx, buyer, coupon.ID)
	require.NoError(t, err)

	_, err = env.sc.CouponService.Redeem(ctx, buyer, coupon.ID)
	requireCode(t, err, http.StatusConflict, CodeCouponAlreadyRedeemed)
	assert.Equal(t, 20, env.points(buyer))

	stored, err := env.repos.Coupon.GetByID(ctx, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalRedeemed)
}

func TestRedeemPreconditions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.user("asha")
	env.grant(buyer, 40)

	t.Run("insufficient points", func(t *testing.T) {
		coupon := createCoupon(t, env, 80, nil)
		_, err := env.sc.CouponService.Redeem(ctx, buyer, coupon.ID)
		requireCode(t, err, http.StatusUnprocessableEntity, CodeInsufficientPoints)

		stored, err := env.repos.Coupon.GetByID(ctx, coupon.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.TotalRedeemed)
	})

	t.Run("inactive", func(t *testing.T) {
		coupon := createCoupon(t, env, 10, nil)
		require.NoError(t, env.repos.Coupon.SetActive(ctx, coupon.ID, false))
		_, err := env.sc.CouponService.Redeem(ctx, buyer, coupon.ID)
		requireCode(t, err, http.StatusUnprocessableEntity, CodeCouponInactive)
	})

	t.Run("expired", func(t *testing.T) {
		coupon := &models.Coupon{
			Title: "Old", PointsCost: 10, CouponCode: "OLD", IsActive: true,
			ExpiryDate: ptr(time.Now().Add(-time.Hour)),
		}
		require.NoError(t, env.repos.Coupon.Create(ctx, coupon))
		_, err := env.sc.CouponService.Redeem(ctx, buyer, coupon.ID)
		requireCode(t, err, http.StatusUnprocessableEntity, CodeCouponExpired)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := env.sc.CouponService.Redeem(ctx, buyer, "missing")
		requireCode(t, err, http.StatusNotFound, "")
	})

	assert.Equal(t, 40, env.points(buyer))
}

func TestConcurrentRedeemOfLastUnit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	coupon := createCoupon(t, env, 10, ptr(1))

	const buyers = 8
	ids := make([]string, buyers)
	for i := range ids {
		ids[i] = env.user(fmt.Sprintf("buyer%d", i))
		env.grant(ids[i], 10)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		soldOut   int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := env.sc.CouponService.Redeem(ctx, id, coupon.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case HasCode(err, CodeCouponSoldOut):
				soldOut++
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, buyers-1, soldOut)

	stored, err := env.repos.Coupon.GetByID(ctx, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalRedeemed)

	spent := 0
	for _, id := range ids {
		spent += 10 - env.points(id)
	}
	assert.Equal(t, 10, spent)
}

func TestConcurrentRedeemBySameUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.user("asha")
	env.grant(buyer, 1000)
	coupon := createCoupon(t, env, 10, nil)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		duplicate int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.sc.CouponService.Redeem(ctx, buyer, coupon.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case HasCode(err, CodeCouponAlreadyRedeemed):
				duplicate++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, duplicate)
	assert.Equal(t, 990, env.points(buyer))

	stored, err := env.repos.Coupon.GetByID(ctx, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalRedeemed)

	mine, err := env.sc.CouponService.Mine(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestListCouponsHidesUnpaidCodes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	buyer := env.user("asha")
	env.grant(buyer, 100)
	coupon := createCoupon(t, env, 5, nil)

	_, err := env.sc.CouponService.Redeem(ctx, buyer, coupon.ID)
	require.NoError(t, err)

	listings, err := env.sc.CouponService.List(ctx, buyer)
	require.NoError(t, err)
	require.NotEmpty(t, listings)
	for i := 1; i < len(listings); i++ {
		assert.LessOrEqual(t, listings[i-1].PointsCost, listings[i].PointsCost)
	}
	for _, l := range listings {
		if l.ID == coupon.ID {
			assert.True(t, l.Redeemed)
			assert.Equal(t, "CODE123", l.CouponCode)
		} else {
			assert.False(t, l.Redeemed)
			assert.Empty(t, l.CouponCode)
		}
	}

	mine, err := env.sc.CouponService.Mine(ctx, buyer)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "CODE123", mine[0].Coupon.CouponCode)
}

func TestCouponAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.withRole("admin", models.RoleAdmin)
	citizen := env.user("asha")
	req := &CreateCouponRequest{Title: "Tote bag", PointsCost: 60, CouponCode: "TOTE60"}

	_, err := env.sc.CouponService.Create(ctx, citizen, req)
	requireCode(t, err, http.StatusForbidden, "")

	coupon, err := env.sc.CouponService.Create(ctx, admin, req)
	require.NoError(t, err)
	assert.True(t, coupon.IsActive)

	updated, err := env.sc.CouponService.SetActive(ctx, admin, coupon.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = env.sc.CouponService.SetActive(ctx, admin, "missing", true)
	requireCode(t, err, http.StatusNotFound, "")
}
