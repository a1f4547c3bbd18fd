package gamification

import (
	"net/http"

	"ecotrack/internal/handlers/api/v1/base"
	"ecotrack/internal/response"
	"ecotrack/internal/services"

	"go.uber.org/zap"
)

const defaultLeaderboardSize = 10

// GamificationController serves the dashboard, catalogs and rankings
type GamificationController struct {
	base.Controller
	gamification services.GamificationService
}

// NewGamificationController creates the controller
func NewGamificationController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *GamificationController {
	return &GamificationController{
		Controller:   base.New(serviceCollection, logger, responseBuilder),
		gamification: serviceCollection.GamificationService,
	}
}

// Dashboard godoc
// @Summary Citizen dashboard: points, badges, rewards, streak and charts
// @Tags Gamification
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse{data=services.Dashboard}
// @Router /dashboard [get]
func (c *GamificationController) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	dashboard, err := c.gamification.Dashboard(ctx, c.UserID(r))
	if err != nil {
		c.Fail(w, r, err, "dashboard")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, dashboard)
}

func (c *GamificationController) Badges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	badges, err := c.gamification.ListBadges(ctx)
	if err != nil {
		c.Fail(w, r, err, "badges")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, badges)
}

func (c *GamificationController) Rewards(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	rewards, err := c.gamification.ListRewards(ctx)
	if err != nil {
		c.Fail(w, r, err, "rewards")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, rewards)
}

// Leaderboard ranks citizens by points: GET /leaderboard?limit=
func (c *GamificationController) Leaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	limit, err := response.IntQuery(r, "limit", defaultLeaderboardSize)
	if err != nil {
		c.Fail(w, r, err, "leaderboard")
		return
	}

	entries, err := c.gamification.Leaderboard(ctx, limit)
	if err != nil {
		c.Fail(w, r, err, "leaderboard")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, entries)
}

// NewBadges lists unlocked badges the caller has not celebrated yet
func (c *GamificationController) NewBadges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	badges, err := c.gamification.NewBadges(ctx, c.UserID(r))
	if err != nil {
		c.Fail(w, r, err, "new_badges")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, badges)
}

func (c *GamificationController) MarkSeen(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	var req services.MarkSeenRequest
	if !c.Decode(w, r, &req) {
		return
	}

	if err := c.gamification.MarkBadgesSeen(ctx, c.UserID(r), req.BadgeIDs); err != nil {
		c.Fail(w, r, err, "mark_badges_seen")
		return
	}
	c.ResponseBuilder.WriteNoContent(w, r)
}
