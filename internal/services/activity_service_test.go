package services

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"testing"
	"time"

	"ecotrack/internal/models"
	"ecotrack/internal/verification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	result *verification.Result
	err    error
	calls  int
}

func (s *stubVerifier) Enabled() bool { return true }

func (s *stubVerifier) Verify(context.Context, string, models.ActivityType) (*verification.Result, error) {
	s.calls++
	return s.result, s.err
}

var pngHeader = base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nfake"))

func submit(t *testing.T, env *testEnv, userID string, req *SubmitActivityRequest) *models.Activity {
	t.Helper()
	activity, err := env.sc.ActivityService.Submit(context.Background(), userID, req)
	require.NoError(t, err)
	return activity
}

func TestSubmitActivity(t *testing.T) {
	env := newTestEnv(t)
	id := env.user("asha")

	activity := submit(t, env, id, &SubmitActivityRequest{
		Type:        models.ActivityRecycling,
		Description: "Sorted plastics",
		WasteKg:     ptr(3.0),
	})

	assert.Equal(t, models.ActivityPending, activity.Status)
	assert.Equal(t, 0, activity.PointsAwarded)
	assert.Nil(t, activity.WasteKg, "waste is only kept for cleanups")
}

func TestSubmitKeepsDescriptionText(t *testing.T) {
	env := newTestEnv(t)
	id := env.user("asha")

	activity := submit(t, env, id, &SubmitActivityRequest{
		Type:        models.ActivityRecycling,
		Description: "  Sorted cans & \"bottles\" <3  ",
	})

	stored, err := env.repos.Activity.GetByID(context.Background(), activity.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Description)
	assert.Equal(t, `Sorted cans & "bottles" <3`, *stored.Description)
}

func TestSubmitActivityValidation(t *testing.T) {
	env := newTestEnv(t)
	id := env.user("asha")

	tests := []struct {
		name string
		req  SubmitActivityRequest
	}{
		{"unknown type", SubmitActivityRequest{Type: "gardening"}},
		{"negative waste", SubmitActivityRequest{Type: models.ActivityCleanup, WasteKg: ptr(-1.0)}},
		{"latitude out of range", SubmitActivityRequest{Type: models.ActivityCleanup, Latitude: ptr(91.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.sc.ActivityService.Submit(context.Background(), id, &tt.req)
			requireCode(t, err, http.StatusBadRequest, "")
		})
	}
}

func TestSubmitWithholdsLowConfidenceImage(t *testing.T) {
	verifier := &stubVerifier{result: &verification.Result{Match: false, Confidence: 0.2, Reason: "indoor photo"}}
	store := &fakeImageStore{}
	env := newTestEnv(t, func(d *Dependencies) {
		d.Verifier = verifier
		d.Images = store
	})
	id := env.user("asha")

	_, err := env.sc.ActivityService.Submit(context.Background(), id, &SubmitActivityRequest{
		Type:        models.ActivityTreePlantation,
		ImageBase64: "data:image/png;base64," + pngHeader,
	})
	requireCode(t, err, http.StatusUnprocessableEntity, CodeLowConfidence)

	mine, err := env.sc.ActivityService.ListMine(context.Background(), id, 0)
	require.NoError(t, err)
	assert.Empty(t, mine)
	assert.Empty(t, store.uploads)
}

func TestSubmitAllowsWhenVerificationFails(t *testing.T) {
	verifier := &stubVerifier{err: errors.New("upstream down")}
	store := &fakeImageStore{}
	env := newTestEnv(t, func(d *Dependencies) {
		d.Verifier = verifier
		d.Images = store
	})
	id := env.user("asha")

	activity := submit(t, env, id, &SubmitActivityRequest{
		Type:        models.ActivityTreePlantation,
		ImageBase64: pngHeader,
	})
	assert.Equal(t, 1, verifier.calls)
	require.NotNil(t, activity.ImageURL)
	assert.Contains(t, *activity.ImageURL, "activity-images")
}

func TestApproveAwardsPointsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := env.user("asha")
	reviewer := env.withRole("org", models.RoleOrganizer)

	activity := submit(t, env, citizen, &SubmitActivityRequest{Type: models.ActivityCleanup, WasteKg: ptr(5.5)})

	approved, err := env.sc.ActivityService.Approve(ctx, reviewer, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityApproved, approved.Status)
	assert.Equal(t, 30, approved.PointsAwarded)
	require.NotNil(t, approved.WasteKg)
	assert.Equal(t, 5.5, *approved.WasteKg)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, reviewer, *approved.ReviewedBy)
	assert.Equal(t, 30, env.points(citizen))

	again, err := env.sc.ActivityService.Approve(ctx, reviewer, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityApproved, again.Status)
	assert.Equal(t, 30, env.points(citizen), "second approval is a no-op")

	rejected, err := env.sc.ActivityService.Reject(ctx, reviewer, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityApproved, rejected.Status, "terminal states do not change")
	assert.Equal(t, 30, env.points(citizen))

	dashboard, err := env.sc.GamificationService.Dashboard(ctx, citizen)
	require.NoError(t, err)
	assert.Equal(t, 1, dashboard.Stats.TotalActivities)
	assert.Equal(t, 1, dashboard.Stats.Cleanups)
	assert.InDelta(t, 5.5, dashboard.Stats.WasteKg, 1e-9)
	assert.Equal(t, 1, dashboard.Streak.CurrentStreak)
	assert.Equal(t, 1, dashboard.Stats.StreakDays)
}

func TestApproveUnlocksFirstBadge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := env.user("asha")
	admin := env.withRole("admin", models.RoleAdmin)

	activity := submit(t, env, citizen, &SubmitActivityRequest{Type: models.ActivityEcoHabit})
	_, err := env.sc.ActivityService.Approve(ctx, admin, activity.ID)
	require.NoError(t, err)

	fresh, err := env.sc.GamificationService.NewBadges(ctx, citizen)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, "First Step", fresh[0].Name)

	require.NoError(t, env.sc.GamificationService.MarkBadgesSeen(ctx, citizen, []string{fresh[0].ID}))
	fresh, err = env.sc.GamificationService.NewBadges(ctx, citizen)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	unlocked, err := env.repos.Gamification.UserBadges(ctx, citizen)
	require.NoError(t, err)
	assert.Len(t, unlocked, 1, "marking seen never changes unlocks")
}

func TestRejectLeavesPointsAlone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := env.user("asha")
	reviewer := env.withRole("org", models.RoleOrganizer)

	activity := submit(t, env, citizen, &SubmitActivityRequest{Type: models.ActivityTreePlantation})
	rejected, err := env.sc.ActivityService.Reject(ctx, reviewer, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityRejected, rejected.Status)
	assert.Equal(t, 0, env.points(citizen))

	approved, err := env.sc.ActivityService.Approve(ctx, reviewer, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityRejected, approved.Status)
	assert.Equal(t, 0, env.points(citizen))
}

func TestCitizenCannotReview(t *testing.T) {
	env := newTestEnv(t)
	citizen := env.user("asha")
	other := env.user("ravi")
	activity := submit(t, env, citizen, &SubmitActivityRequest{Type: models.ActivityCleanup})

	_, err := env.sc.ActivityService.Approve(context.Background(), other, activity.ID)
	requireCode(t, err, http.StatusForbidden, "")
	assert.Equal(t, reviewerOnlyMessage, GetServiceError(err).Message)
	assert.Equal(t, 0, env.points(citizen))
}

func TestApproveMissingActivity(t *testing.T) {
	env := newTestEnv(t)
	admin := env.withRole("admin", models.RoleAdmin)

	_, err := env.sc.ActivityService.Approve(context.Background(), admin, "missing")
	requireCode(t, err, http.StatusNotFound, "")
}

func TestGetHidesOtherUsersActivities(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.user("asha")
	stranger := env.user("ravi")
	reviewer := env.withRole("org", models.RoleOrganizer)
	activity := submit(t, env, owner, &SubmitActivityRequest{Type: models.ActivityCleanup})

	_, err := env.sc.ActivityService.Get(ctx, stranger, activity.ID)
	requireCode(t, err, http.StatusNotFound, "")

	got, err := env.sc.ActivityService.Get(ctx, reviewer, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, activity.ID, got.ID)
}

func TestCertificate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := env.user("asha")
	reviewer := env.withRole("org", models.RoleOrganizer)
	activity := submit(t, env, citizen, &SubmitActivityRequest{Type: models.ActivityTreePlantation})

	_, err := env.sc.ActivityService.Certificate(ctx, citizen, activity.ID)
	requireCode(t, err, http.StatusUnprocessableEntity, "")

	_, err = env.sc.ActivityService.Approve(ctx, reviewer, activity.ID)
	require.NoError(t, err)

	cert, err := env.sc.ActivityService.Certificate(ctx, citizen, activity.ID)
	require.NoError(t, err)
	assert.Equal(t, "asha", cert.RecipientName)
	assert.Equal(t, "Tree Plantation", cert.ActivityLabel)
	assert.Equal(t, 50, cert.Points)
	assert.Regexp(t, `^ECO-\d{4}-[0-9A-F]{8}$`, cert.CertificateNumber)
}

func TestStreakFollowsActivityDates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := env.user("asha")
	reviewer := env.withRole("org", models.RoleOrganizer)

	day := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		a := &models.Activity{
			UserID:    citizen,
			Type:      models.ActivityEcoHabit,
			Status:    models.ActivityPending,
			CreatedAt: day.AddDate(0, 0, i),
		}
		require.NoError(t, env.repos.Activity.Create(ctx, a))
		_, err := env.sc.ActivityService.Approve(ctx, reviewer, a.ID)
		require.NoError(t, err)
	}

	streak, err := env.repos.Gamification.GetStreak(ctx, citizen)
	require.NoError(t, err)
	assert.Equal(t, 3, streak.CurrentStreak)
	assert.Equal(t, 3, streak.LongestStreak)
	assert.Equal(t, 15, env.points(citizen))
}
