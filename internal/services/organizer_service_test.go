package services

import (
	"context"
	"net/http"
	"testing"

	"ecotrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applicationRequest() *ApplicationRequest {
	return &ApplicationRequest{
		OrganizationName: "Green Earth Trust",
		OrganizerType:    models.OrganizerNGO,
		OfficialEmail:    "contact@greenearth.org",
		ContactNumber:    "+91 98765 43210",
		Purpose:          "We run weekly beach cleanups across the city.",
	}
}

func TestOrganizerApplicationApproval(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	applicant := env.user("asha")
	admin := env.withRole("admin", models.RoleAdmin)

	app, err := env.sc.OrganizerService.Submit(ctx, applicant, applicationRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, app.Status)

	_, err = env.sc.OrganizerService.Submit(ctx, applicant, applicationRequest())
	requireCode(t, err, http.StatusConflict, CodeApplicationPending)

	_, err = env.sc.OrganizerService.Approve(ctx, applicant, app.ID, "")
	requireCode(t, err, http.StatusForbidden, "")

	reviewed, err := env.sc.OrganizerService.Approve(ctx, admin, app.ID, "Welcome aboard")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApproved, reviewed.Status)
	require.NotNil(t, reviewed.AdminRemarks)
	assert.Equal(t, "Welcome aboard", *reviewed.AdminRemarks)
	require.NotNil(t, reviewed.ReviewedAt)

	isOrganizer, err := env.sc.AuthService.HasRole(ctx, applicant, models.RoleOrganizer)
	require.NoError(t, err)
	assert.True(t, isOrganizer)

	again, err := env.sc.OrganizerService.Reject(ctx, admin, app.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApproved, again.Status, "reviewed applications are final")

	_, err = env.sc.OrganizerService.Submit(ctx, applicant, applicationRequest())
	requireCode(t, err, http.StatusConflict, CodeAlreadyOrganizer)
}

func TestOrganizerApplicationKeepsPurposeText(t *testing.T) {
	env := newTestEnv(t)
	applicant := env.user("asha")

	req := applicationRequest()
	req.Purpose = "  Beach & river cleanups for \"Zero Waste\" week  "
	app, err := env.sc.OrganizerService.Submit(context.Background(), applicant, req)
	require.NoError(t, err)
	assert.Equal(t, `Beach & river cleanups for "Zero Waste" week`, app.Purpose)
}

func TestOrganizerApplicationRejection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	applicant := env.user("asha")
	admin := env.withRole("admin", models.RoleAdmin)

	app, err := env.sc.OrganizerService.Submit(ctx, applicant, applicationRequest())
	require.NoError(t, err)

	_, err = env.sc.OrganizerService.Reject(ctx, admin, app.ID, "Missing proof")
	require.NoError(t, err)

	isCitizen, err := env.sc.AuthService.HasRole(ctx, applicant, models.RoleCitizen)
	require.NoError(t, err)
	assert.True(t, isCitizen)

	mine, err := env.sc.OrganizerService.Mine(ctx, applicant)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, mine.Status)

	// A rejected applicant may apply again
	_, err = env.sc.OrganizerService.Submit(ctx, applicant, applicationRequest())
	require.NoError(t, err)

	pending := models.ApplicationPending
	list, err := env.sc.OrganizerService.List(ctx, admin, &pending)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOrganizerApplicationValidation(t *testing.T) {
	env := newTestEnv(t)
	applicant := env.user("asha")

	req := applicationRequest()
	req.Purpose = "too short"
	req.OrganizerType = "club"

	_, err := env.sc.OrganizerService.Submit(context.Background(), applicant, req)
	requireCode(t, err, http.StatusBadRequest, "")
	fields := GetServiceError(err).Details["fields"]
	assert.NotNil(t, fields)
}
