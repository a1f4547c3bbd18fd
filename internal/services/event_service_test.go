package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"ecotrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createEvent(t *testing.T, env *testEnv, organizer string, when time.Time) *models.Event {
	t.Helper()
	event, err := env.sc.EventService.Create(context.Background(), organizer, &CreateEventRequest{
		Title:     "Beach cleanup",
		Location:  "Juhu",
		EventDate: when,
	})
	require.NoError(t, err)
	return event
}

func TestCreateEvent(t *testing.T) {
	env := newTestEnv(t)
	organizer := env.withRole("org", models.RoleOrganizer)
	citizen := env.user("asha")

	event := createEvent(t, env, organizer, time.Now().Add(48*time.Hour))
	require.NotNil(t, event.CheckinCode)
	assert.Regexp(t, `^[A-Z0-9]{8}$`, *event.CheckinCode)
	assert.Equal(t, 25, event.AttendancePoints)

	_, err := env.sc.EventService.Create(context.Background(), citizen, &CreateEventRequest{
		Title:     "Not allowed",
		EventDate: time.Now(),
	})
	requireCode(t, err, http.StatusForbidden, "")
}

func TestEventCodeVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.withRole("org", models.RoleOrganizer)
	citizen := env.user("asha")
	event := createEvent(t, env, organizer, time.Now().Add(time.Hour))

	list, err := env.sc.EventService.List(ctx, citizen)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].CheckinCode)

	asCitizen, err := env.sc.EventService.Get(ctx, citizen, event.ID)
	require.NoError(t, err)
	assert.Nil(t, asCitizen.CheckinCode)

	asCreator, err := env.sc.EventService.Get(ctx, organizer, event.ID)
	require.NoError(t, err)
	require.NotNil(t, asCreator.CheckinCode)

	_, err = env.sc.EventService.CheckinPayload(ctx, citizen, event.ID)
	requireCode(t, err, http.StatusForbidden, "")

	payload, err := env.sc.EventService.CheckinPayload(ctx, organizer, event.ID)
	require.NoError(t, err)
	parsed, err := ParseCheckinPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, event.ID, parsed.EventID)
	assert.Equal(t, *event.CheckinCode, parsed.Code)
}

func TestCheckIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.withRole("org", models.RoleOrganizer)
	citizen := env.user("asha")
	event := createEvent(t, env, organizer, time.Now())

	_, err := env.sc.EventService.CheckIn(ctx, citizen, &CheckinRequest{EventID: event.ID, Code: "WRONG123"})
	requireCode(t, err, http.StatusUnprocessableEntity, CodeInvalidCheckinCode)
	assert.Equal(t, 0, env.points(citizen))

	checkin, err := env.sc.EventService.CheckIn(ctx, citizen, &CheckinRequest{EventID: event.ID, Code: *event.CheckinCode})
	require.NoError(t, err)
	assert.Equal(t, 25, checkin.PointsAwarded)
	assert.Equal(t, 25, env.points(citizen))

	_, err = env.sc.EventService.CheckIn(ctx, citizen, &CheckinRequest{EventID: event.ID, Code: *event.CheckinCode})
	requireCode(t, err, http.StatusConflict, CodeAlreadyCheckedIn)
	assert.Equal(t, 25, env.points(citizen))

	history, err := env.sc.EventService.CheckinHistory(ctx, citizen)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Beach cleanup", history[0].EventTitle)
}

func TestCheckInWithPayload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.withRole("org", models.RoleOrganizer)
	citizen := env.user("asha")
	event := createEvent(t, env, organizer, time.Now())

	payload, err := EncodeCheckinPayload(event.ID, *event.CheckinCode)
	require.NoError(t, err)

	_, err = env.sc.EventService.CheckIn(ctx, citizen, &CheckinRequest{Payload: payload})
	require.NoError(t, err)

	summary, err := env.sc.EventService.Get(ctx, citizen, event.ID)
	require.NoError(t, err)
	assert.True(t, summary.CheckedIn)
	assert.Equal(t, 1, summary.CheckinCount)
}

func TestCheckInUnknownEvent(t *testing.T) {
	env := newTestEnv(t)
	citizen := env.user("asha")

	_, err := env.sc.EventService.CheckIn(context.Background(), citizen, &CheckinRequest{EventID: "missing", Code: "ABCD1234"})
	requireCode(t, err, http.StatusNotFound, CodeEventNotFound)
}

func TestParseCheckinPayload(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"valid", `{"event_id":"e1","code":"ABCD1234"}`, false},
		{"empty", "", true},
		{"not json", "ABCD1234", true},
		{"missing code", `{"event_id":"e1"}`, true},
		{"extra fields", `{"event_id":"e1","code":"X","points":100}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := ParseCheckinPayload(tt.text)
			if tt.wantErr {
				assert.True(t, IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "e1", payload.EventID)
		})
	}
}

func TestJoinAndLeave(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.withRole("org", models.RoleOrganizer)
	citizen := env.user("asha")
	event := createEvent(t, env, organizer, time.Now().Add(time.Hour))

	require.NoError(t, env.sc.EventService.Join(ctx, citizen, event.ID))
	err := env.sc.EventService.Join(ctx, citizen, event.ID)
	requireCode(t, err, http.StatusConflict, CodeAlreadyJoined)

	summary, err := env.sc.EventService.Get(ctx, citizen, event.ID)
	require.NoError(t, err)
	assert.True(t, summary.Joined)
	assert.Equal(t, 1, summary.ParticipantCount)

	require.NoError(t, env.sc.EventService.Leave(ctx, citizen, event.ID))
	require.NoError(t, env.sc.EventService.Leave(ctx, citizen, event.ID))

	err = env.sc.EventService.Join(ctx, citizen, "missing")
	requireCode(t, err, http.StatusNotFound, "")
}

func TestDeleteEvent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.withRole("org", models.RoleOrganizer)
	other := env.withRole("other", models.RoleOrganizer)
	admin := env.withRole("admin", models.RoleAdmin)
	first := createEvent(t, env, organizer, time.Now())
	second := createEvent(t, env, organizer, time.Now())

	err := env.sc.EventService.Delete(ctx, other, first.ID)
	requireCode(t, err, http.StatusForbidden, "")

	require.NoError(t, env.sc.EventService.Delete(ctx, organizer, first.ID))
	require.NoError(t, env.sc.EventService.Delete(ctx, admin, second.ID))

	list, err := env.sc.EventService.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOrganizerDashboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	organizer := env.withRole("org", models.RoleOrganizer)
	citizen := env.user("asha")

	past := createEvent(t, env, organizer, time.Now().Add(-24*time.Hour))
	createEvent(t, env, organizer, time.Now().Add(24*time.Hour))
	require.NoError(t, env.sc.EventService.Join(ctx, citizen, past.ID))
	_, err := env.sc.EventService.CheckIn(ctx, citizen, &CheckinRequest{EventID: past.ID, Code: *past.CheckinCode})
	require.NoError(t, err)

	stats, err := env.sc.EventService.OrganizerDashboard(ctx, organizer)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalEvents)
	assert.Equal(t, 1, stats.TotalParticipants)
	assert.Equal(t, 1, stats.TotalCheckins)
	assert.Equal(t, 1, stats.UpcomingEvents)

	_, err = env.sc.EventService.OrganizerDashboard(ctx, citizen)
	requireCode(t, err, http.StatusForbidden, "")
}
