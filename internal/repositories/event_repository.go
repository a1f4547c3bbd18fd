package repositories

import (
	"context"

	"ecotrack/internal/database"
	"ecotrack/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const eventColumns = `e.id, e.title, e.description, e.location, e.latitude, e.longitude, e.event_date,
	e.attendance_points, e.event_type, e.checkin_code, e.created_by, e.created_at`

const eventSummarySelect = `SELECT ` + eventColumns + `,
	(SELECT COUNT(*) FROM event_participants ep WHERE ep.event_id = e.id),
	(SELECT COUNT(*) FROM event_checkins ec WHERE ec.event_id = e.id)
	FROM events e`

type eventRepository struct {
	*BaseRepository
}

// NewEventRepository creates a Postgres event repository
func NewEventRepository(q database.Querier, logger *zap.Logger) EventRepository {
	return &eventRepository{BaseRepository: NewBaseRepository(q, logger)}
}

func scanEvent(row rowScanner, e *models.Event, extra ...interface{}) error {
	dest := []interface{}{&e.ID, &e.Title, &e.Description, &e.Location, &e.Latitude, &e.Longitude,
		&e.EventDate, &e.AttendancePoints, &e.EventType, &e.CheckinCode, &e.CreatedBy, &e.CreatedAt}
	return row.Scan(append(dest, extra...)...)
}

func (r *eventRepository) Create(ctx context.Context, e *models.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	query := `
		INSERT INTO events (id, title, description, location, latitude, longitude, event_date,
			attendance_points, event_type, checkin_code, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	err := r.q.QueryRowContext(ctx, query,
		e.ID, e.Title, e.Description, e.Location, e.Latitude, e.Longitude, e.EventDate,
		e.AttendancePoints, e.EventType, e.CheckinCode, e.CreatedBy,
	).Scan(&e.CreatedAt)
	if err != nil {
		return r.wrap("failed to create event", err)
	}

	r.logger.Info("Event created", zap.String("event_id", e.ID), zap.String("created_by", e.CreatedBy))
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	return r.get(ctx, id, false)
}

func (r *eventRepository) GetByIDForUpdate(ctx context.Context, id string) (*models.Event, error) {
	return r.get(ctx, id, true)
}

func (r *eventRepository) get(ctx context.Context, id string, forUpdate bool) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = $1` + lockClause(forUpdate)

	var e models.Event
	if err := scanEvent(r.q.QueryRowContext(ctx, query, id), &e); err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, r.wrap("failed to get event", err)
	}
	return &e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return r.wrap("failed to delete event", err)
	}
	return r.expectAffected("failed to delete event", result)
}

func (r *eventRepository) List(ctx context.Context) ([]models.EventSummary, error) {
	return r.listSummaries(ctx, eventSummarySelect+` ORDER BY e.event_date ASC`)
}

func (r *eventRepository) ListByCreator(ctx context.Context, userID string) ([]models.EventSummary, error) {
	return r.listSummaries(ctx, eventSummarySelect+` WHERE e.created_by = $1 ORDER BY e.event_date ASC`, userID)
}

func (r *eventRepository) listSummaries(ctx context.Context, query string, args ...interface{}) ([]models.EventSummary, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.wrap("failed to list events", err)
	}
	defer rows.Close()

	events := []models.EventSummary{}
	for rows.Next() {
		var s models.EventSummary
		if err := scanEvent(rows, &s.Event, &s.ParticipantCount, &s.CheckinCount); err != nil {
			return nil, r.wrap("failed to scan event", err)
		}
		events = append(events, s)
	}
	return events, rows.Err()
}

func (r *eventRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, r.wrap("failed to count events", err)
	}
	return n, nil
}

func (r *eventRepository) AddParticipant(ctx context.Context, eventID, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO event_participants (id, event_id, user_id) VALUES ($1, $2, $3)`,
		uuid.NewString(), eventID, userID)
	if err != nil {
		return r.wrap("failed to join event", err)
	}
	return nil
}

func (r *eventRepository) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return r.wrap("failed to leave event", err)
	}
	return nil
}

func (r *eventRepository) IsParticipant(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_participants WHERE event_id = $1 AND user_id = $2)`,
		eventID, userID).Scan(&exists)
	if err != nil {
		return false, r.wrap("failed to check participation", err)
	}
	return exists, nil
}

func (r *eventRepository) GetCheckin(ctx context.Context, eventID, userID string) (*models.EventCheckin, error) {
	var c models.EventCheckin
	err := r.q.QueryRowContext(ctx, `
		SELECT id, event_id, user_id, points_awarded, checked_in_at
		FROM event_checkins WHERE event_id = $1 AND user_id = $2`, eventID, userID).
		Scan(&c.ID, &c.EventID, &c.UserID, &c.PointsAwarded, &c.CheckedInAt)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, r.wrap("failed to get checkin", err)
	}
	return &c, nil
}

func (r *eventRepository) CreateCheckin(ctx context.Context, c *models.EventCheckin) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO event_checkins (id, event_id, user_id, points_awarded)
		VALUES ($1, $2, $3, $4)
		RETURNING checked_in_at`, c.ID, c.EventID, c.UserID, c.PointsAwarded).Scan(&c.CheckedInAt)
	if err != nil {
		return r.wrap("failed to create checkin", err)
	}
	return nil
}

func (r *eventRepository) CheckinsByUser(ctx context.Context, userID string) ([]models.CheckinHistoryItem, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT c.id, c.event_id, c.user_id, c.points_awarded, c.checked_in_at,
		       e.title, e.event_date, e.location
		FROM event_checkins c
		JOIN events e ON e.id = c.event_id
		WHERE c.user_id = $1
		ORDER BY c.checked_in_at DESC`, userID)
	if err != nil {
		return nil, r.wrap("failed to list checkins", err)
	}
	defer rows.Close()

	items := []models.CheckinHistoryItem{}
	for rows.Next() {
		var it models.CheckinHistoryItem
		if err := rows.Scan(&it.ID, &it.EventID, &it.UserID, &it.PointsAwarded, &it.CheckedInAt,
			&it.EventTitle, &it.EventDate, &it.EventLocation); err != nil {
			return nil, r.wrap("failed to scan checkin", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
