package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-hub-api/internal/models"
)

// eventLiveCond returns the SQL liveness condition for events: published and
// either upcoming (event date on or after the day bound to $dayArg) or still
// inside its display window (effective expiry after the instant bound to
// $nowArg). The effective expiry is the explicit override when present,
// otherwise the event date plus the seven-day grace window. Mirrors
// expiry.EventLive.
func eventLiveCond(alias string, dayArg, nowArg int) string {
	return fmt.Sprintf("%[1]s.is_published = TRUE AND (%[1]s.event_date >= $%[2]d OR COALESCE(%[1]s.expires_at, %[1]s.event_date + INTERVAL '7 days') > $%[3]d)", alias, dayArg, nowArg)
}

// dayStartUTC truncates t to the beginning of its UTC calendar day.
func dayStartUTC(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EventRepository provides persistence for campus events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	query := `INSERT INTO events (id, title, description, event_date, start_time, end_time, location, organizer, is_published, expires_at, created_by, created_at, updated_at)
VALUES (:id, :title, :description, :event_date, :start_time, :end_time, :location, :organizer, :is_published, :expires_at, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// GetByID returns an event by identifier.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	const query = `SELECT id, title, description, event_date, start_time, end_time, location, organizer, is_published, expires_at, created_by, created_at, updated_at
FROM events WHERE id = $1`
	var e models.Event
	if err := r.db.GetContext(ctx, &e, query, id); err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns events for the administrative register including expired rows.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	base := "FROM events WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("event_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("event_date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, title, description, event_date, start_time, end_time, location, organizer, is_published, expires_at, created_by, created_at, updated_at
%s ORDER BY event_date ASC, created_at DESC LIMIT %d OFFSET %d`, base, size, offset)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// ListActive returns every event live at the given instant, soonest first.
func (r *EventRepository) ListActive(ctx context.Context, asOf time.Time) ([]models.Event, error) {
	query := fmt.Sprintf(`SELECT id, title, description, event_date, start_time, end_time, location, organizer, is_published, expires_at, created_by, created_at, updated_at
FROM events e WHERE %s ORDER BY event_date ASC, created_at DESC`, eventLiveCond("e", 1, 2))
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, dayStartUTC(asOf), asOf); err != nil {
		return nil, fmt.Errorf("list active events: %w", err)
	}
	return events, nil
}

// Update modifies an existing event.
func (r *EventRepository) Update(ctx context.Context, e *models.Event) error {
	e.UpdatedAt = time.Now().UTC()
	query := `UPDATE events SET title = :title, description = :description, event_date = :event_date, start_time = :start_time,
end_time = :end_time, location = :location, organizer = :organizer, is_published = :is_published, expires_at = :expires_at, updated_at = :updated_at
WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

// Delete removes an event. Returns the number of rows removed.
func (r *EventRepository) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return 0, fmt.Errorf("delete event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete event rows affected: %w", err)
	}
	return affected, nil
}

// DeleteExpired removes events no longer live at the given instant and
// returns how many were deleted. Events have no dependent rows, so a single
// statement suffices.
func (r *EventRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM events e WHERE NOT (%s)`, eventLiveCond("e", 1, 2))
	res, err := r.db.ExecContext(ctx, query, dayStartUTC(now), now)
	if err != nil {
		return 0, fmt.Errorf("sweep events: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep events rows affected: %w", err)
	}
	return deleted, nil
}
