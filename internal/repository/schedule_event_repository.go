package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gds-portal-api/internal/models"
)

const scheduleEventColumns = `id, defense_request_id, title, venue, mode, start_at, end_at, participant_ids, created_at, updated_at`

// ScheduleEventRepository persists the calendar projection of scheduled
// defenses.
type ScheduleEventRepository struct {
	db *sqlx.DB
}

// NewScheduleEventRepository creates a new schedule event repository.
func NewScheduleEventRepository(db *sqlx.DB) *ScheduleEventRepository {
	return &ScheduleEventRepository{db: db}
}

// FindOverlapping returns events whose [start_at, end_at) interval
// intersects the given window. Venue/participant matching happens in the
// conflict detector; this query narrows by time only.
func (r *ScheduleEventRepository) FindOverlapping(ctx context.Context, start, end time.Time, excludeRequestID string) ([]models.ScheduleEvent, error) {
	return findOverlapping(ctx, r.db, start, end, excludeRequestID)
}

// FindOverlappingTx runs the overlap query inside an open transaction so
// the conflict check and the scheduling write are atomic.
func (r *ScheduleEventRepository) FindOverlappingTx(ctx context.Context, tx *sqlx.Tx, start, end time.Time, excludeRequestID string) ([]models.ScheduleEvent, error) {
	return findOverlapping(ctx, tx, start, end, excludeRequestID)
}

func findOverlapping(ctx context.Context, q sqlx.QueryerContext, start, end time.Time, excludeRequestID string) ([]models.ScheduleEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_events WHERE start_at < $1 AND end_at > $2`, scheduleEventColumns)
	args := []interface{}{end, start}
	if excludeRequestID != "" {
		query += " AND defense_request_id <> $3"
		args = append(args, excludeRequestID)
	}
	var events []models.ScheduleEvent
	if err := sqlx.SelectContext(ctx, q, &events, query, args...); err != nil {
		return nil, fmt.Errorf("find overlapping schedule events: %w", err)
	}
	return events, nil
}

// FindByRequestID returns the event projected from a request, if any.
func (r *ScheduleEventRepository) FindByRequestID(ctx context.Context, requestID string) (*models.ScheduleEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_events WHERE defense_request_id = $1 LIMIT 1`, scheduleEventColumns)
	var event models.ScheduleEvent
	if err := r.db.GetContext(ctx, &event, query, requestID); err != nil {
		return nil, err
	}
	return &event, nil
}

// UpsertForRequestTx creates or replaces the event for a request inside an
// open transaction.
func (r *ScheduleEventRepository) UpsertForRequestTx(ctx context.Context, tx *sqlx.Tx, event *models.ScheduleEvent) error {
	now := time.Now().UTC()
	event.UpdatedAt = now

	var existingID string
	err := tx.GetContext(ctx, &existingID, `SELECT id FROM schedule_events WHERE defense_request_id = $1`, event.DefenseRequestID)
	switch {
	case err == nil:
		event.ID = existingID
		const update = `UPDATE schedule_events SET title = :title, venue = :venue, mode = :mode, start_at = :start_at, end_at = :end_at, participant_ids = :participant_ids, updated_at = :updated_at WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, update, event); err != nil {
			return fmt.Errorf("update schedule event: %w", err)
		}
		return nil
	case errors.Is(err, sql.ErrNoRows):
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		event.CreatedAt = now
		const insert = `INSERT INTO schedule_events (id, defense_request_id, title, venue, mode, start_at, end_at, participant_ids, created_at, updated_at) VALUES (:id, :defense_request_id, :title, :venue, :mode, :start_at, :end_at, :participant_ids, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, insert, event); err != nil {
			return fmt.Errorf("insert schedule event: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("lookup schedule event: %w", err)
	}
}

// DeleteForRequestTx removes the event for a request inside an open
// transaction (reschedule-away or bulk removal).
func (r *ScheduleEventRepository) DeleteForRequestTx(ctx context.Context, tx *sqlx.Tx, requestID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_events WHERE defense_request_id = $1`, requestID); err != nil {
		return fmt.Errorf("delete schedule event: %w", err)
	}
	return nil
}

// ListBetween returns events inside a calendar range ordered by start.
func (r *ScheduleEventRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.ScheduleEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM schedule_events WHERE start_at >= $1 AND start_at < $2 ORDER BY start_at ASC`, scheduleEventColumns)
	var events []models.ScheduleEvent
	if err := r.db.SelectContext(ctx, &events, query, from, to); err != nil {
		return nil, fmt.Errorf("list schedule events: %w", err)
	}
	return events, nil
}
