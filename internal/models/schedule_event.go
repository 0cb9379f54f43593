package models

import (
	"time"

	"github.com/lib/pq"
)

// ScheduleEvent is the calendar-facing projection of a scheduled defense.
// One row exists per request in the scheduled (or completed) state; it is
// the surface the conflict detector queries against.
type ScheduleEvent struct {
	ID               string         `db:"id" json:"id"`
	DefenseRequestID string         `db:"defense_request_id" json:"defense_request_id"`
	Title            string         `db:"title" json:"title"`
	Venue            string         `db:"venue" json:"venue"`
	Mode             DefenseMode    `db:"mode" json:"mode"`
	StartAt          time.Time      `db:"start_at" json:"start_at"`
	EndAt            time.Time      `db:"end_at" json:"end_at"`
	ParticipantIDs   pq.StringArray `db:"participant_ids" json:"participant_ids"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// Overlaps reports half-open interval intersection with [start, end).
func (e *ScheduleEvent) Overlaps(start, end time.Time) bool {
	return start.Before(e.EndAt) && e.StartAt.Before(end)
}

// ConflictCause identifies which logical resource is double-booked.
type ConflictCause string

const (
	ConflictVenue    ConflictCause = "venue"
	ConflictPanelist ConflictCause = "panelist"
)

// ScheduleConflict describes one already-booked event that collides with a
// proposed window, including which resource clashes.
type ScheduleConflict struct {
	RequestID  string        `json:"request_id"`
	EventID    string        `json:"event_id"`
	Cause      ConflictCause `json:"cause"`
	Venue      string        `json:"venue,omitempty"`
	Panelists  []string      `json:"panelists,omitempty"`
	StartAt    time.Time     `json:"start_at"`
	EndAt      time.Time     `json:"end_at"`
	EventTitle string        `json:"event_title,omitempty"`
}

// ConflictReport aggregates conflicts for a proposed booking.
type ConflictReport struct {
	Conflicts []ScheduleConflict `json:"conflicts"`
}

// HasConflicts reports whether the proposed booking is blocked.
func (r ConflictReport) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// ConflictingRequestIDs returns the ids of the blocking requests.
func (r ConflictReport) ConflictingRequestIDs() []string {
	seen := make(map[string]struct{}, len(r.Conflicts))
	ids := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		if _, ok := seen[c.RequestID]; ok {
			continue
		}
		seen[c.RequestID] = struct{}{}
		ids = append(ids, c.RequestID)
	}
	return ids
}

// ScheduleConflictError is returned when a scheduling commit collides with
// existing bookings. It carries the grouped report so callers can name the
// unavailable resource without re-querying.
type ScheduleConflictError struct {
	Report ConflictReport `json:"report"`
}

// Error implements the error interface.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "schedule conflict detected"
}
