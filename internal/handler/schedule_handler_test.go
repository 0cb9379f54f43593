package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gds-portal-api/internal/dto"
	"github.com/noah-isme/gds-portal-api/internal/models"
	"github.com/noah-isme/gds-portal-api/internal/service"
)

type eventStoreMock struct {
	events []models.ScheduleEvent
}

func (m *eventStoreMock) FindOverlapping(ctx context.Context, start, end time.Time, excludeRequestID string) ([]models.ScheduleEvent, error) {
	var out []models.ScheduleEvent
	for _, e := range m.events {
		if e.DefenseRequestID == excludeRequestID {
			continue
		}
		if e.Overlaps(start, end) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *eventStoreMock) ListBetween(ctx context.Context, from, to time.Time) ([]models.ScheduleEvent, error) {
	return m.events, nil
}

type panelistStoreMock struct {
	panelists []models.Panelist
}

func (m *panelistStoreMock) List(ctx context.Context, filter models.PanelistFilter) ([]models.Panelist, int, error) {
	return m.panelists, len(m.panelists), nil
}

func newScheduleHandler(events *eventStoreMock, panelists *panelistStoreMock) *ScheduleHandler {
	conflicts := service.NewConflictService(events, panelists, service.NewCacheService(nil, nil, 0, nil, false), nil, nil)
	return NewScheduleHandler(conflicts, nil)
}

func TestScheduleHandlerCheckConflicts(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	events := &eventStoreMock{events: []models.ScheduleEvent{{
		ID:               "evt-1",
		DefenseRequestID: "req-1",
		Venue:            "Room 301",
		StartAt:          start,
		EndAt:            start.Add(2 * time.Hour),
	}}}
	h := newScheduleHandler(events, &panelistStoreMock{})

	c, w := testContext(t, http.MethodPost, "/coordinator/schedule/check-conflicts", dto.ConflictCheckRequest{
		Date:      "2026-03-10",
		StartTime: "10:00",
		EndTime:   "12:00",
		Venue:     "Room 301",
	})
	h.CheckConflicts(c)

	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var body struct {
		HasConflicts bool                      `json:"has_conflicts"`
		Conflicts    []models.ScheduleConflict `json:"conflicts"`
		RequestIDs   []string                  `json:"request_ids"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.True(t, body.HasConflicts)
	require.Len(t, body.Conflicts, 1)
	assert.Equal(t, models.ConflictVenue, body.Conflicts[0].Cause)
	assert.Equal(t, []string{"req-1"}, body.RequestIDs)
}

func TestScheduleHandlerCheckConflictsClean(t *testing.T) {
	h := newScheduleHandler(&eventStoreMock{}, &panelistStoreMock{})

	c, w := testContext(t, http.MethodPost, "/coordinator/schedule/check-conflicts", dto.ConflictCheckRequest{
		Date:      "2026-03-10",
		StartTime: "10:00",
		EndTime:   "12:00",
		Venue:     "Room 301",
	})
	h.CheckConflicts(c)

	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var body struct {
		HasConflicts bool `json:"has_conflicts"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.False(t, body.HasConflicts)
}

func TestScheduleHandlerCheckConflictsInvalidWindow(t *testing.T) {
	h := newScheduleHandler(&eventStoreMock{}, &panelistStoreMock{})

	c, w := testContext(t, http.MethodPost, "/coordinator/schedule/check-conflicts", dto.ConflictCheckRequest{
		Date:      "2026-03-10",
		StartTime: "12:00",
		EndTime:   "10:00",
		Venue:     "Room 301",
	})
	h.CheckConflicts(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerAvailablePanelists(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	events := &eventStoreMock{events: []models.ScheduleEvent{{
		ID:               "evt-1",
		DefenseRequestID: "req-1",
		StartAt:          start,
		EndAt:            start.Add(2 * time.Hour),
		ParticipantIDs:   []string{"p-1"},
	}}}
	panelists := &panelistStoreMock{panelists: []models.Panelist{
		{ID: "p-1", FullName: "Busy", Active: true},
		{ID: "p-2", FullName: "Free", Active: true},
	}}
	h := newScheduleHandler(events, panelists)

	c, w := testContext(t, http.MethodGet, "/coordinator/schedule/available-panelists?date=2026-03-10&start_time=10:00&end_time=12:00", nil)
	h.AvailablePanelists(c)

	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var body dto.AvailablePanelistsResponse
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Panelists, 1)
	assert.Equal(t, "p-2", body.Panelists[0].ID)
}

func TestScheduleHandlerCalendarValidatesRange(t *testing.T) {
	h := newScheduleHandler(&eventStoreMock{}, &panelistStoreMock{})

	c, w := testContext(t, http.MethodGet, "/coordinator/schedule/calendar?from=2026-03-10", nil)
	h.Calendar(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = testContext(t, http.MethodGet, "/coordinator/schedule/calendar?from=2026-03-10&to=2026-03-17", nil)
	h.Calendar(c)
	assert.Equal(t, http.StatusOK, w.Code)
}
