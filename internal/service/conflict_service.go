package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gds-portal-api/internal/dto"
	"github.com/noah-isme/gds-portal-api/internal/models"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
)

type conflictEventStore interface {
	FindOverlapping(ctx context.Context, start, end time.Time, excludeRequestID string) ([]models.ScheduleEvent, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.ScheduleEvent, error)
}

type conflictPanelistStore interface {
	List(ctx context.Context, filter models.PanelistFilter) ([]models.Panelist, int, error)
}

// ConflictService detects venue and panelist double-bookings for proposed
// defense windows. The same grouping logic backs the advisory check
// endpoint and the scheduling transition.
type ConflictService struct {
	events    conflictEventStore
	panelists conflictPanelistStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConflictService constructs the conflict detector.
func NewConflictService(events conflictEventStore, panelists conflictPanelistStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ConflictService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{events: events, panelists: panelists, cache: cache, validator: validate, logger: logger}
}

// CheckWindow runs the conflict detector without committing anything.
func (s *ConflictService) CheckWindow(ctx context.Context, req dto.ConflictCheckRequest) (*models.ConflictReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}
	start, end, err := ParseWindow(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	events, err := s.events.FindOverlapping(ctx, start, end, req.ExcludeRequestID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule conflicts")
	}

	report := GroupConflicts(req.Venue, req.ParticipantIDs, events)
	return &report, nil
}

// AvailablePanelists returns active panelists with no booking overlapping
// the window: the conflict detector's negative space.
func (s *ConflictService) AvailablePanelists(ctx context.Context, query dto.AvailablePanelistsQuery) ([]models.Panelist, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability query")
	}
	start, end, err := ParseWindow(query.Date, query.StartTime, query.EndTime)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("scheduling:available:%s:%s:%s:%t", query.Date, query.StartTime, query.EndTime, query.ChairOnly)
	var cached []models.Panelist
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	active := true
	filter := models.PanelistFilter{Active: &active, PageSize: 100}
	if query.ChairOnly {
		canChair := true
		filter.CanChair = &canChair
	}
	panelists, _, err := s.panelists.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list panelists")
	}

	events, err := s.events.FindOverlapping(ctx, start, end, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule conflicts")
	}

	busy := make(map[string]struct{})
	for _, event := range events {
		for _, id := range event.ParticipantIDs {
			busy[id] = struct{}{}
		}
	}

	available := make([]models.Panelist, 0, len(panelists))
	for _, panelist := range panelists {
		if _, taken := busy[panelist.ID]; !taken {
			available = append(available, panelist)
		}
	}

	if err := s.cache.Set(ctx, cacheKey, available, 0); err != nil {
		s.logger.Warn("failed to cache availability", zap.Error(err))
	}
	return available, nil
}

// Calendar returns scheduled defenses inside a date range.
func (s *ConflictService) Calendar(ctx context.Context, from, to time.Time) ([]models.ScheduleEvent, error) {
	if !from.Before(to) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "the range end must be after its start")
	}
	events, err := s.events.ListBetween(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule events")
	}
	return events, nil
}

// GroupConflicts classifies overlapping events against a proposed venue
// and participant set, grouped by cause. Events passed in are already
// known to overlap the proposed window in time.
func GroupConflicts(venue string, participantIDs []string, events []models.ScheduleEvent) models.ConflictReport {
	proposed := make(map[string]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		proposed[id] = struct{}{}
	}

	var conflicts []models.ScheduleConflict
	for _, event := range events {
		if venue != "" && strings.EqualFold(strings.TrimSpace(venue), strings.TrimSpace(event.Venue)) {
			conflicts = append(conflicts, models.ScheduleConflict{
				RequestID:  event.DefenseRequestID,
				EventID:    event.ID,
				Cause:      models.ConflictVenue,
				Venue:      event.Venue,
				StartAt:    event.StartAt,
				EndAt:      event.EndAt,
				EventTitle: event.Title,
			})
		}

		var shared []string
		for _, id := range event.ParticipantIDs {
			if _, ok := proposed[id]; ok {
				shared = append(shared, id)
			}
		}
		if len(shared) > 0 {
			conflicts = append(conflicts, models.ScheduleConflict{
				RequestID:  event.DefenseRequestID,
				EventID:    event.ID,
				Cause:      models.ConflictPanelist,
				Panelists:  shared,
				StartAt:    event.StartAt,
				EndAt:      event.EndAt,
				EventTitle: event.Title,
			})
		}
	}

	return models.ConflictReport{Conflicts: conflicts}
}

// ParseWindow combines a date with start/end clock strings into instants
// and rejects empty or inverted windows.
func ParseWindow(date, startClock, endClock string) (time.Time, time.Time, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date")
	}
	start, err := combineClock(day, startClock)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid start time")
	}
	end, err := combineClock(day, endClock)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid end time")
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	return start, end, nil
}

func combineClock(day time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location()), nil
}
