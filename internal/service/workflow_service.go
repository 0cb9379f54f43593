package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/gds-portal-api/internal/dto"
	"github.com/noah-isme/gds-portal-api/internal/models"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
)

// Actor identifies the authenticated user performing a workflow mutation.
type Actor struct {
	ID        string
	Role      models.UserRole
	IPAddress string
	UserAgent string
}

type defenseRequestStore interface {
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
	FindByID(ctx context.Context, id string) (*models.DefenseRequest, error)
	LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.DefenseRequest, error)
	UpdateWorkflowTx(ctx context.Context, tx *sqlx.Tx, req *models.DefenseRequest) error
	DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

type scheduleEventStore interface {
	FindOverlappingTx(ctx context.Context, tx *sqlx.Tx, start, end time.Time, excludeRequestID string) ([]models.ScheduleEvent, error)
	UpsertForRequestTx(ctx context.Context, tx *sqlx.Tx, event *models.ScheduleEvent) error
	DeleteForRequestTx(ctx context.Context, tx *sqlx.Tx, requestID string) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type honorariumGenerator interface {
	GenerateForDefense(ctx context.Context, req *models.DefenseRequest) error
}

// WorkflowService owns every mutation of a defense request's workflow
// state. Each transition runs as lock, validate, write inside one
// transaction so the conflict check and the scheduling write cannot be
// split by a concurrent writer.
type WorkflowService struct {
	requests   defenseRequestStore
	events     scheduleEventStore
	authorizer *RoleAuthorizer
	panels     *PanelService
	audit      auditLogger
	notifier   Notifier
	honoraria  honorariumGenerator
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewWorkflowService wires the workflow engine.
func NewWorkflowService(
	requests defenseRequestStore,
	events scheduleEventStore,
	authorizer *RoleAuthorizer,
	panels *PanelService,
	audit auditLogger,
	notifier Notifier,
	honoraria honorariumGenerator,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *WorkflowService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowService{
		requests:   requests,
		events:     events,
		authorizer: authorizer,
		panels:     panels,
		audit:      audit,
		notifier:   notifier,
		honoraria:  honoraria,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
	}
}

// RequestTransition moves a request along one workflow edge. It returns
// the updated request, or a typed error describing exactly why the move
// was refused: *models.ScheduleConflictError for double-bookings,
// *models.PanelValidationError for roster defects, or an *appErrors.Error
// for everything else.
func (s *WorkflowService) RequestTransition(ctx context.Context, id string, actor Actor, req dto.TransitionRequest) (*models.DefenseRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}
	if !req.TargetState.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown target state "+string(req.TargetState))
	}

	tx, err := s.requests.BeginTx(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start transition")
	}
	defer func() { _ = tx.Rollback() }()

	locked, err := s.requests.LockByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "defense request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defense request")
	}
	fromState := locked.WorkflowState

	if req.ExpectedState != "" && fromState != req.ExpectedState {
		s.metrics.RecordTransition(string(req.TargetState), false)
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "request is now in "+string(fromState))
	}

	if err := s.authorizer.Authorize(fromState, req.TargetState, actor.Role); err != nil {
		s.metrics.RecordTransition(string(req.TargetState), false)
		return nil, err
	}

	if err := s.applyTransition(ctx, tx, locked, actor, req); err != nil {
		s.metrics.RecordTransition(string(req.TargetState), false)
		return nil, err
	}

	locked.WorkflowState = req.TargetState
	locked.Status = models.DisplayStatusFor(req.TargetState)

	if err := s.requests.UpdateWorkflowTx(ctx, tx, locked); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist transition")
	}

	if req.TargetState == models.StateScheduled {
		if err := s.projectEvent(ctx, tx, locked); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit transition")
	}

	s.afterTransition(ctx, locked, fromState, actor, req.Reason)
	return locked, nil
}

// applyTransition performs the per-edge payload validation and mutates the
// locked row. The schedule conflict check happens here, inside the open
// transaction, so a competing booking cannot slip in between validation
// and commit.
func (s *WorkflowService) applyTransition(ctx context.Context, tx *sqlx.Tx, locked *models.DefenseRequest, actor Actor, req dto.TransitionRequest) error {
	now := time.Now().UTC()

	switch req.TargetState {
	case models.StateAdviserReview:
		if locked.AdviserID == nil || *locked.AdviserID == "" {
			adviser := actor.ID
			locked.AdviserID = &adviser
		}

	case models.StateAdviserApproved:
		locked.AdviserStatus = models.ReviewApproved
		locked.AdviserReviewedAt = &now

	case models.StateAdviserRejected:
		if req.Reason == "" {
			return appErrors.Clone(appErrors.ErrMissingPayload, "a rejection reason is required")
		}
		reason := req.Reason
		locked.AdviserStatus = models.ReviewRejected
		locked.RejectReason = &reason
		locked.AdviserReviewedAt = &now

	case models.StateCoordinatorReview:
		if locked.CoordinatorID == nil || *locked.CoordinatorID == "" {
			coordinator := actor.ID
			locked.CoordinatorID = &coordinator
		}

	case models.StateCoordinatorApproved:
		if locked.AdviserID == nil || *locked.AdviserID == "" {
			return appErrors.Clone(appErrors.ErrMissingPayload, "an adviser must be assigned before coordinator approval")
		}
		if *locked.AdviserID == actor.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "the adviser of a request may not grant its coordinator approval")
		}
		if s.authorizer.IsShortcut(locked.WorkflowState, req.TargetState) {
			// The shortcut skips the adviser review edge, so record its
			// outcome here.
			locked.AdviserStatus = models.ReviewApproved
			locked.AdviserReviewedAt = &now
		}
		if locked.CoordinatorID == nil || *locked.CoordinatorID == "" {
			coordinator := actor.ID
			locked.CoordinatorID = &coordinator
		}
		locked.CoordinatorStatus = models.ReviewApproved
		locked.CoordinatorReviewedAt = &now

	case models.StateCoordinatorRejected:
		if req.Reason == "" {
			return appErrors.Clone(appErrors.ErrMissingPayload, "a rejection reason is required")
		}
		reason := req.Reason
		locked.CoordinatorStatus = models.ReviewRejected
		locked.RejectReason = &reason
		locked.CoordinatorReviewedAt = &now

	case models.StatePanelsAssigned:
		if req.Panels == nil {
			return appErrors.Clone(appErrors.ErrMissingPayload, "a panel roster is required")
		}
		if err := s.panels.ValidateRoster(ctx, *req.Panels, locked.AdviserID); err != nil {
			return err
		}
		ApplyRoster(locked, *req.Panels)
		locked.PanelsAssignedAt = &now

	case models.StateScheduled:
		if req.Schedule == nil {
			return appErrors.Clone(appErrors.ErrMissingPayload, "schedule details are required")
		}
		if err := s.applySchedule(ctx, tx, locked, *req.Schedule); err != nil {
			return err
		}
		locked.ScheduledAt = &now

	case models.StateSubmitted:
		// Retrieve: the request returns to the student for amendment, so
		// both review outcomes reset.
		locked.AdviserStatus = models.ReviewPending
		locked.CoordinatorStatus = models.ReviewPending
		locked.RejectReason = nil
		locked.AdviserReviewedAt = nil
		locked.CoordinatorReviewedAt = nil

	case models.StateCompleted:
		locked.CompletedAt = &now
	}

	return nil
}

func (s *WorkflowService) applySchedule(ctx context.Context, tx *sqlx.Tx, locked *models.DefenseRequest, payload dto.SchedulePayload) error {
	if err := s.validator.Struct(payload); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if payload.Mode == models.ModeFaceToFace && payload.Venue == "" {
		return appErrors.Clone(appErrors.ErrMissingPayload, "a venue is required for a face-to-face defense")
	}
	start, end, err := ParseWindow(payload.Date, payload.StartTime, payload.EndTime)
	if err != nil {
		return err
	}

	overlapping, err := s.events.FindOverlappingTx(ctx, tx, start, end, locked.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check schedule conflicts")
	}
	report := GroupConflicts(payload.Venue, locked.ParticipantIDs(), overlapping)
	if report.HasConflicts() {
		s.metrics.RecordConflictDetected()
		return &models.ScheduleConflictError{Report: report}
	}

	date := start.Truncate(24 * time.Hour)
	startClock := payload.StartTime
	endClock := payload.EndTime
	mode := payload.Mode
	venue := payload.Venue
	locked.ScheduledDate = &date
	locked.ScheduledTime = &startClock
	locked.ScheduledEndTime = &endClock
	locked.DefenseMode = &mode
	locked.DefenseVenue = &venue
	return nil
}

// projectEvent writes the calendar projection for a scheduled request
// inside the transition's transaction.
func (s *WorkflowService) projectEvent(ctx context.Context, tx *sqlx.Tx, req *models.DefenseRequest) error {
	start, end, ok := req.ScheduledWindow()
	if !ok {
		return appErrors.Clone(appErrors.ErrInternal, "scheduled request has no usable window")
	}
	venue := ""
	if req.DefenseVenue != nil {
		venue = *req.DefenseVenue
	}
	mode := models.ModeFaceToFace
	if req.DefenseMode != nil {
		mode = *req.DefenseMode
	}
	event := &models.ScheduleEvent{
		DefenseRequestID: req.ID,
		Title:            req.StudentName() + " " + string(req.DefenseType) + " Defense",
		Venue:            venue,
		Mode:             mode,
		StartAt:          start,
		EndAt:            end,
		ParticipantIDs:   req.ParticipantIDs(),
	}
	if err := s.events.UpsertForRequestTx(ctx, tx, event); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to project schedule event")
	}
	return nil
}

// afterTransition runs the post-commit side effects. None of them can
// fail the transition; failures are logged and dropped.
func (s *WorkflowService) afterTransition(ctx context.Context, req *models.DefenseRequest, fromState models.WorkflowState, actor Actor, reason string) {
	s.metrics.RecordTransition(string(req.WorkflowState), true)

	if s.audit != nil {
		oldValues, _ := json.Marshal(map[string]string{"workflow_state": string(fromState)})
		newValues, _ := json.Marshal(map[string]string{"workflow_state": string(req.WorkflowState)})
		actorID := actor.ID
		entry := &models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionTransition,
			Resource:   "defense_request",
			ResourceID: &req.ID,
			OldValues:  oldValues,
			NewValues:  newValues,
			IPAddress:  actor.IPAddress,
			UserAgent:  actor.UserAgent,
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("audit log write failed", zap.String("request_id", req.ID), zap.Error(err))
		}
	}

	if s.notifier != nil {
		s.notifier.NotifyTransition(ctx, Notification{
			RequestID:   req.ID,
			StudentName: req.StudentName(),
			FromState:   fromState,
			ToState:     req.WorkflowState,
			Reason:      reason,
			ActorID:     actor.ID,
		})
	}

	if req.WorkflowState == models.StateCompleted && s.honoraria != nil {
		if err := s.honoraria.GenerateForDefense(ctx, req); err != nil {
			s.logger.Error("honorarium generation failed", zap.String("request_id", req.ID), zap.Error(err))
		}
	}

	if req.WorkflowState == models.StateScheduled || fromState == models.StateScheduled {
		if err := s.cache.Invalidate(ctx, "scheduling:*"); err != nil {
			s.logger.Warn("availability cache invalidation failed", zap.Error(err))
		}
	}
}

// Revert returns a rejected request to the review state the rejection came
// from, clearing that stage's outcome.
func (s *WorkflowService) Revert(ctx context.Context, id string, actor Actor, reason string) (*models.DefenseRequest, error) {
	if err := s.authorizer.AuthorizeRevert(actor.Role); err != nil {
		return nil, err
	}

	tx, err := s.requests.BeginTx(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start revert")
	}
	defer func() { _ = tx.Rollback() }()

	locked, err := s.requests.LockByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "defense request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defense request")
	}
	fromState := locked.WorkflowState

	target, ok := s.authorizer.RevertTarget(fromState)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only rejected requests can be reverted")
	}

	locked.RejectReason = nil
	switch fromState {
	case models.StateAdviserRejected:
		locked.AdviserStatus = models.ReviewPending
		locked.AdviserReviewedAt = nil
	case models.StateCoordinatorRejected:
		locked.CoordinatorStatus = models.ReviewPending
		locked.CoordinatorReviewedAt = nil
	}
	locked.WorkflowState = target
	locked.Status = models.DisplayStatusFor(target)

	if err := s.requests.UpdateWorkflowTx(ctx, tx, locked); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist revert")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit revert")
	}

	s.afterTransition(ctx, locked, fromState, actor, reason)
	return locked, nil
}

// Delete removes a request and its calendar projection. Completed
// defenses are part of the academic record and cannot be removed.
func (s *WorkflowService) Delete(ctx context.Context, id string, actor Actor) error {
	tx, err := s.requests.BeginTx(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to start removal")
	}
	defer func() { _ = tx.Rollback() }()

	locked, err := s.requests.LockByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "defense request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defense request")
	}
	if locked.WorkflowState == models.StateCompleted {
		return appErrors.Clone(appErrors.ErrConflict, "completed defenses cannot be removed")
	}

	if err := s.events.DeleteForRequestTx(ctx, tx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove schedule event")
	}
	if err := s.requests.DeleteTx(ctx, tx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove defense request")
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit removal")
	}

	if s.audit != nil {
		actorID := actor.ID
		entry := &models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionDelete,
			Resource:   "defense_request",
			ResourceID: &id,
			IPAddress:  actor.IPAddress,
			UserAgent:  actor.UserAgent,
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("audit log write failed", zap.String("request_id", id), zap.Error(err))
		}
	}
	if locked.WorkflowState == models.StateScheduled {
		if err := s.cache.Invalidate(ctx, "scheduling:*"); err != nil {
			s.logger.Warn("availability cache invalidation failed", zap.Error(err))
		}
	}
	return nil
}

// AllowedTargets lists the states the acting role may move the request to.
func (s *WorkflowService) AllowedTargets(ctx context.Context, id string, role models.UserRole) ([]models.WorkflowState, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "defense request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defense request")
	}
	return s.authorizer.AllowedTargets(req.WorkflowState, role), nil
}
