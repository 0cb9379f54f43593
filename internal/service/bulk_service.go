package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gds-portal-api/internal/dto"
	"github.com/noah-isme/gds-portal-api/internal/models"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
)

type transitioner interface {
	RequestTransition(ctx context.Context, id string, actor Actor, req dto.TransitionRequest) (*models.DefenseRequest, error)
	Delete(ctx context.Context, id string, actor Actor) error
}

type bulkRequestReader interface {
	FindByID(ctx context.Context, id string) (*models.DefenseRequest, error)
}

// BulkService applies one workflow operation across many requests.
// Each id runs as its own transaction through the workflow engine, so a
// failing item never poisons the others; the call as a whole succeeds and
// callers inspect the per-item outcomes.
type BulkService struct {
	workflow  transitioner
	requests  bulkRequestReader
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBulkService constructs the bulk coordinator.
func NewBulkService(workflow transitioner, requests bulkRequestReader, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BulkService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkService{workflow: workflow, requests: requests, metrics: metrics, validator: validate, logger: logger}
}

// ApplyTransition moves every id toward one explicit target state.
func (s *BulkService) ApplyTransition(ctx context.Context, actor Actor, req dto.BulkTransitionRequest) (*dto.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	return s.run(ctx, "transition", req.IDs, func(ctx context.Context, id string) error {
		_, err := s.workflow.RequestTransition(ctx, id, actor, dto.TransitionRequest{
			TargetState: req.TargetState,
			Reason:      req.Reason,
		})
		return err
	}), nil
}

// Approve moves every id to coordinator-approved. Requests not yet in
// coordinator review take the executive shortcut edge, which re-validates
// the skipped review's invariants per item.
func (s *BulkService) Approve(ctx context.Context, actor Actor, req dto.BulkIDsRequest) (*dto.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	return s.run(ctx, "approve", req.IDs, func(ctx context.Context, id string) error {
		current, err := s.currentState(ctx, id)
		if err != nil {
			return err
		}
		_, err = s.workflow.RequestTransition(ctx, id, actor, dto.TransitionRequest{
			TargetState:   models.StateCoordinatorApproved,
			ExpectedState: current,
			Reason:        req.Reason,
		})
		return err
	}), nil
}

// Reject rejects every id at its current review stage.
func (s *BulkService) Reject(ctx context.Context, actor Actor, req dto.BulkIDsRequest) (*dto.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	if req.Reason == "" {
		return nil, appErrors.Clone(appErrors.ErrMissingPayload, "a rejection reason is required")
	}
	return s.run(ctx, "reject", req.IDs, func(ctx context.Context, id string) error {
		current, err := s.currentState(ctx, id)
		if err != nil {
			return err
		}
		var target models.WorkflowState
		switch current {
		case models.StateAdviserReview:
			target = models.StateAdviserRejected
		case models.StateCoordinatorReview:
			target = models.StateCoordinatorRejected
		default:
			return appErrors.Clone(appErrors.ErrInvalidTransition, "request is not under review")
		}
		_, err = s.workflow.RequestTransition(ctx, id, actor, dto.TransitionRequest{
			TargetState:   target,
			ExpectedState: current,
			Reason:        req.Reason,
		})
		return err
	}), nil
}

// Retrieve returns every id to submitted so the students can amend and
// resubmit.
func (s *BulkService) Retrieve(ctx context.Context, actor Actor, req dto.BulkIDsRequest) (*dto.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	return s.run(ctx, "retrieve", req.IDs, func(ctx context.Context, id string) error {
		_, err := s.workflow.RequestTransition(ctx, id, actor, dto.TransitionRequest{
			TargetState: models.StateSubmitted,
			Reason:      req.Reason,
		})
		return err
	}), nil
}

// Remove deletes every id. Completed defenses fail per item.
func (s *BulkService) Remove(ctx context.Context, actor Actor, req dto.BulkIDsRequest) (*dto.BulkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk payload")
	}
	return s.run(ctx, "remove", req.IDs, func(ctx context.Context, id string) error {
		return s.workflow.Delete(ctx, id, actor)
	}), nil
}

func (s *BulkService) currentState(ctx context.Context, id string) (models.WorkflowState, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "defense request not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defense request")
	}
	return req.WorkflowState, nil
}

func (s *BulkService) run(ctx context.Context, operation string, ids []string, apply func(context.Context, string) error) *dto.BulkResult {
	result := &dto.BulkResult{Results: make([]dto.BulkItemResult, 0, len(ids))}
	for _, id := range ids {
		item := dto.BulkItemResult{ID: id, Outcome: dto.OutcomeSuccess}
		if err := apply(ctx, id); err != nil {
			item.Outcome = dto.OutcomeFailed
			item.Code, item.Reason = itemFailure(err)
			result.Failed++
			s.metrics.RecordBulkItem(operation, false)
			s.logger.Debug("bulk item failed",
				zap.String("operation", operation),
				zap.String("id", id),
				zap.String("code", item.Code),
			)
			result.Results = append(result.Results, item)
			continue
		}
		result.Succeeded++
		s.metrics.RecordBulkItem(operation, true)
		result.Results = append(result.Results, item)
	}
	return result
}

// itemFailure maps a per-item error onto an outcome code and message.
func itemFailure(err error) (code, reason string) {
	var conflictErr *models.ScheduleConflictError
	if errors.As(err, &conflictErr) {
		return appErrors.ErrConflictDetected.Code, conflictErr.Error()
	}
	var panelErr *models.PanelValidationError
	if errors.As(err, &panelErr) {
		return appErrors.ErrValidation.Code, panelErr.Error()
	}
	typed := appErrors.FromError(err)
	return typed.Code, typed.Message
}
