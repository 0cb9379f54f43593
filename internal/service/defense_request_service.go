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

type defenseRequestCRUDStore interface {
	List(ctx context.Context, filter models.DefenseRequestFilter) ([]models.DefenseRequest, int, error)
	FindByID(ctx context.Context, id string) (*models.DefenseRequest, error)
	Create(ctx context.Context, req *models.DefenseRequest) error
}

// DefenseRequestService handles submission and read access for defense
// requests. Workflow mutations live in WorkflowService.
type DefenseRequestService struct {
	repo      defenseRequestCRUDStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDefenseRequestService constructs the request service.
func NewDefenseRequestService(repo defenseRequestCRUDStore, validate *validator.Validate, logger *zap.Logger) *DefenseRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefenseRequestService{repo: repo, validator: validate, logger: logger}
}

// Create submits a new defense request in the submitted state.
func (s *DefenseRequestService) Create(ctx context.Context, actor Actor, req dto.CreateDefenseRequestRequest) (*models.DefenseRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid defense request payload")
	}

	adviser := req.AdviserID
	request := &models.DefenseRequest{
		StudentFirstName:  req.StudentFirstName,
		StudentLastName:   req.StudentLastName,
		SchoolID:          req.SchoolID,
		Program:           req.Program,
		ThesisTitle:       req.ThesisTitle,
		DefenseType:       req.DefenseType,
		WorkflowState:     models.StateSubmitted,
		Status:            models.DisplayStatusFor(models.StateSubmitted),
		Priority:          req.Priority,
		AdviserStatus:     models.ReviewPending,
		CoordinatorStatus: models.ReviewPending,
		AdviserID:         &adviser,
	}
	if req.StudentMiddleName != "" {
		middle := req.StudentMiddleName
		request.StudentMiddleName = &middle
	}

	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create defense request")
	}
	s.logger.Info("defense request submitted",
		zap.String("id", request.ID),
		zap.String("program", request.Program),
		zap.String("actor", actor.ID),
	)
	return request, nil
}

// List returns requests matching the filter plus pagination metadata.
func (s *DefenseRequestService) List(ctx context.Context, filter models.DefenseRequestFilter) ([]dto.DefenseRequestItem, *models.Pagination, error) {
	requests, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list defense requests")
	}
	items := make([]dto.DefenseRequestItem, 0, len(requests))
	for _, r := range requests {
		items = append(items, dto.NewDefenseRequestItem(r))
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads a single request by id.
func (s *DefenseRequestService) Get(ctx context.Context, id string) (*dto.DefenseRequestItem, error) {
	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "defense request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defense request")
	}
	item := dto.NewDefenseRequestItem(*req)
	return &item, nil
}
