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

type panelistCRUDStore interface {
	List(ctx context.Context, filter models.PanelistFilter) ([]models.Panelist, int, error)
	FindByID(ctx context.Context, id string) (*models.Panelist, error)
	Create(ctx context.Context, panelist *models.Panelist) error
	Update(ctx context.Context, panelist *models.Panelist) error
	Delete(ctx context.Context, id string) error
}

// PanelistService manages the roster of panel-eligible faculty.
type PanelistService struct {
	repo      panelistCRUDStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPanelistService constructs the panelist roster service.
func NewPanelistService(repo panelistCRUDStore, validate *validator.Validate, logger *zap.Logger) *PanelistService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PanelistService{repo: repo, validator: validate, logger: logger}
}

// List returns panelists matching the filter.
func (s *PanelistService) List(ctx context.Context, filter models.PanelistFilter) ([]models.Panelist, *models.Pagination, error) {
	panelists, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list panelists")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return panelists, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one panelist.
func (s *PanelistService) Get(ctx context.Context, id string) (*models.Panelist, error) {
	panelist, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "panelist not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load panelist")
	}
	return panelist, nil
}

// Create registers a new active panelist.
func (s *PanelistService) Create(ctx context.Context, req dto.CreatePanelistRequest) (*models.Panelist, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid panelist payload")
	}
	panelist := &models.Panelist{
		FullName:   req.FullName,
		Email:      req.Email,
		Department: req.Department,
		CanChair:   req.CanChair,
		Active:     true,
	}
	if err := s.repo.Create(ctx, panelist); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create panelist")
	}
	return panelist, nil
}

// Update replaces a panelist's roster entry.
func (s *PanelistService) Update(ctx context.Context, id string, req dto.UpdatePanelistRequest) (*models.Panelist, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid panelist payload")
	}
	panelist, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "panelist not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load panelist")
	}
	panelist.FullName = req.FullName
	panelist.Email = req.Email
	panelist.Department = req.Department
	panelist.CanChair = req.CanChair
	panelist.Active = req.Active
	if err := s.repo.Update(ctx, panelist); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update panelist")
	}
	return panelist, nil
}

// Delete deactivates a panelist. Existing assignments keep their slots.
func (s *PanelistService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate panelist")
	}
	return nil
}
