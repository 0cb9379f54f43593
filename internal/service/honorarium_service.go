package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gds-portal-api/internal/dto"
	"github.com/noah-isme/gds-portal-api/internal/models"
	"github.com/noah-isme/gds-portal-api/pkg/config"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
	"github.com/noah-isme/gds-portal-api/pkg/export"
)

type honorariumStore interface {
	List(ctx context.Context, filter models.HonorariumFilter) ([]models.HonorariumRecord, int, error)
	FindByID(ctx context.Context, id string) (*models.HonorariumRecord, error)
	ExistsForRequest(ctx context.Context, requestID string) (bool, error)
	CreateBatch(ctx context.Context, records []models.HonorariumRecord) error
	UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, at time.Time) error
}

type payeeResolver interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Panelist, error)
}

// HonorariumService generates and tracks the payable line items owed to
// panel members when a defense completes. Generation is idempotent per
// request.
type HonorariumService struct {
	records   honorariumStore
	payees    payeeResolver
	audit     auditLogger
	cfg       config.HonorariaConfig
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHonorariumService constructs the honorarium tracker.
func NewHonorariumService(records honorariumStore, payees payeeResolver, audit auditLogger, cfg config.HonorariaConfig, validate *validator.Validate, logger *zap.Logger) *HonorariumService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HonorariumService{
		records:   records,
		payees:    payees,
		audit:     audit,
		cfg:       cfg,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// GenerateForDefense creates one record per panel member and the adviser
// for a completed defense. A second call for the same request is a no-op.
func (s *HonorariumService) GenerateForDefense(ctx context.Context, req *models.DefenseRequest) error {
	if !s.cfg.Enabled {
		return nil
	}
	exists, err := s.records.ExistsForRequest(ctx, req.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing honoraria")
	}
	if exists {
		return nil
	}

	type payee struct {
		id   string
		role models.PanelRole
	}
	var payees []payee
	if req.ChairpersonID != nil && *req.ChairpersonID != "" {
		payees = append(payees, payee{*req.ChairpersonID, models.PanelRoleChairperson})
	}
	for _, slot := range []*string{req.Panelist1ID, req.Panelist2ID, req.Panelist3ID, req.Panelist4ID} {
		if slot != nil && *slot != "" {
			payees = append(payees, payee{*slot, models.PanelRolePanelist})
		}
	}
	if req.AdviserID != nil && *req.AdviserID != "" {
		payees = append(payees, payee{*req.AdviserID, models.PanelRoleAdviser})
	}
	if len(payees) == 0 {
		return nil
	}

	ids := make([]string, 0, len(payees))
	for _, p := range payees {
		ids = append(ids, p.id)
	}
	names := map[string]string{}
	if resolved, err := s.payees.FindByIDs(ctx, ids); err == nil {
		for _, p := range resolved {
			names[p.ID] = p.FullName
		}
	} else {
		s.logger.Warn("payee name resolution failed", zap.String("request_id", req.ID), zap.Error(err))
	}

	records := make([]models.HonorariumRecord, 0, len(payees))
	for _, p := range payees {
		records = append(records, models.HonorariumRecord{
			DefenseRequestID: req.ID,
			PayeeID:          p.id,
			PayeeName:        names[p.id],
			Role:             p.role,
			DefenseType:      req.DefenseType,
			Amount:           s.rateFor(p.role, req.DefenseType),
			Status:           models.PaymentPending,
		})
	}
	if err := s.records.CreateBatch(ctx, records); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create honorarium records")
	}
	s.logger.Info("honoraria generated", zap.String("request_id", req.ID), zap.Int("records", len(records)))
	return nil
}

// rateFor returns the amount for a role. Final defenses pay a higher
// factor on the base rate.
func (s *HonorariumService) rateFor(role models.PanelRole, defenseType models.DefenseType) int64 {
	var base int64
	switch role {
	case models.PanelRoleChairperson:
		base = s.cfg.ChairpersonRate
	case models.PanelRoleAdviser:
		base = s.cfg.AdviserRate
	default:
		base = s.cfg.PanelistRate
	}
	if defenseType == models.DefenseFinal && s.cfg.FinalDefenseFactor > 0 {
		return int64(math.Round(float64(base) * s.cfg.FinalDefenseFactor))
	}
	return base
}

// List returns honorarium records with filtering and pagination.
func (s *HonorariumService) List(ctx context.Context, query dto.HonorariumQuery) ([]models.HonorariumRecord, *models.Pagination, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid honorarium query")
	}
	filter := models.HonorariumFilter{
		DefenseRequestID: query.DefenseRequestID,
		PayeeID:          query.PayeeID,
		Status:           models.PaymentStatus(query.Status),
		DefenseType:      models.DefenseType(query.DefenseType),
		Page:             query.Page,
		PageSize:         query.PageSize,
	}
	records, total, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list honoraria")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// UpdateStatus advances a record along PENDING -> VERIFIED -> RELEASED.
// Moving backwards is refused.
func (s *HonorariumService) UpdateStatus(ctx context.Context, id string, actor Actor, req dto.UpdatePaymentStatusRequest) (*models.HonorariumRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment status payload")
	}
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "honorarium record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load honorarium record")
	}

	target := models.PaymentStatus(req.Status)
	if paymentRank(target) <= paymentRank(record.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict, "payment status can only move forward")
	}

	now := time.Now().UTC()
	if err := s.records.UpdateStatus(ctx, id, target, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update payment status")
	}
	record.Status = target
	switch target {
	case models.PaymentVerified:
		record.VerifiedAt = &now
	case models.PaymentReleased:
		record.ReleasedAt = &now
	}

	if s.audit != nil {
		actorID := actor.ID
		entry := &models.AuditLog{
			UserID:     &actorID,
			Action:     models.AuditActionHonorarium,
			Resource:   "honorarium",
			ResourceID: &record.ID,
			IPAddress:  actor.IPAddress,
			UserAgent:  actor.UserAgent,
		}
		if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
			s.logger.Warn("audit log write failed", zap.String("honorarium_id", record.ID), zap.Error(err))
		}
	}
	return record, nil
}

func paymentRank(status models.PaymentStatus) int {
	switch status {
	case models.PaymentPending:
		return 0
	case models.PaymentVerified:
		return 1
	case models.PaymentReleased:
		return 2
	default:
		return -1
	}
}

// exportPageSize matches the store's page cap; Export walks every page.
const exportPageSize = 100

// Export renders the filtered records as CSV or PDF. Unlike List it is not
// bounded to one page: the full filtered set is fetched page by page.
func (s *HonorariumService) Export(ctx context.Context, query dto.HonorariumQuery, format string) ([]byte, string, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid honorarium query")
	}
	filter := models.HonorariumFilter{
		DefenseRequestID: query.DefenseRequestID,
		PayeeID:          query.PayeeID,
		Status:           models.PaymentStatus(query.Status),
		DefenseType:      models.DefenseType(query.DefenseType),
		Page:             1,
		PageSize:         exportPageSize,
	}

	var records []models.HonorariumRecord
	for {
		page, total, err := s.records.List(ctx, filter)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list honoraria")
		}
		records = append(records, page...)
		if len(page) == 0 || len(records) >= total {
			break
		}
		filter.Page++
	}

	data := export.Dataset{
		Headers: []string{"Request ID", "Payee", "Role", "Defense Type", "Amount", "Status"},
	}
	for _, r := range records {
		data.Rows = append(data.Rows, map[string]string{
			"Request ID":   r.DefenseRequestID,
			"Payee":        r.PayeeName,
			"Role":         string(r.Role),
			"Defense Type": string(r.DefenseType),
			"Amount":       fmt.Sprintf("%.2f", float64(r.Amount)/100),
			"Status":       string(r.Status),
		})
	}

	switch format {
	case "pdf":
		payload, err := s.pdf.Render(data, "Defense Honoraria")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF export")
		}
		return payload, "application/pdf", nil
	case "", "csv":
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV export")
		}
		return payload, "text/csv", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format "+format)
	}
}
