package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gds-portal-api/internal/dto"
	"github.com/noah-isme/gds-portal-api/internal/models"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
	"github.com/noah-isme/gds-portal-api/pkg/export"
	"github.com/noah-isme/gds-portal-api/pkg/storage"
)

type documentRequestReader interface {
	FindByID(ctx context.Context, id string) (*models.DefenseRequest, error)
}

type documentPayeeResolver interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Panelist, error)
}

// DocumentService renders official PDFs for scheduled defenses and hands
// out signed, expiring download links.
type DocumentService struct {
	requests  documentRequestReader
	panelists documentPayeeResolver
	store     *storage.LocalStorage
	signer    *storage.SignedURLSigner
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewDocumentService constructs the document generator.
func NewDocumentService(requests documentRequestReader, panelists documentPayeeResolver, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		requests:  requests,
		panelists: panelists,
		store:     store,
		signer:    signer,
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// ScheduleNotice renders the defense schedule notice for a scheduled (or
// completed) request, stores it, and returns a signed download link.
func (s *DocumentService) ScheduleNotice(ctx context.Context, requestID string) (*dto.DocumentLink, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "defense request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load defense request")
	}
	if req.WorkflowState != models.StateScheduled && req.WorkflowState != models.StateCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "the defense has not been scheduled yet")
	}

	doc, err := s.buildNotice(ctx, req)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.RenderDocument(*doc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule notice")
	}

	docID := uuid.NewString()
	filename := fmt.Sprintf("schedule-notice-%s-%s.pdf", req.ID, docID[:8])
	relPath, err := s.store.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule notice")
	}

	token, expiresAt, err := s.signer.Generate(docID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &dto.DocumentLink{
		DocumentID: docID,
		Filename:   filename,
		Token:      token,
		ExpiresAt:  expiresAt,
	}, nil
}

func (s *DocumentService) buildNotice(ctx context.Context, req *models.DefenseRequest) (*export.Document, error) {
	venue := "Online"
	if req.DefenseVenue != nil && *req.DefenseVenue != "" {
		venue = *req.DefenseVenue
	}
	mode := ""
	if req.DefenseMode != nil {
		mode = string(*req.DefenseMode)
	}
	when := ""
	if req.ScheduledDate != nil && req.ScheduledTime != nil && req.ScheduledEndTime != nil {
		when = fmt.Sprintf("%s, %s to %s", req.ScheduledDate.Format("January 2, 2006"), *req.ScheduledTime, *req.ScheduledEndTime)
	}

	names := map[string]string{}
	memberIDs := req.ParticipantIDs()
	if len(memberIDs) > 0 {
		if resolved, err := s.panelists.FindByIDs(ctx, memberIDs); err == nil {
			for _, p := range resolved {
				names[p.ID] = p.FullName
			}
		} else {
			s.logger.Warn("panel name resolution failed", zap.String("request_id", req.ID), zap.Error(err))
		}
	}
	display := func(id *string) string {
		if id == nil || *id == "" {
			return ""
		}
		if name, ok := names[*id]; ok && name != "" {
			return name
		}
		return *id
	}

	panel := export.Dataset{Headers: []string{"Role", "Member"}}
	addRow := func(role, member string) {
		panel.Rows = append(panel.Rows, map[string]string{"Role": role, "Member": member})
	}
	if name := display(req.ChairpersonID); name != "" {
		addRow("Chairperson", name)
	}
	for _, slot := range []*string{req.Panelist1ID, req.Panelist2ID, req.Panelist3ID, req.Panelist4ID} {
		if name := display(slot); name != "" {
			addRow("Panelist", name)
		}
	}
	if name := display(req.AdviserID); name != "" {
		addRow("Adviser", name)
	}

	return &export.Document{
		Title:    "Notice of Defense Schedule",
		Subtitle: string(req.DefenseType) + " Defense",
		Fields: []export.Field{
			{Label: "Student", Value: req.StudentName()},
			{Label: "Program", Value: req.Program},
			{Label: "Thesis Title", Value: req.ThesisTitle},
			{Label: "Schedule", Value: when},
			{Label: "Mode", Value: mode},
			{Label: "Venue", Value: venue},
		},
		Table:  &panel,
		Footer: "Generated " + time.Now().UTC().Format("2006-01-02 15:04") + " UTC",
	}, nil
}

// Download validates a signed token and opens the underlying file.
func (s *DocumentService) Download(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download token")
	}
	file, err := s.store.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	return file, relPath, nil
}

// CleanupExpired removes stored documents older than the given TTL.
func (s *DocumentService) CleanupExpired(ttl time.Duration) {
	removed, err := s.store.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("document cleanup failed", zap.Error(err))
		return
	}
	if len(removed) > 0 {
		s.logger.Info("expired documents removed", zap.Int("count", len(removed)))
	}
}
