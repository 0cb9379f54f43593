package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/gds-portal-api/internal/dto"
	"github.com/noah-isme/gds-portal-api/internal/models"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
)

type panelistStore interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Panelist, error)
}

// PanelService validates proposed panel rosters against the composition
// rules. Validation accumulates every violation instead of failing fast so
// a coordinator can fix the whole roster in one pass.
type PanelService struct {
	panelists panelistStore
	logger    *zap.Logger
}

// NewPanelService constructs the panel validator.
func NewPanelService(panelists panelistStore, logger *zap.Logger) *PanelService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PanelService{panelists: panelists, logger: logger}
}

// ValidateRoster checks a proposed roster for a request. adviserID is the
// request's adviser, who may never sit on the examining panel. Returns a
// *models.PanelValidationError carrying the full violation list when the
// roster is rejected.
func (s *PanelService) ValidateRoster(ctx context.Context, roster dto.PanelRosterPayload, adviserID *string) error {
	var violations []models.PanelViolation

	if roster.ChairpersonID == "" {
		violations = append(violations, models.PanelViolation{
			Slot:    "chairperson",
			Code:    models.ViolationMissingChair,
			Message: "a chairperson is required",
		})
	}
	if len(roster.PanelistIDs) > models.MaxPanelists {
		violations = append(violations, models.PanelViolation{
			Slot:    "panelists",
			Code:    models.ViolationTooManyMembers,
			Message: fmt.Sprintf("at most %d panelists are allowed besides the chairperson", models.MaxPanelists),
		})
	}

	slots := map[string]string{}
	if roster.ChairpersonID != "" {
		slots[roster.ChairpersonID] = "chairperson"
	}
	seen := map[string]bool{roster.ChairpersonID: roster.ChairpersonID != ""}
	for i, id := range roster.PanelistIDs {
		slot := fmt.Sprintf("panelist%d", i+1)
		if id == "" {
			continue
		}
		if seen[id] {
			violations = append(violations, models.PanelViolation{
				Slot:    slot,
				Code:    models.ViolationDuplicateMember,
				Message: "member already holds another slot on this panel",
			})
			continue
		}
		seen[id] = true
		slots[id] = slot
	}

	if adviserID != nil && *adviserID != "" {
		if slot, ok := slots[*adviserID]; ok {
			violations = append(violations, models.PanelViolation{
				Slot:    slot,
				Code:    models.ViolationAdviserOnPanel,
				Message: "the adviser may not sit on the examining panel",
			})
		}
	}

	memberIDs := make([]string, 0, len(slots))
	for id := range slots {
		memberIDs = append(memberIDs, id)
	}
	if len(memberIDs) > 0 {
		found, err := s.panelists.FindByIDs(ctx, memberIDs)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve panel members")
		}
		byID := make(map[string]models.Panelist, len(found))
		for _, p := range found {
			byID[p.ID] = p
		}
		for id, slot := range slots {
			panelist, ok := byID[id]
			if !ok {
				violations = append(violations, models.PanelViolation{
					Slot:    slot,
					Code:    models.ViolationUnknownMember,
					Message: "no such panelist",
				})
				continue
			}
			if !panelist.Active {
				violations = append(violations, models.PanelViolation{
					Slot:    slot,
					Code:    models.ViolationInactiveMember,
					Message: panelist.FullName + " is not active",
				})
			}
			if slot == "chairperson" && !panelist.CanChair {
				violations = append(violations, models.PanelViolation{
					Slot:    slot,
					Code:    models.ViolationNotChairEligible,
					Message: panelist.FullName + " is not eligible to chair",
				})
			}
		}
	}

	if len(violations) > 0 {
		return &models.PanelValidationError{Violations: violations}
	}
	return nil
}

// ApplyRoster writes a validated roster onto the request's ranked slots.
// Slots beyond the roster length are cleared.
func ApplyRoster(req *models.DefenseRequest, roster dto.PanelRosterPayload) {
	chair := roster.ChairpersonID
	req.ChairpersonID = &chair
	targets := []**string{&req.Panelist1ID, &req.Panelist2ID, &req.Panelist3ID, &req.Panelist4ID}
	for i, target := range targets {
		if i < len(roster.PanelistIDs) && roster.PanelistIDs[i] != "" {
			id := roster.PanelistIDs[i]
			*target = &id
		} else {
			*target = nil
		}
	}
}
