package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gds-portal-api/internal/dto"
	"github.com/noah-isme/gds-portal-api/internal/models"
)

type mockPanelistStore struct {
	panelists map[string]models.Panelist
	err       error
}

func (m *mockPanelistStore) FindByIDs(ctx context.Context, ids []string) ([]models.Panelist, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.Panelist
	for _, id := range ids {
		if p, ok := m.panelists[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func rosterStore() *mockPanelistStore {
	return &mockPanelistStore{panelists: map[string]models.Panelist{
		"chair":    {ID: "chair", FullName: "Dr. Chair", Active: true, CanChair: true},
		"member":   {ID: "member", FullName: "Dr. Member", Active: true},
		"inactive": {ID: "inactive", FullName: "Dr. Gone", Active: false},
		"junior":   {ID: "junior", FullName: "Dr. Junior", Active: true, CanChair: false},
	}}
}

func violationCodes(t *testing.T, err error) []string {
	t.Helper()
	var panelErr *models.PanelValidationError
	require.ErrorAs(t, err, &panelErr)
	codes := make([]string, 0, len(panelErr.Violations))
	for _, v := range panelErr.Violations {
		codes = append(codes, v.Code)
	}
	return codes
}

func TestValidateRosterAccepts(t *testing.T) {
	svc := NewPanelService(rosterStore(), nil)

	err := svc.ValidateRoster(context.Background(), dto.PanelRosterPayload{
		ChairpersonID: "chair",
		PanelistIDs:   []string{"member"},
	}, nil)
	assert.NoError(t, err)
}

func TestValidateRosterMissingChair(t *testing.T) {
	svc := NewPanelService(rosterStore(), nil)

	err := svc.ValidateRoster(context.Background(), dto.PanelRosterPayload{
		PanelistIDs: []string{"member"},
	}, nil)
	assert.Contains(t, violationCodes(t, err), models.ViolationMissingChair)
}

func TestValidateRosterTooManyMembers(t *testing.T) {
	svc := NewPanelService(rosterStore(), nil)

	err := svc.ValidateRoster(context.Background(), dto.PanelRosterPayload{
		ChairpersonID: "chair",
		PanelistIDs:   []string{"member", "m2", "m3", "m4", "m5"},
	}, nil)
	assert.Contains(t, violationCodes(t, err), models.ViolationTooManyMembers)
}

func TestValidateRosterDuplicateMember(t *testing.T) {
	svc := NewPanelService(rosterStore(), nil)

	err := svc.ValidateRoster(context.Background(), dto.PanelRosterPayload{
		ChairpersonID: "chair",
		PanelistIDs:   []string{"member", "member"},
	}, nil)
	assert.Contains(t, violationCodes(t, err), models.ViolationDuplicateMember)

	err = svc.ValidateRoster(context.Background(), dto.PanelRosterPayload{
		ChairpersonID: "chair",
		PanelistIDs:   []string{"chair"},
	}, nil)
	assert.Contains(t, violationCodes(t, err), models.ViolationDuplicateMember)
}

func TestValidateRosterAdviserOnPanel(t *testing.T) {
	svc := NewPanelService(rosterStore(), nil)
	adviser := "member"

	err := svc.ValidateRoster(context.Background(), dto.PanelRosterPayload{
		ChairpersonID: "chair",
		PanelistIDs:   []string{"member"},
	}, &adviser)
	assert.Contains(t, violationCodes(t, err), models.ViolationAdviserOnPanel)
}

func TestValidateRosterMemberLookups(t *testing.T) {
	svc := NewPanelService(rosterStore(), nil)

	err := svc.ValidateRoster(context.Background(), dto.PanelRosterPayload{
		ChairpersonID: "junior",
		PanelistIDs:   []string{"inactive", "ghost"},
	}, nil)
	codes := violationCodes(t, err)
	assert.Contains(t, codes, models.ViolationNotChairEligible)
	assert.Contains(t, codes, models.ViolationInactiveMember)
	assert.Contains(t, codes, models.ViolationUnknownMember)
}

func TestValidateRosterAccumulates(t *testing.T) {
	svc := NewPanelService(rosterStore(), nil)
	adviser := "member"

	err := svc.ValidateRoster(context.Background(), dto.PanelRosterPayload{
		PanelistIDs: []string{"member", "member", "ghost"},
	}, &adviser)
	codes := violationCodes(t, err)
	assert.Contains(t, codes, models.ViolationMissingChair)
	assert.Contains(t, codes, models.ViolationDuplicateMember)
	assert.Contains(t, codes, models.ViolationAdviserOnPanel)
	assert.Contains(t, codes, models.ViolationUnknownMember)
}

func TestValidateRosterStoreFailure(t *testing.T) {
	svc := NewPanelService(&mockPanelistStore{err: sql.ErrConnDone}, nil)

	err := svc.ValidateRoster(context.Background(), dto.PanelRosterPayload{ChairpersonID: "chair"}, nil)
	require.Error(t, err)
	var panelErr *models.PanelValidationError
	assert.False(t, errors.As(err, &panelErr), "infrastructure failures are not roster violations")
}

func TestApplyRoster(t *testing.T) {
	four := "p4"
	req := &models.DefenseRequest{Panelist4ID: &four}

	ApplyRoster(req, dto.PanelRosterPayload{
		ChairpersonID: "chair",
		PanelistIDs:   []string{"p1", "p2"},
	})
	require.NotNil(t, req.ChairpersonID)
	assert.Equal(t, "chair", *req.ChairpersonID)
	require.NotNil(t, req.Panelist1ID)
	assert.Equal(t, "p1", *req.Panelist1ID)
	require.NotNil(t, req.Panelist2ID)
	assert.Equal(t, "p2", *req.Panelist2ID)
	assert.Nil(t, req.Panelist3ID)
	assert.Nil(t, req.Panelist4ID, "stale slot must be cleared")
}
