package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gds-portal-api/internal/dto"
	"github.com/noah-isme/gds-portal-api/internal/models"
	"github.com/noah-isme/gds-portal-api/pkg/config"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
)

type mockHonorariumStore struct {
	records   map[string]models.HonorariumRecord
	existing  map[string]bool
	created   []models.HonorariumRecord
	statuses  map[string]models.PaymentStatus
	listCalls int
}

func (m *mockHonorariumStore) List(ctx context.Context, filter models.HonorariumFilter) ([]models.HonorariumRecord, int, error) {
	m.listCalls++
	var all []models.HonorariumRecord
	for _, r := range m.records {
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if filter.PageSize > 0 {
		start := (filter.Page - 1) * filter.PageSize
		if start < 0 {
			start = 0
		}
		if start > total {
			start = total
		}
		end := start + filter.PageSize
		if end > total {
			end = total
		}
		all = all[start:end]
	}
	return all, total, nil
}

func (m *mockHonorariumStore) FindByID(ctx context.Context, id string) (*models.HonorariumRecord, error) {
	if r, ok := m.records[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockHonorariumStore) ExistsForRequest(ctx context.Context, requestID string) (bool, error) {
	return m.existing[requestID], nil
}

func (m *mockHonorariumStore) CreateBatch(ctx context.Context, records []models.HonorariumRecord) error {
	m.created = append(m.created, records...)
	if m.existing == nil {
		m.existing = map[string]bool{}
	}
	for _, r := range records {
		m.existing[r.DefenseRequestID] = true
	}
	return nil
}

func (m *mockHonorariumStore) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, at time.Time) error {
	if m.statuses == nil {
		m.statuses = map[string]models.PaymentStatus{}
	}
	m.statuses[id] = status
	return nil
}

func honorariaConfig() config.HonorariaConfig {
	return config.HonorariaConfig{
		Enabled:            true,
		ChairpersonRate:    150000,
		PanelistRate:       100000,
		AdviserRate:        120000,
		FinalDefenseFactor: 1.5,
	}
}

func completedRequest() *models.DefenseRequest {
	req := seedRequest(models.StateCompleted)
	chair := "chair"
	member := "member"
	req.ChairpersonID = &chair
	req.Panelist1ID = &member
	return &req
}

func TestHonorariumGenerateForDefense(t *testing.T) {
	store := &mockHonorariumStore{}
	svc := NewHonorariumService(store, rosterStore(), &mockAuditLogger{}, honorariaConfig(), nil, nil)

	err := svc.GenerateForDefense(context.Background(), completedRequest())
	require.NoError(t, err)
	require.Len(t, store.created, 3, "chair, one panelist, adviser")

	byPayee := map[string]models.HonorariumRecord{}
	for _, r := range store.created {
		byPayee[r.PayeeID] = r
	}
	assert.Equal(t, models.PanelRoleChairperson, byPayee["chair"].Role)
	assert.Equal(t, int64(150000), byPayee["chair"].Amount)
	assert.Equal(t, "Dr. Chair", byPayee["chair"].PayeeName)
	assert.Equal(t, models.PanelRolePanelist, byPayee["member"].Role)
	assert.Equal(t, int64(100000), byPayee["member"].Amount)
	assert.Equal(t, models.PanelRoleAdviser, byPayee["adv-1"].Role)
	assert.Equal(t, models.PaymentPending, byPayee["chair"].Status)
}

func TestHonorariumGenerateIdempotent(t *testing.T) {
	store := &mockHonorariumStore{}
	svc := NewHonorariumService(store, rosterStore(), nil, honorariaConfig(), nil, nil)
	req := completedRequest()

	require.NoError(t, svc.GenerateForDefense(context.Background(), req))
	require.NoError(t, svc.GenerateForDefense(context.Background(), req))
	assert.Len(t, store.created, 3, "second generation must be a no-op")
}

func TestHonorariumGenerateDisabled(t *testing.T) {
	store := &mockHonorariumStore{}
	cfg := honorariaConfig()
	cfg.Enabled = false
	svc := NewHonorariumService(store, rosterStore(), nil, cfg, nil, nil)

	require.NoError(t, svc.GenerateForDefense(context.Background(), completedRequest()))
	assert.Empty(t, store.created)
}

func TestHonorariumFinalDefenseFactor(t *testing.T) {
	store := &mockHonorariumStore{}
	svc := NewHonorariumService(store, rosterStore(), nil, honorariaConfig(), nil, nil)
	req := completedRequest()
	req.DefenseType = models.DefenseFinal

	require.NoError(t, svc.GenerateForDefense(context.Background(), req))
	byPayee := map[string]int64{}
	for _, r := range store.created {
		byPayee[r.PayeeID] = r.Amount
	}
	assert.Equal(t, int64(225000), byPayee["chair"])
	assert.Equal(t, int64(150000), byPayee["member"])
	assert.Equal(t, int64(180000), byPayee["adv-1"])
}

func TestHonorariumUpdateStatusForwardOnly(t *testing.T) {
	store := &mockHonorariumStore{records: map[string]models.HonorariumRecord{
		"hon-1": {ID: "hon-1", Status: models.PaymentVerified},
	}}
	audit := &mockAuditLogger{}
	svc := NewHonorariumService(store, rosterStore(), audit, honorariaConfig(), nil, nil)
	actor := Actor{ID: "reg-1", Role: models.RoleRegistrar}

	record, err := svc.UpdateStatus(context.Background(), "hon-1", actor, dto.UpdatePaymentStatusRequest{Status: models.PaymentReleased})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentReleased, record.Status)
	assert.NotNil(t, record.ReleasedAt)
	assert.Equal(t, models.PaymentReleased, store.statuses["hon-1"])
	require.Len(t, audit.entries, 1)

	_, err = svc.UpdateStatus(context.Background(), "hon-1", actor, dto.UpdatePaymentStatusRequest{Status: models.PaymentPending})
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrConflict.Code, typed.Code)
}

func TestHonorariumUpdateStatusUnknownRecord(t *testing.T) {
	svc := NewHonorariumService(&mockHonorariumStore{}, rosterStore(), nil, honorariaConfig(), nil, nil)

	_, err := svc.UpdateStatus(context.Background(), "ghost", Actor{}, dto.UpdatePaymentStatusRequest{Status: models.PaymentVerified})
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
}

func TestHonorariumExportCSV(t *testing.T) {
	store := &mockHonorariumStore{records: map[string]models.HonorariumRecord{
		"hon-1": {
			ID:               "hon-1",
			DefenseRequestID: "req-1",
			PayeeName:        "Dr. Chair",
			Role:             models.PanelRoleChairperson,
			DefenseType:      models.DefenseProposal,
			Amount:           150000,
			Status:           models.PaymentPending,
		},
	}}
	svc := NewHonorariumService(store, rosterStore(), nil, honorariaConfig(), nil, nil)

	payload, contentType, err := svc.Export(context.Background(), dto.HonorariumQuery{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "Dr. Chair")
	assert.Contains(t, string(payload), "1500.00")

	_, _, err = svc.Export(context.Background(), dto.HonorariumQuery{}, "xlsx")
	require.Error(t, err)
}

func TestHonorariumExportSpansPages(t *testing.T) {
	store := &mockHonorariumStore{records: map[string]models.HonorariumRecord{}}
	for i := 0; i < 230; i++ {
		id := fmt.Sprintf("hon-%03d", i)
		store.records[id] = models.HonorariumRecord{
			ID:               id,
			DefenseRequestID: fmt.Sprintf("req-%03d", i),
			PayeeName:        "Payee",
			Role:             models.PanelRolePanelist,
			DefenseType:      models.DefenseProposal,
			Amount:           100000,
			Status:           models.PaymentPending,
		}
	}
	svc := NewHonorariumService(store, rosterStore(), nil, honorariaConfig(), nil, nil)

	payload, _, err := svc.Export(context.Background(), dto.HonorariumQuery{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, 3, store.listCalls, "230 records span three pages of 100")
	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	assert.Len(t, lines, 231, "header plus every record")
}

func TestHonorariumExportPDF(t *testing.T) {
	svc := NewHonorariumService(&mockHonorariumStore{}, rosterStore(), nil, honorariaConfig(), nil, nil)

	payload, contentType, err := svc.Export(context.Background(), dto.HonorariumQuery{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, len(payload) > 0)
}
