package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gds-portal-api/internal/dto"
	"github.com/noah-isme/gds-portal-api/internal/middleware"
	"github.com/noah-isme/gds-portal-api/internal/models"
	"github.com/noah-isme/gds-portal-api/internal/service"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
)

type requestStoreMock struct {
	requests map[string]models.DefenseRequest
	created  *models.DefenseRequest
}

func (m *requestStoreMock) List(ctx context.Context, filter models.DefenseRequestFilter) ([]models.DefenseRequest, int, error) {
	var out []models.DefenseRequest
	for _, r := range m.requests {
		out = append(out, r)
	}
	return out, len(out), nil
}

func (m *requestStoreMock) FindByID(ctx context.Context, id string) (*models.DefenseRequest, error) {
	if r, ok := m.requests[id]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *requestStoreMock) Create(ctx context.Context, req *models.DefenseRequest) error {
	req.ID = "new-req"
	m.created = req
	return nil
}

type envelope struct {
	Data  json.RawMessage  `json:"data"`
	Error *appErrors.Error `json:"error"`
}

func testContext(t *testing.T, method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, target, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestRespondWorkflowErrorConflict(t *testing.T) {
	c, w := testContext(t, http.MethodPatch, "/defense-requests/req-1/status", nil)

	respondWorkflowError(c, &models.ScheduleConflictError{Report: models.ConflictReport{
		Conflicts: []models.ScheduleConflict{{RequestID: "req-2", Cause: models.ConflictVenue, Venue: "Room 301"}},
	}})

	require.Equal(t, http.StatusConflict, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrConflictDetected.Code, env.Error.Code)

	var report models.ConflictReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "req-2", report.Conflicts[0].RequestID)
}

func TestRespondWorkflowErrorPanelValidation(t *testing.T) {
	c, w := testContext(t, http.MethodPatch, "/defense-requests/req-1/status", nil)

	respondWorkflowError(c, &models.PanelValidationError{Violations: []models.PanelViolation{
		{Slot: "chairperson", Code: models.ViolationMissingChair},
	}})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)

	var panelErr models.PanelValidationError
	require.NoError(t, json.Unmarshal(env.Data, &panelErr))
	require.Len(t, panelErr.Violations, 1)
	assert.Equal(t, models.ViolationMissingChair, panelErr.Violations[0].Code)
}

func TestRespondWorkflowErrorTyped(t *testing.T) {
	c, w := testContext(t, http.MethodPatch, "/defense-requests/req-1/status", nil)

	respondWorkflowError(c, appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move"))
	assert.Equal(t, http.StatusConflict, w.Code)

	c, w = testContext(t, http.MethodPatch, "/defense-requests/req-1/status", nil)
	respondWorkflowError(c, appErrors.Clone(appErrors.ErrForbidden, "nope"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDefenseRequestHandlerList(t *testing.T) {
	store := &requestStoreMock{requests: map[string]models.DefenseRequest{
		"req-1": {ID: "req-1", StudentFirstName: "Maria", StudentLastName: "Santos", WorkflowState: models.StateSubmitted},
	}}
	h := NewDefenseRequestHandler(service.NewDefenseRequestService(store, nil, nil), nil, nil)

	c, w := testContext(t, http.MethodGet, "/defense-requests?state=submitted", nil)
	h.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var items []dto.DefenseRequestItem
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Maria Santos", items[0].StudentName)
}

func TestDefenseRequestHandlerGetNotFound(t *testing.T) {
	h := NewDefenseRequestHandler(service.NewDefenseRequestService(&requestStoreMock{}, nil, nil), nil, nil)

	c, w := testContext(t, http.MethodGet, "/defense-requests/ghost", nil)
	c.Params = gin.Params{{Key: "id", Value: "ghost"}}
	h.Get(c)

	require.Equal(t, http.StatusNotFound, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrNotFound.Code, env.Error.Code)
}

func TestDefenseRequestHandlerCreate(t *testing.T) {
	store := &requestStoreMock{}
	h := NewDefenseRequestHandler(service.NewDefenseRequestService(store, nil, nil), nil, nil)

	payload := dto.CreateDefenseRequestRequest{
		StudentFirstName: "Maria",
		StudentLastName:  "Santos",
		SchoolID:         "2021-00123",
		Program:          "MSCS",
		ThesisTitle:      "Adaptive Caching",
		DefenseType:      models.DefenseProposal,
		AdviserID:        "adv-1",
	}
	c, w := testContext(t, http.MethodPost, "/defense-requests", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u-1", Role: models.RoleAdviser})
	h.Create(c)

	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, store.created)
	assert.Equal(t, models.StateSubmitted, store.created.WorkflowState)
	assert.Equal(t, models.ReviewPending, store.created.AdviserStatus)
}

func TestDefenseRequestHandlerCreateInvalidPayload(t *testing.T) {
	h := NewDefenseRequestHandler(service.NewDefenseRequestService(&requestStoreMock{}, nil, nil), nil, nil)

	c, w := testContext(t, http.MethodPost, "/defense-requests", dto.CreateDefenseRequestRequest{
		StudentFirstName: "Maria",
	})
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
