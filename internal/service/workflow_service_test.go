package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gds-portal-api/internal/dto"
	"github.com/noah-isme/gds-portal-api/internal/models"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
)

type mockDefenseRequestStore struct {
	db       *sqlx.DB
	requests map[string]models.DefenseRequest
	updated  *models.DefenseRequest
	deleted  []string
}

func (m *mockDefenseRequestStore) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return m.db.BeginTxx(ctx, nil)
}

func (m *mockDefenseRequestStore) FindByID(ctx context.Context, id string) (*models.DefenseRequest, error) {
	if r, ok := m.requests[id]; ok {
		copied := r
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDefenseRequestStore) LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.DefenseRequest, error) {
	return m.FindByID(ctx, id)
}

func (m *mockDefenseRequestStore) UpdateWorkflowTx(ctx context.Context, tx *sqlx.Tx, req *models.DefenseRequest) error {
	m.requests[req.ID] = *req
	copied := *req
	m.updated = &copied
	return nil
}

func (m *mockDefenseRequestStore) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	delete(m.requests, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockScheduleEventStore struct {
	overlapping []models.ScheduleEvent
	upserted    *models.ScheduleEvent
	deletedFor  []string
}

func (m *mockScheduleEventStore) FindOverlappingTx(ctx context.Context, tx *sqlx.Tx, start, end time.Time, excludeRequestID string) ([]models.ScheduleEvent, error) {
	var out []models.ScheduleEvent
	for _, e := range m.overlapping {
		if e.DefenseRequestID != excludeRequestID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockScheduleEventStore) UpsertForRequestTx(ctx context.Context, tx *sqlx.Tx, event *models.ScheduleEvent) error {
	m.upserted = event
	return nil
}

func (m *mockScheduleEventStore) DeleteForRequestTx(ctx context.Context, tx *sqlx.Tx, requestID string) error {
	m.deletedFor = append(m.deletedFor, requestID)
	return nil
}

type mockAuditLogger struct {
	entries []models.AuditLog
}

func (m *mockAuditLogger) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.entries = append(m.entries, *log)
	return nil
}

type mockNotifier struct {
	sent []Notification
}

func (m *mockNotifier) NotifyTransition(ctx context.Context, n Notification) {
	m.sent = append(m.sent, n)
}

type mockHonorariumGenerator struct {
	generated []string
}

func (m *mockHonorariumGenerator) GenerateForDefense(ctx context.Context, req *models.DefenseRequest) error {
	m.generated = append(m.generated, req.ID)
	return nil
}

type mockCacheRepository struct {
	patterns []string
}

func (m *mockCacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (m *mockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (m *mockCacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

type workflowFixture struct {
	svc       *WorkflowService
	requests  *mockDefenseRequestStore
	events    *mockScheduleEventStore
	audit     *mockAuditLogger
	notifier  *mockNotifier
	honoraria *mockHonorariumGenerator
	mock      sqlmock.Sqlmock
}

func newWorkflowFixture(t *testing.T, seed ...models.DefenseRequest) *workflowFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	requests := &mockDefenseRequestStore{db: sqlx.NewDb(db, "sqlmock"), requests: map[string]models.DefenseRequest{}}
	for _, r := range seed {
		requests.requests[r.ID] = r
	}
	events := &mockScheduleEventStore{}
	audit := &mockAuditLogger{}
	notifier := &mockNotifier{}
	honoraria := &mockHonorariumGenerator{}

	svc := NewWorkflowService(
		requests,
		events,
		NewRoleAuthorizer(),
		NewPanelService(rosterStore(), nil),
		audit,
		notifier,
		honoraria,
		NewCacheService(nil, nil, 0, nil, false),
		nil,
		nil,
		nil,
	)
	return &workflowFixture{svc: svc, requests: requests, events: events, audit: audit, notifier: notifier, honoraria: honoraria, mock: mock}
}

func seedRequest(state models.WorkflowState) models.DefenseRequest {
	adviser := "adv-1"
	return models.DefenseRequest{
		ID:                "req-1",
		StudentFirstName:  "Maria",
		StudentLastName:   "Santos",
		SchoolID:          "2021-00123",
		Program:           "MSCS",
		ThesisTitle:       "Adaptive Caching",
		DefenseType:       models.DefenseProposal,
		WorkflowState:     state,
		Status:            models.DisplayStatusFor(state),
		AdviserStatus:     models.ReviewPending,
		CoordinatorStatus: models.ReviewPending,
		AdviserID:         &adviser,
	}
}

func TestWorkflowAdviserApproval(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateAdviserReview))
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	actor := Actor{ID: "adv-1", Role: models.RoleAdviser}
	updated, err := f.svc.RequestTransition(context.Background(), "req-1", actor, dto.TransitionRequest{
		TargetState: models.StateAdviserApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StateAdviserApproved, updated.WorkflowState)
	assert.Equal(t, "Approved", updated.Status)
	assert.Equal(t, models.ReviewApproved, updated.AdviserStatus)
	assert.NotNil(t, updated.AdviserReviewedAt)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionTransition, f.audit.entries[0].Action)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, models.StateAdviserReview, f.notifier.sent[0].FromState)
	assert.Equal(t, models.StateAdviserApproved, f.notifier.sent[0].ToState)
}

func TestWorkflowUnknownRequest(t *testing.T) {
	f := newWorkflowFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.RequestTransition(context.Background(), "missing", Actor{ID: "adv-1", Role: models.RoleAdviser}, dto.TransitionRequest{
		TargetState: models.StateAdviserApproved,
	})
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
}

func TestWorkflowExpectedStateMismatch(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateAdviserApproved))
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "adv-1", Role: models.RoleAdviser}, dto.TransitionRequest{
		TargetState:   models.StateAdviserApproved,
		ExpectedState: models.StateAdviserReview,
	})
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, typed.Code)
	assert.Nil(t, f.requests.updated, "refused transition must not write")
}

func TestWorkflowRejectionRequiresReason(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateAdviserReview))
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "adv-1", Role: models.RoleAdviser}, dto.TransitionRequest{
		TargetState: models.StateAdviserRejected,
	})
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrMissingPayload.Code, typed.Code)
}

func TestWorkflowRejectionStoresReason(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateCoordinatorReview))
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	updated, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "coord-1", Role: models.RoleCoordinator}, dto.TransitionRequest{
		TargetState: models.StateCoordinatorRejected,
		Reason:      "methodology chapter incomplete",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewRejected, updated.CoordinatorStatus)
	require.NotNil(t, updated.RejectReason)
	assert.Equal(t, "methodology chapter incomplete", *updated.RejectReason)
}

func TestWorkflowAdviserCannotCoordinatorApprove(t *testing.T) {
	seed := seedRequest(models.StateCoordinatorReview)
	f := newWorkflowFixture(t, seed)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: *seed.AdviserID, Role: models.RoleCoordinator}, dto.TransitionRequest{
		TargetState: models.StateCoordinatorApproved,
	})
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrForbidden.Code, typed.Code)
}

func TestWorkflowShortcutRecordsAdviserOutcome(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateSubmitted))
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	updated, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "dean-1", Role: models.RoleDean}, dto.TransitionRequest{
		TargetState: models.StateCoordinatorApproved,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StateCoordinatorApproved, updated.WorkflowState)
	assert.Equal(t, models.ReviewApproved, updated.AdviserStatus, "shortcut records the skipped review")
	assert.Equal(t, models.ReviewApproved, updated.CoordinatorStatus)
	require.NotNil(t, updated.CoordinatorID)
	assert.Equal(t, "dean-1", *updated.CoordinatorID)
}

func TestWorkflowPanelAssignment(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateCoordinatorApproved))
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	updated, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "coord-1", Role: models.RoleCoordinator}, dto.TransitionRequest{
		TargetState: models.StatePanelsAssigned,
		Panels:      &dto.PanelRosterPayload{ChairpersonID: "chair", PanelistIDs: []string{"member"}},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.ChairpersonID)
	assert.Equal(t, "chair", *updated.ChairpersonID)
	require.NotNil(t, updated.Panelist1ID)
	assert.Equal(t, "member", *updated.Panelist1ID)
	assert.NotNil(t, updated.PanelsAssignedAt)
}

func TestWorkflowPanelAssignmentRejectsRoster(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateCoordinatorApproved))
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "coord-1", Role: models.RoleCoordinator}, dto.TransitionRequest{
		TargetState: models.StatePanelsAssigned,
		Panels:      &dto.PanelRosterPayload{ChairpersonID: "junior"},
	})
	require.Error(t, err)
	var panelErr *models.PanelValidationError
	require.True(t, errors.As(err, &panelErr))
	assert.Nil(t, f.requests.updated)
}

func TestWorkflowPanelAssignmentAccumulatesViolations(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateCoordinatorApproved))
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "coord-1", Role: models.RoleCoordinator}, dto.TransitionRequest{
		TargetState: models.StatePanelsAssigned,
		Panels:      &dto.PanelRosterPayload{PanelistIDs: []string{"member", "member"}},
	})
	require.Error(t, err)
	codes := violationCodes(t, err)
	assert.Contains(t, codes, models.ViolationMissingChair)
	assert.Contains(t, codes, models.ViolationDuplicateMember)
	assert.Nil(t, f.requests.updated)
}

func TestWorkflowPanelAssignmentRequiresRoster(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateCoordinatorApproved))
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "coord-1", Role: models.RoleCoordinator}, dto.TransitionRequest{
		TargetState: models.StatePanelsAssigned,
	})
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrMissingPayload.Code, typed.Code)
}

func panelsAssignedRequest() models.DefenseRequest {
	seed := seedRequest(models.StatePanelsAssigned)
	chair := "chair"
	member := "member"
	seed.ChairpersonID = &chair
	seed.Panelist1ID = &member
	return seed
}

func TestWorkflowScheduleProjectsEvent(t *testing.T) {
	f := newWorkflowFixture(t, panelsAssignedRequest())
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	updated, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "coord-1", Role: models.RoleCoordinator}, dto.TransitionRequest{
		TargetState: models.StateScheduled,
		Schedule: &dto.SchedulePayload{
			Date:      "2026-03-10",
			StartTime: "09:00",
			EndTime:   "11:00",
			Mode:      models.ModeFaceToFace,
			Venue:     "Room 301",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StateScheduled, updated.WorkflowState)
	require.NotNil(t, updated.DefenseVenue)
	assert.Equal(t, "Room 301", *updated.DefenseVenue)
	require.NotNil(t, updated.ScheduledTime)
	assert.Equal(t, "09:00", *updated.ScheduledTime)

	require.NotNil(t, f.events.upserted)
	assert.Equal(t, "req-1", f.events.upserted.DefenseRequestID)
	assert.Equal(t, "Room 301", f.events.upserted.Venue)
	assert.ElementsMatch(t, []string{"chair", "member", "adv-1"}, []string(f.events.upserted.ParticipantIDs))
	assert.Equal(t, 9, f.events.upserted.StartAt.Hour())
	assert.Equal(t, 11, f.events.upserted.EndAt.Hour())
}

func TestWorkflowScheduleInvalidatesAvailabilityCache(t *testing.T) {
	f := newWorkflowFixture(t, panelsAssignedRequest())
	cacheRepo := &mockCacheRepository{}
	f.svc.cache = NewCacheService(cacheRepo, nil, 0, nil, true)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "coord-1", Role: models.RoleCoordinator}, dto.TransitionRequest{
		TargetState: models.StateScheduled,
		Schedule: &dto.SchedulePayload{
			Date:      "2026-03-10",
			StartTime: "09:00",
			EndTime:   "11:00",
			Mode:      models.ModeFaceToFace,
			Venue:     "Room 301",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.patterns, "scheduling:*")
}

func TestWorkflowReviewTransitionLeavesAvailabilityCache(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateAdviserReview))
	cacheRepo := &mockCacheRepository{}
	f.svc.cache = NewCacheService(cacheRepo, nil, 0, nil, true)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "adv-1", Role: models.RoleAdviser}, dto.TransitionRequest{
		TargetState: models.StateAdviserApproved,
	})
	require.NoError(t, err)
	assert.Empty(t, cacheRepo.patterns, "review transitions touch no availability data")
}

func TestWorkflowDeleteScheduledInvalidatesAvailabilityCache(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateScheduled))
	cacheRepo := &mockCacheRepository{}
	f.svc.cache = NewCacheService(cacheRepo, nil, 0, nil, true)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	err := f.svc.Delete(context.Background(), "req-1", Actor{ID: "reg-1", Role: models.RoleRegistrar})
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.patterns, "scheduling:*")
}

func TestWorkflowScheduleRefusedOnConflict(t *testing.T) {
	f := newWorkflowFixture(t, panelsAssignedRequest())
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	f.events.overlapping = []models.ScheduleEvent{{
		ID:               "evt-2",
		DefenseRequestID: "req-2",
		Venue:            "Room 301",
		StartAt:          start,
		EndAt:            start.Add(time.Hour),
	}}
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "coord-1", Role: models.RoleCoordinator}, dto.TransitionRequest{
		TargetState: models.StateScheduled,
		Schedule: &dto.SchedulePayload{
			Date:      "2026-03-10",
			StartTime: "09:00",
			EndTime:   "11:00",
			Mode:      models.ModeFaceToFace,
			Venue:     "Room 301",
		},
	})
	require.Error(t, err)
	var conflictErr *models.ScheduleConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, []string{"req-2"}, conflictErr.Report.ConflictingRequestIDs())
	assert.Nil(t, f.requests.updated)
	assert.Nil(t, f.events.upserted)
}

func TestWorkflowScheduleFaceToFaceNeedsVenue(t *testing.T) {
	f := newWorkflowFixture(t, panelsAssignedRequest())
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "coord-1", Role: models.RoleCoordinator}, dto.TransitionRequest{
		TargetState: models.StateScheduled,
		Schedule: &dto.SchedulePayload{
			Date:      "2026-03-10",
			StartTime: "09:00",
			EndTime:   "11:00",
			Mode:      models.ModeFaceToFace,
		},
	})
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrMissingPayload.Code, typed.Code)
}

func TestWorkflowRetrieveResetsReviews(t *testing.T) {
	seed := seedRequest(models.StateAdviserRejected)
	reason := "formatting"
	now := time.Now()
	seed.AdviserStatus = models.ReviewRejected
	seed.RejectReason = &reason
	seed.AdviserReviewedAt = &now
	f := newWorkflowFixture(t, seed)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	updated, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "reg-1", Role: models.RoleRegistrar}, dto.TransitionRequest{
		TargetState: models.StateSubmitted,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StateSubmitted, updated.WorkflowState)
	assert.Equal(t, models.ReviewPending, updated.AdviserStatus)
	assert.Equal(t, models.ReviewPending, updated.CoordinatorStatus)
	assert.Nil(t, updated.RejectReason)
	assert.Nil(t, updated.AdviserReviewedAt)
}

func TestWorkflowCompletionGeneratesHonoraria(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateScheduled))
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	updated, err := f.svc.RequestTransition(context.Background(), "req-1", Actor{ID: "dean-1", Role: models.RoleDean}, dto.TransitionRequest{
		TargetState: models.StateCompleted,
	})
	require.NoError(t, err)
	assert.NotNil(t, updated.CompletedAt)
	assert.Equal(t, []string{"req-1"}, f.honoraria.generated)
}

func TestWorkflowRevert(t *testing.T) {
	seed := seedRequest(models.StateCoordinatorRejected)
	reason := "incomplete"
	seed.CoordinatorStatus = models.ReviewRejected
	seed.RejectReason = &reason
	f := newWorkflowFixture(t, seed)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	updated, err := f.svc.Revert(context.Background(), "req-1", Actor{ID: "dean-1", Role: models.RoleDean}, "appeal granted")
	require.NoError(t, err)
	assert.Equal(t, models.StateCoordinatorReview, updated.WorkflowState)
	assert.Equal(t, models.ReviewPending, updated.CoordinatorStatus)
	assert.Nil(t, updated.RejectReason)
}

func TestWorkflowRevertOnlyRejections(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateScheduled))
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Revert(context.Background(), "req-1", Actor{ID: "dean-1", Role: models.RoleDean}, "")
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, typed.Code)
}

func TestWorkflowRevertRequiresExecutive(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateAdviserRejected))

	_, err := f.svc.Revert(context.Background(), "req-1", Actor{ID: "coord-1", Role: models.RoleCoordinator}, "")
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrForbidden.Code, typed.Code)
}

func TestWorkflowDelete(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateCoordinatorReview))
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	err := f.svc.Delete(context.Background(), "req-1", Actor{ID: "reg-1", Role: models.RoleRegistrar})
	require.NoError(t, err)
	assert.Equal(t, []string{"req-1"}, f.requests.deleted)
	assert.Equal(t, []string{"req-1"}, f.events.deletedFor)
	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, models.AuditActionDelete, f.audit.entries[0].Action)
}

func TestWorkflowDeleteRefusesCompleted(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateCompleted))
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	err := f.svc.Delete(context.Background(), "req-1", Actor{ID: "admin-1", Role: models.RoleAdmin})
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrConflict.Code, typed.Code)
	assert.Empty(t, f.requests.deleted)
}

func TestWorkflowAllowedTargets(t *testing.T) {
	f := newWorkflowFixture(t, seedRequest(models.StateAdviserReview))

	targets, err := f.svc.AllowedTargets(context.Background(), "req-1", models.RoleAdviser)
	require.NoError(t, err)
	assert.ElementsMatch(t, []models.WorkflowState{models.StateAdviserApproved, models.StateAdviserRejected}, targets)

	_, err = f.svc.AllowedTargets(context.Background(), "missing", models.RoleAdviser)
	require.Error(t, err)
}
