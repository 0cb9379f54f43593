package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/gds-portal-api/internal/models"
)

const defenseRequestColumns = `id, student_first_name, student_middle_name, student_last_name, school_id, program, thesis_title, defense_type,
	workflow_state, status, priority, adviser_status, coordinator_status, reject_reason,
	adviser_id, coordinator_id, chairperson_id, panelist1_id, panelist2_id, panelist3_id, panelist4_id,
	scheduled_date, scheduled_time, scheduled_end_time, defense_mode, defense_venue,
	submitted_at, adviser_reviewed_at, coordinator_reviewed_at, panels_assigned_at, scheduled_at, completed_at, created_at, updated_at`

// DefenseRequestRepository provides persistence for defense requests and
// their workflow fields.
type DefenseRequestRepository struct {
	db *sqlx.DB
}

// NewDefenseRequestRepository creates a new defense request repository.
func NewDefenseRequestRepository(db *sqlx.DB) *DefenseRequestRepository {
	return &DefenseRequestRepository{db: db}
}

// BeginTx opens a transaction for a transition's lock-validate-write cycle.
func (r *DefenseRequestRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition tx: %w", err)
	}
	return tx, nil
}

// List returns requests with optional filtering and pagination.
func (r *DefenseRequestRepository) List(ctx context.Context, filter models.DefenseRequestFilter) ([]models.DefenseRequest, int, error) {
	base := "FROM defense_requests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.WorkflowState != "" {
		conditions = append(conditions, fmt.Sprintf("workflow_state = $%d", len(args)+1))
		args = append(args, filter.WorkflowState)
	}
	if filter.DefenseType != "" {
		conditions = append(conditions, fmt.Sprintf("defense_type = $%d", len(args)+1))
		args = append(args, filter.DefenseType)
	}
	if filter.AdviserID != "" {
		conditions = append(conditions, fmt.Sprintf("adviser_id = $%d", len(args)+1))
		args = append(args, filter.AdviserID)
	}
	if filter.CoordinatorID != "" {
		conditions = append(conditions, fmt.Sprintf("coordinator_id = $%d", len(args)+1))
		args = append(args, filter.CoordinatorID)
	}
	if filter.Program != "" {
		conditions = append(conditions, fmt.Sprintf("program = $%d", len(args)+1))
		args = append(args, filter.Program)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(thesis_title) LIKE $%d OR LOWER(student_last_name) LIKE $%d OR school_id = $%d)", len(args)+1, len(args)+1, len(args)+2))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%", filter.Search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"submitted_at":   true,
		"priority":       true,
		"scheduled_date": true,
		"created_at":     true,
		"updated_at":     true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "submitted_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", defenseRequestColumns, base, sortBy, order, size, offset)
	var requests []models.DefenseRequest
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list defense requests: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count defense requests: %w", err)
	}

	return requests, total, nil
}

// FindByID loads a defense request by id.
func (r *DefenseRequestRepository) FindByID(ctx context.Context, id string) (*models.DefenseRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM defense_requests WHERE id = $1", defenseRequestColumns)
	var req models.DefenseRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// LockByID loads a request inside the given transaction using a row-level
// lock, serializing concurrent transition attempts on the same request.
func (r *DefenseRequestRepository) LockByID(ctx context.Context, tx *sqlx.Tx, id string) (*models.DefenseRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM defense_requests WHERE id = $1 FOR UPDATE", defenseRequestColumns)
	var req models.DefenseRequest
	if err := tx.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// Create stores a new defense request.
func (r *DefenseRequestRepository) Create(ctx context.Context, req *models.DefenseRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	if req.SubmittedAt.IsZero() {
		req.SubmittedAt = now
	}
	req.UpdatedAt = now

	const query = `INSERT INTO defense_requests (id, student_first_name, student_middle_name, student_last_name, school_id, program, thesis_title, defense_type,
		workflow_state, status, priority, adviser_status, coordinator_status, reject_reason,
		adviser_id, coordinator_id, chairperson_id, panelist1_id, panelist2_id, panelist3_id, panelist4_id,
		scheduled_date, scheduled_time, scheduled_end_time, defense_mode, defense_venue,
		submitted_at, adviser_reviewed_at, coordinator_reviewed_at, panels_assigned_at, scheduled_at, completed_at, created_at, updated_at)
		VALUES (:id, :student_first_name, :student_middle_name, :student_last_name, :school_id, :program, :thesis_title, :defense_type,
		:workflow_state, :status, :priority, :adviser_status, :coordinator_status, :reject_reason,
		:adviser_id, :coordinator_id, :chairperson_id, :panelist1_id, :panelist2_id, :panelist3_id, :panelist4_id,
		:scheduled_date, :scheduled_time, :scheduled_end_time, :defense_mode, :defense_venue,
		:submitted_at, :adviser_reviewed_at, :coordinator_reviewed_at, :panels_assigned_at, :scheduled_at, :completed_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create defense request: %w", err)
	}
	return nil
}

// UpdateWorkflowTx writes the workflow, assignment, scheduling and audit
// fields inside an open transaction. The caller holds the row lock.
func (r *DefenseRequestRepository) UpdateWorkflowTx(ctx context.Context, tx *sqlx.Tx, req *models.DefenseRequest) error {
	req.UpdatedAt = time.Now().UTC()
	const query = `UPDATE defense_requests SET
		workflow_state = :workflow_state, status = :status, priority = :priority,
		adviser_status = :adviser_status, coordinator_status = :coordinator_status, reject_reason = :reject_reason,
		adviser_id = :adviser_id, coordinator_id = :coordinator_id,
		chairperson_id = :chairperson_id, panelist1_id = :panelist1_id, panelist2_id = :panelist2_id, panelist3_id = :panelist3_id, panelist4_id = :panelist4_id,
		scheduled_date = :scheduled_date, scheduled_time = :scheduled_time, scheduled_end_time = :scheduled_end_time,
		defense_mode = :defense_mode, defense_venue = :defense_venue,
		adviser_reviewed_at = :adviser_reviewed_at, coordinator_reviewed_at = :coordinator_reviewed_at,
		panels_assigned_at = :panels_assigned_at, scheduled_at = :scheduled_at, completed_at = :completed_at,
		updated_at = :updated_at
		WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("update defense request workflow: %w", err)
	}
	return nil
}

// DeleteTx removes a defense request inside an open transaction.
func (r *DefenseRequestRepository) DeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM defense_requests WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete defense request: %w", err)
	}
	return nil
}
