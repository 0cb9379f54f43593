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

const panelistColumns = `id, full_name, email, department, can_chair, active, created_at, updated_at`

// PanelistRepository manages the panelist-eligible faculty roster.
type PanelistRepository struct {
	db *sqlx.DB
}

// NewPanelistRepository creates a new panelist repository.
func NewPanelistRepository(db *sqlx.DB) *PanelistRepository {
	return &PanelistRepository{db: db}
}

// List returns panelists with optional filtering and pagination.
func (r *PanelistRepository) List(ctx context.Context, filter models.PanelistFilter) ([]models.Panelist, int, error) {
	base := "FROM panelists WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.CanChair != nil {
		conditions = append(conditions, fmt.Sprintf("can_chair = $%d", len(args)+1))
		args = append(args, *filter.CanChair)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(full_name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY full_name ASC LIMIT %d OFFSET %d", panelistColumns, base, size, offset)
	var panelists []models.Panelist
	if err := r.db.SelectContext(ctx, &panelists, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list panelists: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count panelists: %w", err)
	}

	return panelists, total, nil
}

// FindByID loads a panelist by id.
func (r *PanelistRepository) FindByID(ctx context.Context, id string) (*models.Panelist, error) {
	query := fmt.Sprintf("SELECT %s FROM panelists WHERE id = $1", panelistColumns)
	var panelist models.Panelist
	if err := r.db.GetContext(ctx, &panelist, query, id); err != nil {
		return nil, err
	}
	return &panelist, nil
}

// FindByIDs loads panelists for the given ids; missing ids are simply
// absent from the result.
func (r *PanelistRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Panelist, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf("SELECT %s FROM panelists WHERE id IN (?)", panelistColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("build panelist query: %w", err)
	}
	query = r.db.Rebind(query)
	var panelists []models.Panelist
	if err := r.db.SelectContext(ctx, &panelists, query, args...); err != nil {
		return nil, fmt.Errorf("find panelists by ids: %w", err)
	}
	return panelists, nil
}

// Create stores a new panelist record.
func (r *PanelistRepository) Create(ctx context.Context, panelist *models.Panelist) error {
	if panelist.ID == "" {
		panelist.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if panelist.CreatedAt.IsZero() {
		panelist.CreatedAt = now
	}
	panelist.UpdatedAt = now

	const query = `INSERT INTO panelists (id, full_name, email, department, can_chair, active, created_at, updated_at) VALUES (:id, :full_name, :email, :department, :can_chair, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, panelist); err != nil {
		return fmt.Errorf("create panelist: %w", err)
	}
	return nil
}

// Update modifies a panelist record.
func (r *PanelistRepository) Update(ctx context.Context, panelist *models.Panelist) error {
	panelist.UpdatedAt = time.Now().UTC()
	const query = `UPDATE panelists SET full_name = :full_name, email = :email, department = :department, can_chair = :can_chair, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, panelist); err != nil {
		return fmt.Errorf("update panelist: %w", err)
	}
	return nil
}

// Delete performs a soft delete by marking the panelist inactive.
func (r *PanelistRepository) Delete(ctx context.Context, id string) error {
	const query = `UPDATE panelists SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete panelist: %w", err)
	}
	return nil
}
