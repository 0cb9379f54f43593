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

const honorariumColumns = `id, defense_request_id, payee_id, payee_name, role, defense_type, amount, status, verified_at, released_at, created_at, updated_at`

// HonorariumRepository persists honorarium payment records.
type HonorariumRepository struct {
	db *sqlx.DB
}

// NewHonorariumRepository creates a new honorarium repository.
func NewHonorariumRepository(db *sqlx.DB) *HonorariumRepository {
	return &HonorariumRepository{db: db}
}

// List returns honorarium records with filtering and pagination.
func (r *HonorariumRepository) List(ctx context.Context, filter models.HonorariumFilter) ([]models.HonorariumRecord, int, error) {
	base := "FROM honorarium_records WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DefenseRequestID != "" {
		conditions = append(conditions, fmt.Sprintf("defense_request_id = $%d", len(args)+1))
		args = append(args, filter.DefenseRequestID)
	}
	if filter.PayeeID != "" {
		conditions = append(conditions, fmt.Sprintf("payee_id = $%d", len(args)+1))
		args = append(args, filter.PayeeID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.DefenseType != "" {
		conditions = append(conditions, fmt.Sprintf("defense_type = $%d", len(args)+1))
		args = append(args, filter.DefenseType)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", honorariumColumns, base, size, offset)
	var records []models.HonorariumRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list honorarium records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count honorarium records: %w", err)
	}

	return records, total, nil
}

// FindByID loads an honorarium record by id.
func (r *HonorariumRepository) FindByID(ctx context.Context, id string) (*models.HonorariumRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM honorarium_records WHERE id = $1", honorariumColumns)
	var record models.HonorariumRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ExistsForRequest reports whether honoraria were already generated for a
// defense, guarding against double generation on transition replays.
func (r *HonorariumRepository) ExistsForRequest(ctx context.Context, requestID string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM honorarium_records WHERE defense_request_id = $1`, requestID); err != nil {
		return false, fmt.Errorf("check honorarium existence: %w", err)
	}
	return count > 0, nil
}

// CreateBatch inserts the records for one completed defense in a single
// transaction.
func (r *HonorariumRepository) CreateBatch(ctx context.Context, records []models.HonorariumRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin honorarium batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	for i := range records {
		record := records[i]
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
		record.UpdatedAt = now

		const query = `INSERT INTO honorarium_records (id, defense_request_id, payee_id, payee_name, role, defense_type, amount, status, verified_at, released_at, created_at, updated_at) VALUES (:id, :defense_request_id, :payee_id, :payee_name, :role, :defense_type, :amount, :status, :verified_at, :released_at, :created_at, :updated_at)`
		if _, err = tx.NamedExecContext(ctx, query, &record); err != nil {
			return fmt.Errorf("insert honorarium record: %w", err)
		}
		records[i] = record
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit honorarium batch: %w", err)
	}
	return nil
}

// UpdateStatus advances a record's payment status and stamps the matching
// timestamp.
func (r *HonorariumRepository) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, at time.Time) error {
	var column string
	switch status {
	case models.PaymentVerified:
		column = "verified_at"
	case models.PaymentReleased:
		column = "released_at"
	default:
		column = ""
	}

	query := `UPDATE honorarium_records SET status = $2, updated_at = $3 WHERE id = $1`
	args := []interface{}{id, status, at}
	if column != "" {
		query = fmt.Sprintf(`UPDATE honorarium_records SET status = $2, %s = $3, updated_at = $3 WHERE id = $1`, column)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update honorarium status: %w", err)
	}
	return nil
}
