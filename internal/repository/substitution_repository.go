package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lesson-engine/internal/models"
)

const substitutionColumns = "id, session_id, branch_id, original_teacher_id, substitute_teacher_id, substitution_date, start_time, end_time, reason, status, requested_by, approved_by, created_at, updated_at, approved_at, completed_at, cancelled_at"

// SubstitutionRepository persists substitution requests.
type SubstitutionRepository struct {
	db *sqlx.DB
}

// NewSubstitutionRepository constructs the repository.
func NewSubstitutionRepository(db *sqlx.DB) *SubstitutionRepository {
	return &SubstitutionRepository{db: db}
}

// Create inserts a substitution request, assigning an id and timestamps when absent.
func (r *SubstitutionRepository) Create(ctx context.Context, req *models.SubstitutionRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = req.CreatedAt
	if req.Status == "" {
		req.Status = models.SubstitutionStatusPending
	}

	const query = `INSERT INTO substitution_requests (id, session_id, branch_id, original_teacher_id, substitute_teacher_id, substitution_date, start_time, end_time, reason, status, requested_by, created_at, updated_at)
VALUES (:id, :session_id, :branch_id, :original_teacher_id, :substitute_teacher_id, :substitution_date, :start_time, :end_time, :reason, :status, :requested_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("insert substitution request: %w", err)
	}
	return nil
}

// GetByID fetches a request by id.
func (r *SubstitutionRepository) GetByID(ctx context.Context, id string) (*models.SubstitutionRequest, error) {
	var req models.SubstitutionRequest
	query := "SELECT " + substitutionColumns + " FROM substitution_requests WHERE id = $1"
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// List returns requests matching the filter, newest first, with the total count.
func (r *SubstitutionRepository) List(ctx context.Context, filter models.SubstitutionFilter) ([]models.SubstitutionRequest, int, error) {
	var conditions []string
	var args []interface{}

	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			statuses[i] = string(s)
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(statuses))
	}
	if filter.BranchID != "" {
		conditions = append(conditions, fmt.Sprintf("branch_id = $%d", len(args)+1))
		args = append(args, filter.BranchID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("original_teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.SubstituteTeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("substitute_teacher_id = $%d", len(args)+1))
		args = append(args, filter.SubstituteTeacherID)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("substitution_date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom.Format(models.DateLayout))
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("substitution_date <= $%d", len(args)+1))
		args = append(args, filter.DateTo.Format(models.DateLayout))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM substitution_requests"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count substitution requests: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf("SELECT %s FROM substitution_requests%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		substitutionColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var items []models.SubstitutionRequest
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list substitution requests: %w", err)
	}
	return items, total, nil
}

// ListApprovedBySubstituteAndDate returns approved requests where teacherID substitutes on date.
func (r *SubstitutionRepository) ListApprovedBySubstituteAndDate(ctx context.Context, teacherID string, date time.Time) ([]models.SubstitutionRequest, error) {
	query := "SELECT " + substitutionColumns + " FROM substitution_requests WHERE substitute_teacher_id = $1 AND substitution_date = $2 AND status = $3 ORDER BY start_time ASC"
	var items []models.SubstitutionRequest
	if err := r.db.SelectContext(ctx, &items, query, teacherID, date.Format(models.DateLayout), string(models.SubstitutionStatusApproved)); err != nil {
		return nil, fmt.Errorf("list approved substitutions: %w", err)
	}
	return items, nil
}

// UpdateStatus moves a request from expected to next. A non-nil actor is stored
// as approver. It reports false when the stored status no longer matches expected.
func (r *SubstitutionRepository) UpdateStatus(ctx context.Context, id string, expected, next models.SubstitutionStatus, actor *string, at time.Time) (bool, error) {
	var column string
	switch next {
	case models.SubstitutionStatusApproved:
		column = "approved_at"
	case models.SubstitutionStatusCompleted:
		column = "completed_at"
	case models.SubstitutionStatusCancelled:
		column = "cancelled_at"
	default:
		return false, fmt.Errorf("unsupported target status %q", next)
	}

	query := fmt.Sprintf("UPDATE substitution_requests SET status = $1, %s = $2, updated_at = $2, approved_by = COALESCE($3, approved_by) WHERE id = $4 AND status = $5", column)
	res, err := r.db.ExecContext(ctx, query, string(next), at, actor, id, string(expected))
	if err != nil {
		return false, fmt.Errorf("update substitution status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("substitution rows affected: %w", err)
	}
	return affected == 1, nil
}
