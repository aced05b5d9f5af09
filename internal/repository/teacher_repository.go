package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lesson-engine/internal/models"
)

// TeacherRepository reads the teacher roster.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository creates a teacher repository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// ListQualified returns active teachers of a branch. When subject is set only
// teachers listing that subject are returned.
func (r *TeacherRepository) ListQualified(ctx context.Context, branchID, subject string) ([]models.Teacher, error) {
	query := "SELECT id, full_name, branch_id, subjects, active, created_at, updated_at FROM teachers WHERE active = TRUE AND branch_id = $1"
	args := []interface{}{branchID}
	if subject != "" {
		query += " AND $2 = ANY(subjects)"
		args = append(args, subject)
	}
	query += " ORDER BY id ASC"

	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, args...); err != nil {
		return nil, fmt.Errorf("list qualified teachers: %w", err)
	}
	return teachers, nil
}

// ExistingIDs returns the subset of ids that belong to active teachers.
func (r *TeacherRepository) ExistingIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []string
	const query = "SELECT id FROM teachers WHERE active = TRUE AND id = ANY($1)"
	if err := r.db.SelectContext(ctx, &found, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("lookup teachers: %w", err)
	}
	return found, nil
}
