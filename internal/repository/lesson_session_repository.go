package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lesson-engine/internal/models"
)

const lessonSessionColumns = "id, session_date, start_time, end_time, teacher_id, classroom_id, branch_id, group_id, subject, student_ids, kind, status"

// LessonSessionRepository reads session snapshots for the engine.
type LessonSessionRepository struct {
	db *sqlx.DB
}

// NewLessonSessionRepository constructs the repository.
func NewLessonSessionRepository(db *sqlx.DB) *LessonSessionRepository {
	return &LessonSessionRepository{db: db}
}

// List returns sessions matching the filter ordered by date and start time.
func (r *LessonSessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.LessonSession, error) {
	var conditions []string
	var args []interface{}

	if filter.BranchID != "" {
		conditions = append(conditions, fmt.Sprintf("branch_id = $%d", len(args)+1))
		args = append(args, filter.BranchID)
	}
	if len(filter.TeacherIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("teacher_id = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(filter.TeacherIDs))
	}
	if len(filter.StudentIDs) > 0 {
		conditions = append(conditions, fmt.Sprintf("student_ids && $%d", len(args)+1))
		args = append(args, pq.Array(filter.StudentIDs))
	}
	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if !filter.DateFrom.IsZero() {
		conditions = append(conditions, fmt.Sprintf("session_date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom.Format(models.DateLayout))
	}
	if !filter.DateTo.IsZero() {
		conditions = append(conditions, fmt.Sprintf("session_date <= $%d", len(args)+1))
		args = append(args, filter.DateTo.Format(models.DateLayout))
	}
	if !filter.IncludeCancelled {
		conditions = append(conditions, "status <> 'cancelled'")
	}

	query := "SELECT " + lessonSessionColumns + " FROM lesson_sessions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY session_date ASC, start_time ASC, id ASC"

	var sessions []models.LessonSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list lesson sessions: %w", err)
	}
	return sessions, nil
}

// ListByTeacherAndDate returns the non-cancelled sessions a teacher holds on date.
func (r *LessonSessionRepository) ListByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) ([]models.LessonSession, error) {
	return r.List(ctx, models.SessionFilter{
		TeacherIDs: []string{teacherID},
		DateFrom:   date,
		DateTo:     date,
	})
}

// GetByID fetches a single session.
func (r *LessonSessionRepository) GetByID(ctx context.Context, id string) (*models.LessonSession, error) {
	var session models.LessonSession
	query := "SELECT " + lessonSessionColumns + " FROM lesson_sessions WHERE id = $1"
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}
