package models

import (
	"time"

	"github.com/lib/pq"
)

// SessionKind distinguishes group lessons from one-to-one lessons.
type SessionKind string

const (
	SessionKindGroup      SessionKind = "group"
	SessionKindIndividual SessionKind = "individual"
)

// SessionStatus captures the lifecycle of a materialised lesson session.
type SessionStatus string

const (
	SessionStatusScheduled   SessionStatus = "scheduled"
	SessionStatusCompleted   SessionStatus = "completed"
	SessionStatusCancelled   SessionStatus = "cancelled"
	SessionStatusRescheduled SessionStatus = "rescheduled"
)

// LessonSession is one concrete, dated occurrence of a lesson.
// StartTime and EndTime are wall-clock values ("15:04" or "15:04:05") on SessionDate.
type LessonSession struct {
	ID          string         `db:"id" json:"id" yaml:"id" validate:"required"`
	SessionDate time.Time      `db:"session_date" json:"session_date" yaml:"session_date" validate:"required"`
	StartTime   string         `db:"start_time" json:"start_time" yaml:"start_time" validate:"required"`
	EndTime     string         `db:"end_time" json:"end_time" yaml:"end_time" validate:"required"`
	TeacherID   *string        `db:"teacher_id" json:"teacher_id,omitempty" yaml:"teacher_id,omitempty"`
	ClassroomID *string        `db:"classroom_id" json:"classroom_id,omitempty" yaml:"classroom_id,omitempty"`
	BranchID    string         `db:"branch_id" json:"branch_id" yaml:"branch_id" validate:"required"`
	GroupID     *string        `db:"group_id" json:"group_id,omitempty" yaml:"group_id,omitempty"`
	Subject     string         `db:"subject" json:"subject,omitempty" yaml:"subject,omitempty"`
	StudentIDs  pq.StringArray `db:"student_ids" json:"student_ids" yaml:"student_ids"`
	Kind        SessionKind    `db:"kind" json:"kind" yaml:"kind" validate:"required,oneof=group individual"`
	Status      SessionStatus  `db:"status" json:"status" yaml:"status" validate:"required,oneof=scheduled completed cancelled rescheduled"`
}

// Active reports whether the session takes part in conflict and utilization computation.
func (s LessonSession) Active() bool {
	return s.Status != SessionStatusCancelled
}

// DateKey returns the calendar date of the session as YYYY-MM-DD.
func (s LessonSession) DateKey() string {
	return s.SessionDate.Format(DateLayout)
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// SessionFilter scopes session snapshots loaded from storage. Cancelled rows are
// only returned when IncludeCancelled is set; the engine ignores them either way.
type SessionFilter struct {
	BranchID         string
	TeacherIDs       []string
	StudentIDs       []string
	ClassroomID      string
	DateFrom         time.Time
	DateTo           time.Time
	IncludeCancelled bool
}
