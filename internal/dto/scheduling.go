package dto

import (
	"fmt"
	"time"

	"github.com/noah-isme/lesson-engine/internal/models"
	appErrors "github.com/noah-isme/lesson-engine/pkg/errors"
)

// SessionPayload is the wire form of a lesson session, with the date as YYYY-MM-DD.
type SessionPayload struct {
	ID          string               `json:"id" yaml:"id"`
	Date        string               `json:"date" yaml:"date"`
	StartTime   string               `json:"start_time" yaml:"start_time"`
	EndTime     string               `json:"end_time" yaml:"end_time"`
	TeacherID   *string              `json:"teacher_id" yaml:"teacher_id"`
	ClassroomID *string              `json:"classroom_id" yaml:"classroom_id"`
	BranchID    string               `json:"branch_id" yaml:"branch_id"`
	GroupID     *string              `json:"group_id" yaml:"group_id"`
	Subject     string               `json:"subject" yaml:"subject"`
	StudentIDs  []string             `json:"student_ids" yaml:"student_ids"`
	Kind        models.SessionKind   `json:"kind" yaml:"kind"`
	Status      models.SessionStatus `json:"status" yaml:"status"`
}

// ToModel converts the payload into an engine session. Field validation is
// left to the engine; only the date format is checked here.
func (p SessionPayload) ToModel() (models.LessonSession, error) {
	date, err := time.Parse(models.DateLayout, p.Date)
	if err != nil {
		return models.LessonSession{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session %q: date must be YYYY-MM-DD", p.ID))
	}
	return models.LessonSession{
		ID:          p.ID,
		SessionDate: date,
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		TeacherID:   p.TeacherID,
		ClassroomID: p.ClassroomID,
		BranchID:    p.BranchID,
		GroupID:     p.GroupID,
		Subject:     p.Subject,
		StudentIDs:  p.StudentIDs,
		Kind:        p.Kind,
		Status:      p.Status,
	}, nil
}

// ToSessions converts a batch of payloads, stopping at the first bad date.
func ToSessions(payloads []SessionPayload) ([]models.LessonSession, error) {
	sessions := make([]models.LessonSession, 0, len(payloads))
	for _, p := range payloads {
		session, err := p.ToModel()
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// DetectConflictsRequest carries a caller supplied session snapshot.
type DetectConflictsRequest struct {
	Sessions   []SessionPayload           `json:"sessions" yaml:"sessions" binding:"required"`
	Dimensions []models.ResourceDimension `json:"dimensions" yaml:"dimensions"`
}

// BranchConflictsQuery scopes conflict detection over stored sessions.
type BranchConflictsQuery struct {
	From string `form:"from" validate:"required,datetime=2006-01-02"`
	To   string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

// UtilizationQuery selects the day and reference window for utilization reports.
type UtilizationQuery struct {
	Date        string `form:"date" validate:"required,datetime=2006-01-02"`
	WindowStart string `form:"window_start"`
	WindowEnd   string `form:"window_end"`
	Format      string `form:"format" validate:"omitempty,oneof=json csv pdf"`
}

// TeacherAvailabilityRequest asks which teachers can take a slot.
type TeacherAvailabilityRequest struct {
	Candidates        []string `json:"candidates"`
	Date              string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime         string   `json:"start_time" validate:"required"`
	EndTime           string   `json:"end_time" validate:"required"`
	Subject           string   `json:"subject"`
	BranchID          string   `json:"branch_id" validate:"required"`
	ExcludeSessionIDs []string `json:"exclude_session_ids"`
}

// StudentAvailabilityRequest checks a batch of students against one slot.
// BranchID names where the slot would be held; bookings at every branch are checked.
type StudentAvailabilityRequest struct {
	StudentIDs        []string `json:"student_ids" validate:"required,min=1,dive,required"`
	BranchID          string   `json:"branch_id"`
	Date              string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime         string   `json:"start_time" validate:"required"`
	EndTime           string   `json:"end_time" validate:"required"`
	ExcludeSessionIDs []string `json:"exclude_session_ids"`
}

// CreateSubstitutionRequest proposes a substitute teacher for a slot.
type CreateSubstitutionRequest struct {
	SessionID           *string `json:"session_id"`
	BranchID            string  `json:"branch_id" validate:"required"`
	OriginalTeacherID   string  `json:"original_teacher_id" validate:"required"`
	SubstituteTeacherID string  `json:"substitute_teacher_id" validate:"required,nefield=OriginalTeacherID"`
	Date                string  `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime           string  `json:"start_time" validate:"required"`
	EndTime             string  `json:"end_time" validate:"required"`
	Reason              *string `json:"reason" validate:"omitempty,max=500"`
}

// SubstitutionQuery filters substitution listings.
type SubstitutionQuery struct {
	Status              []string `form:"status"`
	BranchID            string   `form:"branch_id"`
	TeacherID           string   `form:"teacher_id"`
	SubstituteTeacherID string   `form:"substitute_teacher_id"`
	From                string   `form:"from"`
	To                  string   `form:"to"`
	Page                int      `form:"page"`
	PageSize            int      `form:"page_size"`
}

// StaleApprovalResponse is returned with a STALE_APPROVAL error so the caller
// sees the still pending request and what blocks it.
type StaleApprovalResponse struct {
	Request             *models.SubstitutionRequest `json:"request"`
	ConflictingSessions []string                    `json:"conflicting_sessions,omitempty"`
	ConflictingRequests []string                    `json:"conflicting_requests,omitempty"`
}
