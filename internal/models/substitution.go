package models

import "time"

// SubstitutionStatus captures workflow states for substitution requests.
type SubstitutionStatus string

const (
	SubstitutionStatusPending   SubstitutionStatus = "pending"
	SubstitutionStatusApproved  SubstitutionStatus = "approved"
	SubstitutionStatusCompleted SubstitutionStatus = "completed"
	SubstitutionStatusCancelled SubstitutionStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s SubstitutionStatus) Terminal() bool {
	return s == SubstitutionStatusCompleted || s == SubstitutionStatusCancelled
}

// SubstitutionAction is a workflow verb applied to a request.
type SubstitutionAction string

const (
	SubstitutionActionApprove  SubstitutionAction = "approve"
	SubstitutionActionComplete SubstitutionAction = "complete"
	SubstitutionActionCancel   SubstitutionAction = "cancel"
)

// SubstitutionRequest records a proposal to replace one teacher with another for a dated slot.
type SubstitutionRequest struct {
	ID                  string             `db:"id" json:"id"`
	SessionID           *string            `db:"session_id" json:"session_id,omitempty"`
	BranchID            string             `db:"branch_id" json:"branch_id"`
	OriginalTeacherID   string             `db:"original_teacher_id" json:"original_teacher_id"`
	SubstituteTeacherID string             `db:"substitute_teacher_id" json:"substitute_teacher_id"`
	SubstitutionDate    time.Time          `db:"substitution_date" json:"substitution_date"`
	StartTime           string             `db:"start_time" json:"start_time"`
	EndTime             string             `db:"end_time" json:"end_time"`
	Reason              *string            `db:"reason" json:"reason,omitempty"`
	Status              SubstitutionStatus `db:"status" json:"status"`
	RequestedBy         string             `db:"requested_by" json:"requested_by"`
	ApprovedBy          *string            `db:"approved_by" json:"approved_by,omitempty"`
	CreatedAt           time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time          `db:"updated_at" json:"updated_at"`
	ApprovedAt          *time.Time         `db:"approved_at" json:"approved_at,omitempty"`
	CompletedAt         *time.Time         `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt         *time.Time         `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// SubstitutionFilter constrains listing queries.
type SubstitutionFilter struct {
	Status              []SubstitutionStatus
	BranchID            string
	TeacherID           string
	SubstituteTeacherID string
	DateFrom            *time.Time
	DateTo              *time.Time
	Limit               int
	Offset              int
}

// StaleApprovalError is returned when approval re-validation finds the substitute busy.
type StaleApprovalError struct {
	RequestID           string   `json:"request_id"`
	SubstituteTeacherID string   `json:"substitute_teacher_id"`
	ConflictingSessions []string `json:"conflicting_sessions,omitempty"`
	ConflictingRequests []string `json:"conflicting_requests,omitempty"`
}

// Error implements the error interface.
func (e *StaleApprovalError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "substitute " + e.SubstituteTeacherID + " has a conflicting booking"
}

// Pagination is returned alongside substitution listings.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
