package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher represents an instructor record available for lessons and substitutions.
type Teacher struct {
	ID        string         `db:"id" json:"id"`
	FullName  string         `db:"full_name" json:"full_name"`
	BranchID  string         `db:"branch_id" json:"branch_id"`
	Subjects  pq.StringArray `db:"subjects" json:"subjects"`
	Active    bool           `db:"active" json:"active"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}
