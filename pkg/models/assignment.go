package models

import "time"

const (
	AssignmentStatusActive = "active"
	AssignmentStatusClosed = "closed"
)

// Assignment is the borrowing relationship between one holder and the
// equipment issued to them for an academic period. Closure is terminal.
type Assignment struct {
	ID         int        `json:"id" db:"id"`
	Number     string     `json:"number" db:"number"`
	HolderID   int        `json:"holder_id" db:"holder_id"`
	HolderName string     `json:"holder_name,omitempty" db:"holder_name"`
	Year       int        `json:"year" db:"academic_year"`
	Term       int        `json:"term" db:"academic_term"`
	Status     string     `json:"status" db:"status"`
	Notes      *string    `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty" db:"closed_at"`
	ClosedBy   *int       `json:"closed_by,omitempty" db:"closed_by"`
}

func (a *Assignment) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   a.ID,
		ResourceType: "assignment",
	}
}
