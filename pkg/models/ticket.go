package models

import "time"

const (
	TicketTypeIT = "IT"
	TicketTypeFM = "FM"
)

const (
	TicketStatusOpen       = "open"
	TicketStatusAssigned   = "assigned"
	TicketStatusInProgress = "in_progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
	TicketStatusCancelled  = "cancelled"
)

const (
	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
	TicketPriorityUrgent = "urgent"
)

const (
	ResolutionTypeRepaired      = "repaired"
	ResolutionTypeReplaced      = "replaced"
	ResolutionTypeWorkaround    = "workaround"
	ResolutionTypeNotRepairable = "not_repairable"
	ResolutionTypeNoFault       = "no_fault_found"
)

const (
	SLAStatusOnTrack  = "on_track"
	SLAStatusBreached = "breached"
)

type Ticket struct {
	ID              int        `json:"id" db:"id"`
	Number          string     `json:"number" db:"number"`
	Type            string     `json:"type" db:"type"`
	Title           string     `json:"title" db:"title"`
	Description     string     `json:"description" db:"description"`
	Priority        string     `json:"priority" db:"priority"`
	Status          string     `json:"status" db:"status"`
	AssetID         *int       `json:"asset_id,omitempty" db:"asset_id"`
	InspectionID    *int       `json:"inspection_id,omitempty" db:"inspection_id"`
	ReportedBy      int        `json:"reported_by" db:"reported_by"`
	AssignedTo      *int       `json:"assigned_to,omitempty" db:"assigned_to"`
	AffectedUser    *int       `json:"affected_user,omitempty" db:"affected_user"`
	SLADeadline     *time.Time `json:"sla_deadline,omitempty" db:"sla_deadline"`
	SLAStatus       *string    `json:"sla_status,omitempty" db:"sla_status"`
	ResolutionNotes *string    `json:"resolution_notes,omitempty" db:"resolution_notes"`
	ResolutionType  *string    `json:"resolution_type,omitempty" db:"resolution_type"`
	ActualCost      *float64   `json:"actual_cost,omitempty" db:"actual_cost"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	ClosedAt        *time.Time `json:"closed_at,omitempty" db:"closed_at"`
}

func (t *Ticket) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   t.ID,
		ResourceType: "ticket",
	}
}
