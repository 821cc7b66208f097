package models

import "time"

const (
	InspectionTypeCheckout = "checkout"
	InspectionTypeCheckin  = "checkin"
	InspectionTypePeriodic = "periodic"
	InspectionTypeIncident = "incident"
)

const (
	RepairStatusPending      = "pending"
	RepairStatusInProgress   = "in_progress"
	RepairStatusCompleted    = "completed"
	RepairStatusCannotRepair = "cannot_repair"
	RepairStatusAcceptedAsIs = "accepted_as_is"
)

const (
	DamageStatusPendingReview = "pending_review"
	DamageStatusApproved      = "approved"
	DamageStatusInProgress    = "in_progress"
	DamageStatusCompleted     = "completed"
)

const (
	DamageSeverityMinor    = "minor"
	DamageSeverityModerate = "moderate"
	DamageSeveritySevere   = "severe"
)

// Inspection and Ticket are peers: each side holds a nullable reference to
// the other, neither owns the other.
type Inspection struct {
	ID                int        `json:"id" db:"id"`
	AssetID           int        `json:"asset_id" db:"asset_id"`
	AssignmentID      *int       `json:"assignment_id,omitempty" db:"assignment_id"`
	InspectorID       int        `json:"inspector_id" db:"inspector_id"`
	Type              string     `json:"type" db:"type"`
	Exterior          string     `json:"exterior_condition,omitempty" db:"exterior_condition"`
	Screen            string     `json:"screen_condition,omitempty" db:"screen_condition"`
	ButtonsPorts      string     `json:"buttons_ports_condition,omitempty" db:"buttons_ports_condition"`
	Keyboard          string     `json:"keyboard_condition,omitempty" db:"keyboard_condition"`
	Touchpad          string     `json:"touchpad_condition,omitempty" db:"touchpad_condition"`
	Battery           string     `json:"battery_condition,omitempty" db:"battery_condition"`
	DamageDescription string     `json:"damage_description,omitempty" db:"damage_description"`
	PhotoRefs         *string    `json:"photo_refs,omitempty" db:"photo_refs"`
	OverallCondition  string     `json:"overall_condition" db:"overall_condition"`
	DamageFound       bool       `json:"damage_found" db:"damage_found"`
	DamageSeverity    *string    `json:"damage_severity,omitempty" db:"damage_severity"`
	DamageStatus      *string    `json:"damage_status,omitempty" db:"damage_status"`
	RepairStatus      *string    `json:"repair_status,omitempty" db:"repair_status"`
	CanContinueUse    *bool      `json:"can_continue_use,omitempty" db:"can_continue_use"`
	EstimatedCost     *float64   `json:"estimated_cost,omitempty" db:"estimated_cost"`
	RepairCost        *float64   `json:"repair_cost,omitempty" db:"repair_cost"`
	TechnicianID      *int       `json:"technician_id,omitempty" db:"technician_id"`
	RepairNotes       *string    `json:"repair_notes,omitempty" db:"repair_notes"`
	RepairStartedAt   *time.Time `json:"repair_started_at,omitempty" db:"repair_started_at"`
	RepairCompletedAt *time.Time `json:"repair_completed_at,omitempty" db:"repair_completed_at"`
	TicketID          *int       `json:"ticket_id,omitempty" db:"ticket_id"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

func (i *Inspection) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   i.ID,
		ResourceType: "inspection",
	}
}
