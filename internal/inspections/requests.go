package inspections

type CreateInspectionRequest struct {
	AssetID           int      `json:"asset_id" binding:"required"`
	AssignmentID      *int     `json:"assignment_id,omitempty"`
	Type              string   `json:"type" binding:"required"`
	Exterior          string   `json:"exterior_condition,omitempty"`
	Screen            string   `json:"screen_condition,omitempty"`
	ButtonsPorts      string   `json:"buttons_ports_condition,omitempty"`
	Keyboard          string   `json:"keyboard_condition,omitempty"`
	Touchpad          string   `json:"touchpad_condition,omitempty"`
	Battery           string   `json:"battery_condition,omitempty"`
	DamageDescription string   `json:"damage_description,omitempty"`
	PhotoRefs         *string  `json:"photo_refs,omitempty"`
	CanContinueUse    *bool    `json:"can_continue_use,omitempty"`
	EstimatedCost     *float64 `json:"estimated_cost,omitempty"`
}

// UpdateInspectionRequest patches checklist fields; nil means "leave as is".
// The assignment link and the inspector are immutable after creation.
type UpdateInspectionRequest struct {
	Exterior          *string  `json:"exterior_condition,omitempty"`
	Screen            *string  `json:"screen_condition,omitempty"`
	ButtonsPorts      *string  `json:"buttons_ports_condition,omitempty"`
	Keyboard          *string  `json:"keyboard_condition,omitempty"`
	Touchpad          *string  `json:"touchpad_condition,omitempty"`
	Battery           *string  `json:"battery_condition,omitempty"`
	DamageDescription *string  `json:"damage_description,omitempty"`
	PhotoRefs         *string  `json:"photo_refs,omitempty"`
	EstimatedCost     *float64 `json:"estimated_cost,omitempty"`
}

type AssessDamageRequest struct {
	EstimatedCost  *float64 `json:"estimated_cost,omitempty"`
	CanContinueUse *bool    `json:"can_continue_use,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
}

type StartRepairRequest struct {
	TechnicianID int `json:"technician_id" binding:"required"`
}

type RepairProgressRequest struct {
	Notes string   `json:"notes" binding:"required"`
	Cost  *float64 `json:"cost,omitempty"`
}

type CompleteRepairRequest struct {
	RepairCost *float64 `json:"repair_cost,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
}

type UnrepairableRequest struct {
	Notes          string `json:"notes" binding:"required"`
	CanContinueUse bool   `json:"can_continue_use"`
}

type AcceptAsIsRequest struct {
	Notes string `json:"notes,omitempty"`
}
