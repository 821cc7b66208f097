package tickets

type CreateTicketRequest struct {
	Type         string `json:"type" binding:"required"`
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	Priority     string `json:"priority,omitempty"`
	AssetID      *int   `json:"asset_id,omitempty"`
	AffectedUser *int   `json:"affected_user,omitempty"`
}

type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type AssignRequest struct {
	AssigneeID int `json:"assignee_id" binding:"required"`
}

type ResolveRequest struct {
	Notes          string   `json:"notes" binding:"required"`
	ResolutionType string   `json:"resolution_type" binding:"required"`
	ActualCost     *float64 `json:"actual_cost,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty"`
}
