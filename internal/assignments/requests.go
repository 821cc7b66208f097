package assignments

type CreateAssignmentRequest struct {
	HolderID int     `json:"holder_id" binding:"required"`
	Year     int     `json:"year" binding:"required"`
	Term     int     `json:"term" binding:"required"`
	Notes    *string `json:"notes,omitempty"`
}

type BorrowItemRequest struct {
	AssetID  int `json:"asset_id" binding:"required"`
	Quantity int `json:"quantity" binding:"required"`
}

type BorrowRequest struct {
	SignatureRef *string             `json:"signature_ref,omitempty"`
	Items        []BorrowItemRequest `json:"items" binding:"required"`
}

type ReturnItemRequest struct {
	BorrowItemID int      `json:"borrow_item_id" binding:"required"`
	Quantity     int      `json:"quantity" binding:"required"`
	Condition    string   `json:"condition" binding:"required"`
	DamageNotes  *string  `json:"damage_notes,omitempty"`
	DamageCharge *float64 `json:"damage_charge,omitempty"`
}

type ReturnRequest struct {
	SignatureRef string              `json:"signature_ref"`
	Items        []ReturnItemRequest `json:"items" binding:"required"`
}

type CloseRequest struct {
	SignatureRef string `json:"signature_ref"`
	Notes        string `json:"notes,omitempty"`
}
