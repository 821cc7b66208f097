package models

import "time"

const (
	BorrowItemStatusReserved = "reserved"
	BorrowItemStatusBorrowed = "borrowed"
	BorrowItemStatusReturned = "returned"
)

const (
	ReturnConditionGood    = "good"
	ReturnConditionDamaged = "damaged"
	ReturnConditionLost    = "lost"
)

type BorrowTransaction struct {
	ID           int          `json:"id" db:"id"`
	AssignmentID int          `json:"assignment_id" db:"assignment_id"`
	BorrowDate   time.Time    `json:"borrow_date" db:"borrow_date"`
	SignatureRef *string      `json:"signature_ref,omitempty" db:"signature_ref"`
	Items        []BorrowItem `json:"items" db:"-"`
}

type BorrowItem struct {
	ID            int    `json:"id" db:"id"`
	TransactionID int    `json:"transaction_id" db:"transaction_id"`
	AssetID       int    `json:"asset_id" db:"asset_id"`
	Quantity      int    `json:"quantity" db:"quantity"`
	Status        string `json:"status" db:"status"`
}

type ReturnTransaction struct {
	ID           int          `json:"id" db:"id"`
	AssignmentID int          `json:"assignment_id" db:"assignment_id"`
	ReturnDate   time.Time    `json:"return_date" db:"return_date"`
	SignatureRef string       `json:"signature_ref" db:"signature_ref"`
	Items        []ReturnItem `json:"items" db:"-"`
}

type ReturnItem struct {
	ID            int      `json:"id" db:"id"`
	TransactionID int      `json:"transaction_id" db:"transaction_id"`
	BorrowItemID  int      `json:"borrow_item_id" db:"borrow_item_id"`
	Quantity      int      `json:"quantity" db:"quantity"`
	Condition     string   `json:"condition" db:"condition"`
	DamageNotes   *string  `json:"damage_notes,omitempty" db:"damage_notes"`
	DamageCharge  *float64 `json:"damage_charge,omitempty" db:"damage_charge"`
}

func (t *BorrowTransaction) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   t.ID,
		ResourceType: "borrow_transaction",
	}
}

func (t *ReturnTransaction) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   t.ID,
		ResourceType: "return_transaction",
	}
}
