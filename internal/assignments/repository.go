package assignments

import (
	"fmt"
	"time"

	"assetdesk/internal/repository"
	"assetdesk/pkg/models"
	"assetdesk/pkg/numbering"

	"github.com/doug-martin/goqu/v9"
)

type AssignmentRepository interface {
	HasActiveAssignment(holderID int) (bool, error)
	MaxAssignmentSequence(tx *goqu.TxDatabase, year int) (int, error)
	InsertAssignment(tx *goqu.TxDatabase, assignment models.Assignment) (int, error)
	GetAssignment(assignmentID int) (*models.Assignment, error)
	ListAssignments(status string, limit, offset int) ([]models.Assignment, error)
	InsertBorrowTransaction(tx *goqu.TxDatabase, assignmentID int, borrowDate time.Time, signatureRef *string) (int, error)
	InsertBorrowItems(tx *goqu.TxDatabase, transactionID int, items []models.BorrowItem) error
	GetOpenBorrowItem(tx *goqu.TxDatabase, assignmentID, borrowItemID int) (*models.BorrowItem, error)
	SumReturnedQuantity(tx *goqu.TxDatabase, borrowItemID int) (int, error)
	InsertReturnTransaction(tx *goqu.TxDatabase, assignmentID int, returnDate time.Time, signatureRef string) (int, error)
	InsertReturnItems(tx *goqu.TxDatabase, transactionID int, items []models.ReturnItem) error
	MarkBorrowItemReturned(tx *goqu.TxDatabase, borrowItemID int) error
	CountOutstandingItems(assignmentID int) (int, error)
	CloseAssignment(tx *goqu.TxDatabase, assignmentID, closedBy int, notes string, closedAt time.Time) error
	FindActiveAssignmentByAsset(assetID int) (*models.Assignment, error)
}

type assignmentRepository struct {
	repo *repository.Repository
}

func NewRepository(r *repository.Repository) *assignmentRepository {
	return &assignmentRepository{repo: r}
}

func (r *assignmentRepository) HasActiveAssignment(holderID int) (bool, error) {
	count, err := r.repo.GoquDBWrapper.
		From("assignments").
		Where(goqu.Ex{
			"holder_id": holderID,
			"status":    models.AssignmentStatusActive,
		}).
		Count()
	if err != nil {
		return false, fmt.Errorf("failed to check active assignment for holder %d: %w", holderID, err)
	}

	return count > 0, nil
}

func (r *assignmentRepository) MaxAssignmentSequence(tx *goqu.TxDatabase, year int) (int, error) {
	var number string

	found, err := tx.From("assignments").
		Select("number").
		Where(goqu.C("number").Like(fmt.Sprintf("%s-%d-%%", numbering.AssignmentPrefix, year))).
		Order(goqu.C("number").Desc()).
		Limit(1).
		ScanVal(&number)
	if err != nil {
		return 0, fmt.Errorf("failed to find max assignment number: %w", err)
	}
	if !found {
		return 0, nil
	}

	return numbering.Sequence(number), nil
}

func (r *assignmentRepository) InsertAssignment(tx *goqu.TxDatabase, assignment models.Assignment) (int, error) {
	query := tx.Insert("assignments").
		Rows(goqu.Record{
			"number":        assignment.Number,
			"holder_id":     assignment.HolderID,
			"academic_year": assignment.Year,
			"academic_term": assignment.Term,
			"status":        assignment.Status,
			"notes":         assignment.Notes,
		}).
		Returning("id")

	var assignmentID int
	if _, err := query.Executor().ScanVal(&assignmentID); err != nil {
		return 0, fmt.Errorf("failed to insert assignment record: %w", err)
	}

	return assignmentID, nil
}

func (r *assignmentRepository) GetAssignment(assignmentID int) (*models.Assignment, error) {
	var assignment models.Assignment

	found, err := r.repo.GoquDBWrapper.
		Select(
			goqu.I("a.id").As("id"),
			goqu.I("a.number").As("number"),
			goqu.I("a.holder_id").As("holder_id"),
			goqu.I("u.fullname").As("holder_name"),
			goqu.I("a.academic_year").As("academic_year"),
			goqu.I("a.academic_term").As("academic_term"),
			goqu.I("a.status").As("status"),
			goqu.I("a.notes").As("notes"),
			goqu.I("a.created_at").As("created_at"),
			goqu.I("a.closed_at").As("closed_at"),
			goqu.I("a.closed_by").As("closed_by"),
		).
		From(goqu.T("assignments").As("a")).
		LeftJoin(
			goqu.T("users").As("u"),
			goqu.On(goqu.Ex{"a.holder_id": goqu.I("u.id")}),
		).
		Where(goqu.Ex{"a.id": assignmentID}).
		ScanStruct(&assignment)
	if err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}
	if !found {
		return nil, nil
	}

	return &assignment, nil
}

func (r *assignmentRepository) ListAssignments(status string, limit, offset int) ([]models.Assignment, error) {
	query := r.repo.GoquDBWrapper.
		Select(
			goqu.I("a.id").As("id"),
			goqu.I("a.number").As("number"),
			goqu.I("a.holder_id").As("holder_id"),
			goqu.I("u.fullname").As("holder_name"),
			goqu.I("a.academic_year").As("academic_year"),
			goqu.I("a.academic_term").As("academic_term"),
			goqu.I("a.status").As("status"),
			goqu.I("a.notes").As("notes"),
			goqu.I("a.created_at").As("created_at"),
			goqu.I("a.closed_at").As("closed_at"),
			goqu.I("a.closed_by").As("closed_by"),
		).
		From(goqu.T("assignments").As("a")).
		LeftJoin(
			goqu.T("users").As("u"),
			goqu.On(goqu.Ex{"a.holder_id": goqu.I("u.id")}),
		).
		Order(goqu.I("a.created_at").Desc()).
		Limit(uint(limit)).
		Offset(uint(offset))

	if status != "" {
		query = query.Where(goqu.Ex{"a.status": status})
	}

	var assignments []models.Assignment
	if err := query.ScanStructs(&assignments); err != nil {
		return nil, fmt.Errorf("error executing SQL statement: %w", err)
	}

	return assignments, nil
}

func (r *assignmentRepository) InsertBorrowTransaction(tx *goqu.TxDatabase, assignmentID int, borrowDate time.Time, signatureRef *string) (int, error) {
	query := tx.Insert("borrow_transactions").
		Rows(goqu.Record{
			"assignment_id": assignmentID,
			"borrow_date":   borrowDate,
			"signature_ref": signatureRef,
		}).
		Returning("id")

	var transactionID int
	if _, err := query.Executor().ScanVal(&transactionID); err != nil {
		return 0, fmt.Errorf("failed to insert borrow transaction: %w", err)
	}

	return transactionID, nil
}

func (r *assignmentRepository) InsertBorrowItems(tx *goqu.TxDatabase, transactionID int, items []models.BorrowItem) error {
	records := make([]goqu.Record, 0, len(items))
	for _, item := range items {
		records = append(records, goqu.Record{
			"transaction_id": transactionID,
			"asset_id":       item.AssetID,
			"quantity":       item.Quantity,
			"status":         item.Status,
		})
	}

	if _, err := tx.Insert("borrow_items").Rows(records).Executor().Exec(); err != nil {
		return fmt.Errorf("failed to insert borrow items: %w", err)
	}

	return nil
}

// GetOpenBorrowItem finds a not-yet-returned borrow item belonging to the
// given assignment.
func (r *assignmentRepository) GetOpenBorrowItem(tx *goqu.TxDatabase, assignmentID, borrowItemID int) (*models.BorrowItem, error) {
	var item models.BorrowItem

	found, err := tx.
		Select(
			goqu.I("bi.id").As("id"),
			goqu.I("bi.transaction_id").As("transaction_id"),
			goqu.I("bi.asset_id").As("asset_id"),
			goqu.I("bi.quantity").As("quantity"),
			goqu.I("bi.status").As("status"),
		).
		From(goqu.T("borrow_items").As("bi")).
		Join(
			goqu.T("borrow_transactions").As("bt"),
			goqu.On(goqu.Ex{"bi.transaction_id": goqu.I("bt.id")}),
		).
		Where(goqu.Ex{
			"bi.id":            borrowItemID,
			"bt.assignment_id": assignmentID,
		}).
		Where(goqu.I("bi.status").Neq(models.BorrowItemStatusReturned)).
		ScanStruct(&item)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch borrow item %d: %w", borrowItemID, err)
	}
	if !found {
		return nil, nil
	}

	return &item, nil
}

func (r *assignmentRepository) SumReturnedQuantity(tx *goqu.TxDatabase, borrowItemID int) (int, error) {
	var total int

	_, err := tx.From("return_items").
		Select(goqu.COALESCE(goqu.SUM("quantity"), 0)).
		Where(goqu.Ex{"borrow_item_id": borrowItemID}).
		ScanVal(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum returned quantity for borrow item %d: %w", borrowItemID, err)
	}

	return total, nil
}

func (r *assignmentRepository) InsertReturnTransaction(tx *goqu.TxDatabase, assignmentID int, returnDate time.Time, signatureRef string) (int, error) {
	query := tx.Insert("return_transactions").
		Rows(goqu.Record{
			"assignment_id": assignmentID,
			"return_date":   returnDate,
			"signature_ref": signatureRef,
		}).
		Returning("id")

	var transactionID int
	if _, err := query.Executor().ScanVal(&transactionID); err != nil {
		return 0, fmt.Errorf("failed to insert return transaction: %w", err)
	}

	return transactionID, nil
}

func (r *assignmentRepository) InsertReturnItems(tx *goqu.TxDatabase, transactionID int, items []models.ReturnItem) error {
	records := make([]goqu.Record, 0, len(items))
	for _, item := range items {
		records = append(records, goqu.Record{
			"transaction_id": transactionID,
			"borrow_item_id": item.BorrowItemID,
			"quantity":       item.Quantity,
			"condition":      item.Condition,
			"damage_notes":   item.DamageNotes,
			"damage_charge":  item.DamageCharge,
		})
	}

	if _, err := tx.Insert("return_items").Rows(records).Executor().Exec(); err != nil {
		return fmt.Errorf("failed to insert return items: %w", err)
	}

	return nil
}

func (r *assignmentRepository) MarkBorrowItemReturned(tx *goqu.TxDatabase, borrowItemID int) error {
	if _, err := tx.Update("borrow_items").
		Set(goqu.Record{"status": models.BorrowItemStatusReturned}).
		Where(goqu.Ex{"id": borrowItemID}).
		Executor().
		Exec(); err != nil {
		return fmt.Errorf("failed to mark borrow item %d returned: %w", borrowItemID, err)
	}

	return nil
}

func (r *assignmentRepository) CountOutstandingItems(assignmentID int) (int, error) {
	count, err := r.repo.GoquDBWrapper.
		From(goqu.T("borrow_items").As("bi")).
		Join(
			goqu.T("borrow_transactions").As("bt"),
			goqu.On(goqu.Ex{"bi.transaction_id": goqu.I("bt.id")}),
		).
		Where(goqu.Ex{"bt.assignment_id": assignmentID}).
		Where(goqu.I("bi.status").In(models.BorrowItemStatusBorrowed, models.BorrowItemStatusReserved)).
		Count()
	if err != nil {
		return 0, fmt.Errorf("failed to count outstanding items for assignment %d: %w", assignmentID, err)
	}

	return int(count), nil
}

func (r *assignmentRepository) CloseAssignment(tx *goqu.TxDatabase, assignmentID, closedBy int, notes string, closedAt time.Time) error {
	record := goqu.Record{
		"status":    models.AssignmentStatusClosed,
		"closed_at": closedAt,
		"closed_by": closedBy,
	}
	if notes != "" {
		record["notes"] = notes
	}

	if _, err := tx.Update("assignments").
		Set(record).
		Where(goqu.Ex{"id": assignmentID}).
		Executor().
		Exec(); err != nil {
		return fmt.Errorf("failed to close assignment %d: %w", assignmentID, err)
	}

	return nil
}

// FindActiveAssignmentByAsset resolves the active assignment currently
// holding the asset. Multiple matching borrow transactions are disambiguated
// by descending borrow date, first row wins.
func (r *assignmentRepository) FindActiveAssignmentByAsset(assetID int) (*models.Assignment, error) {
	var assignment models.Assignment

	found, err := r.repo.GoquDBWrapper.
		Select(
			goqu.I("a.id").As("id"),
			goqu.I("a.number").As("number"),
			goqu.I("a.holder_id").As("holder_id"),
			goqu.I("a.academic_year").As("academic_year"),
			goqu.I("a.academic_term").As("academic_term"),
			goqu.I("a.status").As("status"),
			goqu.I("a.created_at").As("created_at"),
		).
		From(goqu.T("assignments").As("a")).
		Join(
			goqu.T("borrow_transactions").As("bt"),
			goqu.On(goqu.Ex{"bt.assignment_id": goqu.I("a.id")}),
		).
		Join(
			goqu.T("borrow_items").As("bi"),
			goqu.On(goqu.Ex{"bi.transaction_id": goqu.I("bt.id")}),
		).
		Where(goqu.Ex{
			"a.status":    models.AssignmentStatusActive,
			"bi.asset_id": assetID,
		}).
		Where(goqu.I("bi.status").In(models.BorrowItemStatusBorrowed, models.BorrowItemStatusReserved)).
		Order(goqu.I("bt.borrow_date").Desc()).
		Limit(1).
		ScanStruct(&assignment)
	if err != nil {
		return nil, fmt.Errorf("failed to find active assignment for asset %d: %w", assetID, err)
	}
	if !found {
		return nil, nil
	}

	return &assignment, nil
}
