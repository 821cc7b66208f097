package assignments

import (
	"fmt"
	"time"

	"assetdesk/internal/assetstore"
	"assetdesk/internal/repository"
	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/auditlog"
	"assetdesk/pkg/models"
	"assetdesk/pkg/numbering"
	"assetdesk/pkg/security"

	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"
)

type Service struct {
	tx     repository.TxRunner
	repo   AssignmentRepository
	assets assetstore.Store
	perms  security.PermissionChecker
	audit  auditlog.Recorder
	log    *zap.Logger
	now    func() time.Time
}

func NewService(tx repository.TxRunner, repo AssignmentRepository, assets assetstore.Store, perms security.PermissionChecker, audit auditlog.Recorder, log *zap.Logger) *Service {
	return &Service{
		tx:     tx,
		repo:   repo,
		assets: assets,
		perms:  perms,
		audit:  audit,
		log:    log,
		now:    time.Now,
	}
}

func (s *Service) authorize(actorID int, action string) error {
	allowed, err := s.perms.HasPermission(actorID, security.ModuleAssignments, action)
	if err != nil {
		return fmt.Errorf("failed to check permission: %w", err)
	}
	if !allowed {
		return apperrors.ErrForbidden
	}
	return nil
}

// CreateAssignment opens a new active assignment for a holder. One holder
// holds at most one active assignment at a time.
func (s *Service) CreateAssignment(actorID int, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.authorize(actorID, security.ActionCreate); err != nil {
		return nil, err
	}

	if req.HolderID <= 0 {
		return nil, apperrors.NewValidation("holder_id", "must be positive")
	}
	if req.Year <= 0 {
		return nil, apperrors.NewValidation("year", "must be positive")
	}
	if req.Term <= 0 {
		return nil, apperrors.NewValidation("term", "must be positive")
	}

	active, err := s.repo.HasActiveAssignment(req.HolderID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, apperrors.NewConflict("holder %d already has an active assignment", req.HolderID)
	}

	assignment := models.Assignment{
		HolderID: req.HolderID,
		Year:     req.Year,
		Term:     req.Term,
		Status:   models.AssignmentStatusActive,
		Notes:    req.Notes,
	}

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		seq, err := s.repo.MaxAssignmentSequence(tx, req.Year)
		if err != nil {
			return err
		}
		assignment.Number = numbering.NewAssignmentNumber(req.Year, seq+1).String()

		id, err := s.repo.InsertAssignment(tx, assignment)
		if apperrors.IsUniqueViolation(err) {
			// Another writer took the sequence; one retry with the next slot.
			assignment.Number = numbering.NewAssignmentNumber(req.Year, seq+2).String()
			id, err = s.repo.InsertAssignment(tx, assignment)
		}
		if err != nil {
			return err
		}

		assignment.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "create", map[string]any{
		"number":    assignment.Number,
		"holder_id": assignment.HolderID,
	}, &assignment)

	return &assignment, nil
}

// CreateBorrowTransaction issues assets to an assignment. Items start as
// reserved and become borrowed once a hand-off signature is attached.
func (s *Service) CreateBorrowTransaction(actorID, assignmentID int, req BorrowRequest) (*models.BorrowTransaction, error) {
	if err := s.authorize(actorID, security.ActionCreate); err != nil {
		return nil, err
	}

	if len(req.Items) == 0 {
		return nil, apperrors.NewValidation("items", "at least one item is required")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperrors.NewValidation("quantity", "must be positive for asset %d", item.AssetID)
		}
	}

	assignment, err := s.repo.GetAssignment(assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, fmt.Errorf("assignment %d: %w", assignmentID, apperrors.ErrNotFound)
	}
	if assignment.Status != models.AssignmentStatusActive {
		return nil, apperrors.NewConflict("assignment %s is not active", assignment.Number)
	}

	itemStatus := models.BorrowItemStatusReserved
	if req.SignatureRef != nil && *req.SignatureRef != "" {
		itemStatus = models.BorrowItemStatusBorrowed
	}

	transaction := models.BorrowTransaction{
		AssignmentID: assignmentID,
		BorrowDate:   s.now(),
		SignatureRef: req.SignatureRef,
	}

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		transactionID, err := s.repo.InsertBorrowTransaction(tx, assignmentID, transaction.BorrowDate, req.SignatureRef)
		if err != nil {
			return err
		}
		transaction.ID = transactionID

		items := make([]models.BorrowItem, 0, len(req.Items))
		for _, item := range req.Items {
			if err := s.assets.ReserveStock(tx, item.AssetID, item.Quantity); err != nil {
				return err
			}
			items = append(items, models.BorrowItem{
				TransactionID: transactionID,
				AssetID:       item.AssetID,
				Quantity:      item.Quantity,
				Status:        itemStatus,
			})
		}

		if err := s.repo.InsertBorrowItems(tx, transactionID, items); err != nil {
			return err
		}
		transaction.Items = items

		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "create", map[string]any{
		"assignment_id": assignmentID,
		"item_count":    len(transaction.Items),
	}, &transaction)

	return &transaction, nil
}

// CreateReturnTransaction reconciles returned quantities against outstanding
// borrow items and flips fully-returned items to returned, all in one
// transaction. Damage and loss are recorded for billing; inspections and
// tickets are filed separately.
func (s *Service) CreateReturnTransaction(actorID, assignmentID int, req ReturnRequest) (*models.ReturnTransaction, error) {
	if err := s.authorize(actorID, security.ActionCreate); err != nil {
		return nil, err
	}

	if req.SignatureRef == "" {
		return nil, apperrors.ErrSignatureRequired
	}
	if len(req.Items) == 0 {
		return nil, apperrors.NewValidation("items", "at least one item is required")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperrors.NewValidation("quantity", "must be positive for borrow item %d", item.BorrowItemID)
		}
		switch item.Condition {
		case models.ReturnConditionGood, models.ReturnConditionDamaged, models.ReturnConditionLost:
		default:
			return nil, apperrors.NewValidation("condition", "unknown condition %q", item.Condition)
		}
	}

	assignment, err := s.repo.GetAssignment(assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, fmt.Errorf("assignment %d: %w", assignmentID, apperrors.ErrNotFound)
	}
	if assignment.Status != models.AssignmentStatusActive {
		return nil, apperrors.NewConflict("assignment %s is not active", assignment.Number)
	}

	transaction := models.ReturnTransaction{
		AssignmentID: assignmentID,
		ReturnDate:   s.now(),
		SignatureRef: req.SignatureRef,
	}

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		transactionID, err := s.repo.InsertReturnTransaction(tx, assignmentID, transaction.ReturnDate, req.SignatureRef)
		if err != nil {
			return err
		}
		transaction.ID = transactionID

		items := make([]models.ReturnItem, 0, len(req.Items))
		// Return items for this request are only inserted after the loop, so
		// the running total is what keeps two lines against the same borrow
		// item from each seeing the full outstanding quantity.
		returnedInRequest := make(map[int]int)
		for _, item := range req.Items {
			borrowItem, err := s.repo.GetOpenBorrowItem(tx, assignmentID, item.BorrowItemID)
			if err != nil {
				return err
			}
			if borrowItem == nil {
				return fmt.Errorf("open borrow item %d under assignment %d: %w", item.BorrowItemID, assignmentID, apperrors.ErrNotFound)
			}

			alreadyReturned, err := s.repo.SumReturnedQuantity(tx, borrowItem.ID)
			if err != nil {
				return err
			}
			outstanding := borrowItem.Quantity - alreadyReturned - returnedInRequest[borrowItem.ID]
			if item.Quantity > outstanding {
				return apperrors.NewConflict("quantity mismatch: borrow item %d has %d outstanding, %d returned", borrowItem.ID, outstanding, item.Quantity)
			}
			returnedInRequest[borrowItem.ID] += item.Quantity

			if item.Quantity == outstanding {
				if err := s.repo.MarkBorrowItemReturned(tx, borrowItem.ID); err != nil {
					return err
				}
			}
			// A lost unit never re-enters free stock; the counter stays down
			// until an administrative stock correction.
			if item.Condition != models.ReturnConditionLost {
				if err := s.assets.RestoreStock(tx, borrowItem.AssetID, item.Quantity); err != nil {
					return err
				}
			}

			items = append(items, models.ReturnItem{
				TransactionID: transactionID,
				BorrowItemID:  borrowItem.ID,
				Quantity:      item.Quantity,
				Condition:     item.Condition,
				DamageNotes:   item.DamageNotes,
				DamageCharge:  item.DamageCharge,
			})
		}

		if err := s.repo.InsertReturnItems(tx, transactionID, items); err != nil {
			return err
		}
		transaction.Items = items

		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "create", map[string]any{
		"assignment_id": assignmentID,
		"item_count":    len(transaction.Items),
	}, &transaction)

	return &transaction, nil
}

// CloseAssignment closes an assignment once every borrow item has been
// returned. Closed is terminal.
func (s *Service) CloseAssignment(actorID, assignmentID int, req CloseRequest) error {
	if err := s.authorize(actorID, security.ActionClose); err != nil {
		return err
	}

	if req.SignatureRef == "" {
		return apperrors.ErrSignatureRequired
	}

	assignment, err := s.repo.GetAssignment(assignmentID)
	if err != nil {
		return err
	}
	if assignment == nil {
		return fmt.Errorf("assignment %d: %w", assignmentID, apperrors.ErrNotFound)
	}
	if assignment.Status == models.AssignmentStatusClosed {
		return apperrors.NewInvalidTransition("assignment", models.AssignmentStatusClosed, models.AssignmentStatusClosed)
	}

	outstanding, err := s.repo.CountOutstandingItems(assignmentID)
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return apperrors.NewConflict("assignment %s still has %d outstanding items", assignment.Number, outstanding)
	}

	closedAt := s.now()
	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		return s.repo.CloseAssignment(tx, assignmentID, actorID, req.Notes, closedAt)
	})
	if err != nil {
		return err
	}

	go s.audit.Log(&actorID, "close", map[string]any{
		"number":    assignment.Number,
		"closed_at": closedAt,
	}, assignment)

	return nil
}

// FindActiveAssignmentForAsset resolves the assignment currently holding an
// asset, or nil. Inspection auto-linking is built on this lookup.
func (s *Service) FindActiveAssignmentForAsset(assetID int) (*models.Assignment, error) {
	return s.repo.FindActiveAssignmentByAsset(assetID)
}

func (s *Service) GetAssignment(assignmentID int) (*models.Assignment, error) {
	assignment, err := s.repo.GetAssignment(assignmentID)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, fmt.Errorf("assignment %d: %w", assignmentID, apperrors.ErrNotFound)
	}
	return assignment, nil
}

func (s *Service) ListAssignments(status string, limit, offset int) ([]models.Assignment, error) {
	return s.repo.ListAssignments(status, limit, offset)
}
