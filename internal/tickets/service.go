package tickets

import (
	"fmt"
	"time"

	"assetdesk/internal/assetstore"
	"assetdesk/internal/notifications"
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
	tx       repository.TxRunner
	repo     TicketRepository
	assets   assetstore.Store
	notifier notifications.Notifier
	perms    security.PermissionChecker
	audit    auditlog.Recorder
	log      *zap.Logger
	now      func() time.Time
}

func NewService(
	tx repository.TxRunner,
	repo TicketRepository,
	assets assetstore.Store,
	notifier notifications.Notifier,
	perms security.PermissionChecker,
	audit auditlog.Recorder,
	log *zap.Logger,
) *Service {
	return &Service{
		tx:       tx,
		repo:     repo,
		assets:   assets,
		notifier: notifier,
		perms:    perms,
		audit:    audit,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) authorize(actorID int, action string) error {
	allowed, err := s.perms.HasPermission(actorID, security.ModuleTickets, action)
	if err != nil {
		return fmt.Errorf("failed to check permission: %w", err)
	}
	if !allowed {
		return apperrors.ErrForbidden
	}
	return nil
}

// CreateTicket files a ticket reported by a person rather than derived from
// an inspection.
func (s *Service) CreateTicket(actorID int, req CreateTicketRequest) (*models.Ticket, error) {
	if err := s.authorize(actorID, security.ActionCreate); err != nil {
		return nil, err
	}

	if req.Type != models.TicketTypeIT && req.Type != models.TicketTypeFM {
		return nil, apperrors.NewValidation("type", "unknown ticket type %q", req.Type)
	}
	priority := req.Priority
	if priority == "" {
		priority = models.TicketPriorityMedium
	}
	switch priority {
	case models.TicketPriorityLow, models.TicketPriorityMedium, models.TicketPriorityHigh, models.TicketPriorityUrgent:
	default:
		return nil, apperrors.NewValidation("priority", "unknown priority %q", priority)
	}

	if req.AssetID != nil {
		if _, err := s.assets.GetAsset(*req.AssetID); err != nil {
			return nil, err
		}
	}

	createdAt := s.now()
	deadline := createdAt.Add(SLAWindow(priority))
	slaStatus := models.SLAStatusOnTrack
	ticket := models.Ticket{
		Type:         req.Type,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     priority,
		Status:       models.TicketStatusOpen,
		AssetID:      req.AssetID,
		ReportedBy:   actorID,
		AffectedUser: req.AffectedUser,
		SLADeadline:  &deadline,
		SLAStatus:    &slaStatus,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	if err := s.insertNumbered(&ticket); err != nil {
		return nil, err
	}

	if err := s.notifier.SendTicketCreated(ticket); err != nil {
		s.log.Warn("failed to send ticket created notification", zap.Int("ticket_id", ticket.ID), zap.Error(err))
	}

	go s.audit.Log(&actorID, "create", map[string]any{
		"number":   ticket.Number,
		"priority": ticket.Priority,
	}, &ticket)

	return &ticket, nil
}

// CreateFromInspection files the repair ticket for a damage-flagged
// inspection. One ticket per inspection: a second call returns the existing
// one instead of filing a duplicate.
func (s *Service) CreateFromInspection(actorID int, inspection models.Inspection) (*models.Ticket, error) {
	existing, err := s.repo.FindByInspection(inspection.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	asset, err := s.assets.GetAsset(inspection.AssetID)
	if err != nil {
		return nil, err
	}
	ticketType := models.TicketTypeIT
	if asset.Category == models.AssetCategoryFM {
		ticketType = models.TicketTypeFM
	}

	severity := ""
	if inspection.DamageSeverity != nil {
		severity = *inspection.DamageSeverity
	}
	priority := PriorityForDamage(inspection.OverallCondition, severity)

	description := inspection.DamageDescription
	if description == "" {
		description = fmt.Sprintf("Damage found during %s inspection, overall condition %s", inspection.Type, inspection.OverallCondition)
	}

	createdAt := s.now()
	deadline := createdAt.Add(SLAWindow(priority))
	slaStatus := models.SLAStatusOnTrack
	inspectionID := inspection.ID
	assetID := inspection.AssetID
	ticket := models.Ticket{
		Type:         ticketType,
		Title:        fmt.Sprintf("Repair %s (%s)", asset.Name, asset.Code),
		Description:  description,
		Priority:     priority,
		Status:       models.TicketStatusOpen,
		AssetID:      &assetID,
		InspectionID: &inspectionID,
		ReportedBy:   actorID,
		SLADeadline:  &deadline,
		SLAStatus:    &slaStatus,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	if err := s.insertNumbered(&ticket); err != nil {
		return nil, err
	}

	if err := s.notifier.SendTicketCreated(ticket); err != nil {
		s.log.Warn("failed to send ticket created notification", zap.Int("ticket_id", ticket.ID), zap.Error(err))
	}

	go s.audit.Log(&actorID, "create", map[string]any{
		"number":        ticket.Number,
		"inspection_id": inspection.ID,
		"priority":      ticket.Priority,
	}, &ticket)

	return &ticket, nil
}

// insertNumbered allocates the next {TYPE}-{year}-{seq} number and inserts
// in one transaction. A concurrent writer grabbing the same sequence trips
// the unique index; one retry with the next slot resolves it.
func (s *Service) insertNumbered(ticket *models.Ticket) error {
	year := ticket.CreatedAt.Year()

	return s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		seq, err := s.repo.MaxTicketSequence(tx, ticket.Type, year)
		if err != nil {
			return err
		}
		ticket.Number = numbering.NewTicketNumber(ticket.Type, year, seq+1).String()

		id, err := s.repo.InsertTicket(tx, *ticket)
		if apperrors.IsUniqueViolation(err) {
			ticket.Number = numbering.NewTicketNumber(ticket.Type, year, seq+2).String()
			id, err = s.repo.InsertTicket(tx, *ticket)
		}
		if err != nil {
			return err
		}
		ticket.ID = id

		if ticket.InspectionID != nil {
			return s.repo.SetInspectionTicket(tx, *ticket.InspectionID, id)
		}
		return nil
	})
}

// ChangeStatus moves a ticket along the lifecycle graph and mirrors the move
// onto the linked inspection's damage workflow.
func (s *Service) ChangeStatus(actorID, ticketID int, req ChangeStatusRequest) (*models.Ticket, error) {
	if err := s.authorize(actorID, security.ActionUpdate); err != nil {
		return nil, err
	}

	ticket, err := s.getTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(ticket.Status, req.Status) {
		return nil, apperrors.NewInvalidTransition("ticket", ticket.Status, req.Status)
	}
	if req.Status == models.TicketStatusResolved {
		return nil, apperrors.NewValidation("status", "use the resolve operation to resolve a ticket")
	}

	fields := goqu.Record{"status": req.Status}
	switch req.Status {
	case models.TicketStatusClosed:
		closedAt := s.now()
		ticket.ClosedAt = &closedAt
		fields["closed_at"] = closedAt
	case models.TicketStatusOpen:
		// Back to triage: drop the assignee.
		ticket.AssignedTo = nil
		fields["assigned_to"] = nil
	}
	from := ticket.Status
	ticket.Status = req.Status

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		if err := s.repo.UpdateTicket(tx, ticketID, fields); err != nil {
			return err
		}
		return s.syncInspection(tx, ticket)
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "change_status", map[string]any{
		"from": from,
		"to":   ticket.Status,
	}, ticket)

	return ticket, nil
}

// AssignTicket hands the ticket to a technician.
func (s *Service) AssignTicket(actorID, ticketID int, req AssignRequest) (*models.Ticket, error) {
	if err := s.authorize(actorID, security.ActionAssign); err != nil {
		return nil, err
	}

	ticket, err := s.getTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != models.TicketStatusOpen && ticket.Status != models.TicketStatusAssigned {
		return nil, apperrors.NewInvalidTransition("ticket", ticket.Status, models.TicketStatusAssigned)
	}

	ticket.Status = models.TicketStatusAssigned
	ticket.AssignedTo = &req.AssigneeID

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		if err := s.repo.UpdateTicket(tx, ticketID, goqu.Record{
			"status":      models.TicketStatusAssigned,
			"assigned_to": req.AssigneeID,
		}); err != nil {
			return err
		}
		return s.syncInspection(tx, ticket)
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.SendTicketAssigned(*ticket, req.AssigneeID); err != nil {
		s.log.Warn("failed to send ticket assigned notification", zap.Int("ticket_id", ticketID), zap.Error(err))
	}

	go s.audit.Log(&actorID, "assign", map[string]any{"assignee_id": req.AssigneeID}, ticket)

	return ticket, nil
}

// ResolveTicket ends the work on a ticket. Resolution notes and a resolution
// type are mandatory; a ticket can only be resolved from in_progress.
func (s *Service) ResolveTicket(actorID, ticketID int, req ResolveRequest) (*models.Ticket, error) {
	if err := s.authorize(actorID, security.ActionResolve); err != nil {
		return nil, err
	}

	if req.Notes == "" {
		return nil, apperrors.NewValidation("notes", "resolution notes are required")
	}
	switch req.ResolutionType {
	case models.ResolutionTypeRepaired, models.ResolutionTypeReplaced, models.ResolutionTypeWorkaround,
		models.ResolutionTypeNotRepairable, models.ResolutionTypeNoFault:
	default:
		return nil, apperrors.NewValidation("resolution_type", "unknown resolution type %q", req.ResolutionType)
	}

	ticket, err := s.getTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != models.TicketStatusInProgress {
		return nil, apperrors.NewInvalidTransition("ticket", ticket.Status, models.TicketStatusResolved)
	}

	resolvedAt := s.now()
	ticket.Status = models.TicketStatusResolved
	ticket.ResolutionNotes = &req.Notes
	ticket.ResolutionType = &req.ResolutionType
	ticket.ActualCost = req.ActualCost
	ticket.ResolvedAt = &resolvedAt

	fields := goqu.Record{
		"status":           models.TicketStatusResolved,
		"resolution_notes": req.Notes,
		"resolution_type":  req.ResolutionType,
		"resolved_at":      resolvedAt,
	}
	if req.ActualCost != nil {
		fields["actual_cost"] = *req.ActualCost
	}

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		if err := s.repo.UpdateTicket(tx, ticketID, fields); err != nil {
			return err
		}
		return s.syncInspection(tx, ticket)
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "resolve", map[string]any{
		"resolution_type": req.ResolutionType,
		"actual_cost":     req.ActualCost,
	}, ticket)

	return ticket, nil
}

// CancelTicket voids a ticket that never made it into repair.
func (s *Service) CancelTicket(actorID, ticketID int, req CancelRequest) (*models.Ticket, error) {
	if err := s.authorize(actorID, security.ActionUpdate); err != nil {
		return nil, err
	}

	ticket, err := s.getTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(ticket.Status, models.TicketStatusCancelled) {
		return nil, apperrors.NewInvalidTransition("ticket", ticket.Status, models.TicketStatusCancelled)
	}

	ticket.Status = models.TicketStatusCancelled
	fields := goqu.Record{"status": models.TicketStatusCancelled}
	if req.Reason != "" {
		ticket.ResolutionNotes = &req.Reason
		fields["resolution_notes"] = req.Reason
	}

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		return s.repo.UpdateTicket(tx, ticketID, fields)
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "cancel", map[string]any{"reason": req.Reason}, ticket)

	return ticket, nil
}

func (s *Service) GetTicket(ticketID int) (*models.Ticket, error) {
	ticket, err := s.getTicket(ticketID)
	if err != nil {
		return nil, err
	}
	s.refreshSLA(ticket)
	return ticket, nil
}

func (s *Service) ListTickets(filter ListFilter) ([]models.Ticket, error) {
	tickets, err := s.repo.ListTickets(filter)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		s.refreshSLA(&tickets[i])
	}
	return tickets, nil
}

func (s *Service) getTicket(ticketID int) (*models.Ticket, error) {
	ticket, err := s.repo.GetTicket(ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, fmt.Errorf("ticket %d: %w", ticketID, apperrors.ErrNotFound)
	}
	return ticket, nil
}

// refreshSLA flips a ticket to breached once the deadline passed while work
// was still open. Derived on read, never persisted; closing a ticket after
// the deadline does not launder the breach.
func (s *Service) refreshSLA(ticket *models.Ticket) {
	if ticket.SLADeadline == nil || ticket.SLAStatus == nil {
		return
	}
	if *ticket.SLAStatus == models.SLAStatusBreached {
		return
	}

	end := s.now()
	if ticket.ResolvedAt != nil {
		end = *ticket.ResolvedAt
	}
	if end.After(*ticket.SLADeadline) {
		breached := models.SLAStatusBreached
		ticket.SLAStatus = &breached
	}
}

// syncInspection mirrors the ticket's progress onto the linked inspection's
// damage and repair state.
func (s *Service) syncInspection(tx *goqu.TxDatabase, ticket *models.Ticket) error {
	if ticket.InspectionID == nil {
		return nil
	}

	var fields goqu.Record
	switch ticket.Status {
	case models.TicketStatusAssigned:
		fields = goqu.Record{"damage_status": models.DamageStatusApproved}
	case models.TicketStatusInProgress:
		fields = goqu.Record{
			"damage_status": models.DamageStatusInProgress,
			"repair_status": models.RepairStatusInProgress,
		}
	case models.TicketStatusResolved:
		// Resolved can still reopen, so the repair stays in progress until
		// the ticket is closed.
		fields = goqu.Record{
			"damage_status": models.DamageStatusCompleted,
			"repair_status": models.RepairStatusInProgress,
		}
		if ticket.ActualCost != nil {
			fields["repair_cost"] = *ticket.ActualCost
		}
	case models.TicketStatusClosed:
		repairStatus := models.RepairStatusCompleted
		if ticket.ResolutionType != nil && *ticket.ResolutionType == models.ResolutionTypeNotRepairable {
			repairStatus = models.RepairStatusCannotRepair
		}
		fields = goqu.Record{
			"damage_status": models.DamageStatusCompleted,
			"repair_status": repairStatus,
		}
		if ticket.ActualCost != nil {
			fields["repair_cost"] = *ticket.ActualCost
		}
		if ticket.ResolvedAt != nil {
			fields["repair_completed_at"] = *ticket.ResolvedAt
		}
	default:
		return nil
	}

	return s.repo.UpdateInspectionRepair(tx, *ticket.InspectionID, fields)
}
