package inspections

import (
	"fmt"
	"time"

	"assetdesk/internal/assetstore"
	"assetdesk/internal/notifications"
	"assetdesk/internal/repository"
	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/auditlog"
	"assetdesk/pkg/condition"
	"assetdesk/pkg/models"
	"assetdesk/pkg/security"

	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"
)

// AssignmentFinder resolves where an asset currently lives so a new
// inspection can be linked to the holder responsible for it.
type AssignmentFinder interface {
	FindActiveAssignmentForAsset(assetID int) (*models.Assignment, error)
	GetAssignment(assignmentID int) (*models.Assignment, error)
}

// TicketCreator files a repair ticket for a damage-flagged inspection.
// Creation is idempotent per inspection.
type TicketCreator interface {
	CreateFromInspection(actorID int, inspection models.Inspection) (*models.Ticket, error)
}

type Service struct {
	tx          repository.TxRunner
	repo        InspectionRepository
	assets      assetstore.Store
	assignments AssignmentFinder
	tickets     TicketCreator
	notifier    notifications.Notifier
	perms       security.PermissionChecker
	audit       auditlog.Recorder
	log         *zap.Logger
	now         func() time.Time
}

func NewService(
	tx repository.TxRunner,
	repo InspectionRepository,
	assets assetstore.Store,
	assignments AssignmentFinder,
	tickets TicketCreator,
	notifier notifications.Notifier,
	perms security.PermissionChecker,
	audit auditlog.Recorder,
	log *zap.Logger,
) *Service {
	return &Service{
		tx:          tx,
		repo:        repo,
		assets:      assets,
		assignments: assignments,
		tickets:     tickets,
		notifier:    notifier,
		perms:       perms,
		audit:       audit,
		log:         log,
		now:         time.Now,
	}
}

func (s *Service) authorize(actorID int, action string) error {
	allowed, err := s.perms.HasPermission(actorID, security.ModuleInspections, action)
	if err != nil {
		return fmt.Errorf("failed to check permission: %w", err)
	}
	if !allowed {
		return apperrors.ErrForbidden
	}
	return nil
}

func severityFor(overall condition.Overall) string {
	switch overall {
	case condition.OverallBroken:
		return models.DamageSeveritySevere
	case condition.OverallPoor:
		return models.DamageSeverityModerate
	default:
		return models.DamageSeverityMinor
	}
}

func checklistOf(inspection models.Inspection) condition.Checklist {
	return condition.Checklist{
		Exterior:     inspection.Exterior,
		Screen:       inspection.Screen,
		ButtonsPorts: inspection.ButtonsPorts,
		Keyboard:     inspection.Keyboard,
		Touchpad:     inspection.Touchpad,
		Battery:      inspection.Battery,
	}
}

// CreateInspection scores the checklist, links the inspection to the asset's
// active assignment when the caller did not name one, and files a repair
// ticket when damage is flagged. The holder report is best-effort; a failed
// send never fails the inspection.
func (s *Service) CreateInspection(actorID int, req CreateInspectionRequest) (*models.Inspection, error) {
	if err := s.authorize(actorID, security.ActionCreate); err != nil {
		return nil, err
	}

	switch req.Type {
	case models.InspectionTypeCheckout, models.InspectionTypeCheckin, models.InspectionTypePeriodic, models.InspectionTypeIncident:
	default:
		return nil, apperrors.NewValidation("type", "unknown inspection type %q", req.Type)
	}

	if _, err := s.assets.GetAsset(req.AssetID); err != nil {
		return nil, err
	}

	var linked *models.Assignment
	if req.AssignmentID != nil {
		assignment, err := s.assignments.GetAssignment(*req.AssignmentID)
		if err != nil {
			return nil, err
		}
		linked = assignment
	} else {
		assignment, err := s.assignments.FindActiveAssignmentForAsset(req.AssetID)
		if err != nil {
			return nil, err
		}
		linked = assignment
	}

	createdAt := s.now()
	inspection := models.Inspection{
		AssetID:           req.AssetID,
		InspectorID:       actorID,
		Type:              req.Type,
		Exterior:          req.Exterior,
		Screen:            req.Screen,
		ButtonsPorts:      req.ButtonsPorts,
		Keyboard:          req.Keyboard,
		Touchpad:          req.Touchpad,
		Battery:           req.Battery,
		DamageDescription: req.DamageDescription,
		PhotoRefs:         req.PhotoRefs,
		EstimatedCost:     req.EstimatedCost,
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
	}
	if linked != nil {
		inspection.AssignmentID = &linked.ID
	}

	result := condition.Score(checklistOf(inspection), req.DamageDescription)
	inspection.OverallCondition = string(result.Overall)
	inspection.DamageFound = result.DamageFound
	if result.DamageFound {
		// Severity and the repair workflow start at assessment, not here.
		damageStatus := models.DamageStatusPendingReview
		inspection.DamageStatus = &damageStatus
		inspection.CanContinueUse = req.CanContinueUse
	}

	err := s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		id, err := s.repo.InsertInspection(tx, inspection)
		if err != nil {
			return err
		}
		inspection.ID = id

		return s.assets.UpdateCondition(tx, inspection.AssetID, inspection.OverallCondition)
	})
	if err != nil {
		return nil, err
	}

	if inspection.DamageFound && s.tickets != nil {
		ticket, err := s.tickets.CreateFromInspection(actorID, inspection)
		if err != nil {
			return nil, fmt.Errorf("inspection %d saved but ticket creation failed: %w", inspection.ID, err)
		}
		inspection.TicketID = &ticket.ID
	}

	if linked != nil {
		if err := s.notifier.SendInspectionReport(inspection, *linked); err != nil {
			s.log.Warn("failed to send inspection report",
				zap.Int("inspection_id", inspection.ID),
				zap.Error(err))
		}
	}

	go s.audit.Log(&actorID, "create", map[string]any{
		"asset_id":     inspection.AssetID,
		"overall":      inspection.OverallCondition,
		"damage_found": inspection.DamageFound,
	}, &inspection)

	return &inspection, nil
}

// UpdateInspection patches checklist fields and re-scores. The assignment
// link never moves; a damage workflow already underway keeps its state.
func (s *Service) UpdateInspection(actorID, inspectionID int, req UpdateInspectionRequest) (*models.Inspection, error) {
	if err := s.authorize(actorID, security.ActionUpdate); err != nil {
		return nil, err
	}

	inspection, err := s.getInspection(inspectionID)
	if err != nil {
		return nil, err
	}

	fields := goqu.Record{}
	patch := func(column string, target *string, value *string) {
		if value != nil {
			*target = *value
			fields[column] = *value
		}
	}
	patch("exterior_condition", &inspection.Exterior, req.Exterior)
	patch("screen_condition", &inspection.Screen, req.Screen)
	patch("buttons_ports_condition", &inspection.ButtonsPorts, req.ButtonsPorts)
	patch("keyboard_condition", &inspection.Keyboard, req.Keyboard)
	patch("touchpad_condition", &inspection.Touchpad, req.Touchpad)
	patch("battery_condition", &inspection.Battery, req.Battery)
	if req.DamageDescription != nil {
		inspection.DamageDescription = *req.DamageDescription
		fields["damage_description"] = *req.DamageDescription
	}
	if req.PhotoRefs != nil {
		inspection.PhotoRefs = req.PhotoRefs
		fields["photo_refs"] = *req.PhotoRefs
	}
	if req.EstimatedCost != nil {
		inspection.EstimatedCost = req.EstimatedCost
		fields["estimated_cost"] = *req.EstimatedCost
	}
	if len(fields) == 0 {
		return inspection, nil
	}

	result := condition.Score(checklistOf(*inspection), inspection.DamageDescription)
	wasDamaged := inspection.DamageFound
	inspection.OverallCondition = string(result.Overall)
	inspection.DamageFound = result.DamageFound
	fields["overall_condition"] = inspection.OverallCondition
	fields["damage_found"] = inspection.DamageFound

	if result.DamageFound && !wasDamaged {
		damageStatus := models.DamageStatusPendingReview
		inspection.DamageStatus = &damageStatus
		fields["damage_status"] = damageStatus
	}

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		if err := s.repo.UpdateInspection(tx, inspectionID, fields); err != nil {
			return err
		}
		return s.assets.UpdateCondition(tx, inspection.AssetID, inspection.OverallCondition)
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "update", map[string]any{
		"overall":      inspection.OverallCondition,
		"damage_found": inspection.DamageFound,
	}, inspection)

	return inspection, nil
}

// AssessDamage is the entry into the repair workflow: it approves the damage
// report, grades the severity and queues the repair as pending. Only valid
// while no repair state exists yet.
func (s *Service) AssessDamage(actorID, inspectionID int, req AssessDamageRequest) (*models.Inspection, error) {
	if err := s.authorize(actorID, security.ActionUpdate); err != nil {
		return nil, err
	}

	inspection, err := s.getInspection(inspectionID)
	if err != nil {
		return nil, err
	}
	if !inspection.DamageFound {
		return nil, apperrors.NewConflict("inspection %d has no damage to assess", inspectionID)
	}
	if repairState(inspection) != "" {
		return nil, apperrors.NewInvalidTransition("repair", repairState(inspection), models.RepairStatusPending)
	}

	approved := models.DamageStatusApproved
	pending := models.RepairStatusPending
	severity := severityFor(condition.Overall(inspection.OverallCondition))
	fields := goqu.Record{
		"damage_status":   approved,
		"repair_status":   pending,
		"damage_severity": severity,
	}
	inspection.DamageStatus = &approved
	inspection.RepairStatus = &pending
	inspection.DamageSeverity = &severity
	if req.EstimatedCost != nil {
		inspection.EstimatedCost = req.EstimatedCost
		fields["estimated_cost"] = *req.EstimatedCost
	}
	if req.CanContinueUse != nil {
		inspection.CanContinueUse = req.CanContinueUse
		fields["can_continue_use"] = *req.CanContinueUse
	}
	if req.Notes != nil {
		inspection.RepairNotes = req.Notes
		fields["repair_notes"] = *req.Notes
	}

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		return s.repo.UpdateInspection(tx, inspectionID, fields)
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "assess_damage", map[string]any{"damage_status": approved}, inspection)

	return inspection, nil
}

// StartRepair puts a pending repair into progress and pulls the asset out of
// circulation.
func (s *Service) StartRepair(actorID, inspectionID int, req StartRepairRequest) (*models.Inspection, error) {
	if err := s.authorize(actorID, security.ActionUpdate); err != nil {
		return nil, err
	}

	inspection, err := s.getInspection(inspectionID)
	if err != nil {
		return nil, err
	}
	if repairState(inspection) != models.RepairStatusPending {
		return nil, apperrors.NewInvalidTransition("repair", repairState(inspection), models.RepairStatusInProgress)
	}

	startedAt := s.now()
	inProgress := models.DamageStatusInProgress
	repairInProgress := models.RepairStatusInProgress
	inspection.DamageStatus = &inProgress
	inspection.RepairStatus = &repairInProgress
	inspection.TechnicianID = &req.TechnicianID
	inspection.RepairStartedAt = &startedAt

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		if err := s.repo.UpdateInspection(tx, inspectionID, goqu.Record{
			"damage_status":     inProgress,
			"repair_status":     repairInProgress,
			"technician_id":     req.TechnicianID,
			"repair_started_at": startedAt,
		}); err != nil {
			return err
		}
		return s.assets.UpdateStatus(tx, inspection.AssetID, models.AssetStatusMaintenance)
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "start_repair", map[string]any{"technician_id": req.TechnicianID}, inspection)

	return inspection, nil
}

// UpdateRepairProgress records technician notes and running cost while the
// repair is underway.
func (s *Service) UpdateRepairProgress(actorID, inspectionID int, req RepairProgressRequest) (*models.Inspection, error) {
	if err := s.authorize(actorID, security.ActionUpdate); err != nil {
		return nil, err
	}

	inspection, err := s.getInspection(inspectionID)
	if err != nil {
		return nil, err
	}
	if repairState(inspection) != models.RepairStatusInProgress {
		return nil, apperrors.NewInvalidTransition("repair", repairState(inspection), models.RepairStatusInProgress)
	}

	inspection.RepairNotes = &req.Notes
	fields := goqu.Record{"repair_notes": req.Notes}
	if req.Cost != nil {
		inspection.RepairCost = req.Cost
		fields["repair_cost"] = *req.Cost
	}

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		return s.repo.UpdateInspection(tx, inspectionID, fields)
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "repair_progress", map[string]any{"notes": req.Notes}, inspection)

	return inspection, nil
}

// CompleteRepair closes the repair and returns the asset to circulation.
func (s *Service) CompleteRepair(actorID, inspectionID int, req CompleteRepairRequest) (*models.Inspection, error) {
	if err := s.authorize(actorID, security.ActionUpdate); err != nil {
		return nil, err
	}

	inspection, err := s.getInspection(inspectionID)
	if err != nil {
		return nil, err
	}
	if repairState(inspection) != models.RepairStatusInProgress {
		return nil, apperrors.NewInvalidTransition("repair", repairState(inspection), models.RepairStatusCompleted)
	}

	completedAt := s.now()
	completed := models.RepairStatusCompleted
	damageCompleted := models.DamageStatusCompleted
	inspection.RepairStatus = &completed
	inspection.DamageStatus = &damageCompleted
	inspection.RepairCompletedAt = &completedAt

	fields := goqu.Record{
		"repair_status":       completed,
		"damage_status":       damageCompleted,
		"repair_completed_at": completedAt,
	}
	if req.RepairCost != nil {
		inspection.RepairCost = req.RepairCost
		fields["repair_cost"] = *req.RepairCost
	}
	if req.Notes != nil {
		inspection.RepairNotes = req.Notes
		fields["repair_notes"] = *req.Notes
	}

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		if err := s.repo.UpdateInspection(tx, inspectionID, fields); err != nil {
			return err
		}
		return s.assets.UpdateStatus(tx, inspection.AssetID, models.AssetStatusAvailable)
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "complete_repair", map[string]any{"repair_cost": req.RepairCost}, inspection)

	return inspection, nil
}

// MarkUnrepairable ends the repair as cannot_repair. The asset is retired
// unless the assessor decided it can stay in service damaged.
func (s *Service) MarkUnrepairable(actorID, inspectionID int, req UnrepairableRequest) (*models.Inspection, error) {
	if err := s.authorize(actorID, security.ActionUpdate); err != nil {
		return nil, err
	}

	inspection, err := s.getInspection(inspectionID)
	if err != nil {
		return nil, err
	}
	state := repairState(inspection)
	if state != models.RepairStatusPending && state != models.RepairStatusInProgress {
		return nil, apperrors.NewInvalidTransition("repair", state, models.RepairStatusCannotRepair)
	}

	completedAt := s.now()
	cannotRepair := models.RepairStatusCannotRepair
	damageCompleted := models.DamageStatusCompleted
	inspection.RepairStatus = &cannotRepair
	inspection.DamageStatus = &damageCompleted
	inspection.RepairNotes = &req.Notes
	inspection.CanContinueUse = &req.CanContinueUse
	inspection.RepairCompletedAt = &completedAt

	assetStatus := models.AssetStatusRetired
	if req.CanContinueUse {
		assetStatus = models.AssetStatusAvailable
	}

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		if err := s.repo.UpdateInspection(tx, inspectionID, goqu.Record{
			"repair_status":       cannotRepair,
			"damage_status":       damageCompleted,
			"repair_notes":        req.Notes,
			"can_continue_use":    req.CanContinueUse,
			"repair_completed_at": completedAt,
		}); err != nil {
			return err
		}
		return s.assets.UpdateStatus(tx, inspection.AssetID, assetStatus)
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "mark_unrepairable", map[string]any{"asset_status": assetStatus}, inspection)

	return inspection, nil
}

// AcceptDamageAsIs waives the repair: the damage stays, the asset keeps
// circulating.
func (s *Service) AcceptDamageAsIs(actorID, inspectionID int, req AcceptAsIsRequest) (*models.Inspection, error) {
	if err := s.authorize(actorID, security.ActionUpdate); err != nil {
		return nil, err
	}

	inspection, err := s.getInspection(inspectionID)
	if err != nil {
		return nil, err
	}
	if repairState(inspection) != models.RepairStatusPending {
		return nil, apperrors.NewInvalidTransition("repair", repairState(inspection), models.RepairStatusAcceptedAsIs)
	}

	accepted := models.RepairStatusAcceptedAsIs
	damageCompleted := models.DamageStatusCompleted
	canContinue := true
	inspection.RepairStatus = &accepted
	inspection.DamageStatus = &damageCompleted
	inspection.CanContinueUse = &canContinue

	fields := goqu.Record{
		"repair_status":    accepted,
		"damage_status":    damageCompleted,
		"can_continue_use": true,
	}
	if req.Notes != "" {
		inspection.RepairNotes = &req.Notes
		fields["repair_notes"] = req.Notes
	}

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		if err := s.repo.UpdateInspection(tx, inspectionID, fields); err != nil {
			return err
		}
		return s.assets.UpdateStatus(tx, inspection.AssetID, models.AssetStatusAvailable)
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "accept_as_is", nil, inspection)

	return inspection, nil
}

// DeleteInspection removes an inspection that has no ticket hanging off it.
func (s *Service) DeleteInspection(actorID, inspectionID int) error {
	if err := s.authorize(actorID, security.ActionDelete); err != nil {
		return err
	}

	inspection, err := s.getInspection(inspectionID)
	if err != nil {
		return err
	}
	if inspection.TicketID != nil {
		return apperrors.NewConflict("inspection %d is linked to ticket %d", inspectionID, *inspection.TicketID)
	}

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		return s.repo.DeleteInspection(tx, inspectionID)
	})
	if err != nil {
		return err
	}

	go s.audit.Log(&actorID, "delete", nil, inspection)

	return nil
}

func (s *Service) GetInspection(inspectionID int) (*models.Inspection, error) {
	return s.getInspection(inspectionID)
}

func (s *Service) ListInspections(filter ListFilter) ([]models.Inspection, error) {
	return s.repo.ListInspections(filter)
}

func (s *Service) getInspection(inspectionID int) (*models.Inspection, error) {
	inspection, err := s.repo.GetInspection(inspectionID)
	if err != nil {
		return nil, err
	}
	if inspection == nil {
		return nil, fmt.Errorf("inspection %d: %w", inspectionID, apperrors.ErrNotFound)
	}
	return inspection, nil
}

func repairState(inspection *models.Inspection) string {
	if inspection.RepairStatus == nil {
		return ""
	}
	return *inspection.RepairStatus
}
