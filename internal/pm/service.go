package pm

import (
	"fmt"
	"time"

	"assetdesk/internal/assetstore"
	"assetdesk/internal/repository"
	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/auditlog"
	"assetdesk/pkg/models"
	"assetdesk/pkg/recurrence"
	"assetdesk/pkg/security"

	"github.com/doug-martin/goqu/v9"
	"go.uber.org/zap"
)

type Service struct {
	tx     repository.TxRunner
	repo   ScheduleRepository
	assets assetstore.Store
	perms  security.PermissionChecker
	audit  auditlog.Recorder
	log    *zap.Logger
	now    func() time.Time
}

func NewService(
	tx repository.TxRunner,
	repo ScheduleRepository,
	assets assetstore.Store,
	perms security.PermissionChecker,
	audit auditlog.Recorder,
	log *zap.Logger,
) *Service {
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
	allowed, err := s.perms.HasPermission(actorID, security.ModuleMaintenance, action)
	if err != nil {
		return fmt.Errorf("failed to check permission: %w", err)
	}
	if !allowed {
		return apperrors.ErrForbidden
	}
	return nil
}

// CreateSchedule registers a recurring maintenance plan for an asset. The
// recurrence rule is validated up front so an unresolvable schedule never
// makes it into the table.
func (s *Service) CreateSchedule(actorID int, req CreateScheduleRequest) (*models.PMSchedule, error) {
	if err := s.authorize(actorID, security.ActionCreate); err != nil {
		return nil, err
	}

	if _, err := s.assets.GetAsset(req.AssetID); err != nil {
		return nil, err
	}

	schedule := models.PMSchedule{
		AssetID:       req.AssetID,
		Name:          req.Name,
		ScheduleType:  req.ScheduleType,
		Frequency:     req.Frequency,
		IntervalValue: req.IntervalValue,
		IntervalUnit:  req.IntervalUnit,
		UsageMetric:   req.UsageMetric,
		UsageInterval: req.UsageInterval,
		IsActive:      true,
		CreatedAt:     s.now(),
	}
	if err := recurrence.Validate(schedule); err != nil {
		return nil, err
	}

	switch schedule.ScheduleType {
	case models.ScheduleTypeTime:
		schedule.NextDueDate = recurrence.NextDue(schedule, schedule.CreatedAt)
	case models.ScheduleTypeUsage:
		current, err := s.repo.GetUsage(schedule.AssetID, schedule.UsageMetric)
		if err != nil {
			return nil, err
		}
		nextDue := current + schedule.UsageInterval
		schedule.NextDueUsage = &nextDue
	}

	err := s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		id, err := s.repo.InsertSchedule(tx, schedule)
		if err != nil {
			return err
		}
		schedule.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "create", map[string]any{
		"asset_id":      schedule.AssetID,
		"schedule_type": schedule.ScheduleType,
	}, &schedule)

	return &schedule, nil
}

// UpdateSchedule patches the recurrence rule. The merged schedule is
// re-validated and the next due marker recomputed under the new rule.
func (s *Service) UpdateSchedule(actorID, scheduleID int, req UpdateScheduleRequest) (*models.PMSchedule, error) {
	if err := s.authorize(actorID, security.ActionUpdate); err != nil {
		return nil, err
	}

	schedule, err := s.getSchedule(scheduleID)
	if err != nil {
		return nil, err
	}

	fields := goqu.Record{}
	ruleChanged := false
	if req.Name != nil {
		schedule.Name = *req.Name
		fields["name"] = *req.Name
	}
	if req.Frequency != nil {
		schedule.Frequency = *req.Frequency
		fields["frequency"] = *req.Frequency
		ruleChanged = true
	}
	if req.IntervalValue != nil {
		schedule.IntervalValue = *req.IntervalValue
		fields["interval_value"] = *req.IntervalValue
		ruleChanged = true
	}
	if req.IntervalUnit != nil {
		schedule.IntervalUnit = *req.IntervalUnit
		fields["interval_unit"] = *req.IntervalUnit
		ruleChanged = true
	}
	if req.UsageInterval != nil {
		schedule.UsageInterval = *req.UsageInterval
		fields["usage_interval"] = *req.UsageInterval
		ruleChanged = true
	}
	if req.IsActive != nil {
		schedule.IsActive = *req.IsActive
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		return schedule, nil
	}

	if err := recurrence.Validate(*schedule); err != nil {
		return nil, err
	}

	if ruleChanged {
		switch schedule.ScheduleType {
		case models.ScheduleTypeTime:
			schedule.NextDueDate = recurrence.NextDue(*schedule, s.now())
			fields["next_due_date"] = schedule.NextDueDate
		case models.ScheduleTypeUsage:
			current, err := s.repo.GetUsage(schedule.AssetID, schedule.UsageMetric)
			if err != nil {
				return nil, err
			}
			nextDue := current + schedule.UsageInterval
			schedule.NextDueUsage = &nextDue
			fields["next_due_usage"] = nextDue
		}
	}

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		return s.repo.UpdateSchedule(tx, scheduleID, fields)
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "update", map[string]any{"schedule_id": scheduleID}, schedule)

	return schedule, nil
}

// ExecutePM records a performed preventive maintenance and reschedules, all
// in one transaction: the log entry, last_performed and the next due marker
// move together or not at all.
func (s *Service) ExecutePM(actorID, scheduleID int, req ExecuteRequest) (*models.MaintenanceLog, error) {
	if err := s.authorize(actorID, security.ActionExecute); err != nil {
		return nil, err
	}

	schedule, err := s.getSchedule(scheduleID)
	if err != nil {
		return nil, err
	}
	if !schedule.IsActive {
		return nil, apperrors.NewConflict("schedule %d is not active", scheduleID)
	}

	performedAt := s.now()
	log := models.MaintenanceLog{
		AssetID:      schedule.AssetID,
		ScheduleID:   &schedule.ID,
		Type:         models.MaintenanceTypePreventive,
		Summary:      req.Summary,
		Cost:         req.Cost,
		PartsChanged: req.PartsChanged,
		Readings:     req.Readings,
		PerformedBy:  actorID,
		PerformedAt:  performedAt,
	}

	err = s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		id, err := s.repo.InsertMaintenanceLog(tx, log)
		if err != nil {
			return err
		}
		log.ID = id

		fields := goqu.Record{"last_performed": performedAt}
		switch schedule.ScheduleType {
		case models.ScheduleTypeTime:
			if next := recurrence.NextDue(*schedule, performedAt); next != nil {
				schedule.NextDueDate = next
				fields["next_due_date"] = *next
			}
		case models.ScheduleTypeUsage:
			current, err := s.repo.GetUsage(schedule.AssetID, schedule.UsageMetric)
			if err != nil {
				return err
			}
			nextDue := current + schedule.UsageInterval
			schedule.NextDueUsage = &nextDue
			fields["next_due_usage"] = nextDue
		}
		schedule.LastPerformed = &performedAt

		return s.repo.UpdateSchedule(tx, scheduleID, fields)
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "execute", map[string]any{
		"schedule_id": scheduleID,
		"asset_id":    schedule.AssetID,
	}, schedule)

	return &log, nil
}

// RecordManualMaintenance logs an out-of-schedule, corrective action. No
// schedule moves.
func (s *Service) RecordManualMaintenance(actorID int, req ManualMaintenanceRequest) (*models.MaintenanceLog, error) {
	if err := s.authorize(actorID, security.ActionCreate); err != nil {
		return nil, err
	}

	if _, err := s.assets.GetAsset(req.AssetID); err != nil {
		return nil, err
	}

	log := models.MaintenanceLog{
		AssetID:      req.AssetID,
		Type:         models.MaintenanceTypeCorrective,
		Summary:      req.Summary,
		Cost:         req.Cost,
		PartsChanged: req.PartsChanged,
		Readings:     req.Readings,
		PerformedBy:  actorID,
		PerformedAt:  s.now(),
	}

	err := s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		id, err := s.repo.InsertMaintenanceLog(tx, log)
		if err != nil {
			return err
		}
		log.ID = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.audit.Log(&actorID, "manual_maintenance", map[string]any{"asset_id": req.AssetID}, &log)

	return &log, nil
}

// AdvanceUsage bumps an asset's usage counter. Usage schedules fire once the
// counter crosses their next due reading.
func (s *Service) AdvanceUsage(actorID, assetID int, req AdvanceUsageRequest) (int, error) {
	if err := s.authorize(actorID, security.ActionUpdate); err != nil {
		return 0, err
	}
	if req.Delta <= 0 {
		return 0, apperrors.NewValidation("delta", "must be positive")
	}

	if _, err := s.assets.GetAsset(assetID); err != nil {
		return 0, err
	}

	var value int
	err := s.tx.RunInTransaction(func(tx *goqu.TxDatabase) error {
		v, err := s.repo.IncrementUsage(tx, assetID, req.Metric, req.Delta)
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return 0, err
	}

	return value, nil
}

// ListDue returns every active schedule whose trigger has fired.
func (s *Service) ListDue() ([]models.PMSchedule, error) {
	return s.repo.ListDue(s.now())
}

func (s *Service) GetSchedule(scheduleID int) (*models.PMSchedule, error) {
	return s.getSchedule(scheduleID)
}

func (s *Service) ListSchedules(assetID *int, activeOnly bool) ([]models.PMSchedule, error) {
	return s.repo.ListSchedules(assetID, activeOnly)
}

func (s *Service) ListMaintenanceLogs(assetID, limit, offset int) ([]models.MaintenanceLog, error) {
	return s.repo.ListMaintenanceLogs(assetID, limit, offset)
}

func (s *Service) getSchedule(scheduleID int) (*models.PMSchedule, error) {
	schedule, err := s.repo.GetSchedule(scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule == nil {
		return nil, fmt.Errorf("schedule %d: %w", scheduleID, apperrors.ErrNotFound)
	}
	return schedule, nil
}
