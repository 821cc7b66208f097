package pm

import (
	"fmt"
	"time"

	"assetdesk/internal/repository"
	"assetdesk/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

type ScheduleRepository interface {
	InsertSchedule(tx *goqu.TxDatabase, schedule models.PMSchedule) (int, error)
	GetSchedule(scheduleID int) (*models.PMSchedule, error)
	ListSchedules(assetID *int, activeOnly bool) ([]models.PMSchedule, error)
	ListDue(now time.Time) ([]models.PMSchedule, error)
	UpdateSchedule(tx *goqu.TxDatabase, scheduleID int, fields goqu.Record) error
	InsertMaintenanceLog(tx *goqu.TxDatabase, log models.MaintenanceLog) (int, error)
	ListMaintenanceLogs(assetID int, limit, offset int) ([]models.MaintenanceLog, error)
	GetUsage(assetID int, metric string) (int, error)
	IncrementUsage(tx *goqu.TxDatabase, assetID int, metric string, delta int) (int, error)
}

type GoquScheduleRepository struct {
	repo *repository.Repository
}

func NewRepository(r *repository.Repository) *GoquScheduleRepository {
	return &GoquScheduleRepository{repo: r}
}

func (r *GoquScheduleRepository) InsertSchedule(tx *goqu.TxDatabase, schedule models.PMSchedule) (int, error) {
	var scheduleID int

	found, err := tx.Insert("pm_schedules").
		Rows(goqu.Record{
			"asset_id":       schedule.AssetID,
			"name":           schedule.Name,
			"schedule_type":  schedule.ScheduleType,
			"frequency":      schedule.Frequency,
			"interval_value": schedule.IntervalValue,
			"interval_unit":  schedule.IntervalUnit,
			"usage_metric":   schedule.UsageMetric,
			"usage_interval": schedule.UsageInterval,
			"next_due_date":  schedule.NextDueDate,
			"next_due_usage": schedule.NextDueUsage,
			"is_active":      schedule.IsActive,
			"created_at":     schedule.CreatedAt,
		}).
		Returning("id").
		Executor().
		ScanVal(&scheduleID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert schedule: %w", err)
	}
	if !found {
		return 0, fmt.Errorf("failed to insert schedule: no ID returned")
	}

	return scheduleID, nil
}

func (r *GoquScheduleRepository) GetSchedule(scheduleID int) (*models.PMSchedule, error) {
	var schedule models.PMSchedule

	found, err := r.repo.GoquDBWrapper.
		From("pm_schedules").
		Where(goqu.Ex{"id": scheduleID}).
		ScanStruct(&schedule)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule %d: %w", scheduleID, err)
	}
	if !found {
		return nil, nil
	}

	return &schedule, nil
}

func (r *GoquScheduleRepository) ListSchedules(assetID *int, activeOnly bool) ([]models.PMSchedule, error) {
	query := r.repo.GoquDBWrapper.
		From("pm_schedules").
		Order(goqu.I("next_due_date").Asc())

	if assetID != nil {
		query = query.Where(goqu.Ex{"asset_id": *assetID})
	}
	if activeOnly {
		query = query.Where(goqu.Ex{"is_active": true})
	}

	var schedules []models.PMSchedule
	if err := query.ScanStructs(&schedules); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	return schedules, nil
}

// ListDue returns active schedules whose trigger has fired: time schedules
// past their next due date, usage schedules whose counter reached the next
// due reading.
func (r *GoquScheduleRepository) ListDue(now time.Time) ([]models.PMSchedule, error) {
	query := r.repo.GoquDBWrapper.
		From(goqu.T("pm_schedules").As("s")).
		Select("s.*").
		LeftJoin(
			goqu.T("usage_counters").As("u"),
			goqu.On(
				goqu.I("u.asset_id").Eq(goqu.I("s.asset_id")),
				goqu.I("u.metric").Eq(goqu.I("s.usage_metric")),
			),
		).
		Where(goqu.Ex{"s.is_active": true}).
		Where(goqu.Or(
			goqu.And(
				goqu.I("s.schedule_type").Eq(models.ScheduleTypeTime),
				goqu.I("s.next_due_date").Lte(now),
			),
			goqu.And(
				goqu.I("s.schedule_type").Eq(models.ScheduleTypeUsage),
				goqu.I("u.value").Gte(goqu.I("s.next_due_usage")),
			),
		)).
		Order(goqu.I("s.next_due_date").Asc())

	var schedules []models.PMSchedule
	if err := query.ScanStructs(&schedules); err != nil {
		return nil, fmt.Errorf("failed to list due schedules: %w", err)
	}

	return schedules, nil
}

func (r *GoquScheduleRepository) UpdateSchedule(tx *goqu.TxDatabase, scheduleID int, fields goqu.Record) error {
	result, err := tx.Update("pm_schedules").
		Set(fields).
		Where(goqu.Ex{"id": scheduleID}).
		Executor().
		Exec()
	if err != nil {
		return fmt.Errorf("failed to update schedule %d: %w", scheduleID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("schedule %d not found", scheduleID)
	}

	return nil
}

func (r *GoquScheduleRepository) InsertMaintenanceLog(tx *goqu.TxDatabase, log models.MaintenanceLog) (int, error) {
	var logID int

	found, err := tx.Insert("maintenance_logs").
		Rows(goqu.Record{
			"asset_id":      log.AssetID,
			"schedule_id":   log.ScheduleID,
			"type":          log.Type,
			"summary":       log.Summary,
			"cost":          log.Cost,
			"parts_changed": log.PartsChanged,
			"readings":      log.Readings,
			"performed_by":  log.PerformedBy,
			"performed_at":  log.PerformedAt,
		}).
		Returning("id").
		Executor().
		ScanVal(&logID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert maintenance log: %w", err)
	}
	if !found {
		return 0, fmt.Errorf("failed to insert maintenance log: no ID returned")
	}

	return logID, nil
}

func (r *GoquScheduleRepository) ListMaintenanceLogs(assetID int, limit, offset int) ([]models.MaintenanceLog, error) {
	query := r.repo.GoquDBWrapper.
		From("maintenance_logs").
		Where(goqu.Ex{"asset_id": assetID}).
		Order(goqu.I("performed_at").Desc())

	if limit > 0 {
		query = query.Limit(uint(limit)).Offset(uint(offset))
	}

	var logs []models.MaintenanceLog
	if err := query.ScanStructs(&logs); err != nil {
		return nil, fmt.Errorf("failed to list maintenance logs: %w", err)
	}

	return logs, nil
}

func (r *GoquScheduleRepository) GetUsage(assetID int, metric string) (int, error) {
	var value int

	found, err := r.repo.GoquDBWrapper.
		From("usage_counters").
		Select("value").
		Where(goqu.Ex{"asset_id": assetID, "metric": metric}).
		ScanVal(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch usage counter: %w", err)
	}
	if !found {
		return 0, nil
	}

	return value, nil
}

// IncrementUsage bumps the counter, creating it on first use, and returns the
// new reading.
func (r *GoquScheduleRepository) IncrementUsage(tx *goqu.TxDatabase, assetID int, metric string, delta int) (int, error) {
	var value int

	found, err := tx.Insert("usage_counters").
		Rows(goqu.Record{"asset_id": assetID, "metric": metric, "value": delta}).
		OnConflict(goqu.DoUpdate("asset_id, metric", goqu.Record{
			"value": goqu.L("usage_counters.value + ?", delta),
		})).
		Returning("value").
		Executor().
		ScanVal(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to increment usage counter: %w", err)
	}
	if !found {
		return 0, fmt.Errorf("failed to increment usage counter: no value returned")
	}

	return value, nil
}
