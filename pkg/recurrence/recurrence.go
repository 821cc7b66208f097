package recurrence

import (
	"time"

	"assetdesk/pkg/apperrors"
	"assetdesk/pkg/models"
)

const (
	UnitDays   = "days"
	UnitWeeks  = "weeks"
	UnitMonths = "months"
	UnitYears  = "years"
)

// NextDue computes the next due date for a time-based schedule, starting
// from now. Usage-based schedules advance by counter comparison, not date
// arithmetic, so they return nil. A time schedule with no resolvable rule
// also returns nil; Validate rejects such schedules before they are stored.
func NextDue(schedule models.PMSchedule, now time.Time) *time.Time {
	if schedule.ScheduleType != models.ScheduleTypeTime {
		return nil
	}

	interval := schedule.IntervalValue
	if interval <= 0 {
		interval = 1
	}

	var due time.Time
	switch schedule.Frequency {
	case models.FrequencyDaily:
		due = now.AddDate(0, 0, interval)
	case models.FrequencyWeekly:
		due = now.AddDate(0, 0, 7*interval)
	case models.FrequencyMonthly:
		due = now.AddDate(0, interval, 0)
	case models.FrequencyQuarterly:
		// Fixed three months, interval value is ignored.
		due = now.AddDate(0, 3, 0)
	case models.FrequencyYearly:
		due = now.AddDate(interval, 0, 0)
	default:
		if schedule.IntervalUnit == "" || schedule.IntervalValue <= 0 {
			return nil
		}
		switch schedule.IntervalUnit {
		case UnitDays:
			due = now.AddDate(0, 0, schedule.IntervalValue)
		case UnitWeeks:
			due = now.AddDate(0, 0, 7*schedule.IntervalValue)
		case UnitMonths:
			due = now.AddDate(0, schedule.IntervalValue, 0)
		case UnitYears:
			due = now.AddDate(schedule.IntervalValue, 0, 0)
		default:
			return nil
		}
	}

	return &due
}

// Validate rejects schedules whose recurrence rule can never produce a next
// due date, so a persisted time schedule always reschedules after execution.
func Validate(schedule models.PMSchedule) error {
	switch schedule.ScheduleType {
	case models.ScheduleTypeUsage:
		if schedule.UsageMetric == "" {
			return apperrors.NewValidation("usage_metric", "required for usage schedules")
		}
		if schedule.UsageInterval <= 0 {
			return apperrors.NewValidation("usage_interval", "must be positive")
		}
		return nil
	case models.ScheduleTypeTime:
		if next := NextDue(schedule, time.Now()); next == nil {
			return apperrors.NewValidation("frequency", "no recurrence rule matches frequency %q / interval unit %q", schedule.Frequency, schedule.IntervalUnit)
		}
		return nil
	default:
		return apperrors.NewValidation("schedule_type", "must be %q or %q", models.ScheduleTypeTime, models.ScheduleTypeUsage)
	}
}
