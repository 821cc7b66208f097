package models

import "time"

const (
	ScheduleTypeTime  = "time"
	ScheduleTypeUsage = "usage"
)

const (
	FrequencyDaily     = "daily"
	FrequencyWeekly    = "weekly"
	FrequencyMonthly   = "monthly"
	FrequencyQuarterly = "quarterly"
	FrequencyYearly    = "yearly"
)

const (
	MaintenanceTypePreventive = "preventive"
	MaintenanceTypeCorrective = "corrective"
)

type PMSchedule struct {
	ID            int        `json:"id" db:"id"`
	AssetID       int        `json:"asset_id" db:"asset_id"`
	Name          string     `json:"name" db:"name"`
	ScheduleType  string     `json:"schedule_type" db:"schedule_type"`
	Frequency     string     `json:"frequency,omitempty" db:"frequency"`
	IntervalValue int        `json:"interval_value,omitempty" db:"interval_value"`
	IntervalUnit  string     `json:"interval_unit,omitempty" db:"interval_unit"`
	UsageMetric   string     `json:"usage_metric,omitempty" db:"usage_metric"`
	UsageInterval int        `json:"usage_interval,omitempty" db:"usage_interval"`
	NextDueDate   *time.Time `json:"next_due_date,omitempty" db:"next_due_date"`
	NextDueUsage  *int       `json:"next_due_usage,omitempty" db:"next_due_usage"`
	LastPerformed *time.Time `json:"last_performed,omitempty" db:"last_performed"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// MaintenanceLog is an immutable record of one performed maintenance action.
type MaintenanceLog struct {
	ID           int       `json:"id" db:"id"`
	AssetID      int       `json:"asset_id" db:"asset_id"`
	ScheduleID   *int      `json:"schedule_id,omitempty" db:"schedule_id"`
	Type         string    `json:"type" db:"type"`
	Summary      string    `json:"summary" db:"summary"`
	Cost         *float64  `json:"cost,omitempty" db:"cost"`
	PartsChanged *string   `json:"parts_changed,omitempty" db:"parts_changed"`
	Readings     *string   `json:"readings,omitempty" db:"readings"`
	PerformedBy  int       `json:"performed_by" db:"performed_by"`
	PerformedAt  time.Time `json:"performed_at" db:"performed_at"`
}

func (l *MaintenanceLog) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   l.ID,
		ResourceType: "maintenance_log",
	}
}

func (s *PMSchedule) CreateLogView() AuditLog {
	return AuditLog{
		ResourceID:   s.ID,
		ResourceType: "pm_schedule",
	}
}
