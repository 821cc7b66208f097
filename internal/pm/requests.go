package pm

type CreateScheduleRequest struct {
	AssetID       int    `json:"asset_id" binding:"required"`
	Name          string `json:"name" binding:"required"`
	ScheduleType  string `json:"schedule_type" binding:"required"`
	Frequency     string `json:"frequency,omitempty"`
	IntervalValue int    `json:"interval_value,omitempty"`
	IntervalUnit  string `json:"interval_unit,omitempty"`
	UsageMetric   string `json:"usage_metric,omitempty"`
	UsageInterval int    `json:"usage_interval,omitempty"`
}

type UpdateScheduleRequest struct {
	Name          *string `json:"name,omitempty"`
	Frequency     *string `json:"frequency,omitempty"`
	IntervalValue *int    `json:"interval_value,omitempty"`
	IntervalUnit  *string `json:"interval_unit,omitempty"`
	UsageInterval *int    `json:"usage_interval,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

type ExecuteRequest struct {
	Summary      string   `json:"summary" binding:"required"`
	Cost         *float64 `json:"cost,omitempty"`
	PartsChanged *string  `json:"parts_changed,omitempty"`
	Readings     *string  `json:"readings,omitempty"`
}

type ManualMaintenanceRequest struct {
	AssetID      int      `json:"asset_id" binding:"required"`
	Summary      string   `json:"summary" binding:"required"`
	Cost         *float64 `json:"cost,omitempty"`
	PartsChanged *string  `json:"parts_changed,omitempty"`
	Readings     *string  `json:"readings,omitempty"`
}

type AdvanceUsageRequest struct {
	Metric string `json:"metric" binding:"required"`
	Delta  int    `json:"delta" binding:"required"`
}
