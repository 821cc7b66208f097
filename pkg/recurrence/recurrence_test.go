package recurrence

import (
	"testing"
	"time"

	"assetdesk/pkg/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDue(t *testing.T) {
	now := date(2025, time.January, 15)

	tests := []struct {
		name     string
		schedule models.PMSchedule
		want     *time.Time
	}{
		{
			"monthly times three",
			models.PMSchedule{ScheduleType: models.ScheduleTypeTime, Frequency: models.FrequencyMonthly, IntervalValue: 3},
			ptr(date(2025, time.April, 15)),
		},
		{
			"daily defaults interval to one",
			models.PMSchedule{ScheduleType: models.ScheduleTypeTime, Frequency: models.FrequencyDaily},
			ptr(date(2025, time.January, 16)),
		},
		{
			"weekly times two",
			models.PMSchedule{ScheduleType: models.ScheduleTypeTime, Frequency: models.FrequencyWeekly, IntervalValue: 2},
			ptr(date(2025, time.January, 29)),
		},
		{
			"quarterly ignores interval value",
			models.PMSchedule{ScheduleType: models.ScheduleTypeTime, Frequency: models.FrequencyQuarterly, IntervalValue: 7},
			ptr(date(2025, time.April, 15)),
		},
		{
			"yearly",
			models.PMSchedule{ScheduleType: models.ScheduleTypeTime, Frequency: models.FrequencyYearly, IntervalValue: 2},
			ptr(date(2027, time.January, 15)),
		},
		{
			"generic interval unit fallback",
			models.PMSchedule{ScheduleType: models.ScheduleTypeTime, IntervalUnit: UnitWeeks, IntervalValue: 3},
			ptr(date(2025, time.February, 5)),
		},
		{
			"usage schedule yields nil",
			models.PMSchedule{ScheduleType: models.ScheduleTypeUsage, UsageMetric: "print_count", UsageInterval: 5000},
			nil,
		},
		{
			"no matching rule yields nil",
			models.PMSchedule{ScheduleType: models.ScheduleTypeTime, Frequency: "fortnightly"},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextDue(tt.schedule, now)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("NextDue() = %v, want %v", got, tt.want)
			}
			if got != nil && !got.Equal(*tt.want) {
				t.Errorf("NextDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		schedule models.PMSchedule
		wantErr  bool
	}{
		{"valid monthly", models.PMSchedule{ScheduleType: models.ScheduleTypeTime, Frequency: models.FrequencyMonthly, IntervalValue: 1}, false},
		{"valid generic unit", models.PMSchedule{ScheduleType: models.ScheduleTypeTime, IntervalUnit: UnitDays, IntervalValue: 30}, false},
		{"valid usage", models.PMSchedule{ScheduleType: models.ScheduleTypeUsage, UsageMetric: "engine_hours", UsageInterval: 250}, false},
		{"unresolvable time rule", models.PMSchedule{ScheduleType: models.ScheduleTypeTime, Frequency: "fortnightly"}, true},
		{"usage without metric", models.PMSchedule{ScheduleType: models.ScheduleTypeUsage, UsageInterval: 100}, true},
		{"usage without interval", models.PMSchedule{ScheduleType: models.ScheduleTypeUsage, UsageMetric: "cycles"}, true},
		{"unknown schedule type", models.PMSchedule{ScheduleType: "lunar"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.schedule); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
