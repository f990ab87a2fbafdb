package services

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestDailyChecker_IsDue(t *testing.T) {
	checker := DailyChecker{}
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	templateDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		lastRun time.Time
		want    bool
	}{
		{
			name:    "never materialized - is due",
			lastRun: time.Time{},
			want:    true,
		},
		{
			name:    "materialized today - not due",
			lastRun: time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC),
			want:    false,
		},
		{
			name:    "materialized yesterday - is due",
			lastRun: time.Date(2024, 1, 14, 12, 0, 0, 0, time.UTC),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastRun, now, templateDate)
			if got != tt.want {
				t.Errorf("DailyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyChecker_IsDue(t *testing.T) {
	checker := WeeklyChecker{}
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	templateDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		lastRun time.Time
		want    bool
	}{
		{
			name:    "never materialized - is due",
			lastRun: time.Time{},
			want:    true,
		},
		{
			name:    "materialized 3 days ago - not due",
			lastRun: time.Date(2024, 1, 12, 12, 0, 0, 0, time.UTC),
			want:    false,
		},
		{
			name:    "materialized 7 days ago - is due",
			lastRun: time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC),
			want:    true,
		},
		{
			name:    "materialized 10 days ago - is due",
			lastRun: time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastRun, now, templateDate)
			if got != tt.want {
				t.Errorf("WeeklyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker_IsDue(t *testing.T) {
	checker := MonthlyChecker{}

	tests := []struct {
		name         string
		lastRun      time.Time
		now          time.Time
		templateDate time.Time
		want         bool
	}{
		{
			name:         "never materialized - is due",
			lastRun:      time.Time{},
			now:          time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
			templateDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			want:         true,
		},
		{
			name:         "already materialized this month - not due",
			lastRun:      time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
			now:          time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
			templateDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			want:         false,
		},
		{
			name:         "new month, target day reached - is due",
			lastRun:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			now:          time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
			templateDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			want:         true,
		},
		{
			name:         "new month, target day not yet reached - not due",
			lastRun:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			now:          time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
			templateDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			want:         false,
		},
		{
			name:         "day 31 template clamps to end of February",
			lastRun:      time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			now:          time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			templateDate: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
			want:         true,
		},
		{
			name:         "day 31 template before end of February - not due",
			lastRun:      time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			now:          time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
			templateDate: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastRun, tt.now, tt.templateDate)
			if got != tt.want {
				t.Errorf("MonthlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestYearlyChecker_IsDue(t *testing.T) {
	checker := YearlyChecker{}
	templateDate := time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		lastRun time.Time
		now     time.Time
		want    bool
	}{
		{
			name:    "never materialized - is due",
			lastRun: time.Time{},
			now:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			want:    true,
		},
		{
			name:    "already materialized this year - not due",
			lastRun: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			now:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			want:    false,
		},
		{
			name:    "new year before target month - not due",
			lastRun: time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC),
			now:     time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
			want:    false,
		},
		{
			name:    "new year in target month on target day - is due",
			lastRun: time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC),
			now:     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			want:    true,
		},
		{
			name:    "new year past target month - is due",
			lastRun: time.Date(2023, 3, 10, 0, 0, 0, 0, time.UTC),
			now:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(tt.lastRun, tt.now, templateDate)
			if got != tt.want {
				t.Errorf("YearlyChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	for _, freq := range []core.Frequency{core.Daily, core.Weekly, core.Monthly, core.Yearly} {
		if _, err := GetDuenessChecker(freq); err != nil {
			t.Errorf("GetDuenessChecker(%s) error = %v", freq, err)
		}
	}
	if _, err := GetDuenessChecker("fortnightly"); err == nil {
		t.Error("GetDuenessChecker should reject unknown frequencies")
	}
}
