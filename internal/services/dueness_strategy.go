// Package services provides business logic and orchestration between the
// storage layer, the message broker and the reporting engine.
//
// This file implements the Strategy Pattern for recurring expense dueness
// checking. Each frequency (daily, weekly, monthly, yearly) has its own
// strategy encapsulating the logic for deciding when a template spawns
// its next occurrence.
package services

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// DuenessChecker is the strategy interface for checking if a recurring
// expense template is due for materialization.
type DuenessChecker interface {
	// IsDue returns true if the template should spawn an occurrence, given
	// the last materialization time, the current time and the template's
	// original date.
	IsDue(lastRun, now time.Time, templateDate time.Time) bool
}

// DailyChecker implements DuenessChecker for daily recurring expenses.
type DailyChecker struct{}

// IsDue returns true if the last run was before today.
func (DailyChecker) IsDue(lastRun, now time.Time, _ time.Time) bool {
	if lastRun.IsZero() {
		return true
	}
	return lastRun.Format("2006-01-02") != now.Format("2006-01-02")
}

// WeeklyChecker implements DuenessChecker for weekly recurring expenses.
type WeeklyChecker struct{}

// IsDue returns true if 7 or more days have passed since the last run.
func (WeeklyChecker) IsDue(lastRun, now time.Time, _ time.Time) bool {
	if lastRun.IsZero() {
		return true
	}
	daysSince := now.Sub(lastRun).Hours() / 24
	return daysSince >= 7
}

// MonthlyChecker implements DuenessChecker for monthly recurring expenses.
type MonthlyChecker struct{}

// IsDue returns true in a new month once the target day of month is
// reached. A target day past the month's end clamps to the last day, so
// a template dated the 31st still fires in February.
func (MonthlyChecker) IsDue(lastRun, now time.Time, templateDate time.Time) bool {
	if lastRun.IsZero() {
		return true
	}

	if lastRun.Year() == now.Year() && lastRun.Month() == now.Month() {
		return false
	}

	return now.Day() >= clampDay(templateDate.Day(), now)
}

// YearlyChecker implements DuenessChecker for yearly recurring expenses.
type YearlyChecker struct{}

// IsDue returns true in a new year once the target month and day are
// reached, with the same end-of-month clamping as MonthlyChecker.
func (YearlyChecker) IsDue(lastRun, now time.Time, templateDate time.Time) bool {
	if lastRun.IsZero() {
		return true
	}

	if lastRun.Year() == now.Year() {
		return false
	}

	targetMonth := templateDate.Month()
	if now.Month() < targetMonth {
		return false
	}
	if now.Month() == targetMonth {
		return now.Day() >= clampDay(templateDate.Day(), now)
	}
	return true
}

// clampDay bounds a target day of month to the current month's length.
func clampDay(targetDay int, now time.Time) int {
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		return lastDayOfMonth
	}
	return targetDay
}

// duenessStrategies maps frequencies to their corresponding checkers.
var duenessStrategies = map[core.Frequency]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency, or an error for
// an unsupported one.
func GetDuenessChecker(frequency core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return checker, nil
}
