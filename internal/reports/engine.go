// Package reports derives dashboard metrics from expense and goal data.
// Every operation is a query plus a fold over live records; nothing here
// is persisted, so the numbers can never go stale.
package reports

import (
	"context"
	"math"
	"time"

	"fintrack/internal/core"
)

// ExpenseSource supplies the expense records a report folds over.
type ExpenseSource interface {
	ExpensesInRange(ctx context.Context, userID string, from, to time.Time) ([]core.Expense, error)
	RecentExpenses(ctx context.Context, userID string, limit int) ([]core.Expense, error)
}

// GoalSource supplies goals and their contribution ledgers.
type GoalSource interface {
	GoalsByOwner(ctx context.Context, userID, status, category string) ([]core.Goal, error)
	Contributions(ctx context.Context, userID, goalID string) ([]core.Contribution, error)
}

// Engine computes every dashboard view. The clock is injectable so the
// time-window arithmetic stays testable.
type Engine struct {
	expenses ExpenseSource
	goals    GoalSource
	now      func() time.Time
}

func NewEngine(expenses ExpenseSource, goals GoalSource) *Engine {
	return &Engine{
		expenses: expenses,
		goals:    goals,
		now:      time.Now,
	}
}

// WithClock replaces the engine's clock; intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// monthBounds returns the inclusive range covering the given calendar
// month in UTC.
func monthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// percentChange is (current-previous)/previous*100, defined as 0 when
// the previous value is 0 rather than undefined.
func percentChange(current, previous int64) float64 {
	if previous == 0 {
		return 0
	}
	return round2(float64(current-previous) / float64(previous) * 100)
}

// share is part/total*100, 0 when the total is 0.
func share(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// averageCents divides integer cents, rounding half up, 0 for count 0.
func averageCents(total int64, count int) core.Money {
	if count == 0 {
		return core.Money{}
	}
	return core.Money{Cents: int64(math.Round(float64(total) / float64(count)))}
}

func sumCents(expenses []core.Expense) int64 {
	var total int64
	for _, e := range expenses {
		total += e.Amount.Cents
	}
	return total
}
