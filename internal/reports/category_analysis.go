package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fintrack/internal/core"
)

// CategoryTransaction is the short transaction form embedded in a
// category breakdown.
type CategoryTransaction struct {
	Title  string     `json:"title"`
	Amount core.Money `json:"amount"`
	Date   time.Time  `json:"date"`
}

// CategoryBreakdown is the full per-category analysis for one period.
type CategoryBreakdown struct {
	Category         string                `json:"category"`
	Total            core.Money            `json:"totalAmount"`
	Count            int                   `json:"count"`
	Average          core.Money            `json:"averageAmount"`
	Min              core.Money            `json:"minAmount"`
	Max              core.Money            `json:"maxAmount"`
	Percentage       float64               `json:"percentage"`
	PreviousTotal    core.Money            `json:"previousAmount"`
	PercentageChange float64               `json:"percentageChange"`
	Recent           []CategoryTransaction `json:"recentTransactions"`
}

// CategoryAnalysis compares per-category spending in a period against the
// immediately preceding period of equal length.
type CategoryAnalysis struct {
	StartDate  time.Time           `json:"startDate"`
	EndDate    time.Time           `json:"endDate"`
	Total      core.Money          `json:"totalAmount"`
	Categories []CategoryBreakdown `json:"categories"`
}

// CategoryAnalysis breaks the user's spending down by category. Bounds
// default to the current calendar month.
func (e *Engine) CategoryAnalysis(ctx context.Context, userID string, start, end *time.Time) (*CategoryAnalysis, error) {
	now := e.now()
	from, to := monthBounds(now.Year(), now.Month())
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}
	if to.Before(from) {
		verr := &core.ValidationError{}
		verr.Add("endDate", "endDate must not be before startDate")
		return nil, verr
	}

	// Previous period of equal length, immediately preceding. Range
	// bounds are inclusive, so the previous window must stop just short
	// of the current one or an expense dated exactly at the period start
	// would be counted twice.
	span := to.Sub(from)
	prevFrom := from.Add(-span)
	prevTo := from.Add(-time.Nanosecond)

	current, err := e.expenses.ExpensesInRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("gather category expenses: %w", err)
	}
	previous, err := e.expenses.ExpensesInRange(ctx, userID, prevFrom, prevTo)
	if err != nil {
		return nil, fmt.Errorf("gather previous-period expenses: %w", err)
	}

	prevTotals := map[string]int64{}
	for _, exp := range previous {
		prevTotals[exp.Category] += exp.Amount.Cents
	}

	byCat := map[string][]core.Expense{}
	var order []string
	for _, exp := range current {
		if _, seen := byCat[exp.Category]; !seen {
			order = append(order, exp.Category)
		}
		byCat[exp.Category] = append(byCat[exp.Category], exp)
	}

	grandTotal := sumCents(current)
	breakdowns := make([]CategoryBreakdown, 0, len(order))
	for _, cat := range order {
		group := byCat[cat]
		total := sumCents(group)
		bd := CategoryBreakdown{
			Category:      cat,
			Total:         core.Money{Cents: total},
			Count:         len(group),
			Average:       averageCents(total, len(group)),
			Min:           core.Money{Cents: minCents(group)},
			Max:           core.Money{Cents: maxCents(group)},
			Percentage:    share(total, grandTotal),
			PreviousTotal: core.Money{Cents: prevTotals[cat]},
			Recent:        recentTransactions(group, 5),
		}
		bd.PercentageChange = percentChange(total, prevTotals[cat])
		breakdowns = append(breakdowns, bd)
	}
	sort.SliceStable(breakdowns, func(i, j int) bool {
		return breakdowns[i].Total.Cents > breakdowns[j].Total.Cents
	})

	return &CategoryAnalysis{
		StartDate:  from,
		EndDate:    to,
		Total:      core.Money{Cents: grandTotal},
		Categories: breakdowns,
	}, nil
}

func minCents(expenses []core.Expense) int64 {
	if len(expenses) == 0 {
		return 0
	}
	min := expenses[0].Amount.Cents
	for _, e := range expenses[1:] {
		if e.Amount.Cents < min {
			min = e.Amount.Cents
		}
	}
	return min
}

func maxCents(expenses []core.Expense) int64 {
	var max int64
	for _, e := range expenses {
		if e.Amount.Cents > max {
			max = e.Amount.Cents
		}
	}
	return max
}

func recentTransactions(expenses []core.Expense, limit int) []CategoryTransaction {
	sorted := make([]core.Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	out := make([]CategoryTransaction, len(sorted))
	for i, e := range sorted {
		out[i] = CategoryTransaction{Title: e.Title, Amount: e.Amount, Date: e.Date}
	}
	return out
}
