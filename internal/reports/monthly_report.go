package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fintrack/internal/core"
)

// DailySpend is one day's slice of a monthly report.
type DailySpend struct {
	Day   int        `json:"day"`
	Total core.Money `json:"totalAmount"`
	Count int        `json:"count"`
}

// MethodSpend groups a month's spending by payment method.
type MethodSpend struct {
	PaymentMethod string     `json:"paymentMethod"`
	Total         core.Money `json:"totalAmount"`
	Count         int        `json:"count"`
}

// MonthlyReport is the full month-in-review view.
type MonthlyReport struct {
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	Totals         MonthTotals     `json:"totals"`
	DailyBreakdown []DailySpend    `json:"dailyBreakdown"`
	Categories     []CategoryShare `json:"categoryBreakdown"`
	PaymentMethods []MethodSpend   `json:"paymentMethodBreakdown"`
	TopExpenses    []core.Expense  `json:"topExpenses"`
	Budget         BudgetStatus    `json:"budget"`
}

// MonthlyReport builds the month-in-review for the given calendar month.
// Zero year/month default to now; supplied values are range-checked.
func (e *Engine) MonthlyReport(ctx context.Context, user *core.User, year, month int) (*MonthlyReport, error) {
	now := e.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	verr := &core.ValidationError{}
	if year < 2020 || year > 2030 {
		verr.Add("year", "Year must be between 2020 and 2030")
	}
	if month < 1 || month > 12 {
		verr.Add("month", "Month must be between 1 and 12")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	start, end := monthBounds(year, time.Month(month))
	expenses, err := e.expenses.ExpensesInRange(ctx, user.ID, start, end)
	if err != nil {
		return nil, fmt.Errorf("gather monthly expenses: %w", err)
	}

	total := sumCents(expenses)
	report := &MonthlyReport{
		Year:  year,
		Month: month,
		Totals: MonthTotals{
			Total:   core.Money{Cents: total},
			Count:   len(expenses),
			Average: averageCents(total, len(expenses)),
		},
		DailyBreakdown: dailyBreakdown(expenses),
		Categories:     topCategories(expenses, total, len(core.ExpenseCategories)),
		PaymentMethods: methodBreakdown(expenses),
		TopExpenses:    topExpenses(expenses, 10),
		Budget:         budgetStatus(user.MonthlyBudget, total),
	}
	return report, nil
}

func dailyBreakdown(expenses []core.Expense) []DailySpend {
	byDay := map[int]*DailySpend{}
	for _, e := range expenses {
		day := e.Date.Day()
		d, ok := byDay[day]
		if !ok {
			d = &DailySpend{Day: day}
			byDay[day] = d
		}
		d.Total.Cents += e.Amount.Cents
		d.Count++
	}
	days := make([]DailySpend, 0, len(byDay))
	for _, d := range byDay {
		days = append(days, *d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })
	return days
}

func methodBreakdown(expenses []core.Expense) []MethodSpend {
	byMethod := map[string]*MethodSpend{}
	var order []string
	for _, e := range expenses {
		m, ok := byMethod[e.PaymentMethod]
		if !ok {
			m = &MethodSpend{PaymentMethod: e.PaymentMethod}
			byMethod[e.PaymentMethod] = m
			order = append(order, e.PaymentMethod)
		}
		m.Total.Cents += e.Amount.Cents
		m.Count++
	}
	methods := make([]MethodSpend, 0, len(order))
	for _, name := range order {
		methods = append(methods, *byMethod[name])
	}
	sort.SliceStable(methods, func(i, j int) bool {
		return methods[i].Total.Cents > methods[j].Total.Cents
	})
	return methods
}

func topExpenses(expenses []core.Expense, limit int) []core.Expense {
	sorted := make([]core.Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Amount.Cents > sorted[j].Amount.Cents
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
