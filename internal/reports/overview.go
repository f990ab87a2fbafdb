package reports

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
)

// MonthTotals aggregates one calendar month of spending.
type MonthTotals struct {
	Total   core.Money `json:"totalAmount"`
	Count   int        `json:"count"`
	Average core.Money `json:"averageAmount"`
}

// CategoryShare is a category's slice of a period's spending.
type CategoryShare struct {
	Category   string     `json:"category"`
	Total      core.Money `json:"totalAmount"`
	Count      int        `json:"count"`
	Percentage float64    `json:"percentage"`
}

// GoalCounts summarizes the user's goals across all statuses.
type GoalCounts struct {
	ByStatus     map[string]int `json:"byStatus"`
	TotalTarget  core.Money     `json:"totalTargetAmount"`
	TotalCurrent core.Money     `json:"totalCurrentAmount"`
}

// BudgetStatus compares a month's spending to the user's monthly budget.
// The budget is configuration, never enforcement.
type BudgetStatus struct {
	MonthlyBudget core.Money `json:"monthlyBudget"`
	Spent         core.Money `json:"spent"`
	PercentUsed   float64    `json:"percentUsed"`
	Remaining     core.Money `json:"remaining"`
	OverBudget    bool       `json:"isOverBudget"`
}

// Overview is the dashboard landing view.
type Overview struct {
	CurrentMonth     MonthTotals     `json:"currentMonth"`
	PreviousMonth    MonthTotals     `json:"previousMonth"`
	PercentageChange float64         `json:"percentageChange"`
	TopCategories    []CategoryShare `json:"topCategories"`
	Goals            GoalCounts      `json:"goals"`
	RecentExpenses   []core.Expense  `json:"recentExpenses"`
	Budget           BudgetStatus    `json:"budget"`
}

// Overview computes the dashboard overview for the user as of now. The
// four independent reads run concurrently.
func (e *Engine) Overview(ctx context.Context, user *core.User) (*Overview, error) {
	now := e.now()
	curStart, curEnd := monthBounds(now.Year(), now.Month())
	prevAnchor := curStart.AddDate(0, -1, 0)
	prevStart, prevEnd := monthBounds(prevAnchor.Year(), prevAnchor.Month())

	var (
		current, previous, recent []core.Expense
		goals                     []core.Goal
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = e.expenses.ExpensesInRange(gctx, user.ID, curStart, curEnd)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = e.expenses.ExpensesInRange(gctx, user.ID, prevStart, prevEnd)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = e.expenses.RecentExpenses(gctx, user.ID, 5)
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = e.goals.GoalsByOwner(gctx, user.ID, "", "")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("gather overview data: %w", err)
	}

	curTotal := sumCents(current)
	prevTotal := sumCents(previous)

	ov := &Overview{
		CurrentMonth: MonthTotals{
			Total:   core.Money{Cents: curTotal},
			Count:   len(current),
			Average: averageCents(curTotal, len(current)),
		},
		PreviousMonth: MonthTotals{
			Total:   core.Money{Cents: prevTotal},
			Count:   len(previous),
			Average: averageCents(prevTotal, len(previous)),
		},
		PercentageChange: percentChange(curTotal, prevTotal),
		TopCategories:    topCategories(current, curTotal, 10),
		Goals:            countGoals(goals),
		RecentExpenses:   recent,
		Budget:           budgetStatus(user.MonthlyBudget, curTotal),
	}
	return ov, nil
}

func topCategories(expenses []core.Expense, total int64, limit int) []CategoryShare {
	byCat := map[string]*CategoryShare{}
	var order []string
	for _, e := range expenses {
		s, ok := byCat[e.Category]
		if !ok {
			s = &CategoryShare{Category: e.Category}
			byCat[e.Category] = s
			order = append(order, e.Category)
		}
		s.Total.Cents += e.Amount.Cents
		s.Count++
	}

	shares := make([]CategoryShare, 0, len(order))
	for _, cat := range order {
		s := byCat[cat]
		s.Percentage = share(s.Total.Cents, total)
		shares = append(shares, *s)
	}
	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Total.Cents > shares[j].Total.Cents
	})
	if len(shares) > limit {
		shares = shares[:limit]
	}
	return shares
}

func countGoals(goals []core.Goal) GoalCounts {
	counts := GoalCounts{ByStatus: map[string]int{}}
	for _, st := range core.GoalStatuses {
		counts.ByStatus[st] = 0
	}
	for _, g := range goals {
		counts.ByStatus[g.Status]++
		counts.TotalTarget.Cents += g.TargetAmount.Cents
		counts.TotalCurrent.Cents += g.CurrentAmount.Cents
	}
	return counts
}

func budgetStatus(budget core.Money, spentCents int64) BudgetStatus {
	bs := BudgetStatus{
		MonthlyBudget: budget,
		Spent:         core.Money{Cents: spentCents},
	}
	if budget.Cents > 0 {
		bs.PercentUsed = round2(float64(spentCents) / float64(budget.Cents) * 100)
	}
	if remaining := budget.Cents - spentCents; remaining > 0 {
		bs.Remaining = core.Money{Cents: remaining}
	}
	bs.OverBudget = bs.PercentUsed > 100
	return bs
}
