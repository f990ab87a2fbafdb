package core

import (
	"strings"
	"testing"
	"time"
)

func validExpense() Expense {
	return Expense{
		Title:         "Coffee",
		Amount:        Money{Cents: 450},
		Category:      "Food & Dining",
		PaymentMethod: "Cash",
		Date:          time.Now(),
	}
}

func TestExpenseValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Expense)
		wantFields []string
	}{
		{
			name:   "valid expense",
			mutate: func(e *Expense) {},
		},
		{
			name:       "empty title",
			mutate:     func(e *Expense) { e.Title = "   " },
			wantFields: []string{"title"},
		},
		{
			name:       "title too long",
			mutate:     func(e *Expense) { e.Title = strings.Repeat("x", 101) },
			wantFields: []string{"title"},
		},
		{
			name:       "zero amount",
			mutate:     func(e *Expense) { e.Amount = Money{} },
			wantFields: []string{"amount"},
		},
		{
			name:       "unknown category",
			mutate:     func(e *Expense) { e.Category = "Bribes" },
			wantFields: []string{"category"},
		},
		{
			name:       "description too long",
			mutate:     func(e *Expense) { e.Description = strings.Repeat("d", 501) },
			wantFields: []string{"description"},
		},
		{
			name:       "unknown payment method",
			mutate:     func(e *Expense) { e.PaymentMethod = "Barter" },
			wantFields: []string{"paymentMethod"},
		},
		{
			name:       "recurring without frequency",
			mutate:     func(e *Expense) { e.Recurring.IsRecurring = true },
			wantFields: []string{"recurring.frequency"},
		},
		{
			name:       "frequency without recurring flag",
			mutate:     func(e *Expense) { e.Recurring.Frequency = Weekly },
			wantFields: []string{"recurring.frequency"},
		},
		{
			name: "all violations reported at once",
			mutate: func(e *Expense) {
				e.Title = ""
				e.Amount = Money{Cents: -5}
				e.Category = "nope"
			},
			wantFields: []string{"title", "amount", "category"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense()
			tt.mutate(&e)
			err := e.Validate()
			assertFieldErrors(t, err, tt.wantFields)
		})
	}
}

func validGoal(now time.Time) Goal {
	return Goal{
		Title:        "Emergency fund",
		TargetAmount: Money{Cents: 100000},
		TargetDate:   now.AddDate(0, 6, 0),
		Category:     "Emergency Fund",
		Priority:     PriorityMedium,
		Status:       StatusActive,
		CreatedAt:    now,
	}
}

func TestGoalValidate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		mutate        func(*Goal)
		enforceFuture bool
		wantFields    []string
	}{
		{
			name:          "valid goal",
			mutate:        func(g *Goal) {},
			enforceFuture: true,
		},
		{
			name:          "past target date rejected on create",
			mutate:        func(g *Goal) { g.TargetDate = now.AddDate(0, 0, -1) },
			enforceFuture: true,
			wantFields:    []string{"targetDate"},
		},
		{
			name:          "past target date tolerated when unchanged",
			mutate:        func(g *Goal) { g.TargetDate = now.AddDate(0, 0, -1) },
			enforceFuture: false,
		},
		{
			name:          "target date equal to now is not future",
			mutate:        func(g *Goal) { g.TargetDate = now },
			enforceFuture: true,
			wantFields:    []string{"targetDate"},
		},
		{
			name:          "zero target amount",
			mutate:        func(g *Goal) { g.TargetAmount = Money{} },
			enforceFuture: true,
			wantFields:    []string{"targetAmount"},
		},
		{
			name:          "negative current amount",
			mutate:        func(g *Goal) { g.CurrentAmount = Money{Cents: -1} },
			enforceFuture: true,
			wantFields:    []string{"currentAmount"},
		},
		{
			name:          "unknown status",
			mutate:        func(g *Goal) { g.Status = "Archived" },
			enforceFuture: true,
			wantFields:    []string{"status"},
		},
		{
			name:          "auto contribute needs amount and frequency",
			mutate:        func(g *Goal) { g.AutoContribute.Enabled = true },
			enforceFuture: true,
			wantFields:    []string{"autoContribute.amount", "autoContribute.frequency"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := validGoal(now)
			tt.mutate(&g)
			err := g.Validate(now, tt.enforceFuture)
			assertFieldErrors(t, err, tt.wantFields)
		})
	}
}

func TestContributionValidate(t *testing.T) {
	c := Contribution{Amount: Money{Cents: 100}}
	if err := c.Validate(); err != nil {
		t.Fatalf("valid contribution rejected: %v", err)
	}

	c = Contribution{Amount: Money{}, Note: strings.Repeat("n", 201)}
	assertFieldErrors(t, c.Validate(), []string{"amount", "note"})
}

func assertFieldErrors(t *testing.T, err error, wantFields []string) {
	t.Helper()
	if len(wantFields) == 0 {
		if err != nil {
			t.Fatalf("unexpected validation error: %v", err)
		}
		return
	}
	ve, ok := AsValidation(err)
	if !ok {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Fields) != len(wantFields) {
		t.Fatalf("got %d field errors (%v), want %d (%v)", len(ve.Fields), ve.Fields, len(wantFields), wantFields)
	}
	for i, want := range wantFields {
		if ve.Fields[i].Field != want {
			t.Errorf("field error %d = %q, want %q", i, ve.Fields[i].Field, want)
		}
	}
}
