package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

const (
	StatusActive    = "Active"
	StatusCompleted = "Completed"
	StatusPaused    = "Paused"
	StatusCancelled = "Cancelled"
)

// DefaultPaymentMethod is applied when a request omits the field.
const DefaultPaymentMethod = "Cash"

// ExpenseCategories is the fixed set of labels an expense may carry.
var ExpenseCategories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Education",
	"Travel",
	"Groceries",
	"Personal Care",
	"Home & Garden",
	"Gifts & Donations",
	"Business",
	"Investments",
	"Other",
}

// GoalCategories is the fixed set of labels a savings goal may carry.
var GoalCategories = []string{
	"Emergency Fund",
	"Vacation",
	"Education",
	"Home",
	"Car",
	"Wedding",
	"Retirement",
	"Investment",
	"Health",
	"Technology",
	"Other",
}

// PaymentMethods is the fixed set of accepted payment method labels.
var PaymentMethods = []string{
	"Cash",
	"Credit Card",
	"Debit Card",
	"Bank Transfer",
	"Digital Wallet",
	"Other",
}

var GoalStatuses = []string{StatusActive, StatusCompleted, StatusPaused, StatusCancelled}

var GoalPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

var ErrInvalidAmount = errors.New("invalid amount")

type (
	Frequency string

	// RecurringSpec marks an expense as a recurring template. Frequency is
	// required exactly when IsRecurring is set; EndDate stops the series.
	RecurringSpec struct {
		IsRecurring bool       `json:"isRecurring"`
		Frequency   Frequency  `json:"frequency,omitempty"`
		EndDate     *time.Time `json:"endDate,omitempty"`
	}

	// Expense is a single spending record, exclusively owned by one user.
	Expense struct {
		ID            string        `json:"id"`
		UserID        string        `json:"-"`
		Title         string        `json:"title"`
		Amount        Money         `json:"amount"`
		Category      string        `json:"category"`
		Description   string        `json:"description,omitempty"`
		Date          time.Time     `json:"date"`
		PaymentMethod string        `json:"paymentMethod"`
		Tags          []string      `json:"tags,omitempty"`
		Recurring     RecurringSpec `json:"recurring"`
		Receipt       string        `json:"receipt,omitempty"`
		CreatedAt     time.Time     `json:"createdAt"`
		UpdatedAt     time.Time     `json:"updatedAt"`
	}

	// AutoContributeSpec configures scheduled contributions to a goal.
	AutoContributeSpec struct {
		Enabled   bool      `json:"enabled"`
		Amount    Money     `json:"amount,omitempty"`
		Frequency Frequency `json:"frequency,omitempty"`
	}

	// Goal is a savings target with a deadline and a running total fed by
	// its contribution ledger. CurrentAmount equals the sum of recorded
	// contributions unless a client seeds it through a direct update.
	Goal struct {
		ID             string             `json:"id"`
		UserID         string             `json:"-"`
		Title          string             `json:"title"`
		Description    string             `json:"description,omitempty"`
		TargetAmount   Money              `json:"targetAmount"`
		CurrentAmount  Money              `json:"currentAmount"`
		TargetDate     time.Time          `json:"targetDate"`
		Category       string             `json:"category"`
		Priority       string             `json:"priority"`
		Status         string             `json:"status"`
		AutoContribute AutoContributeSpec `json:"autoContribute"`
		CreatedAt      time.Time          `json:"createdAt"`
		UpdatedAt      time.Time          `json:"updatedAt"`
	}

	// Contribution is a single deposit event against a goal. It is owned
	// by the goal, immutable once recorded, and deleted only with its
	// parent.
	Contribution struct {
		ID     string    `json:"id"`
		GoalID string    `json:"-"`
		Amount Money     `json:"amount"`
		Date   time.Time `json:"date"`
		Note   string    `json:"note,omitempty"`
	}

	// User carries the per-user reporting configuration. The aggregation
	// engine reads currency and monthly budget, never writes them.
	User struct {
		ID            string    `json:"id"`
		Email         string    `json:"email"`
		Name          string    `json:"name"`
		PasswordHash  string    `json:"-"`
		Currency      string    `json:"currency"`
		MonthlyBudget Money     `json:"monthlyBudget"`
		CreatedAt     time.Time `json:"createdAt"`
	}
)

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// ValidFrequency reports whether f is one of the enumerated frequencies.
func ValidFrequency(f Frequency) bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Validate checks every field constraint and reports all violations.
func (e Expense) Validate() error {
	ve := &ValidationError{}
	if strings.TrimSpace(e.Title) == "" {
		ve.Add("title", "Title is required")
	} else if len(e.Title) > 100 {
		ve.Add("title", "Title cannot exceed 100 characters")
	}
	if e.Amount.Cents <= 0 {
		ve.Add("amount", "Amount must be greater than 0")
	}
	if !contains(ExpenseCategories, e.Category) {
		ve.Add("category", "Category must be one of the predefined values")
	}
	if len(e.Description) > 500 {
		ve.Add("description", "Description cannot exceed 500 characters")
	}
	if !contains(PaymentMethods, e.PaymentMethod) {
		ve.Add("paymentMethod", "Payment method must be one of the predefined values")
	}
	if e.Recurring.IsRecurring {
		if !ValidFrequency(e.Recurring.Frequency) {
			ve.Add("recurring.frequency", "Frequency is required for recurring expenses")
		}
	} else if e.Recurring.Frequency != "" {
		ve.Add("recurring.frequency", "Frequency is only allowed on recurring expenses")
	}
	return ve.OrNil()
}

// Validate checks every field constraint and reports all violations.
// The target date is required to be strictly after now only when
// enforceFutureTarget is set; updates that leave the date untouched skip
// the check so a goal may legitimately run overdue while Active.
func (g Goal) Validate(now time.Time, enforceFutureTarget bool) error {
	ve := &ValidationError{}
	if strings.TrimSpace(g.Title) == "" {
		ve.Add("title", "Title is required")
	} else if len(g.Title) > 100 {
		ve.Add("title", "Title cannot exceed 100 characters")
	}
	if len(g.Description) > 500 {
		ve.Add("description", "Description cannot exceed 500 characters")
	}
	if g.TargetAmount.Cents <= 0 {
		ve.Add("targetAmount", "Target amount must be greater than 0")
	}
	if g.CurrentAmount.Cents < 0 {
		ve.Add("currentAmount", "Current amount cannot be negative")
	}
	if g.TargetDate.IsZero() {
		ve.Add("targetDate", "Target date is required")
	} else if enforceFutureTarget && !g.TargetDate.After(now) {
		ve.Add("targetDate", "Target date must be in the future")
	}
	if !contains(GoalCategories, g.Category) {
		ve.Add("category", "Category must be one of the predefined values")
	}
	if !contains(GoalPriorities, g.Priority) {
		ve.Add("priority", "Priority must be Low, Medium or High")
	}
	if !contains(GoalStatuses, g.Status) {
		ve.Add("status", "Status must be Active, Completed, Paused or Cancelled")
	}
	if g.AutoContribute.Enabled {
		if g.AutoContribute.Amount.Cents <= 0 {
			ve.Add("autoContribute.amount", "Auto-contribute amount must be greater than 0")
		}
		if !ValidFrequency(g.AutoContribute.Frequency) {
			ve.Add("autoContribute.frequency", "Frequency is required when auto-contribute is enabled")
		}
	}
	return ve.OrNil()
}

// Validate checks the contribution constraints and reports all violations.
func (c Contribution) Validate() error {
	ve := &ValidationError{}
	if c.Amount.Cents <= 0 {
		ve.Add("amount", "Contribution amount must be greater than 0")
	}
	if len(c.Note) > 200 {
		ve.Add("note", "Note cannot exceed 200 characters")
	}
	return ve.OrNil()
}
