package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// ExpenseService orchestrates expense operations across SQLite and AMQP.
type ExpenseService struct {
	storage    *storage.Repository
	amqpClient *amqp.Client
}

func NewExpenseService(storage *storage.Repository, amqpClient *amqp.Client) *ExpenseService {
	return &ExpenseService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// Create validates and persists a new expense for the user, then
// publishes an export message. A missing date defaults to now and a
// missing payment method to the default.
func (s *ExpenseService) Create(ctx context.Context, userID string, e *core.Expense) (*core.Expense, error) {
	e.UserID = userID
	if e.PaymentMethod == "" {
		e.PaymentMethod = core.DefaultPaymentMethod
	}
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}

	if err := s.storage.CreateExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("save expense: %w", err)
	}

	// Publish async export message (non-blocking, version 1 for new expense)
	if err := s.publishExportMessage(ctx, e.ID, 1); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"id", e.ID, "error", err)
		// Don't fail the request - expense is saved locally
	}

	return e, nil
}

// Get returns the user's expense or core.ErrNotFound.
func (s *ExpenseService) Get(ctx context.Context, userID, id string) (*core.Expense, error) {
	return s.storage.ExpenseByID(ctx, userID, id)
}

// ExpenseUpdate carries the optional fields of an update request. Nil
// fields leave the stored value untouched.
type ExpenseUpdate struct {
	Title         *string
	Amount        *core.Money
	Category      *string
	Description   *string
	Date          *time.Time
	PaymentMethod *string
	Tags          *[]string
	Recurring     *core.RecurringSpec
	Receipt       *string
}

// Update applies a partial update to the user's expense. The merged
// record is re-validated as a whole before it is written, so a patch can
// never leave an invalid expense behind.
func (s *ExpenseService) Update(ctx context.Context, userID, id string, u ExpenseUpdate) (*core.Expense, error) {
	e, err := s.storage.ExpenseByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if u.Title != nil {
		e.Title = *u.Title
	}
	if u.Amount != nil {
		e.Amount = *u.Amount
	}
	if u.Category != nil {
		e.Category = *u.Category
	}
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Date != nil {
		e.Date = *u.Date
	}
	if u.PaymentMethod != nil {
		e.PaymentMethod = *u.PaymentMethod
	}
	if u.Tags != nil {
		e.Tags = *u.Tags
	}
	if u.Recurring != nil {
		e.Recurring = *u.Recurring
	}
	if u.Receipt != nil {
		e.Receipt = *u.Receipt
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}

	if err := s.storage.UpdateExpense(ctx, e); err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}

	// Bump the export version so a stale delivery never wins.
	if err := s.publishExportMessage(ctx, e.ID, 2); err != nil {
		slog.ErrorContext(ctx, "Failed to publish export message",
			"id", e.ID, "error", err)
	}

	return e, nil
}

// Delete removes the user's expense or returns core.ErrNotFound.
func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	return s.storage.DeleteExpense(ctx, userID, id)
}

// List returns a filtered, paginated page of the user's expenses with a
// summary over the whole filtered set.
func (s *ExpenseService) List(ctx context.Context, userID string, f storage.ExpenseFilter) ([]core.Expense, storage.ExpenseSummary, error) {
	return s.storage.ListExpenses(ctx, userID, f)
}

// CategorySummary aggregates the user's spending per category over an
// optional date range.
func (s *ExpenseService) CategorySummary(ctx context.Context, userID string, from, to *time.Time) ([]storage.CategoryStat, error) {
	return s.storage.CategorySummary(ctx, userID, from, to)
}

func (s *ExpenseService) publishExportMessage(ctx context.Context, id string, version int64) error {
	if s.amqpClient == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping export message")
		return nil
	}
	return s.amqpClient.PublishExpenseExport(ctx, id, version)
}
