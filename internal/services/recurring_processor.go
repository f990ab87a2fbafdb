package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// RecurringProcessor materializes expenses from recurring templates. Each
// due template spawns a plain, non-recurring expense dated at processing
// time.
type RecurringProcessor struct {
	storage        *storage.Repository
	expenseService *ExpenseService
}

func NewRecurringProcessor(storage *storage.Repository, expenseService *ExpenseService) *RecurringProcessor {
	return &RecurringProcessor{
		storage:        storage,
		expenseService: expenseService,
	}
}

// ProcessDueTemplates materializes every recurring template that is due
// as of now and returns how many expenses were created. A failing
// template is logged and skipped; it will be retried on the next run.
func (p *RecurringProcessor) ProcessDueTemplates(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.expenseService == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.storage.RecurringTemplates(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("get recurring templates: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring expense templates",
		"total_active", len(templates),
		"processing_date", now.Format("2006-01-02"))

	processed := 0
	for _, tpl := range templates {
		checker, err := GetDuenessChecker(tpl.Expense.Recurring.Frequency)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping template with unknown frequency",
				"id", tpl.Expense.ID,
				"frequency", tpl.Expense.Recurring.Frequency)
			continue
		}

		if !checker.IsDue(tpl.LastMaterializedAt, now, tpl.Expense.Date) {
			continue
		}

		occurrence := &core.Expense{
			Title:         tpl.Expense.Title,
			Amount:        tpl.Expense.Amount,
			Category:      tpl.Expense.Category,
			Description:   tpl.Expense.Description,
			Date:          now,
			PaymentMethod: tpl.Expense.PaymentMethod,
			Tags:          tpl.Expense.Tags,
		}
		if _, err := p.expenseService.Create(ctx, tpl.Expense.UserID, occurrence); err != nil {
			slog.ErrorContext(ctx, "Failed to create expense from recurring template",
				"template_id", tpl.Expense.ID,
				"title", tpl.Expense.Title,
				"error", err)
			continue
		}

		if err := p.storage.MarkMaterialized(ctx, tpl.Expense.ID, now); err != nil {
			slog.ErrorContext(ctx, "Failed to update last materialization time",
				"template_id", tpl.Expense.ID,
				"error", err)
			// Continue anyway - the occurrence was created
		}

		processed++
		slog.InfoContext(ctx, "Created expense from recurring template",
			"template_id", tpl.Expense.ID,
			"title", tpl.Expense.Title,
			"amount_cents", tpl.Expense.Amount.Cents,
			"frequency", tpl.Expense.Recurring.Frequency)
	}

	slog.InfoContext(ctx, "Recurring expense processing complete",
		"processed", processed,
		"total_checked", len(templates))

	return processed, nil
}
