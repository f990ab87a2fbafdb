// Package worker contains the background consumers that move data out of
// the primary store: the spreadsheet export worker and, in a separate
// binary, the recurring expense scheduler.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/export"
	"fintrack/internal/storage"
)

// ExportWorker moves expenses from SQLite to the export destination. It
// is driven by AMQP messages with a startup backlog check covering
// deliveries lost while the worker was down.
type ExportWorker struct {
	storage   *storage.Repository
	writer    export.ExpenseWriter
	batchSize int
}

func NewExportWorker(storage *storage.Repository, writer export.ExpenseWriter, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		writer:    writer,
		batchSize: batchSize,
	}
}

// HandleExportMessage processes a single export message from AMQP. The
// expense is fetched from the database so a stale delivery exports the
// current record, not the state it had when queued.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ExpenseExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"id", msg.ID,
		"version", msg.Version)

	expense, err := w.storage.ExpenseForExport(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get expense from storage: %w", err)
	}

	return w.exportExpense(ctx, msg.ID, expense)
}

// ProcessPendingExpenses drains up to one batch of expenses whose export
// never completed. This is a backup mechanism in case AMQP messages are
// lost.
func (w *ExportWorker) ProcessPendingExpenses(ctx context.Context) error {
	ids, err := w.storage.PendingExportIDs(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending expenses: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending expenses", "count", len(ids))

	for _, id := range ids {
		expense, err := w.storage.ExpenseForExport(ctx, id)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get expense", "id", id, "error", err)
			if err := w.storage.MarkExpenseExportError(ctx, id); err != nil {
				slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", err)
			}
			continue
		}
		if err := w.exportExpense(ctx, id, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense", "id", id, "error", err)
		}
	}
	return nil
}

// StartupCheck drains a larger backlog once at worker startup to recover
// from downtime.
func (w *ExportWorker) StartupCheck(ctx context.Context) error {
	ids, err := w.storage.PendingExportIDs(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending expenses for startup check: %w", err)
	}
	if len(ids) == 0 {
		slog.InfoContext(ctx, "No pending expenses found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending expenses on startup, processing...",
		"count", len(ids))

	exported, failed := 0, 0
	for _, id := range ids {
		expense, err := w.storage.ExpenseForExport(ctx, id)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get expense for startup export",
				"id", id, "error", err)
			failed++
			continue
		}
		if err := w.exportExpense(ctx, id, expense); err != nil {
			slog.ErrorContext(ctx, "Failed to export expense during startup",
				"id", id, "error", err)
			failed++
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Startup export check completed",
		"total", len(ids),
		"exported", exported,
		"errors", failed)
	return nil
}

func (w *ExportWorker) exportExpense(ctx context.Context, id string, expense *core.Expense) error {
	ref, err := w.writer.Append(ctx, *expense)
	if err != nil {
		if markErr := w.storage.MarkExpenseExportError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error", "id", id, "error", markErr)
		}
		return fmt.Errorf("append to export destination: %w", err)
	}

	if err := w.storage.MarkExpenseExported(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to mark as exported", "id", id, "error", err)
		// Don't return an error here - the export itself succeeded
	}

	slog.InfoContext(ctx, "Exported expense",
		"id", id,
		"ref", ref,
		"amount_cents", expense.Amount.Cents)
	return nil
}
