package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// ExpenseFilter narrows a listing. Nil/zero fields are ignored; bounds
// are inclusive.
type ExpenseFilter struct {
	Category  string
	StartDate *time.Time
	EndDate   *time.Time
	MinCents  *int64
	MaxCents  *int64
	Search    string
	Page      int
	Limit     int
}

// ExpenseSummary aggregates the whole filtered set, not only the
// returned page.
type ExpenseSummary struct {
	TotalCents int64
	Count      int
}

// CategoryStat is one row of a per-category aggregation.
type CategoryStat struct {
	Category   string
	TotalCents int64
	Count      int
}

const expenseColumns = `id, user_id, title, amount_cents, category, description, date,
	payment_method, tags, is_recurring, recurring_frequency, recurring_end_date,
	receipt, created_at, updated_at`

// CreateExpense persists e, assigning its identifier and timestamps.
func (r *Repository) CreateExpense(ctx context.Context, e *core.Expense) error {
	now := time.Now().UTC()
	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Date.IsZero() {
		e.Date = now
	}

	tags, err := json.Marshal(tagsOrEmpty(e.Tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO expenses (id, user_id, title, amount_cents, category, description, date,
			payment_method, tags, is_recurring, recurring_frequency, recurring_end_date,
			receipt, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Title, e.Amount.Cents, e.Category, e.Description, e.Date,
		e.PaymentMethod, string(tags), e.Recurring.IsRecurring, string(e.Recurring.Frequency),
		nullTime(e.Recurring.EndDate), e.Receipt, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"title", e.Title,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return nil
}

// ExpenseByID returns the expense iff it exists and belongs to userID.
func (r *Repository) ExpenseByID(ctx context.Context, userID, id string) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// UpdateExpense rewrites every mutable column of the expense. The merge
// of partial fields happens in the service layer against a fresh copy.
func (r *Repository) UpdateExpense(ctx context.Context, e *core.Expense) error {
	e.UpdatedAt = time.Now().UTC()

	tags, err := json.Marshal(tagsOrEmpty(e.Tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses SET title = ?, amount_cents = ?, category = ?, description = ?,
			date = ?, payment_method = ?, tags = ?, is_recurring = ?,
			recurring_frequency = ?, recurring_end_date = ?, receipt = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		e.Title, e.Amount.Cents, e.Category, e.Description,
		e.Date, e.PaymentMethod, string(tags), e.Recurring.IsRecurring,
		string(e.Recurring.Frequency), nullTime(e.Recurring.EndDate), e.Receipt, e.UpdatedAt,
		e.ID, e.UserID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res)
}

// DeleteExpense removes the expense iff owned by userID.
func (r *Repository) DeleteExpense(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res)
}

// ListExpenses returns one page of the filtered set plus the aggregate
// over everything the filter matched.
func (r *Repository) ListExpenses(ctx context.Context, userID string, f ExpenseFilter) ([]core.Expense, ExpenseSummary, error) {
	where, args := expenseFilterClause(userID, f)

	var summary ExpenseSummary
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM expenses WHERE `+where, args...).
		Scan(&summary.Count, &summary.TotalCents)
	if err != nil {
		return nil, ExpenseSummary{}, fmt.Errorf("expense summary: %w", err)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 10
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE ` + where +
		` ORDER BY date DESC, created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, ExpenseSummary{}, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses, err := collectExpenses(rows)
	if err != nil {
		return nil, ExpenseSummary{}, err
	}
	return expenses, summary, nil
}

// CategorySummary aggregates spending per category, optionally bounded
// by an inclusive date range, ordered by total descending.
func (r *Repository) CategorySummary(ctx context.Context, userID string, from, to *time.Time) ([]CategoryStat, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if from != nil {
		where = append(where, "date >= ?")
		args = append(args, *from)
	}
	if to != nil {
		where = append(where, "date <= ?")
		args = append(args, *to)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT category, COALESCE(SUM(amount_cents), 0), COUNT(*)
		FROM expenses WHERE `+strings.Join(where, " AND ")+`
		GROUP BY category ORDER BY SUM(amount_cents) DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("category summary: %w", err)
	}
	defer rows.Close()

	var stats []CategoryStat
	for rows.Next() {
		var s CategoryStat
		if err := rows.Scan(&s.Category, &s.TotalCents, &s.Count); err != nil {
			return nil, fmt.Errorf("scan category stat: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// ExpensesInRange returns all expenses in [from, to], newest first.
// The reporting engine folds over this instead of a stored view so every
// report reflects the data as it currently exists.
func (r *Repository) ExpensesInRange(ctx context.Context, userID string, from, to time.Time) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE user_id = ? AND date >= ? AND date <= ?
		 ORDER BY date DESC, created_at DESC`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("expenses in range: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// RecentExpenses returns the most recently created expenses.
func (r *Repository) RecentExpenses(ctx context.Context, userID string, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent expenses: %w", err)
	}
	defer rows.Close()
	return collectExpenses(rows)
}

// RecurringTemplate pairs a recurring expense with its materialization
// bookkeeping.
type RecurringTemplate struct {
	Expense            core.Expense
	LastMaterializedAt time.Time
}

// RecurringTemplates returns every recurring expense whose series has not
// ended as of now, across all users.
func (r *Repository) RecurringTemplates(ctx context.Context, now time.Time) ([]RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`, last_materialized_at
		FROM expenses
		WHERE is_recurring = 1 AND (recurring_end_date IS NULL OR recurring_end_date >= ?)`, now)
	if err != nil {
		return nil, fmt.Errorf("recurring templates: %w", err)
	}
	defer rows.Close()

	var templates []RecurringTemplate
	for rows.Next() {
		var t RecurringTemplate
		var last sql.NullTime
		e, err := scanExpenseFields(rows, &last)
		if err != nil {
			return nil, err
		}
		t.Expense = *e
		if last.Valid {
			t.LastMaterializedAt = last.Time
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// MarkMaterialized records that a recurring template spawned an
// occurrence at the given time.
func (r *Repository) MarkMaterialized(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET last_materialized_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("mark materialized: %w", err)
	}
	return nil
}

// ExpenseForExport fetches an expense by id regardless of owner; the
// export worker operates across users.
func (r *Repository) ExpenseForExport(ctx context.Context, id string) (*core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("expense for export: %w", err)
	}
	return e, nil
}

// MarkExpenseExported marks an expense as successfully exported.
func (r *Repository) MarkExpenseExported(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET export_status = 'exported' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark expense exported: %w", err)
	}
	slog.InfoContext(ctx, "Expense marked as exported", "id", id)
	return nil
}

// MarkExpenseExportError marks an expense as having export errors.
func (r *Repository) MarkExpenseExportError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET export_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark expense export error: %w", err)
	}
	slog.WarnContext(ctx, "Expense marked with export error", "id", id)
	return nil
}

// PendingExportIDs returns ids of expenses still awaiting export, oldest
// first, so the worker drains the backlog in creation order.
func (r *Repository) PendingExportIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM expenses WHERE export_status = 'pending'
		ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pending export ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan pending export id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func expenseFilterClause(userID string, f ExpenseFilter) (string, []any) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.StartDate != nil {
		where = append(where, "date >= ?")
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		where = append(where, "date <= ?")
		args = append(args, *f.EndDate)
	}
	if f.MinCents != nil {
		where = append(where, "amount_cents >= ?")
		args = append(args, *f.MinCents)
	}
	if f.MaxCents != nil {
		where = append(where, "amount_cents <= ?")
		args = append(args, *f.MaxCents)
	}
	if f.Search != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)")
		pattern := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, pattern, pattern)
	}

	return strings.Join(where, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*core.Expense, error) {
	return scanExpenseFields(row)
}

// scanExpenseFields scans the expenseColumns set plus any extra trailing
// destinations.
func scanExpenseFields(row rowScanner, extra ...any) (*core.Expense, error) {
	var (
		e       core.Expense
		tags    string
		freq    string
		endDate sql.NullTime
	)
	dest := []any{
		&e.ID, &e.UserID, &e.Title, &e.Amount.Cents, &e.Category, &e.Description, &e.Date,
		&e.PaymentMethod, &tags, &e.Recurring.IsRecurring, &freq, &endDate,
		&e.Receipt, &e.CreatedAt, &e.UpdatedAt,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	e.Recurring.Frequency = core.Frequency(freq)
	if endDate.Valid {
		t := endDate.Time
		e.Recurring.EndDate = &t
	}
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags for expense %s: %w", e.ID, err)
	}
	return &e, nil
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// requireRow converts a zero-row write into ErrNotFound so ownership
// failures and missing records look identical to the caller.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
