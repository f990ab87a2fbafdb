package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

const goalColumns = `id, user_id, title, description, target_amount_cents, current_amount_cents,
	target_date, category, priority, status, auto_enabled, auto_amount_cents, auto_frequency,
	created_at, updated_at`

// CreateGoal persists g, assigning its identifier and timestamps.
func (r *Repository) CreateGoal(ctx context.Context, g *core.Goal) error {
	now := time.Now().UTC()
	g.ID = uuid.NewString()
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, title, description, target_amount_cents,
			current_amount_cents, target_date, category, priority, status,
			auto_enabled, auto_amount_cents, auto_frequency, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Title, g.Description, g.TargetAmount.Cents,
		g.CurrentAmount.Cents, g.TargetDate, g.Category, g.Priority, g.Status,
		g.AutoContribute.Enabled, g.AutoContribute.Amount.Cents,
		string(g.AutoContribute.Frequency), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal saved",
		"id", g.ID,
		"title", g.Title,
		"target_cents", g.TargetAmount.Cents,
		"target_date", g.TargetDate.Format("2006-01-02"))
	return nil
}

// GoalByID returns the goal iff it exists and belongs to userID.
func (r *Repository) GoalByID(ctx context.Context, userID, id string) (*core.Goal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// GoalsByOwner lists the user's goals, optionally filtered by status and
// category, newest first.
func (r *Repository) GoalsByOwner(ctx context.Context, userID, status, category string) ([]core.Goal, error) {
	where := []string{"user_id = ?"}
	args := []any{userID}
	if status != "" {
		where = append(where, "status = ?")
		args = append(args, status)
	}
	if category != "" {
		where = append(where, "category = ?")
		args = append(args, category)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE `+strings.Join(where, " AND ")+
			` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

// UpdateGoal rewrites every mutable column of the goal.
func (r *Repository) UpdateGoal(ctx context.Context, g *core.Goal) error {
	g.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		UPDATE goals SET title = ?, description = ?, target_amount_cents = ?,
			current_amount_cents = ?, target_date = ?, category = ?, priority = ?,
			status = ?, auto_enabled = ?, auto_amount_cents = ?, auto_frequency = ?,
			updated_at = ?
		WHERE id = ? AND user_id = ?`,
		g.Title, g.Description, g.TargetAmount.Cents,
		g.CurrentAmount.Cents, g.TargetDate, g.Category, g.Priority,
		g.Status, g.AutoContribute.Enabled, g.AutoContribute.Amount.Cents,
		string(g.AutoContribute.Frequency), g.UpdatedAt,
		g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res)
}

// DeleteGoal removes the goal and its contribution ledger in one
// transaction; contributions never outlive their parent.
func (r *Repository) DeleteGoal(ctx context.Context, userID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete goal: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM contributions WHERE goal_id IN (SELECT id FROM goals WHERE id = ? AND user_id = ?)`,
		id, userID); err != nil {
		return fmt.Errorf("delete contributions: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}

	return tx.Commit()
}

// SetGoalStatus overwrites the status unconditionally; any status is
// reachable from any other.
func (r *Repository) SetGoalStatus(ctx context.Context, userID, id, status string) (*core.Goal, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET status = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		status, time.Now().UTC(), id, userID)
	if err != nil {
		return nil, fmt.Errorf("set goal status: %w", err)
	}
	if err := requireRow(res); err != nil {
		return nil, err
	}
	return r.GoalByID(ctx, userID, id)
}

// AddContribution appends a contribution and applies its amount to the
// goal's running total in a single transaction. The increment and the
// Active→Completed flip happen in one in-place UPDATE, so two concurrent
// contributions cannot lose each other's amount.
func (r *Repository) AddContribution(ctx context.Context, userID, goalID string, c *core.Contribution) (*core.Goal, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin contribution: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM goals WHERE id = ? AND user_id = ?`, goalID, userID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("load goal status: %w", err)
	}
	if status != core.StatusActive {
		return nil, fmt.Errorf("goal is %s: %w", status, core.ErrConflict)
	}

	c.ID = uuid.NewString()
	c.GoalID = goalID
	if c.Date.IsZero() {
		c.Date = time.Now().UTC()
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO contributions (id, goal_id, amount_cents, date, note) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.GoalID, c.Amount.Cents, c.Date, c.Note); err != nil {
		return nil, fmt.Errorf("insert contribution: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE goals SET
			current_amount_cents = current_amount_cents + ?,
			status = CASE
				WHEN current_amount_cents + ? >= target_amount_cents THEN ?
				ELSE status
			END,
			updated_at = ?
		WHERE id = ? AND user_id = ? AND status = ?`,
		c.Amount.Cents, c.Amount.Cents, core.StatusCompleted,
		time.Now().UTC(), goalID, userID, core.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("apply contribution: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Status changed under us between the read and the write.
		return nil, fmt.Errorf("goal no longer active: %w", core.ErrConflict)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit contribution: %w", err)
	}

	slog.InfoContext(ctx, "Contribution recorded",
		"goal_id", goalID,
		"contribution_id", c.ID,
		"amount_cents", c.Amount.Cents)

	return r.GoalByID(ctx, userID, goalID)
}

// Contributions lists a goal's ledger newest first, after confirming the
// goal belongs to userID.
func (r *Repository) Contributions(ctx context.Context, userID, goalID string) ([]core.Contribution, error) {
	if _, err := r.GoalByID(ctx, userID, goalID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, goal_id, amount_cents, date, note
		FROM contributions WHERE goal_id = ? ORDER BY date DESC, id DESC`, goalID)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	var out []core.Contribution
	for rows.Next() {
		var c core.Contribution
		if err := rows.Scan(&c.ID, &c.GoalID, &c.Amount.Cents, &c.Date, &c.Note); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanGoal(row rowScanner) (*core.Goal, error) {
	var (
		g    core.Goal
		freq string
	)
	err := row.Scan(
		&g.ID, &g.UserID, &g.Title, &g.Description, &g.TargetAmount.Cents, &g.CurrentAmount.Cents,
		&g.TargetDate, &g.Category, &g.Priority, &g.Status,
		&g.AutoContribute.Enabled, &g.AutoContribute.Amount.Cents, &freq,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.AutoContribute.Frequency = core.Frequency(freq)
	return &g, nil
}
