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

// ErrEmailTaken is returned when registering an address that already has
// an account.
var ErrEmailTaken = errors.New("email already registered")

// CreateUser persists u, assigning its identifier.
func (r *Repository) CreateUser(ctx context.Context, u *core.User) error {
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, currency, monthly_budget_cents, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.Currency, u.MonthlyBudget.Cents, u.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", u.ID, "email", u.Email)
	return nil
}

// UserByEmail returns the user with the given address.
func (r *Repository) UserByEmail(ctx context.Context, email string) (*core.User, error) {
	return r.userBy(ctx, "email = ?", email)
}

// UserByID returns the user with the given identifier.
func (r *Repository) UserByID(ctx context.Context, id string) (*core.User, error) {
	return r.userBy(ctx, "id = ?", id)
}

func (r *Repository) userBy(ctx context.Context, clause string, arg any) (*core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash, currency, monthly_budget_cents, created_at
		FROM users WHERE `+clause, arg).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Currency, &u.MonthlyBudget.Cents, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// UpdateUserProfile overwrites the profile fields the reporting engine
// reads as configuration.
func (r *Repository) UpdateUserProfile(ctx context.Context, id, name, currency string, monthlyBudget core.Money) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = ?, currency = ?, monthly_budget_cents = ? WHERE id = ?`,
		name, currency, monthlyBudget.Cents, id)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return requireRow(res)
}

// CreateSession stores a bearer token for the user.
func (r *Repository) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// UserByToken resolves a bearer token to its user. Expired tokens and
// tokens whose user no longer exists resolve to ErrUnauthorized.
func (r *Repository) UserByToken(ctx context.Context, token string, now time.Time) (*core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.name, u.password_hash, u.currency, u.monthly_budget_cents, u.created_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ? AND s.expires_at > ?`, token, now).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Currency, &u.MonthlyBudget.Cents, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrUnauthorized
		}
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return &u, nil
}

// DeleteSession revokes a bearer token. Deleting an unknown token is not
// an error.
func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes sessions past their expiry.
func (r *Repository) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}
