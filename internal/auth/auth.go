// Package auth implements the access boundary: password hashing, bearer
// token generation, and the request-context identity that every core
// operation is scoped to.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
)

// TokenBytes is the entropy of a session token (hex-encoded on the wire).
const TokenBytes = 32

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken returns a new random bearer token.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

type contextKey string

const userContextKey contextKey = "user"

// WithUser attaches the authenticated user to the context.
func WithUser(ctx context.Context, u *core.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*core.User, bool) {
	u, ok := ctx.Value(userContextKey).(*core.User)
	return u, ok
}
