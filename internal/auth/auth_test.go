package auth

import (
	"context"
	"testing"

	"fintrack/internal/core"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "hunter2" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "hunter2") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "hunter3") {
		t.Error("wrong password accepted")
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	b, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if len(a) != TokenBytes*2 {
		t.Errorf("token length = %d, want %d hex chars", len(a), TokenBytes*2)
	}
	if a == b {
		t.Error("two tokens are identical")
	}
}

func TestUserContext(t *testing.T) {
	if _, ok := UserFromContext(context.Background()); ok {
		t.Fatal("user found on empty context")
	}
	u := &core.User{ID: "u1"}
	ctx := WithUser(context.Background(), u)
	got, ok := UserFromContext(ctx)
	if !ok || got.ID != "u1" {
		t.Errorf("UserFromContext = %v, %v; want u1, true", got, ok)
	}
}
