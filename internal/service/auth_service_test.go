package service

import (
	"context"
	"testing"

	"github.com/desaconnect/complaint-service/internal/auth"
	"github.com/desaconnect/complaint-service/internal/domain"
)

// Login's failure paths never reach the session store, so a nil store
// is fine here; the success path needs Redis and is exercised against a
// live stack, not in unit tests.
func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	hash, err := auth.HashPassword("correct-password", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := newFakeAdminRepo("nopass@x.com")
	repo.entries["admin@x.com"] = &domain.AdminEntry{Email: "admin@x.com", PasswordHash: &hash}

	svc := NewAuthService(repo, nil, nil)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "ghost@x.com", "whatever"},
		{"wrong password", "admin@x.com", "wrong"},
		{"passwordless entry", "nopass@x.com", "anything"},
		{"empty password", "admin@x.com", ""},
		{"empty email", "", "correct-password"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Login(context.Background(), tc.email, tc.password)
			assertCode(t, err, "UNAUTHORIZED")
		})
	}
}

func TestLogoutIgnoresInvalidToken(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret", 0)
	svc := NewAuthService(newFakeAdminRepo(), nil, tokens)

	if err := svc.Logout(context.Background(), "not-a-jwt"); err != nil {
		t.Fatalf("invalid token must be a no-op, got %v", err)
	}
}
