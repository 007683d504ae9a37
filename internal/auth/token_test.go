package auth

import (
	"testing"
	"time"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("unit-test-secret", time.Hour)

	token, expiresAt, err := tm.GenerateSessionToken("admin@x.com", "sid-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !expiresAt.After(time.Now()) {
		t.Fatal("expiry must be in the future")
	}

	claims, err := tm.ParseSessionToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Email != "admin@x.com" || claims.SessionID != "sid-123" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestParseSessionTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", time.Hour)
	verifier := NewTokenManager("secret-b", time.Hour)

	token, _, err := issuer.GenerateSessionToken("admin@x.com", "sid-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := verifier.ParseSessionToken(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestParseSessionTokenRejectsGarbage(t *testing.T) {
	tm := NewTokenManager("unit-test-secret", time.Hour)
	for _, input := range []string{"", "abc", "a.b.c"} {
		if _, err := tm.ParseSessionToken(input); err == nil {
			t.Errorf("expected rejection for %q", input)
		}
	}
}

func TestIdentityTokenCrossParse(t *testing.T) {
	tm := NewTokenManager("unit-test-secret", time.Hour)

	token, _, err := tm.GenerateSessionToken("admin@x.com", "sid-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// a session token parsed as an identity token still asserts the email
	claims, err := tm.ParseIdentityToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Email != "admin@x.com" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
}
