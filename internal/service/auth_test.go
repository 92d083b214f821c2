package service

import (
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	s := NewAuthService("test-secret", time.Hour)

	hash, err := s.HashPassword("sup3r-secret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "sup3r-secret" {
		t.Fatal("hash equals plaintext")
	}

	if !s.VerifyPassword("sup3r-secret", hash) {
		t.Error("expected correct password to verify")
	}
	if s.VerifyPassword("wrong-password", hash) {
		t.Error("expected wrong password to fail")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	s := NewAuthService("test-secret", time.Hour)

	token, err := s.GenerateToken(42, "alice@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("expected user_id 42, got %d", claims.UserID)
	}
	if claims.Subject != "alice@example.com" {
		t.Errorf("expected subject alice@example.com, got %s", claims.Subject)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	s := NewAuthService("test-secret", -time.Minute)

	token, err := s.GenerateToken(1, "bob@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := s.ValidateToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	issuer := NewAuthService("secret-a", time.Hour)
	verifier := NewAuthService("secret-b", time.Hour)

	token, err := issuer.GenerateToken(1, "carol@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := verifier.ValidateToken(token); err == nil {
		t.Error("expected token signed with different secret to be rejected")
	}
}
