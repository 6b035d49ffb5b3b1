package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/learngermanghana/sedifexbiz-sub004/internal/app/domain/user"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	u := user.User{ID: "u1", Email: "ama@example.com"}

	token, err := m.GenerateToken(u)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("expected user u1, got %s", claims.UserID)
	}
	if claims.Issuer != "sedifex" {
		t.Fatalf("expected issuer sedifex, got %s", claims.Issuer)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewManager("test-secret", -time.Minute)
	token, err := m.GenerateToken(user.User{ID: "u1"})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := m.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).GenerateToken(user.User{ID: "u1"})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	if _, err := NewManager("secret-b", time.Hour).ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	token, err := m.GenerateToken(user.User{ID: "u1"})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	if _, err := m.ParseToken(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestHashTokenIsStable(t *testing.T) {
	a := HashToken("abc")
	b := HashToken("abc")
	if a != b {
		t.Fatalf("expected stable hash, got %s and %s", a, b)
	}
	if a == "abc" {
		t.Fatal("hash must not equal the raw token")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !CheckPassword(hash, "hunter22") {
		t.Fatal("expected password to verify")
	}
	if CheckPassword(hash, "hunter23") {
		t.Fatal("expected wrong password to fail")
	}
}
