package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/clientdesk/clientdesk/internal/shared"
)

var tokenTestAdmin = &Admin{
	ID:    "5e7c9a0e-3c1a-4a59-a9e2-7bb0c2f1d001",
	Email: "admin@cust.com",
	Role:  RoleAdmin,
}

func TestIssueVerify(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, err := issuer.Issue(tokenTestAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != tokenTestAdmin.ID {
		t.Fatalf("subject mismatch: got %q", claims.Subject)
	}
	if claims.Email != "admin@cust.com" || claims.Role != "admin" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatal("expected iat and exp claims")
	}
	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}
}

func TestVerifyExpired(t *testing.T) {
	t.Parallel()

	issuer, err := NewTokenIssuer("test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}
	token, err := issuer.Issue(tokenTestAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Verify(token); !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenIssuer("right-secret", time.Hour)
	other, _ := NewTokenIssuer("wrong-secret", time.Hour)
	token, err := issuer.Issue(tokenTestAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Issue(tokenTestAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := issuer.Verify(tampered); !errors.Is(err, shared.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for tampered signature, got %v", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	t.Parallel()

	issuer, _ := NewTokenIssuer("test-secret", time.Hour)
	for _, tok := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		if _, err := issuer.Verify(tok); !errors.Is(err, shared.ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestMissingSecret(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenIssuer("", time.Hour); !errors.Is(err, ErrSecretMissing) {
		t.Fatalf("expected ErrSecretMissing, got %v", err)
	}
}
