package auth

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer("super-secret")

	tok, err := issuer.Issue("user-1", "alice", "a@x.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	claims, err := issuer.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "alice" || claims.Email != "a@x.com" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > TokenTTL {
		t.Fatalf("expiry not bounded by TTL: %v", claims.ExpiresAt)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer("secret")
	issuer.ttl = -time.Minute

	tok, err := issuer.Issue("u1", "bob", "b@x.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := issuer.Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewIssuer("right-secret").Issue("u2", "carol", "c@x.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := NewIssuer("wrong-secret").Verify(tok); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	t.Parallel()

	issuer := NewIssuer("secret")
	tok, err := issuer.Issue("u3", "dave", "d@x.com")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// flip one byte in the payload
	b := []byte(tok)
	mid := len(b) / 2
	if b[mid] == 'A' {
		b[mid] = 'B'
	} else {
		b[mid] = 'A'
	}

	if _, err := issuer.Verify(string(b)); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	if _, err := NewIssuer("k").Verify("not.a.jwt"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for malformed token, got %v", err)
	}
}
