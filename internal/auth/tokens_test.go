package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndParse(t *testing.T) {
	t.Parallel()

	tokens, err := NewTokens("secret", time.Hour)
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	signed, exp, err := tokens.Issue("u1", "doctor")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expected future expiry, got %v", exp)
	}
	claims, err := tokens.Parse(signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" || claims.Role != "doctor" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	t.Parallel()

	tokens, _ := NewTokens("secret", time.Minute)
	issuedAt := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issuedAt }
	signed, _, err := tokens.Issue("u1", "patient")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	tokens.now = func() time.Time { return issuedAt.Add(2 * time.Minute) }
	if _, err := tokens.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestForeignSecretAndNoneAlgAreRejected(t *testing.T) {
	t.Parallel()

	ours, _ := NewTokens("secret", time.Hour)
	theirs, _ := NewTokens("other", time.Hour)
	signed, _, _ := theirs.Issue("u1", "patient")
	if _, err := ours.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign secret, got %v", err)
	}

	claims := jwt.MapClaims{"sub": "u1", "aud": audienceAccess, "exp": time.Now().Add(time.Hour).Unix()}
	unsigned, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := ours.Parse(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for alg none, got %v", err)
	}
}

func TestFileTokensAreScopedToPath(t *testing.T) {
	t.Parallel()

	tokens, _ := NewTokens("", time.Hour)
	signed, err := tokens.SignPath("medical-images/u1/a.jpg", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := tokens.VerifyPath(signed, "medical-images/u1/a.jpg"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := tokens.VerifyPath(signed, "medical-images/u2/b.jpg"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected path mismatch rejection, got %v", err)
	}
	if _, err := tokens.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("file token must not authenticate API calls, got %v", err)
	}
}

func TestPasswords(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("demo123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := CheckPassword(hash, "demo123"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}
