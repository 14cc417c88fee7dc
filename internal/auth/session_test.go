package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestSessions(t *testing.T, opts ...SessionOption) *Sessions {
	t.Helper()
	s, err := NewSessions("test-secret", opts...)
	if err != nil {
		t.Fatalf("NewSessions: %v", err)
	}
	return s
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	s := newTestSessions(t, WithClock(func() time.Time { return now }))

	token, exp, err := s.Issue(Advisor{ID: "adv-1", Email: "advisor@firm.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := now.Add(8 * time.Hour); !exp.Equal(want) {
		t.Fatalf("unexpected expiry %v, want %v", exp, want)
	}

	id, err := s.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.AdvisorID != "adv-1" || id.Email != "advisor@firm.com" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	clock := now
	s := newTestSessions(t, WithClock(func() time.Time { return clock }))

	token, _, err := s.Issue(Advisor{ID: "adv-1", Email: "advisor@firm.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	clock = now.Add(8*time.Hour + time.Second)
	if _, err := s.Verify(token); !errors.Is(err, ErrAuthInvalid) {
		t.Fatalf("expected ErrAuthInvalid, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	other, err := NewSessions("another-secret")
	if err != nil {
		t.Fatalf("NewSessions: %v", err)
	}
	token, _, err := other.Issue(Advisor{ID: "adv-1", Email: "advisor@firm.com"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := newTestSessions(t).Verify(token); !errors.Is(err, ErrAuthInvalid) {
		t.Fatalf("expected ErrAuthInvalid, got %v", err)
	}
}

func TestVerifyRejectsWrongIssuerAndAlg(t *testing.T) {
	s := newTestSessions(t)
	now := time.Now()

	wrongIssuer := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email: "advisor@firm.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			Subject:   "adv-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	signed, _ := wrongIssuer.SignedString([]byte("test-secret"))
	if _, err := s.Verify(signed); !errors.Is(err, ErrAuthInvalid) {
		t.Fatalf("wrong issuer: expected ErrAuthInvalid, got %v", err)
	}

	hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Email: "advisor@firm.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "adv-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	})
	signed, _ = hs512.SignedString([]byte("test-secret"))
	if _, err := s.Verify(signed); !errors.Is(err, ErrAuthInvalid) {
		t.Fatalf("wrong alg: expected ErrAuthInvalid, got %v", err)
	}

	if _, err := s.Verify("not-a-jwt"); !errors.Is(err, ErrAuthInvalid) {
		t.Fatalf("garbage: expected ErrAuthInvalid, got %v", err)
	}
	if _, err := s.Verify("  "); !errors.Is(err, ErrAuthMissing) {
		t.Fatalf("blank: expected ErrAuthMissing, got %v", err)
	}
}

func TestNewSessionsRequiresSecret(t *testing.T) {
	if _, err := NewSessions(" "); err == nil {
		t.Fatal("expected error for blank secret")
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := context.Background()
	if _, ok := IdentityFromContext(ctx); ok {
		t.Fatal("expected no identity on bare context")
	}
	ctx = ContextWithIdentity(ctx, Identity{AdvisorID: "adv-7", Email: "a@firm.com"})
	id, ok := IdentityFromContext(ctx)
	if !ok || id.AdvisorID != "adv-7" || id.Email != "a@firm.com" {
		t.Fatalf("unexpected identity: %+v ok=%v", id, ok)
	}
}
