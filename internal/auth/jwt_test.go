package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// newTestTokenService creates a TokenService with a fixed, known secret so
// tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestIssuePair_ReturnsBothTokens(t *testing.T) {
	ts := newTestTokenService(t)

	pair, err := ts.IssuePair(42)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}
	if pair.Access == "" || pair.Refresh == "" {
		t.Fatal("IssuePair() returned an empty token")
	}

	// Signed tokens have 3 dot-separated parts: header.payload.signature.
	for _, tok := range []string{pair.Access, pair.Refresh} {
		if got := strings.Count(tok, "."); got != 2 {
			t.Errorf("token has %d dots, want 2", got)
		}
	}
}

func TestValidateAccess_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	pair, err := ts.IssuePair(7)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	userID, err := ts.ValidateAccess(pair.Access)
	if err != nil {
		t.Fatalf("ValidateAccess() error = %v", err)
	}
	if userID != 7 {
		t.Errorf("ValidateAccess() userID = %d, want 7", userID)
	}
}

func TestValidateAccess_RejectsRefreshToken(t *testing.T) {
	ts := newTestTokenService(t)

	pair, err := ts.IssuePair(7)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	if _, err := ts.ValidateAccess(pair.Refresh); err == nil {
		t.Fatal("ValidateAccess() should reject a refresh token")
	}
}

func TestValidateAccess_Expired(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.GenerateAccess(7, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccess() error = %v", err)
	}

	_, err = ts.ValidateAccess(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ValidateAccess() error = %v, want ErrTokenExpired", err)
	}
}

func TestValidateAccess_WrongSecret(t *testing.T) {
	ts := newTestTokenService(t)
	other, err := NewTokenService("another-secret-16-chars-min!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := ts.GenerateAccess(7, time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccess() error = %v", err)
	}

	_, err = other.ValidateAccess(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("ValidateAccess() error = %v, want ErrTokenInvalid", err)
	}
}

func TestValidateAccess_Garbage(t *testing.T) {
	ts := newTestTokenService(t)

	for _, tok := range []string{"", "garbage", "a.b.c", "x.y"} {
		if _, err := ts.ValidateAccess(tok); err == nil {
			t.Errorf("ValidateAccess(%q) should fail", tok)
		}
	}
}

func TestValidateRefresh_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)

	pair, err := ts.IssuePair(9)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	userID, jti, err := ts.ValidateRefresh(pair.Refresh)
	if err != nil {
		t.Fatalf("ValidateRefresh() error = %v", err)
	}
	if userID != 9 {
		t.Errorf("ValidateRefresh() userID = %d, want 9", userID)
	}
	if jti == "" {
		t.Error("ValidateRefresh() returned empty jti")
	}
}

func TestValidateRefresh_RejectsAccessToken(t *testing.T) {
	ts := newTestTokenService(t)

	pair, err := ts.IssuePair(9)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	if _, _, err := ts.ValidateRefresh(pair.Access); err == nil {
		t.Fatal("ValidateRefresh() should reject an access token")
	}
}

func TestIssuePair_DistinctRefreshIDs(t *testing.T) {
	ts := newTestTokenService(t)

	p1, err := ts.IssuePair(1)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}
	p2, err := ts.IssuePair(1)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}

	_, jti1, err := ts.ValidateRefresh(p1.Refresh)
	if err != nil {
		t.Fatalf("ValidateRefresh() error = %v", err)
	}
	_, jti2, err := ts.ValidateRefresh(p2.Refresh)
	if err != nil {
		t.Fatalf("ValidateRefresh() error = %v", err)
	}
	if jti1 == jti2 {
		t.Error("two refresh tokens for the same user should carry distinct jtis")
	}
}
