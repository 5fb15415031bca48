package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Gen7Fuel/thehub-sub000/internal/auth"
)

const testSecret = "test-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	userID := uuid.New()

	token, err := auth.GenerateToken(testSecret, userID, "RANKIN", "MANAGER")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := auth.ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("user ID = %s, want %s", claims.UserID, userID)
	}
	if claims.Site != "RANKIN" {
		t.Errorf("site = %q, want RANKIN", claims.Site)
	}
	if claims.Role != "MANAGER" {
		t.Errorf("role = %q, want MANAGER", claims.Role)
	}
	if claims.ID == "" {
		t.Error("token should carry a unique ID for the logout denylist")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := auth.GenerateToken(testSecret, uuid.New(), "RANKIN", "STATION")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := auth.ValidateToken("other-secret", token); err == nil {
		t.Error("token signed with a different secret should fail")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := auth.ValidateToken(testSecret, "not.a.token"); err == nil {
		t.Error("garbage token should fail")
	}
}

func TestTokensHaveDistinctIDs(t *testing.T) {
	a, _ := auth.GenerateToken(testSecret, uuid.New(), "RANKIN", "STATION")
	b, _ := auth.GenerateToken(testSecret, uuid.New(), "RANKIN", "STATION")

	ca, err := auth.ValidateToken(testSecret, a)
	if err != nil {
		t.Fatalf("validate a: %v", err)
	}
	cb, err := auth.ValidateToken(testSecret, b)
	if err != nil {
		t.Fatalf("validate b: %v", err)
	}
	if ca.ID == cb.ID {
		t.Error("two tokens share a JTI; logout would revoke both")
	}
}

func TestNextNineAMUTC(t *testing.T) {
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		// Before the cutoff: same day.
		{
			time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		// After the cutoff: next day.
		{
			time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		},
		// Exactly at the cutoff rolls to the next day.
		{
			time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		},
		// Non-UTC input normalizes first.
		{
			time.Date(2026, 3, 10, 5, 0, 0, 0, time.FixedZone("EST", -5*3600)), // 10:00 UTC
			time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		},
	}

	for _, c := range cases {
		if got := auth.NextNineAMUTC(c.now); !got.Equal(c.want) {
			t.Errorf("NextNineAMUTC(%v) = %v, want %v", c.now, got, c.want)
		}
	}
}

func TestTokenExpiresAtNextNineAM(t *testing.T) {
	token, err := auth.GenerateToken(testSecret, uuid.New(), "RANKIN", "ADMIN")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := auth.ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	exp := claims.ExpiresAt.Time.UTC()
	if exp.Hour() != 9 || exp.Minute() != 0 || exp.Second() != 0 {
		t.Errorf("expiry = %v, want a 09:00:00 UTC boundary", exp)
	}
	if !exp.After(time.Now()) {
		t.Error("expiry should be in the future")
	}
}
