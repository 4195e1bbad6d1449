package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParseClaims_IdentityPriority(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{"userId wins", jwt.MapClaims{"userId": 12, "id": "34", "sub": "a@b.c"}, "12"},
		{"id before sub", jwt.MapClaims{"id": "34", "sub": "a@b.c"}, "34"},
		{"sub fallback", jwt.MapClaims{"sub": "a@b.c"}, "a@b.c"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := ParseClaims(signToken(t, tc.claims))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if string(c.UserID) != tc.want {
				t.Errorf("expected %q, got %q", tc.want, c.UserID)
			}
		})
	}
}

func TestParseClaims_MissingIdentity(t *testing.T) {
	_, err := ParseClaims(signToken(t, jwt.MapClaims{"role": "ADMIN"}))
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseClaims_Garbage(t *testing.T) {
	if _, err := ParseClaims("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := ParseClaims("  "); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestParseClaims_Roles(t *testing.T) {
	c, err := ParseClaims("Bearer " + signToken(t, jwt.MapClaims{
		"sub":         "1",
		"authorities": []any{map[string]any{"authority": "ROLE_ADMIN"}},
	}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !c.IsAdmin() {
		t.Errorf("expected admin from authorities claim, got %v", c.Roles)
	}

	c, err = ParseClaims(signToken(t, jwt.MapClaims{"sub": "1", "role": "investor"}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.IsAdmin() || !c.HasRole("INVESTOR") {
		t.Errorf("unexpected roles %v", c.Roles)
	}
}

func TestParseClaims_Expiry(t *testing.T) {
	exp := time.Now().Add(-time.Minute).Truncate(time.Second)
	c, err := ParseClaims(signToken(t, jwt.MapClaims{"sub": "1", "exp": exp.Unix()}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !c.Expired(time.Now()) {
		t.Errorf("expected token to be expired at %v", c.ExpiresAt)
	}
}
