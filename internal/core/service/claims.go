package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
)

// identityClaims is the lookup order for the caller's id. Tokens minted by
// different backend versions carry it under different names.
var identityClaims = []string{"userId", "id", "sub"}

// roleClaims is the lookup order for the caller's roles.
var roleClaims = []string{"roles", "role", "authorities"}

// Roles carried by platform tokens.
const (
	RoleAdmin    = "ADMIN"
	RoleCompany  = "COMPANY"
	RoleInvestor = "INVESTOR"
)

var ErrInvalidToken = errors.New("invalid bearer token")

// Claims is the identity extracted from a bearer token.
type Claims struct {
	UserID    domain.ID
	Roles     []string
	ExpiresAt time.Time
}

// ParseClaims decodes token without verifying its signature; the server
// verifies it on every call. It fails when no identity claim is present.
func ParseClaims(token string) (*Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c := &Claims{}
	for _, name := range identityClaims {
		if id := claimString(mc[name]); id != "" {
			c.UserID = domain.ID(id)
			break
		}
	}
	if c.UserID == "" {
		return nil, fmt.Errorf("%w: no identity claim (tried %s)", ErrInvalidToken, strings.Join(identityClaims, ", "))
	}

	for _, name := range roleClaims {
		if roles := claimStrings(mc[name]); len(roles) > 0 {
			c.Roles = roles
			break
		}
	}

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// HasRole reports whether the token grants role. A "ROLE_" prefix and case
// are ignored.
func (c Claims) HasRole(role string) bool {
	want := normalizeRole(role)
	for _, r := range c.Roles {
		if normalizeRole(r) == want {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the session belongs to an admin.
func (c Claims) IsAdmin() bool { return c.HasRole(RoleAdmin) }

// Expired reports whether the token carried an expiry that has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

func normalizeRole(r string) string {
	return strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(r)), "ROLE_")
}

func claimString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return ""
	}
}

// claimStrings reads a role claim that is either a single string, a
// comma-separated string, a list of strings or a list of {"authority": ...}.
func claimStrings(v any) []string {
	switch t := v.(type) {
	case string:
		var out []string
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			switch it := item.(type) {
			case string:
				out = append(out, it)
			case map[string]any:
				if a, ok := it["authority"].(string); ok {
					out = append(out, a)
				}
			}
		}
		return out
	default:
		return nil
	}
}
