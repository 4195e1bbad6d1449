package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func samplePage() UserPage {
	offline := false
	return UserPage{
		Content: []UserRow{
			{ID: "1", Name: "Rami", Email: "rami@example.com", Roles: []string{"INVESTOR"}, Status: "ACTIVE", IsOnline: &offline},
			{ID: "2", Name: "Lina", Email: "lina@example.com", Roles: []string{"COMPANY"}, Status: "INACTIVE"},
		},
		Page: 0, Size: 2, TotalElements: 2, TotalPages: 1,
	}
}

func TestWithPresence_PatchesOnlyPresenceFields(t *testing.T) {
	page := samplePage()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	patched, ok := page.WithPresence(PresenceUpdate{UserID: "2", IsOnline: true}, now)
	if !ok {
		t.Fatalf("expected row to match")
	}

	row := patched.Content[1]
	if row.IsOnline == nil || !*row.IsOnline {
		t.Fatalf("expected user 2 online")
	}
	if row.LastSeen == nil || !row.LastSeen.Equal(now) {
		t.Fatalf("expected lastSeen derived from now, got %v", row.LastSeen)
	}

	orig := page.Content[1]
	if row.Name != orig.Name || row.Email != orig.Email || row.Status != orig.Status || len(row.Roles) != len(orig.Roles) {
		t.Errorf("non-presence fields changed: %+v", row)
	}
	if page.Content[1].IsOnline != nil {
		t.Errorf("original page must not be mutated")
	}
}

func TestWithPresence_ExplicitLastSeenWins(t *testing.T) {
	seen := NewTimestamp(time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC))
	patched, ok := samplePage().WithPresence(PresenceUpdate{UserID: "1", IsOnline: true, LastSeen: &seen}, time.Now())
	if !ok {
		t.Fatalf("expected row to match")
	}
	if !patched.Content[0].LastSeen.Equal(seen.Time) {
		t.Errorf("expected explicit lastSeen, got %v", patched.Content[0].LastSeen)
	}
}

func TestWithPresence_OfflineKeepsLastSeen(t *testing.T) {
	patched, _ := samplePage().WithPresence(PresenceUpdate{UserID: "1", IsOnline: false}, time.Now())
	if patched.Content[0].LastSeen != nil {
		t.Errorf("offline without lastSeen must not invent one")
	}
}

func TestWithPresence_UnknownUserIsNoop(t *testing.T) {
	page := samplePage()
	patched, ok := page.WithPresence(PresenceUpdate{UserID: "5", IsOnline: true}, time.Now())
	if ok {
		t.Fatalf("expected no match")
	}
	if len(patched.Content) != len(page.Content) {
		t.Errorf("no row may be inserted")
	}
}

func TestDecodePresence(t *testing.T) {
	u, err := DecodePresence([]byte(`{"userId":5,"isOnline":true}`))
	if err != nil {
		t.Fatalf("object: %v", err)
	}
	if u.UserID != "5" || !u.IsOnline {
		t.Errorf("unexpected update: %+v", u)
	}

	u, err = DecodePresence([]byte(`"{\"userId\":\"7\",\"isOnline\":false,\"lastSeen\":\"2025-01-02T03:04:05Z\"}"`))
	if err != nil {
		t.Fatalf("string: %v", err)
	}
	if u.UserID != "7" || u.IsOnline || u.LastSeen == nil {
		t.Errorf("unexpected update: %+v", u)
	}

	if _, err := DecodePresence([]byte(`{"isOnline":true}`)); !errors.Is(err, ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
	if _, err := DecodePresence([]byte(`not json`)); err == nil {
		t.Errorf("expected error for malformed payload")
	}
}

func TestNotification_DecodeMixedFormats(t *testing.T) {
	raw := `{"id":42,"type":"VERIFICATION_REQUEST","title":"Docs","message":"m","createdAt":"2025-01-02T03:04:05.123","isRead":false,"isAccepted":null,"companyId":"42"}`
	var n Notification
	if err := json.Unmarshal([]byte(raw), &n); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if n.ID != "42" || n.CompanyID != "42" {
		t.Errorf("unexpected ids: %q %q", n.ID, n.CompanyID)
	}
	if n.IsAccepted != nil {
		t.Errorf("expected undecided")
	}
	if n.CreatedAt.Year() != 2025 {
		t.Errorf("createdAt not parsed: %v", n.CreatedAt)
	}
}
