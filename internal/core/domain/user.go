package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// UserRow is one entry of the admin user table.
//
// IsOnline and LastSeen are the only fields presence updates may touch.
type UserRow struct {
	ID       ID         `json:"id"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Roles    []string   `json:"roles"`
	Status   string     `json:"status"`
	IsOnline *bool      `json:"isOnline,omitempty"`
	LastSeen *Timestamp `json:"lastSeen,omitempty"`
}

// UserPage is one page of the paginated admin user list.
type UserPage struct {
	Content       []UserRow `json:"content"`
	Page          int       `json:"page"`
	Size          int       `json:"size"`
	TotalElements int64     `json:"totalElements"`
	TotalPages    int       `json:"totalPages"`
}

// PresenceUpdate is an activity message pushed for a single user.
type PresenceUpdate struct {
	UserID   ID         `json:"userId"`
	IsOnline bool       `json:"isOnline"`
	LastSeen *Timestamp `json:"lastSeen,omitempty"`
}

// DecodePresence parses an activity message. The channel delivers either a
// JSON object or a JSON string containing the object.
func DecodePresence(raw []byte) (PresenceUpdate, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return PresenceUpdate{}, fmt.Errorf("decode presence: %w", err)
		}
		raw = []byte(inner)
	}

	var u PresenceUpdate
	if err := json.Unmarshal(raw, &u); err != nil {
		return PresenceUpdate{}, fmt.Errorf("decode presence: %w", err)
	}
	if u.UserID == "" {
		return PresenceUpdate{}, fmt.Errorf("decode presence: %w: userId", ErrMissingField)
	}
	return u, nil
}

// WithPresence returns a copy of p where the row matching u.UserID has its
// presence fields replaced. The second result is false when no row matched;
// the page is then returned unchanged.
func (p UserPage) WithPresence(u PresenceUpdate, now time.Time) (UserPage, bool) {
	idx := -1
	for i := range p.Content {
		if p.Content[i].ID == u.UserID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return p, false
	}

	rows := make([]UserRow, len(p.Content))
	copy(rows, p.Content)
	rows[idx] = rows[idx].withPresence(u, now)
	p.Content = rows
	return p, true
}

func (r UserRow) withPresence(u PresenceUpdate, now time.Time) UserRow {
	online := u.IsOnline
	r.IsOnline = &online

	switch {
	case u.LastSeen != nil:
		ts := *u.LastSeen
		r.LastSeen = &ts
	case online:
		ts := NewTimestamp(now)
		r.LastSeen = &ts
	}
	return r
}
