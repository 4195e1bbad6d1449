// Package credential supplies the session bearer token.
package credential

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/99designs/keyring"

	"github.com/cedarvest/dashboard-sync/internal/core/ports"
)

const serviceName = "dashboard-sync"

// ErrNoToken is returned when no token has been stored.
var ErrNoToken = errors.New("no access token stored")

var (
	_ ports.TokenStore = (*Static)(nil)
	_ ports.TokenStore = (*Keyring)(nil)
)

// Static holds a token in memory (ACCESS_TOKEN).
type Static struct {
	mu    sync.RWMutex
	token string
}

func NewStatic(token string) *Static {
	return &Static{token: normalize(token)}
}

func (s *Static) Token(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

func (s *Static) SetToken(_ context.Context, token string) error {
	s.mu.Lock()
	s.token = normalize(token)
	s.mu.Unlock()
	return nil
}

// Keyring keeps the token in the system keyring under one key per user.
type Keyring struct {
	ring keyring.Keyring
	key  string
}

// OpenKeyring returns a Keyring backed by the platform's credential store.
func OpenKeyring(user string) (*Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/dashboard-sync/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("dashboard-sync-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewKeyring(ring, user), nil
}

// NewKeyring wraps an open keyring.
func NewKeyring(ring keyring.Keyring, user string) *Keyring {
	return &Keyring{ring: ring, key: "access-token:" + user}
}

func (k *Keyring) Token(context.Context) (string, error) {
	item, err := k.ring.Get(k.key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", k.key, err)
	}
	token := normalize(string(item.Data))
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (k *Keyring) SetToken(_ context.Context, token string) error {
	err := k.ring.Set(keyring.Item{
		Key:   k.key,
		Data:  []byte(normalize(token)),
		Label: serviceName + " access token",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", k.key, err)
	}
	return nil
}

// normalize strips whitespace and a "Bearer " prefix.
func normalize(token string) string {
	token = strings.TrimSpace(token)
	return strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
}
