package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Token stores selectable with TOKEN_STORE.
const (
	TokenStoreEnv     = "env"
	TokenStoreKeyring = "keyring"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR, default=:8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	API       APIConfig
	Stream    StreamConfig
	Session   SessionConfig
	Reconnect ReconnectConfig
	Redis     RedisConfig
	Payments  PaymentsConfig
}

type APIConfig struct {
	BaseURL              string        `env:"API_BASE_URL, default=http://localhost:8080/api"`
	RequestTimeout       time.Duration `env:"REQUEST_TIMEOUT, default=20s"`
	NotificationsTimeout time.Duration `env:"NOTIFICATIONS_TIMEOUT, default=60s"`
	ReconcileDelay       time.Duration `env:"RECONCILE_DELAY, default=500ms"`
}

type StreamConfig struct {
	// BaseURL defaults to API_BASE_URL when empty.
	BaseURL     string `env:"STREAM_BASE_URL"`
	ActivityURL string `env:"ACTIVITY_WS_URL"`
}

type SessionConfig struct {
	// AdminID is derived from the token claims when empty.
	AdminID     string `env:"ADMIN_ID"`
	AccessToken string `env:"ACCESS_TOKEN"`
	TokenStore  string `env:"TOKEN_STORE, default=env"`
	KeyringUser string `env:"KEYRING_USER, default=default"`
}

type ReconnectConfig struct {
	MaxAttempts int           `env:"RECONNECT_MAX_ATTEMPTS, default=5"`
	BaseDelay   time.Duration `env:"RECONNECT_BASE_DELAY, default=3s"`
}

type RedisConfig struct {
	// Addr is optional; without it redelivery dedup is session-only.
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

type PaymentsConfig struct {
	// Enabled routes Pay through the platform's payment endpoints; without
	// it paying fails with a 503.
	Enabled bool `env:"PAYMENTS_ENABLED, default=false"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadFrom(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFrom reads configuration through l and validates it.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if cfg.Stream.BaseURL == "" {
		cfg.Stream.BaseURL = cfg.API.BaseURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	for name, raw := range map[string]string{
		"API_BASE_URL":    c.API.BaseURL,
		"STREAM_BASE_URL": c.Stream.BaseURL,
	} {
		if err := checkURL(raw, "http", "https"); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if c.Stream.ActivityURL != "" {
		if err := checkURL(c.Stream.ActivityURL, "ws", "wss"); err != nil {
			errs = append(errs, fmt.Errorf("ACTIVITY_WS_URL: %w", err))
		}
	}
	switch c.Session.TokenStore {
	case TokenStoreEnv, TokenStoreKeyring:
	default:
		errs = append(errs, fmt.Errorf("TOKEN_STORE: unknown store %q", c.Session.TokenStore))
	}
	if c.Reconnect.MaxAttempts < 0 {
		errs = append(errs, errors.New("RECONNECT_MAX_ATTEMPTS: must not be negative"))
	}
	if c.Reconnect.BaseDelay <= 0 {
		errs = append(errs, errors.New("RECONNECT_BASE_DELAY: must be positive"))
	}
	if c.API.RequestTimeout <= 0 || c.API.NotificationsTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT and NOTIFICATIONS_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether ENV selects production behaviour (JSON logs).
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%q is not an absolute %s url", raw, strings.Join(schemes, "/"))
}
