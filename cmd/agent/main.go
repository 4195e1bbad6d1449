// Command agent holds one authenticated dashboard session: it keeps the
// admin notification log, the user presence cache and the workflow state in
// sync with the platform and serves them over a local operator API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cedarvest/dashboard-sync/internal/api"
	"github.com/cedarvest/dashboard-sync/internal/api/handler"
	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
	"github.com/cedarvest/dashboard-sync/internal/core/service"
	"github.com/cedarvest/dashboard-sync/internal/infrastructure/cache"
	"github.com/cedarvest/dashboard-sync/internal/infrastructure/config"
	"github.com/cedarvest/dashboard-sync/internal/infrastructure/credential"
	redisdb "github.com/cedarvest/dashboard-sync/internal/infrastructure/db/redis"
	"github.com/cedarvest/dashboard-sync/internal/infrastructure/reconnect"
	"github.com/cedarvest/dashboard-sync/internal/infrastructure/rest"
	"github.com/cedarvest/dashboard-sync/internal/infrastructure/sse"
	"github.com/cedarvest/dashboard-sync/internal/infrastructure/ws"
	"github.com/cedarvest/dashboard-sync/pkg/logger"
)

const (
	queryCacheTTL   = 5 * time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "dashboard-agent",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("agent stopped")
		os.Exit(1)
	}
	log.Info().Msg("agent exited")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Session ---
	tokens, err := openTokenStore(ctx, cfg)
	if err != nil {
		return err
	}
	raw, err := tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("reading session token: %w", err)
	}
	claims, err := service.ParseClaims(raw)
	if err != nil {
		return err
	}
	if claims.Expired(time.Now()) {
		log.Warn().Time("expired_at", claims.ExpiresAt).Msg("session token has expired")
	}
	adminID := cfg.Session.AdminID
	if adminID == "" {
		adminID = claims.UserID.String()
	}
	log = logger.ForSession(log, claims.UserID.String(), claims.Roles)
	log.Info().Bool("admin", claims.IsAdmin()).Msg("session loaded")

	policy := reconnect.Policy{
		MaxAttempts: cfg.Reconnect.MaxAttempts,
		BaseDelay:   cfg.Reconnect.BaseDelay,
	}

	// --- Platform API + cache ---
	client := rest.NewClient(rest.Options{
		BaseURL:              cfg.API.BaseURL,
		Token:                tokens,
		RequestTimeout:       cfg.API.RequestTimeout,
		NotificationsTimeout: cfg.API.NotificationsTimeout,
	}, log)

	queryCache := cache.New(queryCacheTTL)
	defer queryCache.Stop()

	// --- Optional Redis dedup ---
	var (
		dedup ports.DedupChecker
		rdb   redis.Cmdable
	)
	redisClient, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	switch {
	case errors.Is(err, redisdb.ErrDisabled):
		log.Info().Msg("redis not configured, notification dedup is session-only")
	case err != nil:
		log.Warn().Err(err).Msg("redis unavailable, notification dedup is session-only")
	default:
		defer redisClient.Close()
		rdb = redisClient
		dedup = redisdb.NewDedupChecker(redisClient, adminID)
	}

	// --- Services ---
	store := service.NewNotificationStore(client, log)
	admin := service.NewAdminService(client, store, queryCache, cfg.API.ReconcileDelay, log)
	defer admin.Close()
	company := service.NewCompanyService(client, queryCache, log)
	var payments ports.PaymentGateway
	if cfg.Payments.Enabled {
		payments = client.Payments()
	}
	investor := service.NewInvestorService(client.Investor(), payments, queryCache, log)
	presence := service.NewPresenceService(queryCache, log)

	channels := map[string]handler.Channel{}

	// --- Admin live channels ---
	if claims.IsAdmin() {
		if err := store.Load(ctx); err != nil {
			log.Warn().Err(err).Msg("initial notification fetch failed")
		}

		stream := sse.Connect(ctx, sse.Config{
			BaseURL: cfg.Stream.BaseURL,
			AdminID: adminID,
			Token:   tokens,
			Policy:  policy,
		}, log)
		defer stream.Close()
		channels["notifications"] = stream

		ingestor := service.NewIngestor(store, dedup, log)
		go ingestor.Run(ctx, stream.Events())
	}

	activity := ws.Subscribe(ctx, ws.Config{
		URL:     cfg.Stream.ActivityURL,
		Token:   tokens,
		Enabled: claims.IsAdmin() && cfg.Stream.ActivityURL != "",
		Policy:  policy,
		OnActivity: func(u domain.PresenceUpdate) {
			presence.Apply(u)
		},
	}, log)
	defer activity.Close()
	channels["activity"] = activity

	// --- Operator API ---
	e := api.NewRouter(api.Deps{
		Tokens:        tokens,
		Notifications: store,
		Admin:         admin,
		Company:       company,
		Investor:      investor,
		Channels:      channels,
		Redis:         rdb,
	}, log)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("operator api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("operator api: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("operator api shutdown: %w", err)
	}
	return nil
}

// openTokenStore selects the session token store. An ACCESS_TOKEN given
// alongside the keyring store is persisted to it.
func openTokenStore(ctx context.Context, cfg *config.Config) (ports.TokenStore, error) {
	switch cfg.Session.TokenStore {
	case config.TokenStoreKeyring:
		ring, err := credential.OpenKeyring(cfg.Session.KeyringUser)
		if err != nil {
			return nil, err
		}
		if cfg.Session.AccessToken != "" {
			if err := ring.SetToken(ctx, cfg.Session.AccessToken); err != nil {
				return nil, err
			}
		}
		return ring, nil
	default:
		return credential.NewStatic(cfg.Session.AccessToken), nil
	}
}
