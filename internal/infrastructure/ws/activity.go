// Package ws subscribes to the admin activity channel.
package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
	"github.com/cedarvest/dashboard-sync/internal/infrastructure/reconnect"
	"github.com/cedarvest/dashboard-sync/internal/pkg/metrics"
)

const (
	metricsLabel = "activity"

	readLimit  = 64 * 1024
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Config describes one activity subscription.
type Config struct {
	URL   string
	Token ports.TokenSource
	// Enabled is false for anyone but an authenticated admin; the
	// subscription is then inert.
	Enabled bool
	Policy  reconnect.Policy
	Dialer  *websocket.Dialer

	OnActivity   func(domain.PresenceUpdate)
	OnConnect    func()
	OnDisconnect func()
}

// Subscription is a live activity channel. Messages are handed to
// OnActivity one at a time in arrival order.
type Subscription struct {
	cfg     Config
	log     zerolog.Logger
	backoff *reconnect.Backoff

	failed chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once

	state atomic.Int32
}

// Subscribe starts the subscription in the background.
func Subscribe(ctx context.Context, cfg Config, log zerolog.Logger) *Subscription {
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		cfg:     cfg,
		log:     log.With().Str("component", "activity_channel").Logger(),
		backoff: reconnect.NewBackoff(cfg.Policy),
		failed:  make(chan struct{}),
		done:    make(chan struct{}),
		cancel:  cancel,
	}

	if !cfg.Enabled {
		s.setState(reconnect.Closed)
		close(s.done)
		s.log.Debug().Msg("activity channel disabled")
		return s
	}

	s.setState(reconnect.Connecting)
	go s.run(ctx)
	return s
}

// State returns the current connection state.
func (s *Subscription) State() reconnect.State { return reconnect.State(s.state.Load()) }

// Failed is closed once reconnects are exhausted.
func (s *Subscription) Failed() <-chan struct{} { return s.failed }

// Close cancels any pending reconnect and closes the live connection.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)

	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			s.setState(reconnect.Closed)
			return
		}

		delay, ok := s.backoff.Next()
		if !ok {
			s.setState(reconnect.Failed)
			close(s.failed)
			s.log.Error().Err(err).Int("attempts", s.backoff.Attempts()).Msg("activity channel disconnected, please refresh")
			return
		}

		s.setState(reconnect.Reconnecting)
		metrics.ReconnectsTotal.WithLabelValues(metricsLabel).Inc()
		s.log.Warn().Err(err).
			Int("attempt", s.backoff.Attempts()).
			Dur("delay", delay).
			Msg("activity channel dropped, reconnecting")

		if reconnect.Wait(ctx, delay) != nil {
			s.setState(reconnect.Closed)
			return
		}
	}
}

// session dials once and reads until the connection ends.
func (s *Subscription) session(ctx context.Context) error {
	header := http.Header{}
	if s.cfg.Token != nil {
		token, err := s.cfg.Token.Token(ctx)
		if err != nil {
			return fmt.Errorf("token: %w", err)
		}
		header.Set("Authorization", "Bearer "+token)
	}

	conn, resp, err := s.cfg.Dialer.DialContext(ctx, s.cfg.URL, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial: %w", err)
	}

	connCtx, stop := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.keepAlive(connCtx, conn)
	}()
	defer func() {
		stop()
		wg.Wait()
		_ = conn.Close()
	}()

	s.backoff.Reset()
	s.setState(reconnect.Open)
	s.log.Info().Msg("activity channel open")
	if s.cfg.OnConnect != nil {
		s.cfg.OnConnect()
	}
	if s.cfg.OnDisconnect != nil {
		defer s.cfg.OnDisconnect()
	}

	conn.SetReadLimit(readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.New("closed by server")
			}
			return fmt.Errorf("read: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if kind != websocket.TextMessage && kind != websocket.BinaryMessage {
			continue
		}
		s.handle(data)
	}
}

// keepAlive pings the server and, when ctx ends, closes the connection
// with a normal-closure frame so a blocked read returns.
func (s *Subscription) keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.log.Debug().Err(err).Msg("ping failed")
			}
		}
	}
}

// handle decodes one message. A malformed message is logged and dropped;
// it never ends the connection.
func (s *Subscription) handle(data []byte) {
	u, err := domain.DecodePresence(data)
	if err != nil {
		metrics.MalformedMessagesTotal.WithLabelValues(metricsLabel).Inc()
		s.log.Warn().Err(err).Int("bytes", len(data)).Msg("malformed activity message dropped")
		return
	}
	if s.cfg.OnActivity == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("user_id", u.UserID.String()).Msg("activity handler panicked")
		}
	}()
	s.cfg.OnActivity(u)
}

func (s *Subscription) setState(st reconnect.State) {
	s.state.Store(int32(st))
	metrics.ChannelState.WithLabelValues(metricsLabel).Set(float64(st))
}
