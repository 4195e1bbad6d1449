// Package sse connects to the admin notification stream.
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/core/ports"
	"github.com/cedarvest/dashboard-sync/internal/infrastructure/reconnect"
	"github.com/cedarvest/dashboard-sync/internal/pkg/metrics"
)

const (
	streamPath   = "/sse/admin/company-signups"
	metricsLabel = "stream"
	eventBuffer  = 64

	// FailedMessage is logged and reported once reconnects are exhausted.
	FailedMessage = "stream disconnected, please refresh"
)

// eventTypes maps the named stream events to notification types.
var eventTypes = map[string]domain.NotificationType{
	"company-signup":       domain.NotificationSignupRequest,
	"verification-request": domain.NotificationVerificationRequest,
	"project-proposal":     domain.NotificationProjectProposal,
}

// Config describes one admin stream.
type Config struct {
	BaseURL string
	AdminID string
	// Token is read on every attempt, so a refreshed token is picked up on
	// the next reconnect.
	Token  ports.TokenSource
	Policy reconnect.Policy
	// HTTPClient must not set a Timeout; the stream is long-lived.
	HTTPClient *http.Client
}

// Stream is a live admin notification stream. Notifications are delivered in
// arrival order on Events, which is closed when the stream stops.
type Stream struct {
	cfg     Config
	log     zerolog.Logger
	backoff *reconnect.Backoff

	events chan domain.Notification
	failed chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
	once   sync.Once

	state  atomic.Int32
	lastID atomic.Value // string
}

// Connect starts the stream in the background. The returned Stream runs until
// Close is called, ctx is cancelled, or reconnects are exhausted.
func Connect(ctx context.Context, cfg Config, log zerolog.Logger) *Stream {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream{
		cfg:     cfg,
		log:     log.With().Str("component", "event_stream").Str("admin_id", cfg.AdminID).Logger(),
		backoff: reconnect.NewBackoff(cfg.Policy),
		events:  make(chan domain.Notification, eventBuffer),
		failed:  make(chan struct{}),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	s.lastID.Store("")
	s.setState(reconnect.Connecting)
	go s.run(ctx)
	return s
}

// Events returns the channel of decoded notifications.
func (s *Stream) Events() <-chan domain.Notification { return s.events }

// Failed is closed once reconnects are exhausted.
func (s *Stream) Failed() <-chan struct{} { return s.failed }

// State returns the current connection state.
func (s *Stream) State() reconnect.State { return reconnect.State(s.state.Load()) }

// Attempts returns the reconnects consumed since the last successful open.
func (s *Stream) Attempts() int { return s.backoff.Attempts() }

// Close cancels any pending reconnect, closes the live connection and waits
// for the stream goroutine to exit. It is safe to call more than once.
func (s *Stream) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

func (s *Stream) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)

	for {
		err := s.connect(ctx)
		if ctx.Err() != nil {
			s.setState(reconnect.Closed)
			return
		}

		delay, ok := s.backoff.Next()
		if !ok {
			s.setState(reconnect.Failed)
			close(s.failed)
			s.log.Error().Err(err).Int("attempts", s.backoff.Attempts()).Msg(FailedMessage)
			return
		}

		s.setState(reconnect.Reconnecting)
		metrics.ReconnectsTotal.WithLabelValues(metricsLabel).Inc()
		s.log.Warn().Err(err).
			Int("attempt", s.backoff.Attempts()).
			Dur("delay", delay).
			Msg("stream dropped, reconnecting")

		if reconnect.Wait(ctx, delay) != nil {
			s.setState(reconnect.Closed)
			return
		}
	}
}

// connect runs one connection until it ends and returns why it ended.
func (s *Stream) connect(ctx context.Context) error {
	req, err := s.newRequest(ctx)
	if err != nil {
		return err
	}

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("connect: unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "text/event-stream") {
		return fmt.Errorf("connect: unexpected content type %q", ct)
	}

	s.backoff.Reset()
	s.setState(reconnect.Open)
	s.log.Info().Msg("stream open")

	r := newReader(resp.Body)
	r.onOversize = func(event string) {
		metrics.MalformedMessagesTotal.WithLabelValues(metricsLabel).Inc()
		s.log.Warn().Str("event", event).Int("max_line", r.maxLine).Msg("oversized stream line dropped")
	}
	for {
		ev, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("stream closed by server")
			}
			return fmt.Errorf("read: %w", err)
		}
		if ev.ID != "" {
			s.lastID.Store(ev.ID)
		}
		if !s.dispatch(ctx, ev) {
			return ctx.Err()
		}
	}
}

func (s *Stream) newRequest(ctx context.Context) (*http.Request, error) {
	token := ""
	if s.cfg.Token != nil {
		t, err := s.cfg.Token.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("token: %w", err)
		}
		token = t
	}

	u, err := StreamURL(s.cfg.BaseURL, s.cfg.AdminID, token)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if id, _ := s.lastID.Load().(string); id != "" {
		req.Header.Set("Last-Event-ID", id)
	}
	return req, nil
}

// dispatch decodes ev and delivers it. It returns false only when ctx ended
// while the consumer was not draining.
func (s *Stream) dispatch(ctx context.Context, ev Event) bool {
	typ, known := eventTypes[ev.Name]
	if !known {
		s.log.Debug().Str("event", ev.Name).Msg("ignoring unnamed stream event")
		return true
	}
	metrics.StreamEventsTotal.WithLabelValues(ev.Name).Inc()

	var n domain.Notification
	if err := json.Unmarshal(ev.Data, &n); err != nil {
		metrics.MalformedMessagesTotal.WithLabelValues(metricsLabel).Inc()
		s.log.Warn().Err(err).Str("event", ev.Name).Msg("malformed stream payload dropped")
		return true
	}
	if n.Type == "" {
		n.Type = typ
	}

	select {
	case s.events <- n:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Stream) setState(st reconnect.State) {
	s.state.Store(int32(st))
	metrics.ChannelState.WithLabelValues(metricsLabel).Set(float64(st))
}

// StreamURL builds the stream endpoint. The transport cannot carry headers,
// so the admin id and bearer token travel as query parameters.
func StreamURL(baseURL, adminID, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + streamPath)
	if err != nil {
		return "", fmt.Errorf("stream url: %w", err)
	}
	q := u.Query()
	q.Set("adminId", adminID)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
