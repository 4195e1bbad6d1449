package sse

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedarvest/dashboard-sync/internal/core/domain"
	"github.com/cedarvest/dashboard-sync/internal/infrastructure/reconnect"
)

type staticToken string

func (t staticToken) Token(context.Context) (string, error) { return string(t), nil }

func fastPolicy() reconnect.Policy {
	return reconnect.Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}
}

func connectTo(t *testing.T, srv *httptest.Server, p reconnect.Policy) *Stream {
	t.Helper()
	s := Connect(context.Background(), Config{
		BaseURL: srv.URL,
		AdminID: "admin-1",
		Token:   staticToken("tok en/+"),
		Policy:  p,
	}, zerolog.Nop())
	t.Cleanup(s.Close)
	return s
}

// writeEvents streams the given raw blocks, then holds the connection open
// until the client goes away.
func writeEvents(w http.ResponseWriter, r *http.Request, blocks ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	f := w.(http.Flusher)
	for _, b := range blocks {
		fmt.Fprint(w, b)
		f.Flush()
	}
	<-r.Context().Done()
}

func receive(t *testing.T, s *Stream) domain.Notification {
	t.Helper()
	select {
	case n, ok := <-s.Events():
		require.True(t, ok, "events channel closed")
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return domain.Notification{}
	}
}

func TestStream_DeliversNamedEventsInOrder(t *testing.T) {
	var query atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sse/admin/company-signups", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		query.Store(r.URL.Query())
		writeEvents(w, r,
			"event: company-signup\ndata: {\"id\":1,\"title\":\"Cedar SAL\",\"reqId\":9}\n\n",
			"event: verification-request\ndata: {\"id\":\"2\",\"companyId\":42,\"isAccepted\":null}\n\n",
			"event: project-proposal\ndata: {\"id\":3,\"type\":\"PROJECT_PROPOSAL\"}\n\n",
		)
	}))
	t.Cleanup(srv.Close)

	s := connectTo(t, srv, fastPolicy())

	first := receive(t, s)
	assert.Equal(t, domain.ID("1"), first.ID)
	assert.Equal(t, domain.NotificationSignupRequest, first.Type)
	assert.Equal(t, domain.ID("9"), first.ReqID)

	second := receive(t, s)
	assert.Equal(t, domain.NotificationVerificationRequest, second.Type)
	assert.Equal(t, domain.ID("42"), second.CompanyID)
	assert.Nil(t, second.IsAccepted)

	third := receive(t, s)
	assert.Equal(t, domain.NotificationProjectProposal, third.Type)

	q := query.Load().(url.Values)
	assert.Equal(t, "admin-1", q.Get("adminId"))
	assert.Equal(t, "tok en/+", q.Get("token"))
	assert.Equal(t, reconnect.Open, s.State())
}

func TestStream_MalformedPayloadDropped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEvents(w, r,
			"event: company-signup\ndata: {not json\n\n",
			"event: heartbeat\ndata: {}\n\n",
			"event: company-signup\ndata: {\"id\":5}\n\n",
		)
	}))
	t.Cleanup(srv.Close)

	s := connectTo(t, srv, fastPolicy())

	n := receive(t, s)
	assert.Equal(t, domain.ID("5"), n.ID)
	assert.Equal(t, reconnect.Open, s.State(), "malformed payload must not drop the connection")
	assert.Equal(t, 0, s.Attempts())
}

func TestStream_OversizedLineKeepsConnection(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conns.Add(1)
		writeEvents(w, r,
			"id: 1\nevent: company-signup\ndata: \""+strings.Repeat("x", maxLineSize+10)+"\"\n\n",
			"id: 2\nevent: company-signup\ndata: {\"id\":2}\n\n",
		)
	}))
	t.Cleanup(srv.Close)

	s := connectTo(t, srv, fastPolicy())

	n := receive(t, s)
	assert.Equal(t, domain.ID("2"), n.ID)
	assert.Equal(t, int32(1), conns.Load(), "oversized line must not trigger a reconnect")
	assert.Equal(t, reconnect.Open, s.State())
}

func TestStream_FailsAfterFiveReconnects(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	s := connectTo(t, srv, fastPolicy())

	select {
	case <-s.Failed():
	case <-time.After(5 * time.Second):
		t.Fatal("stream never failed")
	}

	// Give a hypothetical sixth reconnect time to fire.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(6), hits.Load(), "initial connect plus five reconnects")
	assert.Equal(t, reconnect.Failed, s.State())
	assert.Equal(t, 5, s.Attempts())

	_, ok := <-s.Events()
	assert.False(t, ok, "events channel closed after failure")
}

func TestStream_OpenResetsCounter(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch hits.Add(1) {
		case 3:
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "event: company-signup\ndata: {\"id\":1}\n\n")
		default:
			http.Error(w, "down", http.StatusBadGateway)
		}
	}))
	t.Cleanup(srv.Close)

	s := connectTo(t, srv, fastPolicy())

	n := receive(t, s)
	assert.Equal(t, domain.ID("1"), n.ID)

	select {
	case <-s.Failed():
	case <-time.After(5 * time.Second):
		t.Fatal("stream never failed")
	}
	// Two failures, one successful open, then a fresh budget of five.
	assert.Equal(t, int32(8), hits.Load())
}

func TestStream_SendsLastEventIDOnReconnect(t *testing.T) {
	var (
		mu      sync.Mutex
		lastIDs []string
		hits    atomic.Int32
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		lastIDs = append(lastIDs, r.Header.Get("Last-Event-ID"))
		mu.Unlock()
		if hits.Add(1) == 1 {
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "id: 17\nevent: company-signup\ndata: {\"id\":1}\n\n")
			return
		}
		writeEvents(w, r, "event: company-signup\ndata: {\"id\":2}\n\n")
	}))
	t.Cleanup(srv.Close)

	s := connectTo(t, srv, fastPolicy())
	receive(t, s)
	receive(t, s)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lastIDs, 2)
	assert.Equal(t, "", lastIDs[0])
	assert.Equal(t, "17", lastIDs[1])
}

func TestStream_CloseCancelsPendingReconnect(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	s := connectTo(t, srv, reconnect.Policy{MaxAttempts: 5, BaseDelay: time.Hour})

	require.Eventually(t, func() bool { return s.State() == reconnect.Reconnecting }, 2*time.Second, 5*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on pending reconnect")
	}

	assert.Equal(t, reconnect.Closed, s.State())
	assert.Equal(t, int32(1), hits.Load())
	_, ok := <-s.Events()
	assert.False(t, ok)
}

func TestStream_CloseDropsLiveConnection(t *testing.T) {
	gone := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEvents(w, r)
		close(gone)
	}))
	t.Cleanup(srv.Close)

	s := connectTo(t, srv, fastPolicy())
	require.Eventually(t, func() bool { return s.State() == reconnect.Open }, 2*time.Second, 5*time.Millisecond)

	s.Close()
	select {
	case <-gone:
	case <-time.After(2 * time.Second):
		t.Fatal("server still holds the connection")
	}
}

func TestStreamURL(t *testing.T) {
	u, err := StreamURL("https://api.example.com/api/", "7", "a&b=c")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/api/sse/admin/company-signups?adminId=7&token=a%26b%3Dc", u)
}
