package sse

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_NamedEvents(t *testing.T) {
	body := ": keep-alive\n\n" +
		"id: 7\nevent: company-signup\ndata: {\"id\":1}\n\n" +
		"event: verification-request\ndata:{\"a\":\ndata: 2}\nretry: 1500\n\n" +
		"data: plain\n\n"
	r := newReader(strings.NewReader(body))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "7", ev.ID)
	assert.Equal(t, "company-signup", ev.Name)
	assert.JSONEq(t, `{"id":1}`, string(ev.Data))

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "verification-request", ev.Name)
	assert.Equal(t, "{\"a\":\n2}", string(ev.Data))
	assert.Equal(t, 1500*time.Millisecond, ev.Retry)

	ev, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "message", ev.Name)
	assert.Equal(t, "plain", string(ev.Data))

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_TruncatedEventDiscarded(t *testing.T) {
	r := newReader(strings.NewReader("event: company-signup\ndata: {\"id\":1}"))
	_, err := r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_CRLF(t *testing.T) {
	r := newReader(strings.NewReader("event: project-proposal\r\ndata: x\r\n\r\n"))
	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "project-proposal", ev.Name)
	assert.Equal(t, "x", string(ev.Data))
}

func TestReader_OversizedLineDropsEvent(t *testing.T) {
	body := "event: company-signup\ndata: " + strings.Repeat("x", 200) + "\ndata: tail\n\n" +
		"id: 9\nevent: company-signup\ndata: {\"id\":9}\n\n"
	r := newReader(strings.NewReader(body))
	r.maxLine = 64
	var dropped []string
	r.onOversize = func(event string) { dropped = append(dropped, event) }

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "9", ev.ID)
	assert.JSONEq(t, `{"id":9}`, string(ev.Data))
	assert.Equal(t, []string{"company-signup"}, dropped)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_LongLineWithinLimit(t *testing.T) {
	payload := strings.Repeat("y", 100*1024)
	r := newReader(strings.NewReader("data: " + payload + "\n\n"))

	ev, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, payload, string(ev.Data))
}
