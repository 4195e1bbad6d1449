// Package rest is the HTTP adapter for the platform's REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cedarvest/dashboard-sync/internal/core/ports"
)

const (
	defaultRequestTimeout       = 20 * time.Second
	defaultNotificationsTimeout = 60 * time.Second
	maxRetries                  = 3
	maxRetryWait                = 30 * time.Second
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error (%d) on %s %s", e.StatusCode, e.Method, e.Path)
	}
	return fmt.Sprintf("api error (%d) on %s %s: %s", e.StatusCode, e.Method, e.Path, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is a 401.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err (or any error in its chain) is a 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   ports.TokenSource
	// RequestTimeout bounds action calls; NotificationsTimeout bounds the
	// larger notification list fetch.
	RequestTimeout       time.Duration
	NotificationsTimeout time.Duration
	HTTPClient           *http.Client
}

// Client is a thin JSON client for the platform API. It implements the
// admin and company ports; Investor returns the investor port.
type Client struct {
	baseURL     string
	token       ports.TokenSource
	httpClient  *http.Client
	timeout     time.Duration
	listTimeout time.Duration
	log         zerolog.Logger
}

var (
	_ ports.AdminAPI    = (*Client)(nil)
	_ ports.CompanyAPI  = (*Client)(nil)
	_ ports.InvestorAPI = (*InvestorClient)(nil)
)

func NewClient(opts Options, log zerolog.Logger) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		token:       opts.Token,
		httpClient:  opts.HTTPClient,
		timeout:     opts.RequestTimeout,
		listTimeout: opts.NotificationsTimeout,
		log:         log.With().Str("component", "rest_client").Logger(),
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.timeout <= 0 {
		c.timeout = defaultRequestTimeout
	}
	if c.listTimeout <= 0 {
		c.listTimeout = defaultNotificationsTimeout
	}
	return c
}

// envelope is the API's standard response wrapper. Some endpoints answer
// with the bare payload instead.
type envelope struct {
	Status    json.RawMessage `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// call is one request description.
type call struct {
	method  string
	path    string
	query   url.Values
	body    any
	result  any
	timeout time.Duration
}

// do builds the request, handles auth, retries 429 with backoff and
// decodes the (possibly enveloped) JSON answer into c.result.
func (c *Client) do(ctx context.Context, rc call) error {
	timeout := rc.timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := c.baseURL + rc.path
	if len(rc.query) > 0 {
		target += "?" + rc.query.Encode()
	}

	var payload []byte
	if rc.body != nil {
		data, err := json.Marshal(rc.body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, rc.method, target, bodyReader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		reqID := uuid.NewString()
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", reqID)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", rc.method, rc.path, err)
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		c.log.Debug().
			Str("request_id", reqID).
			Str("method", rc.method).
			Str("path", rc.path).
			Int("status", resp.StatusCode).
			Dur("latency", time.Since(start)).
			Msg("api call")

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &APIError{StatusCode: resp.StatusCode, Method: rc.method, Path: rc.path, Message: "rate limited"}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryAfterDuration(resp, attempt)):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{
				StatusCode: resp.StatusCode,
				Method:     rc.method,
				Path:       rc.path,
				Message:    errorMessage(respBody),
			}
		}
		return decode(rc, resp.StatusCode, respBody)
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, lastErr)
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	if c.token == nil {
		return "", nil
	}
	token, err := c.token.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimPrefix(token, "Bearer "), nil
}

// decode unwraps the envelope when present. Any envelope status outside 2xx
// is reported as an APIError even on a 2xx answer; an envelope without a
// status takes the HTTP one.
func decode(rc call, httpStatus int, body []byte) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}

	payload := body
	if body[0] == '{' && isEnvelope(body) {
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return fmt.Errorf("unmarshaling envelope from %s %s: %w", rc.method, rc.path, err)
		}
		code := httpStatus
		if len(env.Status) > 0 && !bytes.Equal(env.Status, []byte("null")) {
			code = envelopeStatus(env.Status)
		}
		if code < 200 || code >= 300 {
			msg := env.Message
			if msg == "" {
				msg = "envelope status " + string(env.Status)
			}
			return &APIError{StatusCode: code, Method: rc.method, Path: rc.path, Message: msg}
		}
		payload = env.Data
	}

	if rc.result == nil || len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(payload, rc.result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", rc.method, rc.path, err)
	}
	return nil
}

// isEnvelope reports whether an object carries the wrapper's data key.
func isEnvelope(body []byte) bool {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		return false
	}
	_, hasData := keys["data"]
	_, hasStatus := keys["status"]
	_, hasMessage := keys["message"]
	return hasData && (hasStatus || hasMessage)
}

// statusNames maps status names such as "OK" or "BAD_REQUEST" to codes.
var statusNames = func() map[string]int {
	m := make(map[string]int)
	for code := 100; code < 600; code++ {
		if text := http.StatusText(code); text != "" {
			m[statusName(text)] = code
		}
	}
	return m
}()

func statusName(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}

// envelopeStatus reads a status that may be a number, a numeric string or
// a status name. Unrecognized values read as 0.
func envelopeStatus(raw json.RawMessage) int {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return n
	}
	return statusNames[statusName(s)]
}

func errorMessage(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &env) == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > maxRetryWait {
		backoff = maxRetryWait
	}
	return backoff
}
