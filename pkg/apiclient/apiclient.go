package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/maybind/maybind-go/pkg/apiclient/calls"
	"github.com/maybind/maybind-go/pkg/validation"
)

// DefaultTimeout bounds a single round trip when no http.Client is supplied.
const DefaultTimeout = 30 * time.Second

// APIKeyHeader is the header carrying the Maybind API key.
const APIKeyHeader = "X-Api-Key"

// maxErrorBody caps how much of an error response is kept in error values.
const maxErrorBody = 4 << 10

// Auth holds authentication settings for the API.
type Auth struct {
	Key    string // API key value.
	Header string // Header name (default: "X-Api-Key").
	Scheme string // Optional scheme prefix, e.g. "Bearer".
}

// Client holds shared state for API clients. Embed it in concrete client
// structs to get HTTP helpers, auth, custom headers, logging, and call
// tracking. Exported fields must not be changed once requests are in flight.
type Client struct {
	BaseURL string            // API base URL (no trailing slash).
	Auth    Auth              // Authentication settings.
	Client  *http.Client      // HTTP client; falls back to a client with Timeout.
	Timeout time.Duration     // Round-trip timeout for the fallback client (default 30s).
	Headers map[string]string // Extra headers applied to every request.
	Logger  *slog.Logger      // Optional; nil discards logs.
	Calls   calls.Tracker     // Round trips made by this client.

	clientOnce    sync.Once
	defaultClient *http.Client
}

// New creates a Client with the given settings.
// A nil client falls back to a client with DefaultTimeout at call time.
func New(baseURL string, auth Auth, client *http.Client) *Client {
	return &Client{
		Auth:    auth,
		BaseURL: baseURL,
		Client:  client,
	}
}

// httpClient returns the configured client or a cached default client.
func (c *Client) httpClient() *http.Client {
	if c.Client != nil {
		return c.Client
	}

	c.clientOnce.Do(func() {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.defaultClient = &http.Client{Timeout: timeout}
	})

	return c.defaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// NewRequest builds an *http.Request with the base URL, auth, and custom
// headers already applied. No auth header is set when the key is empty.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")

	// Apply auth.
	if c.Auth.Key != "" {
		header := c.Auth.Header
		if header == "" {
			header = APIKeyHeader
		}

		value := c.Auth.Key
		if c.Auth.Scheme != "" {
			value = c.Auth.Scheme + " " + value
		}

		req.Header.Set(header, value)
	}

	// Apply custom headers.
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Do sends the request using the configured HTTP client, records the round
// trip and logs it. Failures to get a response are returned as
// *TransportError.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	log := c.logger()
	start := time.Now()

	resp, err := c.httpClient().Do(req) //nolint:gosec // URL is built from trusted BaseURL config, not user input.

	call := calls.Call{
		Method:   req.Method,
		Path:     req.URL.Path,
		Duration: time.Since(start),
	}

	if err != nil {
		call.Failed = true
		c.Calls.Add(call)

		log.WarnContext(req.Context(), "request failed",
			"method", req.Method,
			"path", req.URL.Path,
			"duration", call.Duration,
			"error", err,
		)

		return nil, &TransportError{Method: req.Method, URL: req.URL.Redacted(), Err: unwrapURLError(err)}
	}

	call.StatusCode = resp.StatusCode
	call.Failed = resp.StatusCode >= 400
	c.Calls.Add(call)

	log.DebugContext(req.Context(), "request completed",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration", call.Duration,
	)

	return resp, nil
}

// Send performs one round trip and returns the body of a 2xx response.
// A non-nil payload is sent as JSON. Non-2xx statuses are mapped to
// *AuthError, validation.Errors (422), *RateLimitError or *StatusError.
func (c *Client) Send(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: req.URL.Redacted(), Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	return nil, statusError(resp, respBody)
}

// GetJSON sends a GET to path and decodes the 2xx body with decode.
func GetJSON[T any](ctx context.Context, c *Client, path string, decode func([]byte) (T, error)) (T, error) {
	return roundTrip(ctx, c, http.MethodGet, path, nil, decode)
}

// PostJSON sends payload as JSON to path and decodes the 2xx body with
// decode.
func PostJSON[T any](ctx context.Context, c *Client, path string, payload any, decode func([]byte) (T, error)) (T, error) {
	return roundTrip(ctx, c, http.MethodPost, path, payload, decode)
}

func roundTrip[T any](ctx context.Context, c *Client, method, path string, payload any, decode func([]byte) (T, error)) (T, error) {
	body, err := c.Send(ctx, method, path, payload)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode(body, decode)
}

// Decode runs fn over a response body and wraps any failure in *DecodeError.
func Decode[T any](body []byte, fn func([]byte) (T, error)) (T, error) {
	v, err := fn(body)
	if err != nil {
		var zero T
		return zero, &DecodeError{Body: truncateBody(body), Err: err}
	}
	return v, nil
}

func statusError(resp *http.Response, body []byte) error {
	text := truncateBody(body)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{StatusCode: resp.StatusCode, Body: text}

	case http.StatusUnprocessableEntity:
		var he validation.HTTPError
		if err := json.Unmarshal(body, &he); err == nil && len(he.Detail) > 0 {
			return he.Detail
		}

	case http.StatusTooManyRequests:
		return &RateLimitError{
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
			Body:       text,
		}
	}

	return &StatusError{StatusCode: resp.StatusCode, Body: text}
}

func truncateBody(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}

// unwrapURLError strips the *url.Error wrapper, whose method and URL are
// already carried by TransportError.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}
