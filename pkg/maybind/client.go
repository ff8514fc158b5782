// Package maybind is a client for the Maybind digital-twin API.
//
// Every method performs exactly one HTTP round trip. Failures are reported
// with the error types of [apiclient] and [validation]:
//
//   - *apiclient.TransportError when no response was received
//   - *apiclient.AuthError (errors.Is apiclient.ErrUnauthorized) for 401/403
//   - validation.Errors for 422 and for requests rejected before sending
//   - *apiclient.DecodeError when a response does not match its schema
//   - *apiclient.RateLimitError and *apiclient.StatusError otherwise
package maybind

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/maybind/maybind-go/pkg/apiclient"
	"github.com/maybind/maybind-go/pkg/config"
	"github.com/maybind/maybind-go/pkg/twins/chat"
	"github.com/maybind/maybind-go/pkg/twins/message"
	"github.com/maybind/maybind-go/pkg/twins/role"
	"github.com/maybind/maybind-go/pkg/validation"
)

// API paths.
const (
	HealthPath = "/health"
	VerifyPath = "/verify-api-key"
	UsersPath  = "/users"
	ChatPath   = "/chat"
)

// ErrNoReply is returned by Say when the server answers without appending a
// twin message.
var ErrNoReply = errors.New("twin did not reply")

// Client talks to the Maybind API. Configure it before the first call; it is
// safe for concurrent use afterwards.
type Client struct {
	*apiclient.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its own timeout takes
// precedence over the configured one.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.Client.Client = hc }
}

// WithTimeout bounds every round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.Timeout = d }
}

// WithLogger logs each round trip to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.Logger = l }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if c.Headers == nil {
			c.Headers = map[string]string{}
		}
		c.Headers["User-Agent"] = ua
	}
}

// New creates a client for host using apiKey. An empty host means
// config.DefaultHost. An empty key is allowed; authenticated calls then fail
// with *apiclient.AuthError.
func New(host, apiKey string, opts ...Option) *Client {
	if host == "" {
		host = config.DefaultHost
	}

	c := &Client{Client: apiclient.New(strings.TrimRight(host, "/"), apiclient.Auth{
		Key:    apiKey,
		Header: apiclient.APIKeyHeader,
	}, nil)}
	c.Timeout = config.DefaultTimeout

	for _, o := range opts {
		o(c)
	}

	return c
}

// NewFromConfig creates a client from a resolved configuration.
func NewFromConfig(cfg config.Config, opts ...Option) *Client {
	base := []Option{WithTimeout(cfg.Timeout)}
	if cfg.Timeout <= 0 {
		base = nil
	}
	return New(cfg.Host, cfg.APIKey, append(base, opts...)...)
}

// Health checks the service. The body is returned as-is.
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	raw, err := apiclient.GetJSON(ctx, c.Client, HealthPath, decodeRaw)
	if err != nil {
		return nil, fmt.Errorf("maybind: health: %w", err)
	}

	return raw, nil
}

// VerifyAPIKey checks the configured key. A rejected or missing key yields
// *apiclient.AuthError.
func (c *Client) VerifyAPIKey(ctx context.Context) (KeyInfo, error) {
	info, err := apiclient.GetJSON(ctx, c.Client, VerifyPath, decodeKeyInfo)
	if err != nil {
		return KeyInfo{}, fmt.Errorf("maybind: verify api key: %w", err)
	}

	return info, nil
}

// Users lists the twins visible to the caller. An empty list is not an error.
func (c *Client) Users(ctx context.Context) (chat.Users, error) {
	users, err := apiclient.GetJSON(ctx, c.Client, UsersPath, chat.DecodeUsers)
	if err != nil {
		return chat.Users{}, fmt.Errorf("maybind: users: %w", err)
	}

	return users, nil
}

// Chat sends a conversation to a twin and returns the full conversation with
// the twin's reply appended. The request is validated before anything is
// sent; local failures use the same loc/msg/type triple as the server.
func (c *Client) Chat(ctx context.Context, req chat.Request) (chat.Response, error) {
	if errs := req.Validate(); len(errs) > 0 {
		return chat.Response{}, fmt.Errorf("maybind: chat: %w", errs)
	}

	resp, err := apiclient.PostJSON(ctx, c.Client, ChatPath, req, chat.DecodeResponse)
	if err != nil {
		return chat.Response{}, fmt.Errorf("maybind: chat: %w", err)
	}

	return resp, nil
}

// Say adds a user turn to conv, sends the whole history and, on success,
// replaces the history with the server's view of it. The twin's reply is
// returned. On failure conv is left unchanged.
func (c *Client) Say(ctx context.Context, conv *chat.Conversation, text string) (message.Message, error) {
	msgs := append(conv.Messages(), message.NewUser(text))

	req, err := chat.NewRequest(conv.TwinID(), msgs...)
	if err != nil {
		return message.Message{}, fmt.Errorf("maybind: chat: %w", err)
	}

	resp, err := c.Chat(ctx, req)
	if err != nil {
		return message.Message{}, err
	}

	reply, ok := resp.Reply()
	if !ok || reply.Role() != role.Twin {
		return message.Message{}, fmt.Errorf("maybind: chat: %w", ErrNoReply)
	}

	conv.Replace(resp)

	return reply, nil
}

// FirstTwin returns the first twin listed by /users, or fallback when the
// list is empty. Errors from /users are returned together with fallback so
// callers may choose to continue.
func (c *Client) FirstTwin(ctx context.Context, fallback string) (string, error) {
	users, err := c.Users(ctx)
	if err != nil {
		return fallback, err
	}

	if id, ok := users.First(); ok {
		return id, nil
	}

	return fallback, nil
}

func decodeRaw(body []byte) (json.RawMessage, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(body) {
		return nil, validation.Errors{validation.JSONInvalid(validation.At(chat.ResponseRoot), "document is not valid JSON")}
	}
	return json.RawMessage(body), nil
}
