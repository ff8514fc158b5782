// Package maybindtest provides an in-process Maybind API for tests.
//
// The server implements the documented contract: /health answers with a
// status object, /verify-api-key and /chat require a known X-Api-Key, /users
// lists the configured twins and /chat echoes the conversation back with a
// twin reply appended.
package maybindtest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"time"

	"github.com/maybind/maybind-go/pkg/apiclient"
	"github.com/maybind/maybind-go/pkg/twins/chat"
	"github.com/maybind/maybind-go/pkg/twins/message"
	"github.com/maybind/maybind-go/pkg/twins/role"
	"github.com/maybind/maybind-go/pkg/validation"
)

// DefaultKey is the only accepted key unless WithKeys says otherwise.
const DefaultKey = "test-api-key"

// ReplyFunc produces the twin's answer to a validated request.
type ReplyFunc func(req chat.Request) string

// Option configures a Server.
type Option func(*Server)

// WithTwins sets the twin ids returned by /users.
func WithTwins(ids ...string) Option {
	return func(s *Server) { s.twins = slices.Clone(ids) }
}

// WithKeys replaces the set of accepted API keys.
func WithKeys(keys ...string) Option {
	return func(s *Server) {
		s.keys = make(map[string]bool, len(keys))
		for _, k := range keys {
			s.keys[k] = true
		}
	}
}

// WithReply sets how the twin answers.
func WithReply(fn ReplyFunc) Option {
	return func(s *Server) { s.reply = fn }
}

// WithClock fixes the timestamp stamped on replies.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// Server is a fake Maybind API backed by httptest.Server.
type Server struct {
	*httptest.Server

	twins []string
	keys  map[string]bool
	reply ReplyFunc
	now   func() time.Time

	mu       sync.Mutex
	requests []chat.Request
	override map[string]http.HandlerFunc
}

// NewServer starts a fake API. Close it when done.
func NewServer(opts ...Option) *Server {
	s := &Server{
		keys:     map[string]bool{DefaultKey: true},
		twins:    []string{},
		reply:    EchoReply,
		now:      time.Now,
		override: map[string]http.HandlerFunc{},
	}
	for _, o := range opts {
		o(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handle("/health", s.health))
	mux.HandleFunc("GET /verify-api-key", s.handle("/verify-api-key", s.verify))
	mux.HandleFunc("GET /users", s.handle("/users", s.users))
	mux.HandleFunc("POST /chat", s.handle("/chat", s.chat))

	s.Server = httptest.NewServer(mux)

	return s
}

// EchoReply answers with the text of the last user message.
func EchoReply(req chat.Request) string {
	msgs := req.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role() == role.User {
			return "You said: " + msgs[i].Text()
		}
	}
	return ""
}

// Override replaces the handler for path, e.g. to return a malformed body.
func (s *Server) Override(path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.override[path] = h
}

// Requests returns the chat requests accepted so far.
func (s *Server) Requests() []chat.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.requests)
}

func (s *Server) handle(path string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		o := s.override[path]
		s.mu.Unlock()

		if o != nil {
			o(w, r)
			return
		}
		h(w, r)
	}
}

func (s *Server) authorized(r *http.Request) bool {
	return s.keys[r.Header.Get(apiclient.APIKeyHeader)]
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid or missing API key"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"key_name":    "test",
		"usage_count": len(s.Requests()),
		"timestamp":   message.FormatTime(s.now()),
	})
}

func (s *Server) users(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, chat.Users{TwinIDs: s.twins})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid or missing API key"})
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}

	req, err := chat.DecodeRequest(body)
	if err != nil {
		var detail validation.Errors
		if !errors.As(err, &detail) {
			detail = validation.Errors{validation.JSONInvalid(validation.At(chat.BodyRoot), err.Error())}
		}
		writeJSON(w, http.StatusUnprocessableEntity, validation.HTTPError{Detail: detail})
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	answer, err := message.New(s.now(), role.Twin, s.reply(req))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}

	msgs := append(req.Messages(), answer)
	writeJSON(w, http.StatusOK, chat.NewResponse(req.TwinID(), "success", msgs...))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("encode: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
