// Package twintools wraps the Maybind client operations as tools, so an MCP
// client can check the service, list twins and hold conversations.
package twintools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/maybind/maybind-go/pkg/apiclient"
	"github.com/maybind/maybind-go/pkg/maybind"
	"github.com/maybind/maybind-go/pkg/tools/toolbox"
	"github.com/maybind/maybind-go/pkg/twins/chat"
	"github.com/maybind/maybind-go/pkg/twins/message"
	"github.com/maybind/maybind-go/pkg/validation"
)

// Tool names.
const (
	HealthCheck  = "health_check"
	VerifyAPIKey = "verify_api_key"
	ListTwins    = "list_twins"
	ChatWithTwin = "chat_with_twin"
	ResetChat    = "reset_chat"
)

// TwinTools exposes a Maybind client as tools. Conversations started through
// chat_with_twin are remembered per twin until reset_chat is called.
type TwinTools struct {
	client      *maybind.Client
	defaultTwin string

	mu       sync.Mutex
	sessions map[string]*session
}

// session is the conversation held with one twin. turn serializes chats with
// that twin; conv is guarded by TwinTools.mu and only swapped once a turn
// completes.
type session struct {
	turn sync.Mutex
	conv *chat.Conversation
}

// New creates TwinTools for client. defaultTwin is used when a call names no
// twin; when it is empty the first twin listed by the server is used.
func New(client *maybind.Client, defaultTwin string) *TwinTools {
	return &TwinTools{
		client:      client,
		defaultTwin: defaultTwin,
		sessions:    make(map[string]*session),
	}
}

// Tools returns a ToolBox containing every twin tool.
func (tt *TwinTools) Tools() *toolbox.ToolBox {
	tb := toolbox.New()
	tb.Register(
		tt.healthTool(),
		tt.verifyTool(),
		tt.listTool(),
		tt.chatTool(),
		tt.resetTool(),
	)
	return tb
}

// --- health_check ---

func (tt *TwinTools) healthTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        HealthCheck,
		Description: "Check whether the Maybind API is reachable. Returns the raw health document.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
		Handler: func(ctx context.Context, _ json.RawMessage) (string, error) {
			raw, err := tt.client.Health(ctx)
			if err != nil {
				return "", describe(err)
			}
			return string(raw), nil
		},
	}
}

// --- verify_api_key ---

func (tt *TwinTools) verifyTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        VerifyAPIKey,
		Description: "Verify the configured Maybind API key.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
		Handler: func(ctx context.Context, _ json.RawMessage) (string, error) {
			info, err := tt.client.VerifyAPIKey(ctx)
			if err != nil {
				return "", describe(err)
			}

			var sb strings.Builder
			sb.WriteString("API key is valid")
			if info.Name != "" {
				fmt.Fprintf(&sb, " (name: %s)", info.Name)
			}
			if info.UsageCount > 0 {
				fmt.Fprintf(&sb, ", used %d times", info.UsageCount)
			}
			return sb.String(), nil
		},
	}
}

// --- list_twins ---

func (tt *TwinTools) listTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        ListTwins,
		Description: "List the digital twins visible to the caller.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
		Handler: func(ctx context.Context, _ json.RawMessage) (string, error) {
			users, err := tt.client.Users(ctx)
			if err != nil {
				return "", describe(err)
			}

			data, err := json.Marshal(users)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	}
}

// --- chat_with_twin ---

type chatInput struct {
	TwinID  string `json:"twin_id"`
	Message string `json:"message"`
}

func (tt *TwinTools) chatTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        ChatWithTwin,
		Description: "Send a message to a digital twin and return its reply. Earlier turns with the same twin are sent along.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"twin_id":{"type":"string","description":"Twin to talk to (default: configured or first listed twin)"},"message":{"type":"string","description":"Message text"}},"required":["message"]}`),
		Handler:     tt.handleChat,
	}
}

func (tt *TwinTools) handleChat(ctx context.Context, input json.RawMessage) (string, error) {
	var in chatInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("chat_with_twin: invalid input: %w", err)
	}

	if strings.TrimSpace(in.Message) == "" {
		return "", errors.New("chat_with_twin: message is required")
	}

	twinID, err := tt.resolveTwin(ctx, in.TwinID)
	if err != nil {
		return "", err
	}

	s := tt.session(twinID)
	s.turn.Lock()
	defer s.turn.Unlock()

	tt.mu.Lock()
	conv := chat.NewConversation(twinID, s.conv.Messages()...)
	tt.mu.Unlock()

	reply, err := tt.client.Say(ctx, conv, in.Message)
	if err != nil {
		return "", describe(err)
	}

	// A reset_chat issued during the round trip wins.
	tt.mu.Lock()
	if tt.sessions[twinID] == s {
		s.conv = conv
	}
	tt.mu.Unlock()

	return reply.Text(), nil
}

func (tt *TwinTools) session(twinID string) *session {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	s, ok := tt.sessions[twinID]
	if !ok {
		s = &session{conv: chat.NewConversation(twinID)}
		tt.sessions[twinID] = s
	}
	return s
}

func (tt *TwinTools) resolveTwin(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if tt.defaultTwin != "" {
		return tt.defaultTwin, nil
	}

	id, err := tt.client.FirstTwin(ctx, "")
	if err != nil {
		return "", describe(err)
	}
	if id == "" {
		return "", errors.New("chat_with_twin: no twin_id given and no twins are available")
	}

	return id, nil
}

// History returns the conversation held with twinID. A turn still in flight
// is not included.
func (tt *TwinTools) History(twinID string) []message.Message {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	s, ok := tt.sessions[twinID]
	if !ok {
		return nil
	}
	return s.conv.Messages()
}

// --- reset_chat ---

type resetInput struct {
	TwinID string `json:"twin_id"`
}

func (tt *TwinTools) resetTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        ResetChat,
		Description: "Forget the conversation held with a twin, or with every twin when twin_id is omitted.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"twin_id":{"type":"string","description":"Twin whose history to forget"}}}`),
		Handler: func(_ context.Context, input json.RawMessage) (string, error) {
			var in resetInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", fmt.Errorf("reset_chat: invalid input: %w", err)
			}

			tt.mu.Lock()
			defer tt.mu.Unlock()

			if in.TwinID == "" {
				clear(tt.sessions)
				return "all conversations reset", nil
			}

			delete(tt.sessions, in.TwinID)
			return fmt.Sprintf("conversation with %s reset", in.TwinID), nil
		},
	}
}

// describe turns client errors into messages meant for a tool caller.
func describe(err error) error {
	var (
		errs      validation.Errors
		transport *apiclient.TransportError
		rateLimit *apiclient.RateLimitError
		decode    *apiclient.DecodeError
	)

	switch {
	case errors.Is(err, apiclient.ErrUnauthorized):
		return errors.New("invalid or missing API key; set MAYBIND_API_KEY")
	case errors.As(err, &rateLimit):
		if rateLimit.RetryAfter > 0 {
			return fmt.Errorf("rate limited; retry after %s", rateLimit.RetryAfter)
		}
		return errors.New("rate limited")
	case errors.As(err, &transport):
		if transport.Timeout() {
			return errors.New("the Maybind API did not answer in time")
		}
		return fmt.Errorf("cannot reach the Maybind API: %v", transport.Err)
	case errors.As(err, &decode):
		return fmt.Errorf("unexpected response from the Maybind API: %v", decode.Err)
	case errors.As(err, &errs):
		lines := make([]string, len(errs))
		for i, e := range errs {
			lines[i] = e.Error()
		}
		return fmt.Errorf("validation failed:\n%s", strings.Join(lines, "\n"))
	default:
		return err
	}
}
