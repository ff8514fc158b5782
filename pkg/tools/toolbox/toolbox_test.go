package toolbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(_ context.Context, input json.RawMessage) (string, error) {
	return string(input), nil
}

func errorHandler(_ context.Context, _ json.RawMessage) (string, error) {
	return "", errors.New("twin unavailable")
}

func newEchoTool(name string) Tool {
	return Tool{
		Name:        name,
		Description: "Echoes input",
		InputSchema: json.RawMessage(`{"type":"object"}`),
		Handler:     echoHandler,
	}
}

func TestNew(t *testing.T) {
	tb := New()
	assert.NotNil(t, tb)
	assert.Empty(t, tb.Tools())
	assert.Empty(t, tb.Names())
}

func TestRegisterAndGet(t *testing.T) {
	tb := New()
	tb.Register(newEchoTool("list_twins"))

	got, ok := tb.Get("list_twins")
	assert.True(t, ok)
	assert.Equal(t, "list_twins", got.Name)

	_, ok = tb.Get("missing")
	assert.False(t, ok)
}

func TestRegisterReplace(t *testing.T) {
	tb := New()
	tb.Register(Tool{Name: "tool", Description: "original", Handler: echoHandler})
	tb.Register(Tool{Name: "tool", Description: "replaced", Handler: echoHandler})

	got, ok := tb.Get("tool")
	require.True(t, ok)
	assert.Equal(t, "replaced", got.Description)
	assert.Len(t, tb.Tools(), 1)
}

func TestToolsSorted(t *testing.T) {
	tb := New()
	tb.Register(newEchoTool("verify_api_key"), newEchoTool("chat_with_twin"), newEchoTool("health_check"))

	assert.Equal(t, []string{"chat_with_twin", "health_check", "verify_api_key"}, tb.Names())

	tools := tb.Tools()
	require.Len(t, tools, 3)
	assert.Equal(t, "chat_with_twin", tools[0].Name)
	assert.Equal(t, "verify_api_key", tools[2].Name)
}

func TestCallSuccess(t *testing.T) {
	tb := New()
	tb.Register(newEchoTool("echo"))

	result := tb.Call(context.Background(), Call{
		ID:        "call-1",
		Name:      "echo",
		Arguments: json.RawMessage(`{"message":"hi"}`),
	})
	assert.Equal(t, "call-1", result.CallID)
	assert.JSONEq(t, `{"message":"hi"}`, result.Content)
	assert.False(t, result.IsError)
}

func TestCallEmptyArguments(t *testing.T) {
	tb := New()
	tb.Register(newEchoTool("echo"))

	result := tb.Call(context.Background(), Call{ID: "call-1", Name: "echo"})
	assert.False(t, result.IsError)
	assert.Equal(t, "{}", result.Content)
}

func TestCallNullArguments(t *testing.T) {
	tb := New()
	tb.Register(newEchoTool("echo"))

	result := tb.Call(context.Background(), Call{ID: "call-1", Name: "echo", Arguments: json.RawMessage("null")})
	assert.False(t, result.IsError)
	assert.Equal(t, "{}", result.Content)
}

func TestCallNotFound(t *testing.T) {
	tb := New()

	result := tb.Call(context.Background(), Call{ID: "call-2", Name: "missing"})
	assert.Equal(t, "call-2", result.CallID)
	assert.Contains(t, result.Content, "tool not found: missing")
	assert.True(t, result.IsError)
}

func TestCallHandlerError(t *testing.T) {
	tb := New()
	tb.Register(Tool{Name: "fail", Handler: errorHandler})

	result := tb.Call(context.Background(), Call{ID: "call-3", Name: "fail"})
	assert.Equal(t, "call-3", result.CallID)
	assert.Equal(t, "twin unavailable", result.Content)
	assert.True(t, result.IsError)
}
