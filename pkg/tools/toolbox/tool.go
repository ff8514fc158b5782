package toolbox

import (
	"context"
	"encoding/json"
)

// Handler runs a tool with the given JSON arguments and returns a text result.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool is a named operation with a JSON Schema for its arguments.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}

// Call asks for a tool to be run.
type Call struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Result is the outcome of a Call. Failures are reported in Content with
// IsError set rather than as Go errors, so they can be handed back to the
// caller verbatim.
type Result struct {
	CallID  string
	Content string
	IsError bool
}
