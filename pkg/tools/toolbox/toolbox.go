// Package toolbox holds a named set of tools that can be listed and called.
package toolbox

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
)

// ToolBox is a registry of tools keyed by name. It is not safe for
// concurrent registration; register everything before serving.
type ToolBox struct {
	tools map[string]Tool
}

// New creates an empty ToolBox.
func New() *ToolBox {
	return &ToolBox{
		tools: make(map[string]Tool),
	}
}

// Register adds tools. A tool with an existing name replaces the old one.
func (tb *ToolBox) Register(tools ...Tool) {
	for _, t := range tools {
		tb.tools[t.Name] = t
	}
}

// Get returns a tool by name.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (tb *ToolBox) Names() []string {
	names := make([]string, 0, len(tb.tools))
	for name := range tb.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Tools returns all registered tools sorted by name.
func (tb *ToolBox) Tools() []Tool {
	result := make([]Tool, 0, len(tb.tools))
	for _, t := range tb.tools {
		result = append(result, t)
	}
	slices.SortFunc(result, func(a, b Tool) int { return cmp.Compare(a.Name, b.Name) })
	return result
}

// Call runs the named tool. Unknown tools and handler errors are reported in
// the Result with IsError set.
func (tb *ToolBox) Call(ctx context.Context, c Call) Result {
	t, ok := tb.Get(c.Name)
	if !ok {
		return Result{
			CallID:  c.ID,
			Content: fmt.Sprintf("tool not found: %s", c.Name),
			IsError: true,
		}
	}

	args := c.Arguments
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}

	out, err := t.Handler(ctx, args)
	if err != nil {
		return Result{
			CallID:  c.ID,
			Content: err.Error(),
			IsError: true,
		}
	}

	return Result{
		CallID:  c.ID,
		Content: out,
	}
}
