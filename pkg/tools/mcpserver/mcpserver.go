// Package mcpserver publishes a toolbox to MCP clients.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/maybind/maybind-go/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Option configures an MCPServer.
type Option func(*config)

type config struct {
	instructions string
	logger       *slog.Logger
}

// WithInstructions sets the text sent to clients during initialization.
func WithInstructions(s string) Option {
	return func(c *config) { c.instructions = s }
}

// WithLogger logs every tool call at debug and every failed one at warn.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// MCPServer answers tools/list and tools/call for the registered tools.
// Calls are dispatched through a toolbox.ToolBox.
type MCPServer struct {
	impl   *mcp.Server
	box    *toolbox.ToolBox
	logger *slog.Logger
	seq    atomic.Int64
}

// New creates a server announcing itself as name/version.
func New(name, version string, opts ...Option) *MCPServer {
	cfg := config{logger: slog.New(slog.DiscardHandler)}
	for _, o := range opts {
		o(&cfg)
	}

	var serverOpts *mcp.ServerOptions
	if cfg.instructions != "" {
		serverOpts = &mcp.ServerOptions{Instructions: cfg.instructions}
	}

	impl := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, serverOpts)

	return &MCPServer{impl: impl, box: toolbox.New(), logger: cfg.logger}
}

// Register publishes tools. A tool registered twice replaces the earlier one.
func (s *MCPServer) Register(tools ...toolbox.Tool) {
	s.box.Register(tools...)
	for _, t := range tools {
		s.impl.AddTool(describe(t), s.handler(t.Name))
	}
}

// RegisterBox publishes every tool of tb.
func (s *MCPServer) RegisterBox(tb *toolbox.ToolBox) {
	s.Register(tb.Tools()...)
}

// Serve speaks MCP over newline-delimited JSON-RPC on in and out. It returns
// when ctx is cancelled or in reaches EOF. Neither stream is closed.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return s.run(ctx, &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: writeOnly{out},
	})
}

func (s *MCPServer) run(ctx context.Context, transport mcp.Transport) error {
	return s.impl.Run(ctx, transport)
}

// describe builds the SDK tool definition. Tools without a schema accept any
// object.
func describe(t toolbox.Tool) *mcp.Tool {
	schema := t.InputSchema
	if len(schema) == 0 {
		schema = json.RawMessage(`{"type":"object"}`)
	}

	return &mcp.Tool{Name: t.Name, Description: t.Description, InputSchema: schema}
}

// handler runs the named tool from the box. Failed calls come back as
// IsError results so the client model sees the message rather than a
// JSON-RPC error.
func (s *MCPServer) handler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		call := toolbox.Call{
			ID:        strconv.FormatInt(s.seq.Add(1), 10),
			Name:      name,
			Arguments: req.Params.Arguments,
		}

		start := time.Now()
		res := s.box.Call(ctx, call)
		elapsed := time.Since(start)

		if res.IsError {
			s.logger.Warn("tool call failed", "tool", name, "call_id", res.CallID, "duration", elapsed, "error", res.Content)
		} else {
			s.logger.Debug("tool call", "tool", name, "call_id", res.CallID, "duration", elapsed)
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: res.Content}},
			IsError: res.IsError,
		}, nil
	}
}

type writeOnly struct {
	io.Writer
}

func (writeOnly) Close() error { return nil }
