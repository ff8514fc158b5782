// Package tools exposes the Maybind client operations as MCP tools.
//
// It is organized into sub-packages:
//   - [github.com/maybind/maybind-go/pkg/tools/toolbox]: the Tool type and a ToolBox registry for listing and calling tools
//   - [github.com/maybind/maybind-go/pkg/tools/mcpserver]: an MCP server built on the official MCP Go SDK that publishes a ToolBox
//   - [github.com/maybind/maybind-go/pkg/tools/twintools]: health_check, verify_api_key, list_twins, chat_with_twin and reset_chat backed by a maybind.Client
//
// toolbox is the foundation layer; mcpserver and twintools both depend on it
// but not on each other.
package tools
