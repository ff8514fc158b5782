// Package apiclient provides the HTTP transport shared by Maybind API
// clients.
//
// It contains:
//   - embeddable [Client] base struct with JSON helpers, API-key auth, custom headers and slog logging
//   - the error taxonomy: [TransportError], [AuthError], [RateLimitError], [StatusError], [DecodeError];
//     HTTP 422 bodies are returned as [github.com/maybind/maybind-go/pkg/validation.Errors]
//   - [github.com/maybind/maybind-go/pkg/apiclient/calls]: thread-safe round-trip tracker
//
// Every helper performs exactly one round trip. Nothing is retried, cached or
// batched; retry policy belongs to the caller.
package apiclient
