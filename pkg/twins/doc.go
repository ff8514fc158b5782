// Package twins provides the data model for conversations with Maybind
// digital twins.
//
// It is organized into sub-packages:
//   - [github.com/maybind/maybind-go/pkg/twins/role]: message authors (user, twin)
//   - [github.com/maybind/maybind-go/pkg/twins/message]: immutable timestamped chat messages
//   - [github.com/maybind/maybind-go/pkg/twins/chat]: request/response envelopes and a conversation container
//
// No HTTP code is included. The records validate themselves and report
// failures as [github.com/maybind/maybind-go/pkg/validation.Errors].
package twins
