// Package message defines the Message record exchanged with a digital twin.
package message

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/maybind/maybind-go/pkg/twins/role"
	"github.com/maybind/maybind-go/pkg/validation"
)

// TimeFormat is the wire layout for timestamps. Times are always converted to
// UTC before formatting, so the zone is rendered as a literal "Z".
const TimeFormat = time.RFC3339Nano

// Message is a single chat turn. It is an immutable value: fields are set at
// construction and exposed through accessors only.
type Message struct {
	timestamp time.Time
	text      string
	role      role.Role
}

// New creates a message, normalising ts to UTC. It fails when r is not a
// known role.
func New(ts time.Time, r role.Role, text string) (Message, error) {
	m := Message{timestamp: ts.UTC(), text: text, role: r}
	if errs := m.validate(nil); len(errs) > 0 {
		return Message{}, errs
	}
	return m, nil
}

// NewUser creates a user message stamped with the current time.
func NewUser(text string) Message {
	return Message{timestamp: time.Now().UTC(), text: text, role: role.User}
}

// NewTwin creates a twin message stamped with the current time.
func NewTwin(text string) Message {
	return Message{timestamp: time.Now().UTC(), text: text, role: role.Twin}
}

// Timestamp returns the UTC time the message was written.
func (m Message) Timestamp() time.Time { return m.timestamp }

// Text returns the message body.
func (m Message) Text() string { return m.text }

// Role returns the author of the message.
func (m Message) Role() role.Role { return m.role }

// IsZero reports whether m is the zero Message.
func (m Message) IsZero() bool {
	return m.timestamp.IsZero() && m.text == "" && m.role == ""
}

// Validate checks the message and returns failures located under loc.
func (m Message) Validate(loc validation.Loc) validation.Errors {
	return m.validate(loc)
}

func (m Message) validate(loc validation.Loc) validation.Errors {
	var errs validation.Errors
	if !m.role.Valid() {
		errs = append(errs, validation.Enum(loc.Field("role"), role.User.String(), role.Twin.String()))
	}
	return errs
}

type wireMessage struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
	Role      string `json:"role"`
}

// MarshalJSON encodes the message with an ISO-8601 UTC timestamp.
func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{
		Timestamp: FormatTime(m.timestamp),
		Text:      m.text,
		Role:      m.role.String(),
	})
}

// UnmarshalJSON decodes and validates a message. Validation failures are
// returned as validation.Errors rooted at the message itself.
func (m *Message) UnmarshalJSON(data []byte) error {
	decoded, errs := Decode(data, nil)
	if len(errs) > 0 {
		return errs
	}
	*m = decoded
	return nil
}

// Decode parses and validates a message located at loc, collecting every
// field failure rather than stopping at the first one.
func Decode(data []byte, loc validation.Loc) (Message, validation.Errors) {
	var errs validation.Errors

	obj, ok := validation.DecodeObject(data, loc, &errs)
	if !ok {
		return Message{}, errs
	}

	var m Message

	if raw, ok := obj.String("timestamp", 0); ok {
		ts, err := ParseTime(raw)
		if err != nil {
			errs = append(errs, validation.Datetime(loc.Field("timestamp"), err.Error()))
		} else {
			m.timestamp = ts
		}
	}

	if text, ok := obj.String("text", 0); ok {
		m.text = text
	}

	if r, ok := obj.String("role", 0); ok {
		m.role = role.Role(r)
		if !m.role.Valid() {
			errs = append(errs, validation.Enum(loc.Field("role"), role.User.String(), role.Twin.String()))
		}
	}

	if len(errs) > 0 {
		return Message{}, errs
	}

	return m, nil
}

// FormatTime renders t in UTC with a literal "Z" suffix.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// naiveLayouts are accepted for timestamps that carry no zone; they are read
// as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// ParseTime parses an ISO-8601 timestamp and returns it in UTC. Timestamps
// without a zone are treated as UTC; timestamps with an offset are converted.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)

	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t.UTC(), nil
	}

	for _, layout := range naiveLayouts {
		if nt, nerr := time.ParseInLocation(layout, s, time.UTC); nerr == nil {
			return nt, nil
		}
	}

	return time.Time{}, &TimeError{Value: s}
}

// TimeError reports a timestamp that is not ISO-8601.
type TimeError struct {
	Value string
}

func (e *TimeError) Error() string {
	if e.Value == "" {
		return "input is empty"
	}
	return "invalid ISO-8601 timestamp " + `"` + e.Value + `"`
}
