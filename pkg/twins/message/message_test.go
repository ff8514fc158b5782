package message

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/maybind/maybind-go/pkg/twins/role"
	"github.com/maybind/maybind-go/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ts := time.Date(2025, 7, 21, 14, 42, 31, 0, time.FixedZone("CEST", 2*60*60))

	msg, err := New(ts, role.User, "Hello! How are you today?")
	require.NoError(t, err)

	assert.Equal(t, role.User, msg.Role())
	assert.Equal(t, "Hello! How are you today?", msg.Text())
	assert.Equal(t, time.UTC, msg.Timestamp().Location())
	assert.True(t, msg.Timestamp().Equal(ts))
}

func TestNew_InvalidRole(t *testing.T) {
	_, err := New(time.Now(), role.Role("assistant"), "hi")
	require.Error(t, err)

	var errs validation.Errors
	require.True(t, errors.As(err, &errs))

	e, ok := errs.Find("role")
	require.True(t, ok)
	assert.Equal(t, validation.TypeEnum, e.Type)
}

func TestNewUserAndTwin(t *testing.T) {
	u := NewUser("hi")
	tw := NewTwin("hello")

	assert.Equal(t, role.User, u.Role())
	assert.Equal(t, role.Twin, tw.Role())
	assert.False(t, u.IsZero())
	assert.True(t, Message{}.IsZero())
}

func TestMarshalJSON_ZSuffix(t *testing.T) {
	ts := time.Date(2025, 7, 21, 12, 42, 31, 0, time.UTC)
	msg, err := New(ts, role.User, "Hello! How are you today?")
	require.NoError(t, err)

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	assert.JSONEq(t, `{"timestamp":"2025-07-21T12:42:31Z","text":"Hello! How are you today?","role":"user"}`, string(data))
}

func TestMarshalJSON_OffsetBecomesZ(t *testing.T) {
	ts := time.Date(2025, 7, 21, 7, 42, 31, 500_000_000, time.FixedZone("EST", -5*60*60))
	msg, err := New(ts, role.Twin, "x")
	require.NoError(t, err)

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"2025-07-21T12:42:31.5Z"`)
}

func TestRoundTrip(t *testing.T) {
	original, err := New(time.Date(2025, 1, 2, 3, 4, 5, 123456789, time.UTC), role.Twin, "I'm fine, thanks!")
	require.NoError(t, err)

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original, decoded)
}

func TestDecode_CollectsAllFailures(t *testing.T) {
	_, errs := Decode([]byte(`{"timestamp":"yesterday","role":"bot"}`), validation.At("body", "messages", 0))
	require.Len(t, errs, 3)

	e, ok := errs.Find("body", "messages", 0, "timestamp")
	require.True(t, ok)
	assert.Equal(t, validation.TypeDatetime, e.Type)

	e, ok = errs.Find("body", "messages", 0, "text")
	require.True(t, ok)
	assert.Equal(t, validation.TypeMissing, e.Type)

	e, ok = errs.Find("body", "messages", 0, "role")
	require.True(t, ok)
	assert.Equal(t, validation.TypeEnum, e.Type)
}

func TestDecode_NotAnObject(t *testing.T) {
	_, errs := Decode([]byte(`"hello"`), validation.At("body", "messages", 0))
	require.Len(t, errs, 1)
	assert.Equal(t, validation.TypeModelType, errs[0].Type)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-07-21T12:42:31Z", time.Date(2025, 7, 21, 12, 42, 31, 0, time.UTC)},
		{"2025-07-21T12:42:31+00:00", time.Date(2025, 7, 21, 12, 42, 31, 0, time.UTC)},
		{"2025-07-21T14:42:31+02:00", time.Date(2025, 7, 21, 12, 42, 31, 0, time.UTC)},
		{"2025-07-21T12:42:31.250Z", time.Date(2025, 7, 21, 12, 42, 31, 250_000_000, time.UTC)},
		{"2025-07-21T12:42:31.123456", time.Date(2025, 7, 21, 12, 42, 31, 123_456_000, time.UTC)},
		{"2025-07-21T12:42:31", time.Date(2025, 7, 21, 12, 42, 31, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTime_Invalid(t *testing.T) {
	for _, in := range []string{"", "21/07/2025", "2025-13-01T00:00:00Z"} {
		_, err := ParseTime(in)
		assert.Error(t, err, in)
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2025, 7, 21, 12, 42, 31, 0, time.FixedZone("X", 3600))
	assert.Equal(t, "2025-07-21T11:42:31Z", FormatTime(ts))
}
