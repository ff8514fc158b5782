package chat_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/maybind/maybind-go/pkg/twins/chat"
	"github.com/maybind/maybind-go/pkg/twins/message"
	"github.com/maybind/maybind-go/pkg/twins/role"
	"github.com/maybind/maybind-go/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMessage(t *testing.T, ts string, r role.Role, text string) message.Message {
	t.Helper()

	parsed, err := message.ParseTime(ts)
	require.NoError(t, err)

	m, err := message.New(parsed, r, text)
	require.NoError(t, err)

	return m
}

func asErrors(t *testing.T, err error) validation.Errors {
	t.Helper()

	var errs validation.Errors
	require.True(t, errors.As(err, &errs), "expected validation.Errors, got %T: %v", err, err)

	return errs
}

const documentedRequest = `{"twin_id":"twin_001","messages":[{"timestamp":"2025-07-21T12:42:31Z","text":"Hello! How are you today?","role":"user"}]}`

func TestNewRequest_DocumentedExample(t *testing.T) {
	req, err := chat.NewRequest("twin_001",
		mustMessage(t, "2025-07-21T12:42:31Z", role.User, "Hello! How are you today?"),
	)
	require.NoError(t, err)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, documentedRequest, string(data))
}

func TestRequest_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msgs []message.Message
	}{
		{"single", []message.Message{mustMessage(t, "2025-07-21T12:42:31Z", role.User, "hi")}},
		{"multi turn", []message.Message{
			mustMessage(t, "2025-07-21T12:42:31Z", role.User, "hi"),
			mustMessage(t, "2025-07-21T12:42:32.5Z", role.Twin, "hello"),
			mustMessage(t, "2025-07-21T12:43:00Z", role.User, "how are you?"),
		}},
		{"out of order timestamps kept", []message.Message{
			mustMessage(t, "2025-07-21T13:00:00Z", role.User, "later"),
			mustMessage(t, "2025-07-21T12:00:00Z", role.Twin, "earlier"),
		}},
		{"unicode text", []message.Message{mustMessage(t, "2025-01-01T00:00:00Z", role.User, "ciao, come stai? 🤖")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := chat.NewRequest("twin_42", tt.msgs...)
			require.NoError(t, err)

			data, err := json.Marshal(req)
			require.NoError(t, err)

			var decoded chat.Request
			require.NoError(t, json.Unmarshal(data, &decoded))

			assert.Equal(t, req, decoded)
			assert.Equal(t, tt.msgs, decoded.Messages())
		})
	}
}

func TestNewRequest_Validation(t *testing.T) {
	user := mustMessage(t, "2025-07-21T12:42:31Z", role.User, "hi")
	twin := mustMessage(t, "2025-07-21T12:42:31Z", role.Twin, "hi")

	tests := []struct {
		name    string
		twinID  string
		msgs    []message.Message
		wantLoc []any
		want    string
	}{
		{"empty twin id", "", []message.Message{user}, []any{"body", "twin_id"}, validation.TypeStringTooShort},
		{"no messages", "twin", nil, []any{"body", "messages"}, validation.TypeTooShort},
		{"no user message", "twin", []message.Message{twin}, []any{"body", "messages"}, validation.TypeValueError},
		{"zero message", "twin", []message.Message{user, {}}, []any{"body", "messages", 1, "role"}, validation.TypeEnum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := chat.NewRequest(tt.twinID, tt.msgs...)
			require.Error(t, err)

			errs := asErrors(t, err)
			e, ok := errs.Find(tt.wantLoc...)
			require.True(t, ok, "no error at %v in %v", tt.wantLoc, errs)
			assert.Equal(t, tt.want, e.Type)
		})
	}
}

func TestNewRequest_CopiesInput(t *testing.T) {
	msgs := []message.Message{mustMessage(t, "2025-07-21T12:42:31Z", role.User, "hi")}

	req, err := chat.NewRequest("twin", msgs...)
	require.NoError(t, err)

	msgs[0] = mustMessage(t, "2025-07-21T12:42:31Z", role.User, "changed")
	assert.Equal(t, "hi", req.Messages()[0].Text())

	out := req.Messages()
	out[0] = msgs[0]
	assert.Equal(t, "hi", req.Messages()[0].Text())
}

func TestDecodeRequest_ServerStyleErrors(t *testing.T) {
	_, err := chat.DecodeRequest([]byte(`{"messages":[{"timestamp":"2025-07-21T12:42:31Z","text":"x","role":"bot"}]}`))
	require.Error(t, err)

	errs := asErrors(t, err)
	require.Len(t, errs, 2)

	e, ok := errs.Find("body", "twin_id")
	require.True(t, ok)
	assert.Equal(t, validation.TypeMissing, e.Type)
	assert.Equal(t, "Field required", e.Msg)

	e, ok = errs.Find("body", "messages", 0, "role")
	require.True(t, ok)
	assert.Equal(t, validation.TypeEnum, e.Type)
}

func TestDecodeResponse(t *testing.T) {
	body := `{
		"twin_id": "twin_001",
		"status": "success",
		"messages": [
			{"timestamp": "2025-07-21T12:42:31Z", "text": "Hello! How are you today?", "role": "user"},
			{"timestamp": "2025-07-21T12:42:33.120000", "text": "I'm doing great, thanks!", "role": "twin"}
		]
	}`

	resp, err := chat.DecodeResponse([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, "twin_001", resp.TwinID())
	assert.Equal(t, "success", resp.Status())
	assert.Equal(t, 2, resp.Len())

	reply, ok := resp.Reply()
	require.True(t, ok)
	assert.Equal(t, role.Twin, reply.Role())
	assert.Equal(t, "I'm doing great, thanks!", reply.Text())
}

func TestDecodeResponse_MissingField(t *testing.T) {
	full := map[string]any{
		"twin_id":  "twin_001",
		"status":   "success",
		"messages": []any{},
	}

	for field := range full {
		t.Run(field, func(t *testing.T) {
			partial := make(map[string]any, len(full))
			for k, v := range full {
				if k != field {
					partial[k] = v
				}
			}

			data, err := json.Marshal(partial)
			require.NoError(t, err)

			_, err = chat.DecodeResponse(data)
			require.Error(t, err)

			e, ok := asErrors(t, err).Find("response", field)
			require.True(t, ok)
			assert.Equal(t, validation.TypeMissing, e.Type)
		})
	}
}

func TestDecodeResponse_MissingNestedField(t *testing.T) {
	body := `{"twin_id":"t","status":"ok","messages":[{"timestamp":"2025-07-21T12:42:31Z","role":"twin"}]}`

	_, err := chat.DecodeResponse([]byte(body))
	require.Error(t, err)

	e, ok := asErrors(t, err).Find("response", "messages", 0, "text")
	require.True(t, ok)
	assert.Equal(t, validation.TypeMissing, e.Type)
}

func TestResponse_UnmarshalJSON(t *testing.T) {
	var resp chat.Response
	err := json.Unmarshal([]byte(`{"twin_id":"t","status":"ok"}`), &resp)
	require.Error(t, err)

	_, ok := asErrors(t, err).Find("response", "messages")
	assert.True(t, ok)
}

func TestResponse_MarshalRoundTrip(t *testing.T) {
	resp := chat.NewResponse("twin_001", "success",
		mustMessage(t, "2025-07-21T12:42:31Z", role.User, "hi"),
		mustMessage(t, "2025-07-21T12:42:32Z", role.Twin, "hello"),
	)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded chat.Response
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, resp, decoded)
}

func TestResponse_ReplyEmpty(t *testing.T) {
	_, ok := chat.NewResponse("t", "ok").Reply()
	assert.False(t, ok)
}

func TestDecodeUsers(t *testing.T) {
	users, err := chat.DecodeUsers([]byte(`{"twin_ids":["01","02"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"01", "02"}, users.TwinIDs)

	first, ok := users.First()
	assert.True(t, ok)
	assert.Equal(t, "01", first)
}

func TestDecodeUsers_Empty(t *testing.T) {
	users, err := chat.DecodeUsers([]byte(`{"twin_ids":[]}`))
	require.NoError(t, err)
	assert.Equal(t, 0, users.Len())

	_, ok := users.First()
	assert.False(t, ok)
}

func TestDecodeUsers_Missing(t *testing.T) {
	_, err := chat.DecodeUsers([]byte(`{}`))
	require.Error(t, err)

	_, ok := asErrors(t, err).Find("response", "twin_ids")
	assert.True(t, ok)
}

func TestUsers_MarshalNilAsArray(t *testing.T) {
	data, err := json.Marshal(chat.Users{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"twin_ids":[]}`, string(data))
}

func TestConversation(t *testing.T) {
	c := chat.NewConversation("twin_001")
	assert.Equal(t, "twin_001", c.TwinID())
	assert.Equal(t, 0, c.Len())

	_, ok := c.Last()
	assert.False(t, ok)

	_, err := c.Request()
	require.Error(t, err)

	c.Append(message.NewUser("hi"))
	req, err := c.Request()
	require.NoError(t, err)
	assert.Equal(t, 1, req.Len())

	resp := chat.NewResponse("twin_001", "success",
		mustMessage(t, "2025-07-21T12:42:31Z", role.User, "hi"),
		mustMessage(t, "2025-07-21T12:42:32Z", role.Twin, "hello"),
	)
	c.Replace(resp)

	assert.Equal(t, 2, c.Len())
	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, "hello", last.Text())
	assert.Len(t, c.ByRole(role.Twin), 1)
	assert.Equal(t, "hi", c.At(0).Text())

	var seen int
	c.Each(func(int, message.Message) bool {
		seen++
		return false
	})
	assert.Equal(t, 1, seen)

	c.Reset()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, "twin_001", c.TwinID())
}
