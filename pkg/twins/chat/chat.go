// Package chat provides the request and response envelopes of a twin chat
// exchange, the twin listing, and a mutable conversation container.
package chat

import (
	"encoding/json"

	"github.com/maybind/maybind-go/pkg/twins/message"
	"github.com/maybind/maybind-go/pkg/twins/role"
	"github.com/maybind/maybind-go/pkg/validation"
)

// Roots of validation locations.
const (
	BodyRoot     = "body"
	ResponseRoot = "response"
)

// Request is the body of POST /chat. It is immutable once constructed.
type Request struct {
	twinID   string
	messages []message.Message
}

// NewRequest builds a validated request. Messages keep the order they are
// given in; the client never reorders a conversation.
func NewRequest(twinID string, msgs ...message.Message) (Request, error) {
	r := Request{twinID: twinID, messages: cloneMessages(msgs)}
	if errs := r.Validate(); len(errs) > 0 {
		return Request{}, errs
	}
	return r, nil
}

// TwinID returns the twin the request is addressed to.
func (r Request) TwinID() string { return r.twinID }

// Messages returns a copy of the conversation carried by the request.
func (r Request) Messages() []message.Message { return cloneMessages(r.messages) }

// Len returns the number of messages in the request.
func (r Request) Len() int { return len(r.messages) }

// Validate checks the request shape. Failures are located under "body", the
// same way the server reports them.
func (r Request) Validate() validation.Errors {
	var errs validation.Errors
	loc := validation.At(BodyRoot)

	if r.twinID == "" {
		errs = append(errs, validation.StringTooShort(loc.Field("twin_id"), 1))
	}

	if len(r.messages) == 0 {
		errs = append(errs, validation.TooShort(loc.Field("messages"), 1, 0))
		return errs
	}

	hasUser := false
	for i, m := range r.messages {
		errs = append(errs, m.Validate(loc.Field("messages").Index(i))...)
		if m.Role() == role.User {
			hasUser = true
		}
	}

	if !hasUser {
		errs = append(errs, validation.ValueError(loc.Field("messages"), "conversation must contain at least one user message"))
	}

	return errs
}

type wireRequest struct {
	TwinID   string            `json:"twin_id"`
	Messages []message.Message `json:"messages"`
}

// MarshalJSON encodes the request body.
func (r Request) MarshalJSON() ([]byte, error) {
	msgs := r.messages
	if msgs == nil {
		msgs = []message.Message{}
	}
	return json.Marshal(wireRequest{TwinID: r.twinID, Messages: msgs})
}

// UnmarshalJSON decodes and validates a request body.
func (r *Request) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeRequest(data)
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}

// DecodeRequest parses a request body and reports every failure as
// validation.Errors located under "body".
func DecodeRequest(data []byte) (Request, error) {
	var errs validation.Errors
	loc := validation.At(BodyRoot)

	obj, ok := validation.DecodeObject(data, loc, &errs)
	if !ok {
		return Request{}, errs
	}

	var r Request

	if twinID, ok := obj.String("twin_id", 1); ok {
		r.twinID = twinID
	}

	if items, ok := obj.List("messages", 1); ok {
		r.messages, errs = decodeMessages(items, loc.Field("messages"), errs)
	}

	if len(errs) > 0 {
		return Request{}, errs
	}

	if errs := r.Validate(); len(errs) > 0 {
		return Request{}, errs
	}

	return r, nil
}

// Response is the body of a successful POST /chat: the full conversation,
// with the twin's reply appended last.
type Response struct {
	twinID   string
	status   string
	messages []message.Message
}

// TwinID returns the twin that answered.
func (r Response) TwinID() string { return r.twinID }

// Status returns the server-reported status string.
func (r Response) Status() string { return r.status }

// Messages returns a copy of the full conversation.
func (r Response) Messages() []message.Message { return cloneMessages(r.messages) }

// Len returns the number of messages in the response.
func (r Response) Len() int { return len(r.messages) }

// Reply returns the last message of the conversation and true, or a zero
// Message and false if the response carries no messages.
func (r Response) Reply() (message.Message, bool) {
	if len(r.messages) == 0 {
		return message.Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

type wireResponse struct {
	TwinID   string            `json:"twin_id"`
	Status   string            `json:"status"`
	Messages []message.Message `json:"messages"`
}

// NewResponse builds a response. It is meant for servers and tests; clients
// obtain responses through DecodeResponse.
func NewResponse(twinID, status string, msgs ...message.Message) Response {
	return Response{twinID: twinID, status: status, messages: cloneMessages(msgs)}
}

// MarshalJSON encodes the response body.
func (r Response) MarshalJSON() ([]byte, error) {
	msgs := r.messages
	if msgs == nil {
		msgs = []message.Message{}
	}
	return json.Marshal(wireResponse{TwinID: r.twinID, Status: r.status, Messages: msgs})
}

// UnmarshalJSON decodes and validates a response body.
func (r *Response) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeResponse(data)
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}

// DecodeResponse parses a /chat response body. Missing or mistyped fields are
// reported as validation.Errors located under "response".
func DecodeResponse(data []byte) (Response, error) {
	var errs validation.Errors
	loc := validation.At(ResponseRoot)

	obj, ok := validation.DecodeObject(data, loc, &errs)
	if !ok {
		return Response{}, errs
	}

	var r Response

	if twinID, ok := obj.String("twin_id", 0); ok {
		r.twinID = twinID
	}

	if status, ok := obj.String("status", 0); ok {
		r.status = status
	}

	if items, ok := obj.List("messages", 0); ok {
		r.messages, errs = decodeMessages(items, loc.Field("messages"), errs)
	}

	if len(errs) > 0 {
		return Response{}, errs
	}

	return r, nil
}

func decodeMessages(items []json.RawMessage, loc validation.Loc, errs validation.Errors) ([]message.Message, validation.Errors) {
	msgs := make([]message.Message, 0, len(items))
	for i, item := range items {
		m, merrs := message.Decode(item, loc.Index(i))
		if len(merrs) > 0 {
			errs = append(errs, merrs...)
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, errs
}

func cloneMessages(msgs []message.Message) []message.Message {
	if msgs == nil {
		return nil
	}
	cp := make([]message.Message, len(msgs))
	copy(cp, msgs)
	return cp
}
