package chat

import (
	"github.com/maybind/maybind-go/pkg/twins/message"
	"github.com/maybind/maybind-go/pkg/twins/role"
)

// Conversation is a mutable chat history with one twin. The zero value is
// not usable; create one with NewConversation. Conversation is not safe for
// concurrent use; callers must synchronize externally.
type Conversation struct {
	twinID   string
	messages []message.Message
}

// NewConversation creates a conversation with the given twin, optionally
// pre-populated with earlier messages.
func NewConversation(twinID string, msgs ...message.Message) *Conversation {
	return &Conversation{twinID: twinID, messages: cloneMessages(msgs)}
}

// TwinID returns the twin the conversation is held with.
func (c *Conversation) TwinID() string { return c.twinID }

// Append adds one or more messages to the conversation.
func (c *Conversation) Append(msgs ...message.Message) {
	c.messages = append(c.messages, msgs...)
}

// Len returns the number of messages in the conversation.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// At returns the message at the given index.
// It panics if the index is out of range.
func (c *Conversation) At(index int) message.Message {
	return c.messages[index]
}

// Last returns the most recent message and true, or a zero Message and false
// if the conversation is empty.
func (c *Conversation) Last() (message.Message, bool) {
	if len(c.messages) == 0 {
		return message.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Messages returns a copy of all messages in the conversation.
func (c *Conversation) Messages() []message.Message {
	return cloneMessages(c.messages)
}

// Each iterates over messages, calling fn for each one. If fn returns false,
// iteration stops early.
func (c *Conversation) Each(fn func(int, message.Message) bool) {
	for i, m := range c.messages {
		if !fn(i, m) {
			return
		}
	}
}

// ByRole returns all messages written by r.
func (c *Conversation) ByRole(r role.Role) []message.Message {
	var out []message.Message
	for _, m := range c.messages {
		if m.Role() == r {
			out = append(out, m)
		}
	}
	return out
}

// Request builds a /chat request carrying the whole history.
func (c *Conversation) Request() (Request, error) {
	return NewRequest(c.twinID, c.messages...)
}

// Replace swaps the history for the server's view of the conversation, as
// returned in a Response.
func (c *Conversation) Replace(resp Response) {
	c.messages = resp.Messages()
}

// Reset clears the history, keeping the twin.
func (c *Conversation) Reset() {
	c.messages = nil
}
