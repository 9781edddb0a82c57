// Package chat holds the conversation of one agent session.
package chat

import (
	"github.com/germanamz/toolmesh/pkg/chats/message"
	"github.com/germanamz/toolmesh/pkg/chats/role"
)

// Chat is an ordered conversation. The zero value is an empty chat. A Chat
// belongs to one session and is not safe for concurrent use.
type Chat struct {
	messages []message.Message
}

// New returns a Chat seeded with msgs, typically the system prompt and the
// user's question.
func New(msgs ...message.Message) *Chat {
	return &Chat{messages: msgs}
}

// Append adds msgs in order.
func (c *Chat) Append(msgs ...message.Message) {
	c.messages = append(c.messages, msgs...)
}

func (c *Chat) Len() int {
	return len(c.messages)
}

// Last returns the newest message, or false for an empty chat.
func (c *Chat) Last() (message.Message, bool) {
	n := len(c.messages)
	if n == 0 {
		return message.Message{}, false
	}
	return c.messages[n-1], true
}

// Answer returns the text of the final assistant reply: the newest message
// when it is from the assistant and requests no tools. Otherwise the session
// has not produced an answer yet and ok is false.
func (c *Chat) Answer() (text string, ok bool) {
	last, found := c.Last()
	if !found || last.Role != role.Assistant || len(last.ToolCalls()) > 0 {
		return "", false
	}
	return last.TextContent(), true
}

// Messages returns a snapshot of the conversation. Changing the returned
// slice does not change the chat.
func (c *Chat) Messages() []message.Message {
	return append([]message.Message(nil), c.messages...)
}
