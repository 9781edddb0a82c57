package chat

import (
	"testing"

	"github.com/germanamz/toolmesh/pkg/chats/content"
	"github.com/germanamz/toolmesh/pkg/chats/message"
	"github.com/germanamz/toolmesh/pkg/chats/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroValue(t *testing.T) {
	var c Chat

	assert.Equal(t, 0, c.Len())
	_, ok := c.Last()
	assert.False(t, ok)
	assert.Empty(t, c.Messages())
}

func TestAppendAndLast(t *testing.T) {
	c := New(message.NewText("user", role.User, "What's (3 + 5) x 12?"))
	c.Append(
		message.NewText("bot", role.Assistant, "thinking"),
		message.NewText("bot", role.Assistant, "96"),
	)

	require.Equal(t, 3, c.Len())
	last, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, "96", last.TextContent())
}

func TestMessagesReturnsCopy(t *testing.T) {
	c := New(message.NewText("user", role.User, "hello"))

	msgs := c.Messages()
	msgs[0] = message.NewText("user", role.User, "mutated")

	first := c.Messages()[0]
	assert.Equal(t, "hello", first.TextContent())
}

func TestAnswer(t *testing.T) {
	c := New(message.NewText("user", role.User, "What's (3 + 5) x 12?"))
	_, ok := c.Answer()
	assert.False(t, ok, "user question is not an answer")

	c.Append(message.New("bot", role.Assistant, content.ToolCall{ID: "1", Name: "add", Arguments: `{"a":3,"b":5}`}))
	_, ok = c.Answer()
	assert.False(t, ok, "tool request is not an answer")

	c.Append(message.New("bot", role.Tool, content.ToolResult{ToolCallID: "1", Name: "add", Content: "8"}))
	_, ok = c.Answer()
	assert.False(t, ok)

	c.Append(message.NewText("bot", role.Assistant, "96"))
	got, ok := c.Answer()
	require.True(t, ok)
	assert.Equal(t, "96", got)
}
