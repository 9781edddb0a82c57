package message

import (
	"testing"

	"github.com/germanamz/toolmesh/pkg/chats/content"
	"github.com/germanamz/toolmesh/pkg/chats/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewText(t *testing.T) {
	msg := NewText("bob", role.Assistant, "hi there")

	assert.Equal(t, "bob", msg.Sender)
	assert.Equal(t, role.Assistant, msg.Role)
	require.Len(t, msg.Parts, 1)
	assert.Equal(t, "hi there", msg.TextContent())
}

func TestTextContent_SkipsNonText(t *testing.T) {
	msg := New("bot", role.Assistant,
		content.Text{Text: "hello "},
		content.ToolCall{ID: "1", Name: "add"},
		content.Text{Text: "world"},
	)

	assert.Equal(t, "hello world", msg.TextContent())
}

func TestTextContent_NoParts(t *testing.T) {
	assert.Empty(t, New("alice", role.User).TextContent())
}

func TestToolCalls(t *testing.T) {
	msg := New("bot", role.Assistant,
		content.Text{Text: "let me compute"},
		content.ToolCall{ID: "1", Name: "add", Arguments: `{"a":3,"b":5}`},
		content.ToolCall{ID: "2", Name: "multiply", Arguments: `{"a":8,"b":12}`},
	)

	calls := msg.ToolCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "add", calls[0].Name)
	assert.Equal(t, "multiply", calls[1].Name)
	assert.Empty(t, msg.ToolResults())
}

func TestToolResults(t *testing.T) {
	msg := New("bot", role.Tool,
		content.ToolResult{ToolCallID: "1", Name: "add", Content: "8"},
	)

	results := msg.ToolResults()
	require.Len(t, results, 1)
	assert.Equal(t, "8", results[0].Content)
	assert.Nil(t, msg.ToolCalls())
}
