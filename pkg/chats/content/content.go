// Package content defines the parts a chat message is made of: plain text,
// tool invocation requests and tool invocation results.
package content

// Part is a piece of content within a message.
type Part interface {
	PartKind() string
}

// Text is a plain text content part.
type Text struct {
	Text string
}

func (t Text) PartKind() string { return "text" }

// ToolCall is the model's request to invoke a tool. Arguments holds the raw
// JSON object exactly as the model produced it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

func (tc ToolCall) PartKind() string { return "tool_call" }

// ToolResult is the outcome of exactly one ToolCall. Name repeats the tool
// name for providers that correlate results by name rather than by ID.
type ToolResult struct {
	ToolCallID string
	Name       string
	Content    string
	IsError    bool
}

func (tr ToolResult) PartKind() string { return "tool_result" }
