package agents

import (
	"context"
	"fmt"

	"github.com/effective-security/xlog"
	"github.com/germanamz/toolmesh/pkg/chats/chat"
	"github.com/germanamz/toolmesh/pkg/chats/content"
	"github.com/germanamz/toolmesh/pkg/chats/message"
	"github.com/germanamz/toolmesh/pkg/chats/role"
	"github.com/germanamz/toolmesh/pkg/modeladapter"
	"github.com/germanamz/toolmesh/pkg/tools/toolbox"
)

var logger = xlog.NewPackageLogger("github.com/germanamz/toolmesh/pkg", "agents")

// Agent drives its execution loop and returns the final message.
type Agent interface {
	Run(ctx context.Context) (message.Message, error)
}

// Named is an Agent that reports its name.
type Named interface {
	Agent
	AgentName() string
}

// Base orchestrates a Completer, ToolBoxes and a Chat. It is not safe for
// concurrent use.
type Base struct {
	Name      string
	Completer modeladapter.Completer
	ToolBoxes []*toolbox.ToolBox
	Chat      *chat.Chat
}

// NewBase creates a Base with the given name, completer, chat and toolboxes.
func NewBase(name string, c modeladapter.Completer, ch *chat.Chat, tbs ...*toolbox.ToolBox) Base {
	return Base{
		Name:      name,
		Completer: c,
		ToolBoxes: tbs,
		Chat:      ch,
	}
}

// AgentName returns Name.
func (b *Base) AgentName() string { return b.Name }

// Complete sends the chat and every available tool to the completer and
// appends the reply, with Sender set to Name.
func (b *Base) Complete(ctx context.Context) (message.Message, error) {
	reply, err := b.Completer.Complete(ctx, b.Chat, b.Tools())
	if err != nil {
		return message.Message{}, err
	}

	reply.Sender = b.Name
	b.Chat.Append(reply)

	return reply, nil
}

// CallTools executes the tool calls in msg one at a time, in order, and
// appends one tool message per result. Returns nil when msg has no calls.
func (b *Base) CallTools(ctx context.Context, msg message.Message) []content.ToolResult {
	calls := msg.ToolCalls()
	if len(calls) == 0 {
		return nil
	}

	results := make([]content.ToolResult, 0, len(calls))

	for _, tc := range calls {
		logger.ContextKV(ctx, xlog.DEBUG, "agent", b.Name, "tool", tc.Name, "args", tc.Arguments)

		result := b.callTool(ctx, tc)
		if result.IsError {
			logger.ContextKV(ctx, xlog.WARNING, "agent", b.Name, "tool", tc.Name, "err", result.Content)
		}

		results = append(results, result)
		b.Chat.Append(message.New(b.Name, role.Tool, result))
	}

	return results
}

// Tools returns the tools of every ToolBox. When two boxes declare the same
// name only the first is listed, matching the lookup order of CallTools.
func (b *Base) Tools() []toolbox.Tool {
	var tools []toolbox.Tool
	seen := map[string]bool{}

	for _, tb := range b.ToolBoxes {
		for _, t := range tb.Tools() {
			if seen[t.Name] {
				continue
			}
			seen[t.Name] = true
			tools = append(tools, t)
		}
	}

	return tools
}

func (b *Base) callTool(ctx context.Context, tc content.ToolCall) content.ToolResult {
	for _, tb := range b.ToolBoxes {
		if _, ok := tb.Get(tc.Name); ok {
			return tb.Call(ctx, tc)
		}
	}

	return content.ToolResult{
		ToolCallID: tc.ID,
		Name:       tc.Name,
		Content:    fmt.Sprintf("tool not found: %s", tc.Name),
		IsError:    true,
	}
}
