package toolbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/germanamz/toolmesh/pkg/chats/content"
)

// ToolBox is a registry of tools keyed by name. Agents use it to list the
// tools they can offer a model and to execute the calls the model makes.
// A ToolBox is safe for concurrent Call once registration is finished.
type ToolBox struct {
	tools map[string]Tool
}

// New creates an empty ToolBox.
func New() *ToolBox {
	return &ToolBox{
		tools: make(map[string]Tool),
	}
}

// NewRegistry validates the given tools and returns a ToolBox containing them.
// Duplicate names are rejected.
func NewRegistry(tools ...Tool) (*ToolBox, error) {
	tb := New()
	for _, t := range tools {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := tb.tools[t.Name]; dup {
			return nil, errors.Wrapf(ErrInvalidTool, "duplicate tool name %q", t.Name)
		}
		tb.tools[t.Name] = t
	}
	return tb, nil
}

// Register adds tools to the ToolBox, replacing any tool with the same name.
func (tb *ToolBox) Register(tools ...Tool) {
	for _, t := range tools {
		tb.tools[t.Name] = t
	}
}

// Get returns a tool by name and whether it was found.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Merge registers all tools from other into tb. Tools in other win on name
// conflicts.
func (tb *ToolBox) Merge(other *ToolBox) {
	for _, t := range other.tools {
		tb.tools[t.Name] = t
	}
}

// Len returns the number of registered tools.
func (tb *ToolBox) Len() int {
	return len(tb.tools)
}

// Tools returns all registered tools sorted by name.
func (tb *ToolBox) Tools() []Tool {
	result := make([]Tool, 0, len(tb.tools))
	for _, t := range tb.tools {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Call executes a tool call. It always yields a result: unknown tools and
// handler errors produce a result with IsError set.
func (tb *ToolBox) Call(ctx context.Context, tc content.ToolCall) content.ToolResult {
	t, ok := tb.tools[tc.Name]
	if !ok {
		return content.ToolResult{
			ToolCallID: tc.ID,
			Name:       tc.Name,
			Content:    fmt.Sprintf("tool not found: %s", tc.Name),
			IsError:    true,
		}
	}

	result, err := t.Handler(ctx, json.RawMessage(tc.Arguments))
	if err != nil {
		return content.ToolResult{
			ToolCallID: tc.ID,
			Name:       tc.Name,
			Content:    err.Error(),
			IsError:    true,
		}
	}

	return content.ToolResult{
		ToolCallID: tc.ID,
		Name:       tc.Name,
		Content:    result,
	}
}
