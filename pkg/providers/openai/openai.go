// Package openai provides a Completer for OpenAI-compatible Chat Completions
// endpoints, including the one Ollama exposes under /v1.
package openai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/germanamz/toolmesh/pkg/chats/chat"
	"github.com/germanamz/toolmesh/pkg/chats/content"
	"github.com/germanamz/toolmesh/pkg/chats/message"
	"github.com/germanamz/toolmesh/pkg/chats/role"
	"github.com/germanamz/toolmesh/pkg/modeladapter"
	"github.com/germanamz/toolmesh/pkg/modeladapter/usage"
	"github.com/germanamz/toolmesh/pkg/tools/toolbox"
)

const completionsPath = "/v1/chat/completions"

var _ modeladapter.Completer = (*Adapter)(nil)

// Adapter implements modeladapter.Completer for the Chat Completions API.
type Adapter struct {
	modeladapter.ModelAdapter
}

// New creates an Adapter. The baseURL has no trailing slash and no /v1
// suffix, e.g. "http://127.0.0.1:11434". An empty apiKey sends no auth header.
func New(baseURL, apiKey, model string) *Adapter {
	a := &Adapter{}
	a.BaseURL = strings.TrimSuffix(baseURL, "/")
	a.Auth = modeladapter.Auth{Key: apiKey}
	a.Name = model
	a.MaxTokens = 500

	return a
}

// Complete sends the conversation and returns the assistant's reply.
func (a *Adapter) Complete(ctx context.Context, c *chat.Chat, tools []toolbox.Tool) (message.Message, error) {
	req := a.buildRequest(c, tools)

	var resp apiResponse
	if err := a.PostJSON(ctx, completionsPath, req, &resp); err != nil {
		return message.Message{}, errors.Wrap(err, "openai")
	}

	a.Usage.Add(usage.TokenCount{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	})

	if len(resp.Choices) == 0 {
		return message.Message{}, errors.New("openai: empty choices in response")
	}

	return parseChoice(resp.Choices[0]), nil
}

// --- request types ---

type apiRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature float64      `json:"temperature"`
	Tools       []apiToolDef `json:"tools,omitempty"`
}

type apiMessage struct {
	Role       string        `json:"role"`
	Content    *string       `json:"content"`
	ToolCalls  []apiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
}

type apiToolCall struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Function apiToolFunction `json:"function"`
}

type apiToolFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type apiToolDef struct {
	Type     string         `json:"type"`
	Function apiToolDefFunc `json:"function"`
}

type apiToolDefFunc struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// --- response types ---

type apiResponse struct {
	Choices []apiChoice `json:"choices"`
	Usage   apiUsage    `json:"usage"`
}

type apiChoice struct {
	Message      apiRespMessage `json:"message"`
	FinishReason string         `json:"finish_reason"`
}

type apiRespMessage struct {
	Role      string        `json:"role"`
	Content   *string       `json:"content"`
	ToolCalls []apiToolCall `json:"tool_calls,omitempty"`
}

type apiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// --- conversion helpers ---

func (a *Adapter) buildRequest(c *chat.Chat, tools []toolbox.Tool) apiRequest {
	// Temperature is always sent: zero is the deterministic setting, not "unset".
	req := apiRequest{
		Model:       a.Name,
		MaxTokens:   a.MaxTokens,
		Temperature: a.Temperature,
	}

	for _, t := range tools {
		schema := t.InputSchema
		if schema == nil {
			schema = json.RawMessage(`{"type":"object"}`)
		}
		req.Tools = append(req.Tools, apiToolDef{
			Type: "function",
			Function: apiToolDefFunc{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schema,
			},
		})
	}

	for _, m := range c.Messages() {
		req.Messages = appendMessages(req.Messages, m)
	}

	return req
}

func appendMessages(msgs []apiMessage, m message.Message) []apiMessage {
	switch m.Role {
	case role.System, role.User:
		text := m.TextContent()
		return append(msgs, apiMessage{Role: m.Role.String(), Content: &text})

	case role.Assistant:
		msg := apiMessage{Role: "assistant"}
		if text := m.TextContent(); text != "" {
			msg.Content = &text
		}
		for _, tc := range m.ToolCalls() {
			msg.ToolCalls = append(msg.ToolCalls, apiToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: apiToolFunction{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		return append(msgs, msg)

	case role.Tool:
		for _, tr := range m.ToolResults() {
			text := tr.Content
			msgs = append(msgs, apiMessage{
				Role:       "tool",
				Content:    &text,
				ToolCallID: tr.ToolCallID,
			})
		}
	}

	return msgs
}

func parseChoice(choice apiChoice) message.Message {
	var parts []content.Part

	if choice.Message.Content != nil && *choice.Message.Content != "" {
		parts = append(parts, content.Text{Text: *choice.Message.Content})
	}

	for _, tc := range choice.Message.ToolCalls {
		parts = append(parts, content.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return message.New("", role.Parse(choice.Message.Role, role.Assistant), parts...)
}
