// Package ollama provides a Completer backed by the native Ollama chat API
// and the availability probe used before each session.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/germanamz/toolmesh/pkg/chats/chat"
	"github.com/germanamz/toolmesh/pkg/chats/content"
	"github.com/germanamz/toolmesh/pkg/chats/message"
	"github.com/germanamz/toolmesh/pkg/chats/role"
	"github.com/germanamz/toolmesh/pkg/modeladapter"
	"github.com/germanamz/toolmesh/pkg/modeladapter/usage"
	"github.com/germanamz/toolmesh/pkg/tools/toolbox"
	"github.com/ollama/ollama/api"
)

var logger = xlog.NewPackageLogger("github.com/germanamz/toolmesh/pkg/providers", "ollama")

// DefaultBaseURL is where a local Ollama server listens.
const DefaultBaseURL = "http://127.0.0.1:11434"

var _ modeladapter.Completer = (*Adapter)(nil)

// Adapter talks to an Ollama server through its Go API client.
type Adapter struct {
	modeladapter.ModelAdapter

	api   *api.Client
	calls atomic.Int64
}

// New creates an Adapter for model served at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client, model string) (*Adapter, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "ollama: invalid base URL %q", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	a := &Adapter{api: api.NewClient(u, httpClient)}
	a.BaseURL = u.String()
	a.Client = httpClient
	a.Name = model
	a.MaxTokens = 500

	return a, nil
}

// Ping lists the locally available models (GET /api/tags). Any error means
// the model service is not reachable.
func (a *Adapter) Ping(ctx context.Context) error {
	logger.ContextKV(ctx, xlog.DEBUG, "status", "probe", "url", a.BaseURL+"/api/tags")

	if _, err := a.api.List(ctx); err != nil {
		return errors.Wrap(err, "ollama: list models")
	}

	return nil
}

// Complete sends the conversation to /api/chat without streaming and returns
// the assistant's reply.
func (a *Adapter) Complete(ctx context.Context, c *chat.Chat, tools []toolbox.Tool) (message.Message, error) {
	req, err := a.buildRequest(c, tools)
	if err != nil {
		return message.Message{}, err
	}

	var resp api.ChatResponse
	err = a.api.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		return message.Message{}, errors.Wrap(err, "ollama: chat")
	}

	a.Usage.Add(usage.TokenCount{
		InputTokens:  resp.PromptEvalCount,
		OutputTokens: resp.EvalCount,
	})

	return a.parseMessage(resp.Message)
}

func (a *Adapter) buildRequest(c *chat.Chat, tools []toolbox.Tool) (*api.ChatRequest, error) {
	stream := false
	options := map[string]any{"temperature": a.Temperature}
	if a.MaxTokens > 0 {
		options["num_predict"] = a.MaxTokens
	}

	req := &api.ChatRequest{
		Model:   a.Name,
		Stream:  &stream,
		Options: options,
	}

	for _, t := range tools {
		tool, err := toAPITool(t)
		if err != nil {
			return nil, err
		}
		req.Tools = append(req.Tools, tool)
	}

	for _, m := range c.Messages() {
		msgs, err := toAPIMessages(m)
		if err != nil {
			return nil, err
		}
		req.Messages = append(req.Messages, msgs...)
	}

	return req, nil
}

func toAPITool(t toolbox.Tool) (api.Tool, error) {
	schema := t.InputSchema
	if schema == nil {
		schema = json.RawMessage(`{"type":"object"}`)
	}

	raw, err := json.Marshal(map[string]any{
		"type": "function",
		"function": map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"parameters":  schema,
		},
	})
	if err != nil {
		return api.Tool{}, errors.Wrapf(err, "ollama: encode tool %s", t.Name)
	}

	var tool api.Tool
	if err := json.Unmarshal(raw, &tool); err != nil {
		return api.Tool{}, errors.Wrapf(err, "ollama: tool %s has an unsupported schema", t.Name)
	}

	return tool, nil
}

func toAPIMessages(m message.Message) ([]api.Message, error) {
	switch m.Role {
	case role.System, role.User:
		return []api.Message{{Role: m.Role.String(), Content: m.TextContent()}}, nil

	case role.Assistant:
		out := api.Message{Role: "assistant", Content: m.TextContent()}
		for _, tc := range m.ToolCalls() {
			var call api.ToolCall
			call.Function.Name = tc.Name

			args := tc.Arguments
			if args == "" {
				args = "{}"
			}
			if err := json.Unmarshal([]byte(args), &call.Function.Arguments); err != nil {
				return nil, errors.Wrapf(err, "ollama: arguments of %s", tc.Name)
			}
			out.ToolCalls = append(out.ToolCalls, call)
		}
		return []api.Message{out}, nil

	case role.Tool:
		var out []api.Message
		for _, tr := range m.ToolResults() {
			out = append(out, api.Message{Role: "tool", Content: tr.Content, ToolName: tr.Name})
		}
		return out, nil
	}

	return nil, nil
}

// parseMessage converts the reply. Ollama does not assign call IDs, so
// they are generated per adapter.
func (a *Adapter) parseMessage(m api.Message) (message.Message, error) {
	var parts []content.Part

	if m.Content != "" {
		parts = append(parts, content.Text{Text: m.Content})
	}

	for _, tc := range m.ToolCalls {
		args, err := json.Marshal(tc.Function.Arguments)
		if err != nil {
			return message.Message{}, errors.Wrapf(err, "ollama: arguments of %s", tc.Function.Name)
		}
		if string(args) == "null" {
			args = []byte("{}")
		}

		parts = append(parts, content.ToolCall{
			ID:        fmt.Sprintf("call_%d", a.calls.Add(1)),
			Name:      tc.Function.Name,
			Arguments: string(args),
		})
	}

	return message.New(a.Name, role.Parse(m.Role, role.Assistant), parts...), nil
}
