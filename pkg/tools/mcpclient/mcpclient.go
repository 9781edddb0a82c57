// Package mcpclient connects to tool services over the Model Context Protocol
// and exposes their tools as toolbox tools.
package mcpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os/exec"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/germanamz/toolmesh/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var logger = xlog.NewPackageLogger("github.com/germanamz/toolmesh/pkg/tools", "mcpclient")

// Supported transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ErrToolFailed is returned by CallTool when the server reports a tool error.
var ErrToolFailed = errors.New("mcpclient: tool error")

// Endpoint describes how to reach one tool service.
type Endpoint struct {
	Name      string
	Transport string
	// Command and Args launch a stdio server.
	Command string
	Args    []string
	// Stderr receives the spawned server's diagnostics. Nil discards them.
	Stderr io.Writer
	// URL is the event-stream endpoint of an SSE server.
	URL string
	// HTTPClient is used for SSE; nil means http.DefaultClient.
	HTTPClient *http.Client
}

// Dial connects to the endpoint and completes the MCP handshake.
func (e Endpoint) Dial(ctx context.Context) (*MCPClient, error) {
	var transport mcp.Transport

	switch e.Transport {
	case TransportStdio:
		cmd := exec.Command(e.Command, e.Args...) //nolint:gosec // command comes from operator configuration
		cmd.Stderr = e.Stderr
		transport = &mcp.CommandTransport{Command: cmd}
	case TransportSSE:
		transport = &mcp.SSEClientTransport{Endpoint: e.URL, HTTPClient: e.HTTPClient}
	default:
		return nil, errors.Errorf("mcpclient: %s: unsupported transport %q", e.Name, e.Transport)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "connecting",
		"server", e.Name,
		"transport", e.Transport)

	return Connect(ctx, e.Name, transport)
}

// MCPClient is one connected MCP session.
type MCPClient struct {
	name    string
	client  *mcp.Client
	session *mcp.ClientSession
}

// New spawns an MCP server process and returns a connected client.
func New(ctx context.Context, command string, args ...string) (*MCPClient, error) {
	return Endpoint{Name: command, Transport: TransportStdio, Command: command, Args: args}.Dial(ctx)
}

// NewSSE connects to an SSE-based MCP server at the given URL.
func NewSSE(ctx context.Context, url string) (*MCPClient, error) {
	return Endpoint{Name: url, Transport: TransportSSE, URL: url}.Dial(ctx)
}

// Connect performs the MCP handshake over an arbitrary transport.
func Connect(ctx context.Context, name string, transport mcp.Transport) (*MCPClient, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "toolmesh",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "mcpclient: %s: connect", name)
	}

	return &MCPClient{name: name, client: client, session: session}, nil
}

// Name returns the configured server name.
func (c *MCPClient) Name() string { return c.name }

// ListTools fetches the server's tool descriptors and returns them as
// toolbox tools whose handlers call back through CallTool. Descriptors are
// forwarded unmodified.
func (c *MCPClient) ListTools(ctx context.Context) ([]toolbox.Tool, error) {
	result, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "mcpclient: %s: list tools", c.name)
	}

	tools := make([]toolbox.Tool, 0, len(result.Tools))
	for _, sdkTool := range result.Tools {
		t, err := fromSDKTool(sdkTool, c)
		if err != nil {
			return nil, errors.Wrapf(err, "mcpclient: %s: convert tool %q", c.name, sdkTool.Name)
		}
		tools = append(tools, t)
	}

	return tools, nil
}

// ToolBox returns the server's tools in a fresh ToolBox.
func (c *MCPClient) ToolBox(ctx context.Context) (*toolbox.ToolBox, error) {
	tools, err := c.ListTools(ctx)
	if err != nil {
		return nil, err
	}

	tb := toolbox.New()
	tb.Register(tools...)
	return tb, nil
}

// CallTool calls a named tool on the server with the given arguments.
func (c *MCPClient) CallTool(ctx context.Context, name string, arguments json.RawMessage) (string, error) {
	var args map[string]any
	if len(arguments) > 0 {
		if err := json.Unmarshal(arguments, &args); err != nil {
			return "", errors.Wrap(err, "mcpclient: unmarshal arguments")
		}
	}

	logger.ContextKV(ctx, xlog.DEBUG, "status", "call_tool", "server", c.name, "tool", name)

	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return "", errors.Wrapf(err, "mcpclient: %s: call tool %q", c.name, name)
	}

	text := extractText(result)

	if result.IsError {
		return "", errors.Wrap(ErrToolFailed, text)
	}

	return text, nil
}

// Close ends the session. For stdio servers the SDK closes the child's stdin
// and escalates to SIGTERM/SIGKILL if it does not exit.
func (c *MCPClient) Close() error {
	return c.session.Close()
}

// fromSDKTool converts an SDK tool descriptor to a toolbox.Tool bound to c.
func fromSDKTool(sdkTool *mcp.Tool, c *MCPClient) (toolbox.Tool, error) {
	schemaBytes, err := json.Marshal(sdkTool.InputSchema)
	if err != nil {
		return toolbox.Tool{}, errors.Wrap(err, "marshal input schema")
	}

	name := sdkTool.Name

	return toolbox.Tool{
		Name:        sdkTool.Name,
		Description: sdkTool.Description,
		InputSchema: json.RawMessage(schemaBytes),
		Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
			return c.CallTool(ctx, name, input)
		},
	}, nil
}

// extractText joins all TextContent items from a CallToolResult with newlines.
func extractText(result *mcp.CallToolResult) string {
	var texts []string
	for _, item := range result.Content {
		if tc, ok := item.(*mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}

	return strings.Join(texts, "\n")
}
