package weather

import (
	"context"

	"github.com/effective-security/xlog"
	"github.com/germanamz/toolmesh/pkg/tools/mcpserver"
	"github.com/germanamz/toolmesh/pkg/tools/toolbox"
)

// ServerName is the MCP implementation name the service reports.
const ServerName = "weather"

type alertsArgs struct {
	State *string `json:"state" validate:"required" jsonschema:"description=Two-letter US state code (e.g. CA or NY)"`
}

type forecastArgs struct {
	Latitude  *float64 `json:"latitude" validate:"required" jsonschema:"description=Latitude of the location"`
	Longitude *float64 `json:"longitude" validate:"required" jsonschema:"description=Longitude of the location"`
}

// Tools returns the validated registry of weather tools. Failures are
// reported as their fixed text so the caller always receives a result.
func (s *Service) Tools() (*toolbox.ToolBox, error) {
	return toolbox.NewRegistry(
		toolbox.NewTool("get_alerts",
			"Get weather alerts for a US state.",
			func(ctx context.Context, in alertsArgs) (string, error) {
				return textOf(ctx, "get_alerts")(s.Alerts(ctx, *in.State))
			}),
		toolbox.NewTool("get_forecast",
			"Get weather forecast for a location.",
			func(ctx context.Context, in forecastArgs) (string, error) {
				return textOf(ctx, "get_forecast")(s.Forecast(ctx, *in.Latitude, *in.Longitude))
			}),
	)
}

// textOf converts a typed failure into its fixed message, logging the kind.
func textOf(ctx context.Context, tool string) func(string, error) (string, error) {
	return func(text string, err error) (string, error) {
		if err == nil {
			return text, nil
		}
		logger.ContextKV(ctx, xlog.ERROR,
			"status", "tool_failed",
			"tool", tool,
			"err", err.Error())
		return Message(err), nil
	}
}

// NewServer returns an MCP server exposing the weather tools.
func (s *Service) NewServer(version string) (*mcpserver.MCPServer, error) {
	tb, err := s.Tools()
	if err != nil {
		return nil, err
	}

	srv := mcpserver.New(ServerName, version)
	if err := srv.Register(tb.Tools()...); err != nil {
		return nil, err
	}
	return srv, nil
}
