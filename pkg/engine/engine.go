package engine

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/germanamz/toolmesh/pkg/arith"
	"github.com/germanamz/toolmesh/pkg/session"
	"github.com/germanamz/toolmesh/pkg/tools/mcpclient"
	"github.com/germanamz/toolmesh/pkg/tools/mcpserver"
	"github.com/germanamz/toolmesh/pkg/weather"
)

var logger = xlog.NewPackageLogger("github.com/germanamz/toolmesh/pkg", "engine")

// Engine assembles components from a validated Config.
type Engine struct {
	cfg     Config
	version string
	http    *http.Client
	// Stderr receives the diagnostics of spawned stdio servers.
	Stderr io.Writer
}

// New validates cfg and creates an Engine. version is reported by the tool
// servers during the MCP handshake.
func New(cfg Config, version string) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		cfg:     cfg,
		version: version,
		http:    cfg.Network.Client(0),
		Stderr:  os.Stderr,
	}, nil
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Runner builds a session runner for the configured model and tool services.
// events may be nil.
func (e *Engine) Runner(events *session.EventBus) (*session.Runner, error) {
	m, err := buildModel(e.cfg.Model, e.http)
	if err != nil {
		return nil, err
	}

	dialers, err := e.Dialers()
	if err != nil {
		return nil, err
	}

	sc := e.cfg.Session
	return &session.Runner{
		Prober:        m.Prober,
		ProbeTimeout:  sc.ProbeTimeout,
		Dialers:       dialers,
		Completer:     m.Completer,
		SystemPrompt:  sc.SystemPrompt,
		Timeout:       sc.Timeout,
		MaxIterations: sc.MaxIterations,
		Pace:          pace(sc.Pace),
		Events:        events,
	}, nil
}

// pace maps a configured zero, meaning "no pause", onto the runner's
// negative sentinel.
func pace(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}

// Dialers returns one endpoint per configured MCP server, in order.
func (e *Engine) Dialers() ([]session.Dialer, error) {
	dialers := make([]session.Dialer, 0, len(e.cfg.MCPServers))

	for _, m := range e.cfg.MCPServers {
		ep := mcpclient.Endpoint{
			Name:       m.Name,
			Transport:  m.Transport,
			Command:    m.Command,
			Args:       m.Args,
			Stderr:     e.Stderr,
			URL:        m.URL,
			HTTPClient: e.http,
		}

		if ep.Command == SelfCommand {
			self, err := os.Executable()
			if err != nil {
				return nil, errors.Wrapf(err, "engine: mcp %q: resolve %s", m.Name, SelfCommand)
			}
			ep.Command = self
		}

		dialers = append(dialers, ep)
	}

	return dialers, nil
}

// MathServer returns the arithmetic tool server.
func (e *Engine) MathServer() (*mcpserver.MCPServer, error) {
	return arith.NewServer(e.version)
}

// WeatherServer returns the weather tool server, calling the NWS API through
// the proxy-aware client.
func (e *Engine) WeatherServer() (*mcpserver.MCPServer, error) {
	return weather.NewService(e.cfg.Weather.Config, e.http).NewServer(e.version)
}

// ServeMath serves the arithmetic tools on stdin/stdout until ctx ends or
// the peer disconnects.
func (e *Engine) ServeMath(ctx context.Context) error {
	s, err := e.MathServer()
	if err != nil {
		return err
	}
	return s.ServeStdio(ctx)
}

// ServeWeather serves the weather tools over SSE until ctx ends.
func (e *Engine) ServeWeather(ctx context.Context) error {
	s, err := e.WeatherServer()
	if err != nil {
		return err
	}

	logger.ContextKV(ctx, xlog.NOTICE, "status", "listening", "addr", e.cfg.Weather.Addr, "path", e.cfg.Weather.Path)

	return s.ListenAndServeSSE(ctx, e.cfg.Weather.Addr, e.cfg.Weather.Path)
}
