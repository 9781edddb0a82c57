package engine

import (
	"net/url"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/germanamz/toolmesh/pkg/netconf"
	"github.com/germanamz/toolmesh/pkg/providers/ollama"
	"github.com/germanamz/toolmesh/pkg/session"
	"github.com/germanamz/toolmesh/pkg/tools/mcpclient"
	"github.com/germanamz/toolmesh/pkg/weather"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// SelfCommand as an MCP server command stands for the running executable, so
// the default configuration can spawn "toolmesh serve math" wherever the
// binary is installed.
const SelfCommand = "@self"

// Defaults.
const (
	DefaultModel        = "llama3.2:3b-instruct-fp16"
	DefaultMaxTokens    = 500
	DefaultQuestion     = "What's (3 + 5) x 12?"
	DefaultWeatherAddr  = ":8000"
	DefaultWeatherPath  = "/sse"
	DefaultWeatherURL   = "http://localhost:8000/sse"
	DefaultMaxIteration = 10
)

// Config is the top-level configuration.
type Config struct {
	Model      ModelConfig    `yaml:"model"`
	Session    SessionConfig  `yaml:"session"`
	MCPServers []MCPConfig    `yaml:"mcp_servers" validate:"dive"`
	Network    netconf.Config `yaml:"network"`
	Weather    WeatherConfig  `yaml:"weather"`
	// Questions asked by "toolmesh ask" when none are given on the command line.
	Questions []string `yaml:"questions"`
}

// ModelConfig selects the model service.
type ModelConfig struct {
	Kind        string  `yaml:"kind" validate:"required"`
	BaseURL     string  `yaml:"base_url" validate:"required,url"`
	APIKey      string  `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	Model       string  `yaml:"model" validate:"required"`
	Temperature float64 `yaml:"temperature" validate:"gte=0"`
	MaxTokens   int     `yaml:"max_tokens" validate:"gte=0"`
	// ProbeURL overrides the availability check for kinds without a native one.
	ProbeURL string `yaml:"probe_url" validate:"omitempty,url"`
}

// SessionConfig bounds each Agent Client session.
type SessionConfig struct {
	ProbeTimeout  time.Duration `yaml:"probe_timeout" validate:"gt=0"`
	Timeout       time.Duration `yaml:"timeout" validate:"gt=0"`
	Pace          time.Duration `yaml:"pace" validate:"gte=0"`
	MaxIterations int           `yaml:"max_iterations" validate:"gt=0"`
	SystemPrompt  string        `yaml:"system_prompt"`
}

// MCPConfig describes one tool service the Agent Client connects to.
type MCPConfig struct {
	Name      string   `yaml:"name" validate:"required"`
	Transport string   `yaml:"transport" validate:"oneof=stdio sse"`
	Command   string   `yaml:"command" validate:"required_if=Transport stdio"`
	Args      []string `yaml:"args"`
	URL       string   `yaml:"url" validate:"required_if=Transport sse"`
}

// WeatherConfig configures "toolmesh serve weather".
type WeatherConfig struct {
	weather.Config `yaml:",inline"`

	Addr string `yaml:"addr" validate:"required"`
	Path string `yaml:"path" validate:"required,startswith=/"`
}

// Default returns the configuration used when no file is given: a local
// Ollama model, the math server spawned over stdio and the weather server
// reached over SSE.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Kind:      KindOllama,
			BaseURL:   ollama.DefaultBaseURL,
			Model:     DefaultModel,
			MaxTokens: DefaultMaxTokens,
		},
		Session: SessionConfig{
			ProbeTimeout:  session.DefaultProbeTimeout,
			Timeout:       session.DefaultTimeout,
			Pace:          session.DefaultPace,
			MaxIterations: DefaultMaxIteration,
		},
		MCPServers: []MCPConfig{
			{Name: "math", Transport: mcpclient.TransportStdio, Command: SelfCommand, Args: []string{"serve", "math"}},
			{Name: "weather", Transport: mcpclient.TransportSSE, URL: DefaultWeatherURL},
		},
		Network: netconf.Default(),
		Weather: WeatherConfig{
			Config: weather.DefaultConfig(),
			Addr:   DefaultWeatherAddr,
			Path:   DefaultWeatherPath,
		},
		Questions: []string{DefaultQuestion},
	}
}

// LoadConfig reads a YAML file on top of Default. Environment variables
// referenced as ${VAR} or $VAR are expanded before parsing, so secrets can
// live in the environment or a .env file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, errors.Wrap(err, "engine: load config")
	}

	return ParseConfig(data)
}

// ParseConfig decodes YAML bytes on top of Default. Lists in the document
// replace the default lists.
func ParseConfig(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return Config{}, errors.Wrap(err, "engine: parse config")
	}

	return cfg, nil
}

// Validate checks field constraints and cross-field consistency.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "engine: config")
	}

	if _, ok := getFactory(c.Model.Kind); !ok {
		return errors.Errorf("engine: config: unknown model kind %q", c.Model.Kind)
	}

	names := make(map[string]struct{}, len(c.MCPServers))
	for _, m := range c.MCPServers {
		if _, dup := names[m.Name]; dup {
			return errors.Errorf("engine: config: duplicate mcp server name %q", m.Name)
		}
		names[m.Name] = struct{}{}

		if m.Transport == mcpclient.TransportSSE {
			u, err := url.Parse(m.URL)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return errors.Errorf("engine: config: mcp server %q: invalid url %q", m.Name, m.URL)
			}
		}
	}

	return nil
}
