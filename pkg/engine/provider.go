package engine

import (
	"net/http"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/germanamz/toolmesh/pkg/modeladapter"
	"github.com/germanamz/toolmesh/pkg/providers/ollama"
	"github.com/germanamz/toolmesh/pkg/providers/openai"
	"github.com/germanamz/toolmesh/pkg/session"
)

// Model kinds registered by default.
const (
	KindOllama = "ollama"
	KindOpenAI = "openai"
)

// Model pairs a completer with the probe that gates sessions using it.
type Model struct {
	Completer modeladapter.Completer
	Prober    session.Prober
}

// ProviderFactory creates a Model from its configuration. The HTTP client is
// already proxy-aware.
type ProviderFactory func(cfg ModelConfig, client *http.Client) (Model, error)

var (
	factoryMu   sync.RWMutex
	factories   = map[string]ProviderFactory{}
	defaultsReg sync.Once
)

func ensureDefaults() {
	defaultsReg.Do(func() {
		factories[KindOllama] = newOllama
		factories[KindOpenAI] = newOpenAI
	})
}

// RegisterProvider registers a factory under kind, replacing any existing one.
func RegisterProvider(kind string, factory ProviderFactory) {
	ensureDefaults()

	factoryMu.Lock()
	defer factoryMu.Unlock()

	factories[kind] = factory
}

func getFactory(kind string) (ProviderFactory, bool) {
	ensureDefaults()

	factoryMu.RLock()
	defer factoryMu.RUnlock()

	f, ok := factories[kind]
	return f, ok
}

// newOllama uses the native chat API; the model listing doubles as the probe.
func newOllama(cfg ModelConfig, client *http.Client) (Model, error) {
	a, err := ollama.New(cfg.BaseURL, client, cfg.Model)
	if err != nil {
		return Model{}, err
	}
	a.Temperature = cfg.Temperature
	a.MaxTokens = cfg.MaxTokens

	var probe session.Prober = a
	if cfg.ProbeURL != "" {
		probe = session.HTTPProbe{URL: cfg.ProbeURL, Client: client}
	}

	return Model{Completer: a, Prober: probe}, nil
}

// newOpenAI targets any Chat Completions server, Ollama's /v1 endpoint
// included. Without a probe_url the model listing at /v1/models is checked.
func newOpenAI(cfg ModelConfig, client *http.Client) (Model, error) {
	a := openai.New(cfg.BaseURL, cfg.APIKey, cfg.Model)
	a.Client = client
	a.Temperature = cfg.Temperature
	a.MaxTokens = cfg.MaxTokens

	probeURL := cfg.ProbeURL
	if probeURL == "" {
		probeURL = strings.TrimSuffix(cfg.BaseURL, "/") + "/v1/models"
	}

	return Model{Completer: a, Prober: session.HTTPProbe{URL: probeURL, Client: client}}, nil
}

func buildModel(cfg ModelConfig, client *http.Client) (Model, error) {
	factory, ok := getFactory(cfg.Kind)
	if !ok {
		return Model{}, errors.Errorf("engine: unknown model kind %q", cfg.Kind)
	}

	m, err := factory(cfg, client)
	if err != nil {
		return Model{}, errors.Wrapf(err, "engine: model %q", cfg.Model)
	}

	return m, nil
}
