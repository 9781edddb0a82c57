package weather

import (
	"net/http"
	"strings"
)

// Separator joins formatted alert and forecast blocks.
const Separator = "\n---\n"

// Service implements the weather tools on top of a Client.
type Service struct {
	client     *Client
	baseURL    string
	maxPeriods int
}

// NewService creates a Service from cfg. Zero values in cfg fall back to
// DefaultConfig.
func NewService(cfg Config, httpClient *http.Client) *Service {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxPeriods <= 0 {
		cfg.MaxPeriods = def.MaxPeriods
	}

	return &Service{
		client:     NewClient(cfg, httpClient),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		maxPeriods: cfg.MaxPeriods,
	}
}

// valueOr returns *p, or def when p is nil.
func valueOr(p *string, def string) string {
	if p == nil {
		return def
	}
	return *p
}
