// Package weather is the weather tool service. It queries the US National
// Weather Service API and renders alerts and forecasts as plain text.
package weather

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/germanamz/toolmesh/pkg", "weather")

// Defaults for Config.
const (
	DefaultBaseURL    = "https://api.weather.gov"
	DefaultUserAgent  = "toolmesh-weather/1.0"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxPeriods = 5
)

// Config holds the upstream API settings.
type Config struct {
	BaseURL    string        `yaml:"base_url" validate:"required,url"`
	UserAgent  string        `yaml:"user_agent" validate:"required"`
	Timeout    time.Duration `yaml:"timeout" validate:"gt=0"`
	MaxPeriods int           `yaml:"max_periods" validate:"gt=0"`
}

// DefaultConfig returns the settings for the public NWS API.
func DefaultConfig() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		UserAgent:  DefaultUserAgent,
		Timeout:    DefaultTimeout,
		MaxPeriods: DefaultMaxPeriods,
	}
}

// Client performs GeoJSON requests against the NWS API.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a Client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, http: httpClient}
}

// Fetch GETs url and decodes the JSON body into dest. Every failure
// (transport, timeout, non-2xx status, undecodable body) is logged with the
// URL and returned as ErrNoData.
func (c *Client) Fetch(ctx context.Context, url string, dest any) error {
	if err := c.fetch(ctx, url, dest); err != nil {
		logger.ContextKV(ctx, xlog.ERROR,
			"status", "request_failed",
			"url", url,
			"err", err.Error())
		return errors.Mark(err, ErrNoData)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, url string, dest any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/geo+json")

	logger.ContextKV(ctx, xlog.DEBUG, "status", "request", "url", url)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.Wrap(err, "decode response")
	}

	return nil
}
