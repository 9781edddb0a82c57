package session

import (
	"context"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
)

// Prober checks that the model service answers before a session starts.
type Prober interface {
	Ping(ctx context.Context) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) error

// Ping calls f.
func (f ProberFunc) Ping(ctx context.Context) error { return f(ctx) }

// HTTPProbe GETs URL and treats any 2xx response as available.
type HTTPProbe struct {
	URL    string
	Client *http.Client
}

// Ping performs the request. The body is drained and discarded.
func (p HTTPProbe) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return errors.Wrapf(err, "probe %s", p.URL)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "probe %s", p.URL)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("probe %s: unexpected status %d", p.URL, resp.StatusCode)
	}

	return nil
}
