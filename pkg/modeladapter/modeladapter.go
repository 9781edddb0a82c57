package modeladapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/germanamz/toolmesh/pkg/chats/chat"
	"github.com/germanamz/toolmesh/pkg/chats/message"
	"github.com/germanamz/toolmesh/pkg/modeladapter/usage"
	"github.com/germanamz/toolmesh/pkg/tools/toolbox"
)

// Completer sends a conversation to an LLM and returns the assistant's reply.
// The tools parameter declares which tools are available for this call.
type Completer interface {
	Complete(ctx context.Context, c *chat.Chat, tools []toolbox.Tool) (message.Message, error)
}

// UsageReporter is implemented by completers that track token usage.
type UsageReporter interface {
	UsageTracker() *usage.Tracker
}

// Auth holds authentication settings for an LLM provider API.
type Auth struct {
	Key    string // API key value.
	Header string // Header name (default: "Authorization").
	Scheme string // Scheme prefix (default: "Bearer" when Header is "Authorization").
}

// ModelAdapter holds state shared by HTTP provider implementations. Embed it
// in a provider struct and define Complete on the provider.
type ModelAdapter struct {
	Name        string            // Model identifier.
	Temperature float64           // Sampling temperature.
	MaxTokens   int               // Maximum tokens in the response.
	Auth        Auth              // Authentication settings.
	BaseURL     string            // API base URL (no trailing slash).
	Client      *http.Client      // HTTP client; nil uses a default with a 10-minute timeout.
	Headers     map[string]string // Extra headers applied to every request.
	Usage       usage.Tracker     // Token usage tracker.

	clientOnce    sync.Once
	defaultClient *http.Client
}

// UsageTracker returns the adapter's token usage tracker.
func (a *ModelAdapter) UsageTracker() *usage.Tracker { return &a.Usage }

func (a *ModelAdapter) httpClient() *http.Client {
	if a.Client != nil {
		return a.Client
	}

	a.clientOnce.Do(func() {
		a.defaultClient = &http.Client{Timeout: 10 * time.Minute}
	})

	return a.defaultClient
}

// NewRequest builds an *http.Request against BaseURL with auth and custom
// headers applied.
func (a *ModelAdapter) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, a.BaseURL+path, body)
	if err != nil {
		return nil, err
	}

	if a.Auth.Key != "" {
		header := a.Auth.Header
		if header == "" {
			header = "Authorization"
		}

		value := a.Auth.Key
		switch {
		case header == "Authorization":
			scheme := a.Auth.Scheme
			if scheme == "" {
				scheme = "Bearer"
			}
			value = scheme + " " + value
		case a.Auth.Scheme != "":
			value = a.Auth.Scheme + " " + value
		}

		req.Header.Set(header, value)
	}

	for k, v := range a.Headers {
		req.Header.Set(k, v)
	}

	return req, nil
}

// Do sends the request using the configured HTTP client.
func (a *ModelAdapter) Do(req *http.Request) (*http.Response, error) {
	return a.httpClient().Do(req) //nolint:gosec // URL is built from trusted BaseURL config
}

// PostJSON marshals payload, POSTs it to path, checks for a 2xx status and
// decodes the response into dest. A nil dest discards the body.
func (a *ModelAdapter) PostJSON(ctx context.Context, path string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}

	req, err := a.NewRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return errors.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if dest == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return errors.Wrap(err, "decode response")
	}

	return nil
}
