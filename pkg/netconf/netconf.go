// Package netconf builds outbound HTTP clients from an explicit proxy
// configuration instead of mutating process environment variables.
package netconf

import (
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// DefaultNoProxy keeps loopback traffic (local model server, local tool
// services) off any configured proxy.
const DefaultNoProxy = "localhost,127.0.0.1"

// Config selects the proxies used for outbound requests.
type Config struct {
	HTTPProxy  string `yaml:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy"`
	NoProxy    string `yaml:"no_proxy"`
	// UseEnvironment fills unset fields from HTTP_PROXY, HTTPS_PROXY and
	// NO_PROXY. When false the environment is ignored entirely.
	UseEnvironment bool `yaml:"use_environment"`
}

// Default returns a configuration that ignores environment proxies and
// bypasses any proxy for loopback hosts.
func Default() Config {
	return Config{NoProxy: DefaultNoProxy}
}

func (c Config) resolve() *httpproxy.Config {
	pc := &httpproxy.Config{
		HTTPProxy:  c.HTTPProxy,
		HTTPSProxy: c.HTTPSProxy,
		NoProxy:    c.NoProxy,
	}

	if c.UseEnvironment {
		env := httpproxy.FromEnvironment()
		if pc.HTTPProxy == "" {
			pc.HTTPProxy = env.HTTPProxy
		}
		if pc.HTTPSProxy == "" {
			pc.HTTPSProxy = env.HTTPSProxy
		}
		if pc.NoProxy == "" {
			pc.NoProxy = env.NoProxy
		}
	}

	return pc
}

// ProxyFunc returns a function suitable for http.Transport.Proxy.
func (c Config) ProxyFunc() func(*http.Request) (*url.URL, error) {
	fn := c.resolve().ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return fn(req.URL)
	}
}

// Client returns an HTTP client that routes through the configured proxies.
// A zero timeout leaves the client unbounded so callers can rely on
// per-request contexts.
func (c Config) Client(timeout time.Duration) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.Proxy = c.ProxyFunc()

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}
}
