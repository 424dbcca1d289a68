package httpclient

import (
	"fmt"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/go-ntlmssp"

	"github.com/trialpoint/trialctl/internal/config"
)

// configureClient builds an HTTP client for the configured proxy mode.
// Modes: "no-proxy" (default), "system", "basic", "ntlm".
func configureClient(cfg *config.Config) (*nethttp.Client, error) {
	transport := baseTransport()

	mode := ""
	if cfg != nil {
		mode = strings.ToLower(cfg.Proxy.Mode)
	}

	switch mode {
	case "no-proxy", "":
		transport.Proxy = nil

	case "system":
		transport.Proxy = nethttp.ProxyFromEnvironment

	case "ntlm":
		if cfg.Proxy.Host == "" {
			// Incomplete saved config; run direct so the user can fix it.
			transport.Proxy = nil
			break
		}
		transport.Proxy = nethttp.ProxyURL(buildProxyURL(cfg))
		return &nethttp.Client{
			Transport: ntlmssp.Negotiator{
				RoundTripper: transport,
			},
			Timeout: 300 * time.Second,
		}, nil

	case "basic":
		if cfg.Proxy.Host == "" {
			transport.Proxy = nil
			break
		}
		transport.Proxy = nethttp.ProxyURL(buildProxyURL(cfg))

	default:
		return nil, fmt.Errorf("unsupported proxy mode: %s", cfg.Proxy.Mode)
	}

	return &nethttp.Client{
		Transport: transport,
		Timeout:   300 * time.Second,
	}, nil
}

// buildProxyURL constructs a proxy URL from config.
func buildProxyURL(cfg *config.Config) *url.URL {
	port := cfg.Proxy.Port
	if port == 0 {
		port = 8080
	}

	proxyURL := &url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", cfg.Proxy.Host, port),
	}

	// Embedding an empty password breaks auth with some proxies.
	if cfg.Proxy.User != "" && cfg.Proxy.Password != "" {
		proxyURL.User = url.UserPassword(cfg.Proxy.User, cfg.Proxy.Password)
	}

	return proxyURL
}
