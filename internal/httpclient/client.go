// Package httpclient builds the HTTP clients used for portal API calls
// and storage downloads, with proxy support and pooled transports.
package httpclient

import (
	"crypto/tls"
	"net"
	nethttp "net/http"
	"os"

	"github.com/trialpoint/trialctl/internal/config"
	"github.com/trialpoint/trialctl/internal/constants"
	"golang.org/x/net/http2"
)

// New creates an HTTP client honoring the configured proxy mode.
// The returned client has no overall timeout; callers bound requests
// with contexts.
func New(cfg *config.Config) (*nethttp.Client, error) {
	return configureClient(cfg)
}

// NewTransferClient creates a client tuned for large object downloads:
// bigger connection pool, compression disabled (objects are already
// compressed), HTTP/2 enabled where the proxy setup allows it.
func NewTransferClient(cfg *config.Config) (*nethttp.Client, error) {
	client, err := configureClient(cfg)
	if err != nil {
		return nil, err
	}

	tr, ok := client.Transport.(*nethttp.Transport)
	if !ok {
		// NTLM mode wraps the transport in a negotiator; leave it alone.
		client.Timeout = 0
		return client, nil
	}

	tr.MaxIdleConns = 256
	tr.MaxIdleConnsPerHost = 64
	tr.MaxConnsPerHost = 64
	tr.DisableCompression = true
	tr.ForceAttemptHTTP2 = true
	_ = http2.ConfigureTransport(tr)

	// HTTP/2 multiplexing through proxies is a common source of
	// mid-transfer stream resets; fall back to HTTP/1.1 there.
	if proxyActive(cfg) && os.Getenv("TRIALCTL_FORCE_HTTP2") != "true" {
		tr.ForceAttemptHTTP2 = false
		tr.TLSNextProto = make(map[string]func(string, *tls.Conn) nethttp.RoundTripper)
	}

	client.Transport = tr
	client.Timeout = 0
	return client, nil
}

func baseTransport() *nethttp.Transport {
	return &nethttp.Transport{
		DialContext: (&net.Dialer{
			Timeout:   constants.HTTPDialTimeout,
			KeepAlive: constants.HTTPDialKeepAlive,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		MaxConnsPerHost:       100,
		IdleConnTimeout:       constants.HTTPIdleConnTimeout,
		TLSHandshakeTimeout:   constants.HTTPTLSHandshakeTimeout,
		ExpectContinueTimeout: constants.HTTPExpectContinueTimeout,
	}
}

func proxyActive(cfg *config.Config) bool {
	if cfg == nil {
		return envProxySet()
	}
	switch cfg.Proxy.Mode {
	case "no-proxy", "":
		return false
	case "system":
		return envProxySet()
	default:
		return true
	}
}

func envProxySet() bool {
	return os.Getenv("HTTP_PROXY") != "" || os.Getenv("HTTPS_PROXY") != "" ||
		os.Getenv("http_proxy") != "" || os.Getenv("https_proxy") != ""
}
