package storage

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/trialpoint/trialctl/internal/config"
)

// Factory creates the right downloader for each object URL. Providers
// are cached per scheme so a batch of files sharing a store reuses one
// client and its connection pool. ForURL is called from the download
// workers concurrently, so the lazy init is mutex-guarded.
type Factory struct {
	cfg   *config.Config
	mu    sync.Mutex
	s3    ObjectDownloader
	azure ObjectDownloader
	https ObjectDownloader
}

// NewFactory creates a provider factory.
func NewFactory(cfg *config.Config) *Factory {
	return &Factory{cfg: cfg}
}

// ForURL returns a downloader for the given object URL.
func (f *Factory) ForURL(objectURL string) (ObjectDownloader, error) {
	u, err := url.Parse(objectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid object url %q: %w", objectURL, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case u.Scheme == "s3":
		if f.s3 == nil {
			f.s3 = newS3Downloader()
		}
		return f.s3, nil

	case isAzureBlobURL(u):
		if f.azure == nil {
			f.azure = newAzureDownloader()
		}
		return f.azure, nil

	case u.Scheme == "https" || u.Scheme == "http":
		if f.https == nil {
			client, err := newHTTPDownloader(f.cfg)
			if err != nil {
				return nil, err
			}
			f.https = client
		}
		return f.https, nil

	default:
		return nil, fmt.Errorf("unsupported object url scheme %q", u.Scheme)
	}
}

func isAzureBlobURL(u *url.URL) bool {
	return u.Scheme == "https" && strings.HasSuffix(strings.ToLower(u.Hostname()), ".blob.core.windows.net")
}
