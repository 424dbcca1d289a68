package storage

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"

	"github.com/trialpoint/trialctl/internal/config"
	"github.com/trialpoint/trialctl/internal/httpclient"
)

// httpDownloader fetches plain https object URLs (portal-proxied or
// presigned endpoints outside the s3/azure schemes) with the pooled
// transfer client and transient-error retry.
type httpDownloader struct {
	client *nethttp.Client
}

func newHTTPDownloader(cfg *config.Config) (*httpDownloader, error) {
	client, err := httpclient.NewTransferClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer client: %w", err)
	}
	return &httpDownloader{client: client}, nil
}

func (d *httpDownloader) Name() string { return "https" }

// Download retries the GET until the response headers arrive, then
// streams the body exactly once. A mid-stream failure is surfaced to
// the caller rather than retried, since bytes already written to w
// cannot be unwound.
func (d *httpDownloader) Download(ctx context.Context, objectURL string, w io.Writer) (int64, error) {
	var resp *nethttp.Response

	err := httpclient.ExecuteWithRetry(ctx, httpclient.DefaultRetryConfig(), func() error {
		req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, objectURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		r, err := d.client.Do(req)
		if err != nil {
			return err
		}
		if r.StatusCode != nethttp.StatusOK {
			r.Body.Close()
			return fmt.Errorf("unexpected status %d fetching object", r.StatusCode)
		}
		resp = r
		return nil
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return written, fmt.Errorf("failed to stream object: %w", err)
	}
	return written, nil
}
