package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// azureDownloader streams blobs from SAS-authenticated Azure URLs. The
// SAS token rides in the object URL's query string; no stored
// credentials are involved.
type azureDownloader struct{}

func newAzureDownloader() *azureDownloader {
	return &azureDownloader{}
}

func (d *azureDownloader) Name() string { return "azure" }

func (d *azureDownloader) Download(ctx context.Context, objectURL string, w io.Writer) (int64, error) {
	service, container, blobPath, err := parseBlobURL(objectURL)
	if err != nil {
		return 0, err
	}

	client, err := azblob.NewClientWithNoCredential(service, &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries: 5,
				TryTimeout: 10 * time.Minute,
			},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create blob client: %w", err)
	}

	resp, err := client.DownloadStream(ctx, container, blobPath, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to download blob %s/%s: %w", container, blobPath, err)
	}
	defer resp.Body.Close()

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return written, fmt.Errorf("failed to stream blob %s/%s: %w", container, blobPath, err)
	}
	return written, nil
}

// parseBlobURL splits a SAS blob URL into the service URL (SAS token
// attached), container, and blob path.
// Format: https://{account}.blob.core.windows.net/{container}/{blob}?{sas}
func parseBlobURL(objectURL string) (service, container, blobPath string, err error) {
	u, err := url.Parse(objectURL)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid blob url: %w", err)
	}

	parts := strings.SplitN(strings.TrimPrefix(u.Path, "/"), "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("blob url missing container or blob path: %q", u.Path)
	}

	service = u.Scheme + "://" + u.Host + "/"
	if u.RawQuery != "" {
		service += "?" + u.RawQuery
	}
	return service, parts[0], parts[1], nil
}
