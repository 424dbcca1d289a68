// Package storage downloads manifest objects from their backing stores.
// The portal hands out object URLs whose scheme decides the provider:
// s3:// buckets, Azure blob SAS URLs, and plain https endpoints.
package storage

import (
	"context"
	"io"
)

// ObjectDownloader streams one object identified by its manifest URL.
type ObjectDownloader interface {
	// Download streams the object at objectURL into w and returns the
	// number of bytes written.
	Download(ctx context.Context, objectURL string, w io.Writer) (int64, error)

	// Name identifies the provider in logs.
	Name() string
}
