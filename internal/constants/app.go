// Package constants centralizes tunables shared across trialctl packages.
package constants

import "time"

// Browsing defaults
const (
	// DefaultPageSize - rows requested per table page.
	// Matches the portal web UI's fixed page size.
	DefaultPageSize = 15

	// MaxPageSize - upper bound accepted by the listing endpoints.
	MaxPageSize = 200

	// FacetCacheTTL - how long a facet catalogue response stays valid in
	// the request cache before a refetch is forced.
	FacetCacheTTL = 2 * time.Minute

	// ListCacheTTL - how long a listing page stays valid in the request
	// cache. Short, because listings change as files are ingested.
	ListCacheTTL = 30 * time.Second
)

// Download concurrency
const (
	// DefaultMaxConcurrent - concurrent object downloads per batch.
	DefaultMaxConcurrent = 5

	// MinMaxConcurrent / MaxMaxConcurrent - accepted --max-concurrent range.
	MinMaxConcurrent = 1
	MaxMaxConcurrent = 20
)

// HTTP transport
const (
	HTTPDialTimeout           = 30 * time.Second
	HTTPDialKeepAlive         = 30 * time.Second
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 30 * time.Second
	HTTPExpectContinueTimeout = 5 * time.Second
)

// Retry configuration for storage downloads
const (
	// MaxRetries - maximum retries for transient storage errors.
	MaxRetries = 8

	// RetryInitialDelay - base delay for exponential backoff.
	RetryInitialDelay = 200 * time.Millisecond

	// RetryMaxDelay - cap on backoff delay.
	RetryMaxDelay = 15 * time.Second
)

// Manifest handling
const (
	// ManifestFilename - default name for a generated manifest.
	ManifestFilename = "file-manifest.tsv"
)
