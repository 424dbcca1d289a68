// Package api implements the TrialPoint portal REST client.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/trialpoint/trialctl/internal/config"
	"github.com/trialpoint/trialctl/internal/httpclient"
	"github.com/trialpoint/trialctl/internal/models"
	"github.com/trialpoint/trialctl/internal/ratelimit"
)

// retryLogger adapts zerolog to the retryablehttp.LeveledLogger interface.
type retryLogger struct{}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Error().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Warn().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {
	// Retry chatter stays at debug.
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

// ListParams carries pagination, sorting, and filter state for the
// listing endpoints. Zero values mean "server default".
type ListParams struct {
	Page          int
	PageSize      int
	SortField     string
	SortDirection string // "asc" or "desc"
	TrialIDs      []string
	Facets        []string // pipe-delimited "category|facet[|subfacet]" keys
}

// Encode serializes the params the way the portal web UI does:
// array-valued filters comma-joined, facet keys pipe-delimited.
func (p ListParams) Encode() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(p.Page))
	if p.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if p.SortField != "" {
		v.Set("sort_field", p.SortField)
		dir := p.SortDirection
		if dir == "" {
			dir = "asc"
		}
		v.Set("sort_direction", dir)
	}
	if len(p.TrialIDs) > 0 {
		v.Set("trial_ids", strings.Join(p.TrialIDs, ","))
	}
	if len(p.Facets) > 0 {
		v.Set("facets", strings.Join(p.Facets, ","))
	}
	return v
}

// Client is the TrialPoint API client.
type Client struct {
	httpClient      *nethttp.Client
	baseURL         string
	token           string
	browseLimiter   *ratelimit.RateLimiter
	manifestLimiter *ratelimit.RateLimiter
}

// NewClient creates a new API client from config.
func NewClient(cfg *config.Config) (*Client, error) {
	if err := cfg.ValidateForConnection(); err != nil {
		return nil, err
	}

	httpClient, err := httpclient.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = 5
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = &retryLogger{}

	return &Client{
		httpClient:      retryClient.StandardClient(),
		baseURL:         strings.TrimSuffix(cfg.PortalURL, "/"),
		token:           cfg.APIToken,
		browseLimiter:   ratelimit.NewBrowseRateLimiter(),
		manifestLimiter: ratelimit.NewManifestRateLimiter(),
	}, nil
}

// doRequest performs an HTTP request with bearer auth and rate limiting.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body interface{}) (*nethttp.Response, error) {
	limiter := c.browseLimiter
	if strings.Contains(path, "/manifest") {
		limiter = c.manifestLimiter
	}

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter cancelled: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Str("method", method).Str("path", path).Err(err).Msg("API call failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode == nethttp.StatusTooManyRequests {
		log.Warn().Str("path", path).Str("retry_after", resp.Header.Get("Retry-After")).
			Msg("throttled by portal API")
	}

	return resp, nil
}

// ListTrials retrieves one page of trials for the given filters and sort.
func (c *Client) ListTrials(ctx context.Context, params ListParams) (*models.TrialListResponse, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/trials", params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "list trials"); err != nil {
		return nil, err
	}

	var result models.TrialListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode trials response: %w", err)
	}
	return &result, nil
}

// GetTrial retrieves a single trial with its file bundle.
func (c *Client) GetTrial(ctx context.Context, trialID string) (*models.Trial, error) {
	path := fmt.Sprintf("/api/trials/%s", url.PathEscape(trialID))

	resp, err := c.doRequest(ctx, "GET", path, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "get trial"); err != nil {
		return nil, err
	}

	var trial models.Trial
	if err := json.NewDecoder(resp.Body).Decode(&trial); err != nil {
		return nil, fmt.Errorf("failed to decode trial: %w", err)
	}
	return &trial, nil
}

// ListFiles retrieves one page of downloadable files.
func (c *Client) ListFiles(ctx context.Context, params ListParams) (*models.FileListResponse, error) {
	resp, err := c.doRequest(ctx, "GET", "/api/downloadable_files", params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "list files"); err != nil {
		return nil, err
	}

	var result models.FileListResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode files response: %w", err)
	}
	return &result, nil
}

// GetFacets retrieves the facet catalogue for the current filter set.
// The catalogue is filter-dependent: counts reflect files matching the
// selections already applied.
func (c *Client) GetFacets(ctx context.Context, trialIDs, facets []string) (*models.FacetCatalog, error) {
	v := url.Values{}
	if len(trialIDs) > 0 {
		v.Set("trial_ids", strings.Join(trialIDs, ","))
	}
	if len(facets) > 0 {
		v.Set("facets", strings.Join(facets, ","))
	}

	resp, err := c.doRequest(ctx, "GET", "/api/downloadable_files/facets", v, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "get facets"); err != nil {
		return nil, err
	}

	var catalog models.FacetCatalog
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("failed to decode facet catalogue: %w", err)
	}
	return &catalog, nil
}

// GenerateManifest posts the selected file id set and returns the raw
// tab-separated manifest blob.
func (c *Client) GenerateManifest(ctx context.Context, fileIDs []string) ([]byte, error) {
	if len(fileIDs) == 0 {
		return nil, fmt.Errorf("at least one file id is required")
	}

	req := models.ManifestRequest{FileIDs: fileIDs}

	resp, err := c.doRequest(ctx, "POST", "/api/downloadable_files/manifest", nil, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, "generate manifest"); err != nil {
		return nil, err
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest body: %w", err)
	}
	return blob, nil
}

// checkStatus converts a non-2xx response into an error carrying the body.
func checkStatus(resp *nethttp.Response, op string) error {
	if resp.StatusCode == nethttp.StatusOK || resp.StatusCode == nethttp.StatusCreated {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == nethttp.StatusUnauthorized || resp.StatusCode == nethttp.StatusForbidden {
		return fmt.Errorf("%s failed: %w: status %d: %s", op, ErrUnauthorized, resp.StatusCode, string(body))
	}
	return fmt.Errorf("%s failed: status %d: %s", op, resp.StatusCode, string(body))
}
