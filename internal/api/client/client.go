// Package client provides a thin HTTP client for a running amiibot server.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	domain "github.com/ecoppen/amiibot/pkg/types"
)

// ErrCycleInProgress is returned by TriggerScrape when the server is
// already running a cycle.
var ErrCycleInProgress = errors.New("a scrape cycle is already running")

// Client is a thin HTTP client for the amiibot API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client targeting the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Sources returns the status of every configured source.
func (c *Client) Sources(ctx context.Context) ([]domain.SourceStatus, error) {
	var resp struct {
		Sources []domain.SourceStatus `json:"sources"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/sources", &resp); err != nil {
		return nil, err
	}
	return resp.Sources, nil
}

// Stock returns current ledger rows, limited to sourceID when it is set.
func (c *Client) Stock(ctx context.Context, sourceID string) ([]domain.StockRecord, int, error) {
	path := "/api/v1/stock"
	if sourceID != "" {
		path += "?source=" + url.QueryEscape(sourceID)
	}

	var resp struct {
		Stock []domain.StockRecord `json:"stock"`
		Total int                  `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, path, &resp); err != nil {
		return nil, 0, err
	}
	return resp.Stock, resp.Total, nil
}

// Stats returns ledger totals.
func (c *Client) Stats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// TriggerScrape asks the server to run a cycle and waits for it to finish.
func (c *Client) TriggerScrape(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/scrape", &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (c *Client) do(ctx context.Context, method, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return fmt.Errorf("API server not running at %s", c.baseURL)
		}
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusConflict {
		return ErrCycleInProgress
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("API error (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if dst != nil && len(body) > 0 {
		if err := json.Unmarshal(body, dst); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
