// Package poolfeed fetches shared bingo item pools from a remote feed.
// Rooms can be created against a named community pool instead of an
// inline item list.
package poolfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Client fetches named item pools
type Client interface {
	FetchPool(ctx context.Context, name string) ([]string, error)
}

// Pool is the feed's wire format for one item pool
type Pool struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// HTTPClient talks to a real pool feed
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a feed client for the given base URL
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchPool retrieves one named pool from the feed
func (c *HTTPClient) FetchPool(ctx context.Context, name string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/pools/%s.json", c.baseURL, url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pool feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("pool %q not found in feed", name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pool feed returned status %d", resp.StatusCode)
	}

	var pool Pool
	if err := json.NewDecoder(resp.Body).Decode(&pool); err != nil {
		return nil, fmt.Errorf("invalid pool feed response: %w", err)
	}
	return pool.Items, nil
}

var _ Client = (*HTTPClient)(nil)
