// Package search integrates the external catalog search API and keeps
// product listings in sync with it.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopwatch/shopwatch/internal/model"
)

const (
	// DefaultTimeout bounds a single search request.
	DefaultTimeout = 10 * time.Second

	// maxResponseSize caps the response body read (1 MB).
	maxResponseSize = 1 << 20
)

var (
	// ErrNoResults indicates the query matched nothing upstream.
	ErrNoResults = errors.New("no search results")
	// ErrUpstream indicates the search API returned a non-2xx status.
	ErrUpstream = errors.New("search upstream error")
)

// searchResponse mirrors the upstream JSON envelope.
type searchResponse struct {
	Total int `json:"total"`
	Items []struct {
		Title  string `json:"title"`
		Link   string `json:"link"`
		Image  string `json:"image"`
		LPrice string `json:"lprice"`
	} `json:"items"`
}

// Client queries the external catalog search API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a search client against baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Search returns the best match for the query, by upstream ranking.
func (c *Client) Search(ctx context.Context, query string) (*model.SearchItem, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	q := u.Query()
	q.Set("query", query)
	q.Set("display", "1")
	q.Set("sort", "sim")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	return parseSearchResponse(body)
}

// parseSearchResponse extracts the first item from the upstream
// envelope. Prices arrive as strings and malformed ones are rejected.
func parseSearchResponse(body []byte) (*model.SearchItem, error) {
	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	if len(parsed.Items) == 0 {
		return nil, ErrNoResults
	}

	first := parsed.Items[0]
	cached := model.CachedSearchItem{
		Title:  first.Title,
		Link:   first.Link,
		Image:  first.Image,
		LPrice: first.LPrice,
	}
	item, err := cached.ToSearchItem()
	if err != nil {
		return nil, fmt.Errorf("parse search item: %w", err)
	}
	return item, nil
}
