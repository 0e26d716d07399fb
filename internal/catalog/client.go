package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client proxies the OMDb catalog API. The key is injected once at startup,
// never read from the environment at call sites.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewClient(apiURL, apiKey string) (*Client, error) {
	apiURL = strings.TrimSpace(apiURL)
	apiKey = strings.TrimSpace(apiKey)
	if apiURL == "" || apiKey == "" {
		return nil, fmt.Errorf("catalog api url and key are required")
	}
	if _, err := url.ParseRequestURI(apiURL); err != nil {
		return nil, fmt.Errorf("parse catalog api url: %w", err)
	}

	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// Search runs a title search. The upstream response body is passed through
// unchanged; the SPA consumes OMDb's shape directly.
func (c *Client) Search(ctx context.Context, query string, page int) (json.RawMessage, error) {
	if page < 1 {
		page = 1
	}

	return c.get(ctx, url.Values{
		"s":    {query},
		"page": {strconv.Itoa(page)},
	})
}

// ByID fetches a single title by its imdbID.
func (c *Client) ByID(ctx context.Context, imdbID string) (json.RawMessage, error) {
	return c.get(ctx, url.Values{
		"i": {imdbID},
	})
}

func (c *Client) get(ctx context.Context, params url.Values) (json.RawMessage, error) {
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog responded with status %d", resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("catalog returned invalid json")
	}

	return json.RawMessage(body), nil
}
