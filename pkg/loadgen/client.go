package loadgen

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

// Client talks to the query API over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid target URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid target scheme: %s", u.Scheme)
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Occurrences fetches aggregate counts for a set of codes.
func (c *Client) Occurrences(ctx context.Context, codes []string, owner string) (map[string]int64, error) {
	values := url.Values{}
	for _, code := range codes {
		values.Add("code", code)
	}
	if owner != "" {
		values.Set("owner", owner)
	}

	var result struct {
		Counts map[string]int64 `json:"counts"`
	}
	if err := c.get(ctx, "/v1/occurrences?"+values.Encode(), &result); err != nil {
		return nil, err
	}
	return result.Counts, nil
}

// References fetches index entries for a single code.
func (c *Client) References(ctx context.Context, code, owner string, limit int) (int, error) {
	values := url.Values{}
	if owner != "" {
		values.Set("owner", owner)
	}
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}

	var result struct {
		References []json.RawMessage `json:"references"`
	}
	path := "/v1/references/" + url.PathEscape(code)
	if len(values) > 0 {
		path += "?" + values.Encode()
	}
	if err := c.get(ctx, path, &result); err != nil {
		return 0, err
	}
	return len(result.References), nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// HTTPError is a non-2xx API response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}
