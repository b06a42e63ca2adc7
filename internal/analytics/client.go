package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"omnibox/internal/domain"
)

// Counts is the aggregate served by the BFF
type Counts struct {
	Counts []domain.PickCount `json:"counts"`
	Total  int                `json:"total"`
}

// Client reads aggregates from the BFF
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the BFF at endpoint
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: strings.TrimSuffix(endpoint, "/"), http: httpClient}
}

// Counts fetches the most picked entities. An empty kind covers every kind;
// limit <= 0 uses the server default.
func (c *Client) Counts(ctx context.Context, kind domain.Kind, limit int) (Counts, error) {
	q := url.Values{}
	if kind != "" {
		q.Set("kind", string(kind))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u := c.base + "/api/picks/counts"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Counts{}, fmt.Errorf("analytics: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Counts{}, fmt.Errorf("analytics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error != "" {
			return Counts{}, fmt.Errorf("analytics: %s (status %d)", e.Error, resp.StatusCode)
		}
		return Counts{}, fmt.Errorf("analytics: unexpected status %d", resp.StatusCode)
	}

	var out Counts
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Counts{}, fmt.Errorf("analytics: decode counts: %w", err)
	}
	return out, nil
}
