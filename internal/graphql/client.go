// Package graphql is a small GraphQL-over-HTTP transport shared by the
// search and CRUD clients.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// maxResponseBytes bounds how much of a response body is read
const maxResponseBytes = 4 << 20

// Request is a GraphQL operation
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Error carries the messages of a GraphQL "errors" envelope
type Error struct {
	Messages []string
}

func (e *Error) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graphql: unexpected status %d", e.StatusCode)
}

// Client posts operations to a single endpoint
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a client. A nil httpClient uses http.DefaultClient.
func New(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

// Endpoint returns the configured endpoint
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Do executes req and returns the raw JSON of the "data" member. The context
// aborts the HTTP exchange when cancelled. Extra headers are added verbatim.
func (c *Client) Do(ctx context.Context, req Request, header http.Header) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("graphql: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("graphql: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("graphql: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("graphql: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("graphql: malformed response body")
	}

	if errs := gjson.GetBytes(raw, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
		gqlErr := &Error{}
		for _, e := range errs.Array() {
			gqlErr.Messages = append(gqlErr.Messages, e.Get("message").String())
		}
		return nil, gqlErr
	}

	data := gjson.GetBytes(raw, "data")
	if !data.Exists() || data.Type == gjson.Null {
		return nil, fmt.Errorf("graphql: response has no data")
	}
	return []byte(data.Raw), nil
}
