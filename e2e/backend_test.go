//go:build e2e && unix

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

// backend fakes the search service, the CRUD service and the analytics BFF
type backend struct {
	Search *httptest.Server
	CRUD   *httptest.Server
	BFF    *httptest.Server

	FailSearch atomic.Bool

	mu       sync.Mutex
	queries  []string
	picks    []map[string]any
	entities map[string]string // id -> label
}

const acmePayload = `{
  "contacts": [
    {"contactId": "c1", "title": "Acme Corp", "subtitle": "acme@example.com", "score": 0.92}
  ],
  "listings": [
    {"listingId": "l1", "title": "12 Acme Rd", "score": 1.7}
  ],
  "transactions": []
}`

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{entities: map[string]string{
		"c1": "Acme Corp",
		"l1": "12 Acme Rd",
	}}
	b.Search = httptest.NewServer(http.HandlerFunc(b.handleSearch))
	b.CRUD = httptest.NewServer(http.HandlerFunc(b.handleLookup))
	b.BFF = httptest.NewServer(http.HandlerFunc(b.handlePick))
	t.Cleanup(func() {
		b.Search.Close()
		b.CRUD.Close()
		b.BFF.Close()
	})
	return b
}

func (b *backend) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req gqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q, _ := req.Variables["query"].(string)
	b.mu.Lock()
	b.queries = append(b.queries, q)
	b.mu.Unlock()

	if b.FailSearch.Load() {
		http.Error(w, "search is down", http.StatusBadGateway)
		return
	}
	payload := `{}`
	if strings.Contains(strings.ToLower(q), "acme") {
		payload = acmePayload
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"data":{"search":%s}}`, payload)
}

func (b *backend) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req gqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, _ := req.Variables["id"].(string)

	b.mu.Lock()
	label, ok := b.entities[id]
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		fmt.Fprint(w, `{"data":{"contact":null,"listing":null}}`)
		return
	}
	entity, _ := json.Marshal(map[string]string{
		"contactId": id, "listingId": id,
		"fullName": label, "address": label,
		"version": "1",
	})
	fmt.Fprintf(w, `{"data":{"contact":%s,"listing":%s}}`, entity, entity)
}

func (b *backend) handlePick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/api/picks" {
		http.NotFound(w, r)
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	b.picks = append(b.picks, body)
	b.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	fmt.Fprint(w, `{"id":"p1","status":"recorded"}`)
}

// Picks returns the pick records the BFF received
func (b *backend) Picks() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.picks...)
}

// Queries returns the search terms the search service received
func (b *backend) Queries() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.queries...)
}

// Config renders a config file pointing at the fakes
func (b *backend) Config() string {
	return fmt.Sprintf(`version = 1

[search]
endpoint = "%s/graphql"
debounce = "150ms"
timeout = "2s"
bypass_cache = true

[crud]
endpoint = "%s/graphql"
timeout = "2s"

[analytics]
enabled = true
endpoint = "%s"

[log]
level = "debug"
file = "omnibox.log"
`, b.Search.URL, b.CRUD.URL, b.BFF.URL)
}
