// Package crud talks to the write service. The omnibox only needs by-id
// lookups, used to render labels for ids that did not come from a search.
package crud

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"omnibox/internal/domain"
	"omnibox/internal/graphql"
)

var (
	ErrNotFound        = errors.New("entity not found")
	ErrUnsupportedKind = errors.New("kind has no by-id lookup")
)

// Entity is the subset of a stored record the omnibox cares about
type Entity struct {
	Kind    domain.Kind
	ID      string
	Label   string
	Version string // optimistic-concurrency token, echoed back on update
	Raw     []byte // full entity JSON
}

// Lookuper fetches single entities by id
type Lookuper interface {
	Lookup(ctx context.Context, kind domain.Kind, id string) (Entity, error)
}

// entityQuery describes how one kind is fetched and which field labels it
type entityQuery struct {
	field      string // root query field
	idArg      string
	labelField string
	selection  string
}

var entityQueries = map[domain.Kind]entityQuery{
	domain.KindContact: {
		field:      "contact",
		idArg:      "contactId",
		labelField: "fullName",
		selection:  "contactId fullName email phone version",
	},
	domain.KindListing: {
		field:      "listing",
		idArg:      "listingId",
		labelField: "address",
		selection:  "listingId address city price status version",
	},
	domain.KindTransaction: {
		field:      "transaction",
		idArg:      "transactionId",
		labelField: "name",
		selection:  "transactionId name stage amount version",
	},
}

// Supports reports whether kind can be looked up by id
func Supports(kind domain.Kind) bool {
	_, ok := entityQueries[kind]
	return ok
}

// Client is the write service client
type Client struct {
	gql    *graphql.Client
	logger *zap.Logger
}

// NewClient creates a client for the GraphQL endpoint
func NewClient(endpoint string, httpClient *http.Client, logger *zap.Logger) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("crud: endpoint is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		gql:    graphql.New(endpoint, httpClient),
		logger: logger.Named("crud"),
	}, nil
}

// Lookup fetches one entity. A null result is ErrNotFound.
func (c *Client) Lookup(ctx context.Context, kind domain.Kind, id string) (Entity, error) {
	q, ok := entityQueries[kind]
	if !ok {
		return Entity{}, fmt.Errorf("crud: %s: %w", kind, ErrUnsupportedKind)
	}
	if id == "" {
		return Entity{}, fmt.Errorf("crud: %s: empty id: %w", kind, ErrNotFound)
	}

	data, err := c.gql.Do(ctx, graphql.Request{
		Query: fmt.Sprintf("query Lookup($id: ID!) {\n  %s(%s: $id) { %s }\n}",
			q.field, q.idArg, q.selection),
		OperationName: "Lookup",
		Variables:     map[string]any{"id": id},
	}, nil)
	if err != nil {
		return Entity{}, fmt.Errorf("crud: lookup %s %s: %w", kind, id, err)
	}

	node := gjson.GetBytes(data, q.field)
	if !node.Exists() || node.Type == gjson.Null {
		return Entity{}, fmt.Errorf("crud: %s %s: %w", kind, id, ErrNotFound)
	}

	e := Entity{
		Kind:    kind,
		ID:      id,
		Label:   node.Get(q.labelField).String(),
		Version: node.Get("version").String(),
		Raw:     []byte(node.Raw),
	}
	c.logger.Debug("entity fetched", zap.String("kind", string(kind)), zap.String("id", id))
	return e, nil
}
