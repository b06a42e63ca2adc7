package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"omnibox/internal/domain"
	"omnibox/internal/graphql"
)

const (
	DefaultLimitPerGroup = 5
	MaxLimitPerGroup     = 100
)

var (
	// ErrCanceled reports a superseded request. It is not a failure.
	ErrCanceled = errors.New("search canceled")
	// ErrTimeout reports a request that ran past its deadline
	ErrTimeout = errors.New("search timed out")
)

// IsCanceled reports whether err is a cancellation rather than a real failure
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Searcher issues grouped searches
type Searcher interface {
	Search(ctx context.Context, query string, limitPerGroup int) (domain.GroupedResults, error)
}

// Options configures a Client
type Options struct {
	HTTPClient *http.Client
	// BypassCache sends no-cache headers and skips the local response cache,
	// so repeated identical queries are distinct network calls.
	BypassCache bool
	CacheSize   int
	Order       []domain.Kind
	Logger      *zap.Logger
}

type cacheKey struct {
	query string
	limit int
}

// Client is the search service adapter
type Client struct {
	gql    *graphql.Client
	opts   Options
	order  []domain.Kind
	cache  *lru.Cache[cacheKey, domain.GroupedResults]
	logger *zap.Logger
}

// NewClient creates a search client for the GraphQL endpoint
func NewClient(endpoint string, opts Options) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("search: endpoint is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		gql:    graphql.New(endpoint, opts.HTTPClient),
		opts:   opts,
		order:  domain.Order(opts.Order),
		logger: logger.Named("search"),
	}

	if !opts.BypassCache && opts.CacheSize > 0 {
		cache, err := lru.New[cacheKey, domain.GroupedResults](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("search: create cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// Search runs the grouped query. A cancelled context yields ErrCanceled; a
// deadline yields ErrTimeout. A missing group in the response is an empty group.
func (c *Client) Search(ctx context.Context, query string, limitPerGroup int) (domain.GroupedResults, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.GroupedResults{}, nil
	}
	limit := clampLimit(limitPerGroup)
	key := cacheKey{query: query, limit: limit}

	if c.cache != nil {
		if res, ok := c.cache.Get(key); ok {
			c.logger.Debug("search cache hit", zap.String("query", query))
			return res, nil
		}
	}

	var header http.Header
	if c.opts.BypassCache {
		header = http.Header{
			"Cache-Control": {"no-cache"},
			"Pragma":        {"no-cache"},
		}
	}

	data, err := c.gql.Do(ctx, graphql.Request{
		Query:         buildQuery(c.order),
		OperationName: "OmniboxSearch",
		Variables: map[string]any{
			"query":         query,
			"limitPerGroup": limit,
		},
	}, header)
	if err != nil {
		return domain.GroupedResults{}, classify(ctx, err)
	}

	payload := gjson.GetBytes(data, "search")
	if !payload.Exists() {
		c.logger.Debug("search payload missing, treating as empty", zap.String("query", query))
	}
	res := Normalize([]byte(payload.Raw), c.order)

	if c.cache != nil {
		c.cache.Add(key, res)
	}
	return res, nil
}

func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return ErrCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	case ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled):
		return ErrCanceled
	}
	return fmt.Errorf("search: %w", err)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimitPerGroup
	case limit > MaxLimitPerGroup:
		return MaxLimitPerGroup
	}
	return limit
}

// buildQuery selects every kind's group with its kind-specific id field
func buildQuery(order []domain.Kind) string {
	var b strings.Builder
	b.WriteString("query OmniboxSearch($query: String!, $limitPerGroup: Int!) {\n")
	b.WriteString("  search(query: $query, limitPerGroup: $limitPerGroup) {\n")
	for _, k := range order {
		fmt.Fprintf(&b, "    %s { %s id title subtitle score }\n", k.GroupKey(), k.IDField())
	}
	b.WriteString("  }\n}")
	return b.String()
}
