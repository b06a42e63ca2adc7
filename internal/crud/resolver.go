package crud

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"omnibox/internal/domain"
)

const (
	DefaultLabelCacheSize = 256
	DefaultLookupTimeout  = 5 * time.Second
)

type labelKey struct {
	kind domain.Kind
	id   string
}

// Resolver turns ids into display labels. It is shared between pickers:
// concurrent lookups of the same id are collapsed and successful labels are
// cached. Failures are not cached.
type Resolver struct {
	lookup  Lookuper
	cache   *lru.Cache[labelKey, string]
	group   singleflight.Group
	timeout time.Duration
	logger  *zap.Logger
}

// NewResolver wraps a Lookuper. size <= 0 uses DefaultLabelCacheSize and
// timeout <= 0 uses DefaultLookupTimeout. The timeout bounds each shared
// lookup independently of the callers waiting on it.
func NewResolver(lookup Lookuper, size int, timeout time.Duration, logger *zap.Logger) (*Resolver, error) {
	if size <= 0 {
		size = DefaultLabelCacheSize
	}
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cache, err := lru.New[labelKey, string](size)
	if err != nil {
		return nil, fmt.Errorf("crud: create label cache: %w", err)
	}
	return &Resolver{lookup: lookup, cache: cache, timeout: timeout, logger: logger.Named("labels")}, nil
}

// Resolve returns the label for kind/id. An entity without a label resolves
// to its id.
func (r *Resolver) Resolve(ctx context.Context, kind domain.Kind, id string) (string, error) {
	key := labelKey{kind: kind, id: id}
	if label, ok := r.cache.Get(key); ok {
		return label, nil
	}

	// one caller giving up must not fail the others waiting on the same lookup
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(string(kind)+"/"+id, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(shared, r.timeout)
		defer cancel()
		e, err := r.lookup.Lookup(lookupCtx, kind, id)
		if err != nil {
			return "", err
		}
		label := e.Label
		if label == "" {
			label = id
		}
		r.cache.Add(key, label)
		return label, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			r.logger.Warn("label lookup failed", zap.String("kind", string(kind)), zap.String("id", id), zap.Error(res.Err))
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Forget drops a cached label, e.g. after the entity was renamed
func (r *Resolver) Forget(kind domain.Kind, id string) {
	r.cache.Remove(labelKey{kind: kind, id: id})
}
