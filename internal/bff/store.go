package bff

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"omnibox/internal/domain"
)

// PickStore records picks and aggregates them per entity
type PickStore interface {
	Record(rec domain.PickRecord) domain.PickRecord
	Counts(kind domain.Kind, limit int) []domain.PickCount
	Total() int
}

type entityKey struct {
	kind domain.Kind
	id   string
}

// MemoryPickStore is an in-memory implementation of PickStore. Data lives
// for the lifetime of the process.
type MemoryPickStore struct {
	mu     sync.RWMutex
	counts map[entityKey]*domain.PickCount
	total  int
	now    func() time.Time
}

// NewMemoryPickStore creates a new memory-based pick store
func NewMemoryPickStore() *MemoryPickStore {
	return &MemoryPickStore{
		counts: make(map[entityKey]*domain.PickCount),
		now:    time.Now,
	}
}

// Record adds one pick. Missing ids and timestamps are filled in.
func (s *MemoryPickStore) Record(rec domain.PickRecord) domain.PickRecord {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.PickedAt.IsZero() {
		rec.PickedAt = s.now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entityKey{kind: rec.Kind, id: rec.EntityID}
	c, ok := s.counts[key]
	if !ok {
		c = &domain.PickCount{Kind: rec.Kind, EntityID: rec.EntityID}
		s.counts[key] = c
	}
	c.Count++
	if rec.PickedAt.After(c.LastPickedAt) {
		c.LastPickedAt = rec.PickedAt
		if rec.Label != "" {
			c.Label = rec.Label
		}
	} else if c.Label == "" {
		c.Label = rec.Label
	}
	s.total++
	return rec
}

// Counts returns aggregates, most picked first and most recent first among
// ties. An empty kind returns every kind; limit <= 0 returns everything.
func (s *MemoryPickStore) Counts(kind domain.Kind, limit int) []domain.PickCount {
	s.mu.RLock()
	result := make([]domain.PickCount, 0, len(s.counts))
	for _, c := range s.counts {
		if kind != "" && c.Kind != kind {
			continue
		}
		result = append(result, *c)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if !a.LastPickedAt.Equal(b.LastPickedAt) {
			return a.LastPickedAt.After(b.LastPickedAt)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.EntityID < b.EntityID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

// Total returns the number of recorded picks
func (s *MemoryPickStore) Total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}
