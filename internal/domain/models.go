package domain

import "time"

// SearchHit represents one matched entity surfaced by the search service
type SearchHit struct {
	Kind     Kind
	ID       string
	Title    string
	Subtitle string   // optional
	Score    *float64 // optional, not guaranteed to lie in [0,1]
}

// Group is the ordered list of hits for a single kind
type Group struct {
	Kind Kind
	Hits []SearchHit
}

// GroupedResults holds non-empty groups in precedence order. The flat order
// is the concatenation of all group members and is what keyboard indices address.
type GroupedResults struct {
	Groups []Group
	flat   []SearchHit
}

// NewGroupedResults builds results from groups, dropping empty ones
func NewGroupedResults(groups []Group) GroupedResults {
	var r GroupedResults
	for _, g := range groups {
		if len(g.Hits) == 0 {
			continue
		}
		r.Groups = append(r.Groups, g)
		r.flat = append(r.flat, g.Hits...)
	}
	return r
}

// Len returns the number of hits in the flat order
func (r GroupedResults) Len() int {
	return len(r.flat)
}

// Empty reports whether there are no hits at all
func (r GroupedResults) Empty() bool {
	return len(r.flat) == 0
}

// At returns the hit at flat index i
func (r GroupedResults) At(i int) (SearchHit, bool) {
	if i < 0 || i >= len(r.flat) {
		return SearchHit{}, false
	}
	return r.flat[i], true
}

// Flat returns a copy of the flat order
func (r GroupedResults) Flat() []SearchHit {
	return append([]SearchHit(nil), r.flat...)
}

// IndexOf returns the flat index of the hit with the given kind and id, or -1
func (r GroupedResults) IndexOf(kind Kind, id string) int {
	for i, h := range r.flat {
		if h.Kind == kind && h.ID == id {
			return i
		}
	}
	return -1
}

// Filter keeps only the groups of the given kinds, preserving order
func (r GroupedResults) Filter(keep ...Kind) GroupedResults {
	if len(keep) == 0 {
		return r
	}
	allowed := make(map[Kind]bool, len(keep))
	for _, k := range keep {
		allowed[k] = true
	}
	groups := make([]Group, 0, len(r.Groups))
	for _, g := range r.Groups {
		if allowed[g.Kind] {
			groups = append(groups, g)
		}
	}
	return NewGroupedResults(groups)
}

// Pick is what a host receives when the user commits a hit
type Pick struct {
	Kind     Kind
	ID       string
	Title    string
	Subtitle string
	Score    *float64
}

// PickFromHit converts a committed hit into a Pick
func PickFromHit(h SearchHit) Pick {
	return Pick{
		Kind:     h.Kind,
		ID:       h.ID,
		Title:    h.Title,
		Subtitle: h.Subtitle,
		Score:    h.Score,
	}
}

// ClampScore bounds a relevance score to [0,1]. A nil score stays nil.
func ClampScore(score *float64) *float64 {
	if score == nil {
		return nil
	}
	v := *score
	switch {
	case v != v: // NaN
		v = 0
	case v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	return &v
}

// PickRecord is one analytics entry as stored by the BFF
type PickRecord struct {
	ID       string    `json:"id,omitempty"`
	Kind     Kind      `json:"kind"`
	EntityID string    `json:"entityId"`
	Label    string    `json:"label,omitempty"`
	PickedAt time.Time `json:"pickedAt,omitempty"`
}

// PickCount is an aggregate of picks for one entity
type PickCount struct {
	Kind         Kind      `json:"kind"`
	EntityID     string    `json:"entityId"`
	Label        string    `json:"label,omitempty"`
	Count        int       `json:"count"`
	LastPickedAt time.Time `json:"lastPickedAt"`
}
