package search

import (
	"github.com/tidwall/gjson"

	"omnibox/internal/domain"
)

// Normalize turns the raw "search" payload into grouped results. Each kind's
// array is read from its group key; a missing or null key is an empty group.
// Items without a kind-specific id (or a generic "id") are discarded. The
// function has no side effects, so identical input yields identical output.
func Normalize(raw []byte, order []domain.Kind) domain.GroupedResults {
	if len(order) == 0 {
		order = domain.DefaultOrder
	}

	groups := make([]domain.Group, 0, len(order))
	for _, kind := range order {
		arr := gjson.GetBytes(raw, kind.GroupKey())
		if !arr.IsArray() {
			continue
		}

		var hits []domain.SearchHit
		arr.ForEach(func(_, item gjson.Result) bool {
			if hit, ok := hitFromJSON(kind, item); ok {
				hits = append(hits, hit)
			}
			return true
		})
		groups = append(groups, domain.Group{Kind: kind, Hits: hits})
	}
	return domain.NewGroupedResults(groups)
}

func hitFromJSON(kind domain.Kind, item gjson.Result) (domain.SearchHit, bool) {
	if !item.IsObject() {
		return domain.SearchHit{}, false
	}

	id := item.Get(kind.IDField()).String()
	if id == "" {
		id = item.Get("id").String()
	}
	if id == "" {
		return domain.SearchHit{}, false
	}

	hit := domain.SearchHit{
		Kind:     kind,
		ID:       id,
		Title:    item.Get("title").String(),
		Subtitle: item.Get("subtitle").String(),
	}
	if hit.Title == "" {
		hit.Title = id
	}
	if score := item.Get("score"); score.Type == gjson.Number {
		v := score.Float()
		hit.Score = &v
	}
	return hit, true
}
