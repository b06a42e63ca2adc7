package ui

import (
	"net/url"

	"omnibox/internal/domain"
)

// Route maps a picked entity to the page that shows it, e.g. /contacts/c1
func Route(kind domain.Kind, id string) string {
	if !kind.Valid() || id == "" {
		return "/"
	}
	return "/" + kind.GroupKey() + "/" + url.PathEscape(id)
}
