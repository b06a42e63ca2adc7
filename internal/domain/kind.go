package domain

import (
	"fmt"
	"strings"
)

// Kind identifies one of the entity types the search service can return
type Kind string

// The closed set of searchable kinds, in default display precedence
const (
	KindContact     Kind = "contact"
	KindListing     Kind = "listing"
	KindTransaction Kind = "transaction"
	KindProduct     Kind = "product"
	KindMailing     Kind = "mailing"
	KindReferral    Kind = "referral"
)

// DefaultOrder is the precedence used to order groups when the host does not override it
var DefaultOrder = []Kind{
	KindContact,
	KindListing,
	KindTransaction,
	KindProduct,
	KindMailing,
	KindReferral,
}

// kindInfo holds the wire names used by the search service for a kind
type kindInfo struct {
	group   string // response key holding the kind's array
	idField string // kind-specific identifier field
	label   string // group header shown to users
}

var kinds = map[Kind]kindInfo{
	KindContact:     {group: "contacts", idField: "contactId", label: "Contacts"},
	KindListing:     {group: "listings", idField: "listingId", label: "Listings"},
	KindTransaction: {group: "transactions", idField: "transactionId", label: "Transactions"},
	KindProduct:     {group: "products", idField: "productId", label: "Products"},
	KindMailing:     {group: "mailings", idField: "mailingId", label: "Mailings"},
	KindReferral:    {group: "referrals", idField: "referralId", label: "Referrals"},
}

// ParseKind converts a string to a Kind. Plural group names are accepted too.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, info := range kinds {
		if s == string(k) || s == info.group {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// Valid reports whether k belongs to the closed set
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// GroupKey returns the key under which the search service returns this kind
func (k Kind) GroupKey() string {
	return kinds[k].group
}

// IDField returns the kind-specific identifier field name
func (k Kind) IDField() string {
	return kinds[k].idField
}

// Label returns the display header for the kind's group
func (k Kind) Label() string {
	if info, ok := kinds[k]; ok {
		return info.label
	}
	return string(k)
}

// Order builds a precedence from a host override. Listed kinds come first in
// the given order, unlisted kinds follow in default order. Unknown or
// duplicated entries are skipped.
func Order(override []Kind) []Kind {
	if len(override) == 0 {
		return append([]Kind(nil), DefaultOrder...)
	}

	seen := make(map[Kind]bool, len(DefaultOrder))
	order := make([]Kind, 0, len(DefaultOrder))
	for _, k := range override {
		if !k.Valid() || seen[k] {
			continue
		}
		seen[k] = true
		order = append(order, k)
	}
	for _, k := range DefaultOrder {
		if !seen[k] {
			order = append(order, k)
		}
	}
	return order
}
