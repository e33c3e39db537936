// Package dedup collapses duplicate listings into one record per physical
// product.
package dedup

import (
	"fmt"

	"github.com/guarzo/hairtoolrank/internal/identity"
	"github.com/guarzo/hairtoolrank/internal/model"
	"github.com/guarzo/hairtoolrank/internal/textnorm"
)

// Stats summarises one deduplication run.
type Stats struct {
	Input          int `json:"input"`
	IdentityGroups int `json:"identity_groups"`
	Output         int `json:"output"`
}

// Merged is the number of listings folded into another record.
func (s Stats) Merged() int {
	return s.Input - s.Output
}

func (s Stats) String() string {
	return fmt.Sprintf("%d listings -> %d identities -> %d products", s.Input, s.IdentityGroups, s.Output)
}

// Key returns the identity-pass key for a listing: marketplace identity first,
// then brand+name, name, id and finally the row index, so every listing gets
// some key.
func Key(l model.Listing, index int) identity.Key {
	if k := identity.Resolve(l.ProductURL); !k.IsZero() {
		return k
	}

	brand := textnorm.NormalizeDedupeText(l.Brand)
	name := textnorm.NormalizeDedupeText(l.Name)
	switch {
	case brand != "" && name != "":
		return identity.Key{Kind: identity.KindBrandName, Value: brand + "|" + name}
	case name != "":
		return identity.Key{Kind: identity.KindName, Value: name}
	case l.ID != "":
		return identity.Key{Kind: identity.KindID, Value: textnorm.NormalizeDedupeText(l.ID)}
	}
	return identity.Key{Kind: identity.KindRow, Value: fmt.Sprint(index)}
}

// Dedupe runs the identity pass and then the family pass. Survivors keep the
// first-encounter order of their group keys.
func Dedupe(entries []model.Entry) ([]model.Listing, Stats) {
	stats := Stats{Input: len(entries)}

	byIdentity := newGroups(len(entries))
	for _, e := range entries {
		byIdentity.add(Key(e.Listing, e.Index).String(), e.Listing)
	}
	identities := byIdentity.values()
	stats.IdentityGroups = len(identities)

	byFamily := newGroups(len(identities))
	for i, l := range identities {
		key := identity.Family(l.Brand, l.Name)
		if key.IsZero() {
			key = identity.Key{Kind: identity.KindIdentityRow, Value: fmt.Sprint(i)}
		}
		byFamily.add(key.String(), l)
	}

	out := byFamily.values()
	stats.Output = len(out)
	return out, stats
}

// Listings dedupes an already decoded slice, using positions as row indexes.
func Listings(listings []model.Listing) []model.Listing {
	entries := make([]model.Entry, len(listings))
	for i, l := range listings {
		entries[i] = model.Entry{Index: i, Listing: l}
	}
	out, _ := Dedupe(entries)
	return out
}

// groups is an insertion-ordered key -> record map folded with ChoosePreferred.
type groups struct {
	order   []string
	records map[string]model.Listing
}

func newGroups(capacity int) *groups {
	return &groups{
		order:   make([]string, 0, capacity),
		records: make(map[string]model.Listing, capacity),
	}
}

func (g *groups) add(key string, l model.Listing) {
	current, ok := g.records[key]
	if !ok {
		g.order = append(g.order, key)
		g.records[key] = l.Clone()
		return
	}
	g.records[key] = ChoosePreferred(current, l)
}

func (g *groups) values() []model.Listing {
	out := make([]model.Listing, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, g.records[key])
	}
	return out
}
