// Package views builds the ranked slices renderers display: the home top
// list, category listings, search results and per-product insight.
package views

import (
	"sort"
	"strings"

	"github.com/guarzo/hairtoolrank/internal/model"
)

// SortMode selects the ordering of a listing view.
type SortMode string

const (
	SortScore   SortMode = "score"
	SortRating  SortMode = "rating"
	SortReviews SortMode = "reviews"
	SortPrice   SortMode = "price"
)

// DefaultTopN is the size of the home page ranking.
const DefaultTopN = 10

// ParseSortMode maps user input to a SortMode, defaulting to score.
func ParseSortMode(s string) SortMode {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case SortRating:
		return SortRating
	case SortReviews:
		return SortReviews
	case SortPrice:
		return SortPrice
	default:
		return SortScore
	}
}

// Sort returns a sorted copy. Price sorts ascending, everything else
// descending; ties keep their incoming order.
func Sort(products []model.EnrichedProduct, mode SortMode) []model.EnrichedProduct {
	sorted := append([]model.EnrichedProduct(nil), products...)

	var less func(a, b model.EnrichedProduct) bool
	switch mode {
	case SortScore:
		less = func(a, b model.EnrichedProduct) bool { return a.Score > b.Score }
	case SortRating:
		less = func(a, b model.EnrichedProduct) bool { return a.Rating > b.Rating }
	case SortReviews:
		less = func(a, b model.EnrichedProduct) bool { return a.ReviewCount > b.ReviewCount }
	case SortPrice:
		less = func(a, b model.EnrichedProduct) bool { return a.Price < b.Price }
	default:
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}

// Top returns the n highest scoring products.
func Top(products []model.EnrichedProduct, n int) []model.EnrichedProduct {
	sorted := Sort(products, SortScore)
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// Category filters by tool type (empty matches all) and sorts.
func Category(products []model.EnrichedProduct, tool string, mode SortMode) []model.EnrichedProduct {
	if tool == "" {
		return Sort(products, mode)
	}
	var filtered []model.EnrichedProduct
	for _, p := range products {
		if p.ToolType == tool {
			filtered = append(filtered, p)
		}
	}
	return Sort(filtered, mode)
}

// Search keeps products whose name, brand, tool type or best-for text
// contains query, case-insensitively.
func Search(products []model.EnrichedProduct, query string) []model.EnrichedProduct {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]model.EnrichedProduct(nil), products...)
	}
	var out []model.EnrichedProduct
	for _, p := range products {
		haystack := strings.ToLower(strings.Join([]string{p.Name, p.Brand, p.ToolType, p.BestFor}, " "))
		if strings.Contains(haystack, q) {
			out = append(out, p)
		}
	}
	return out
}

// Tools lists the distinct tool types in sorted order.
func Tools(products []model.EnrichedProduct) []string {
	seen := make(map[string]bool)
	var tools []string
	for _, p := range products {
		if !seen[p.ToolType] {
			seen[p.ToolType] = true
			tools = append(tools, p.ToolType)
		}
	}
	sort.Strings(tools)
	return tools
}
