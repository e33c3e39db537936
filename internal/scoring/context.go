// Package scoring ranks deduplicated listings relative to their category.
package scoring

import (
	"math"

	"github.com/guarzo/hairtoolrank/internal/model"
)

// GeneralCategory buckets listings that carry no tool type.
const GeneralCategory = "General"

const (
	fallbackMaxPrice      = 500
	fallbackAvgRatingNorm = 0.75
)

// CategoryStats are the aggregates a single item is scored against.
type CategoryStats struct {
	MinPrice      float64 `json:"minPrice"`
	MaxPrice      float64 `json:"maxPrice"`
	MaxReviews    int     `json:"maxReviews"`
	RatingSum     float64 `json:"ratingSum,omitempty"`
	Count         int     `json:"count,omitempty"`
	AvgRatingNorm float64 `json:"avgRatingNorm"`
}

// Context holds per-category statistics plus a catalog-wide fallback. It is a
// pure function of the product list it was built from.
type Context struct {
	Categories map[string]CategoryStats `json:"categories"`
	Fallback   CategoryStats            `json:"fallback"`
}

// For returns the stats for toolType, or the fallback for unseen categories.
func (c Context) For(toolType string) CategoryStats {
	if stats, ok := c.Categories[toolType]; ok {
		return stats
	}
	return c.Fallback
}

// BuildContext aggregates price bounds, review volume and average normalised
// rating per tool type.
func BuildContext(products []model.Listing) Context {
	categories := make(map[string]CategoryStats)
	ratingSum := 0.0
	maxReviews := 0

	for _, p := range products {
		category := p.ToolType
		if category == "" {
			category = GeneralCategory
		}
		ratingNorm := normalizeRating(p.Rating)
		reviews := nonNegativeInt(p.ReviewCount)
		price := math.Max(0, p.Price)

		ratingSum += ratingNorm
		if reviews > maxReviews {
			maxReviews = reviews
		}

		stats, ok := categories[category]
		if !ok {
			categories[category] = CategoryStats{
				MinPrice:   price,
				MaxPrice:   price,
				MaxReviews: reviews,
				RatingSum:  ratingNorm,
				Count:      1,
			}
			continue
		}
		stats.MinPrice = math.Min(stats.MinPrice, price)
		stats.MaxPrice = math.Max(stats.MaxPrice, price)
		if reviews > stats.MaxReviews {
			stats.MaxReviews = reviews
		}
		stats.RatingSum += ratingNorm
		stats.Count++
		categories[category] = stats
	}

	fallback := CategoryStats{
		MinPrice:      0,
		MaxPrice:      fallbackMaxPrice,
		MaxReviews:    max(1, maxReviews),
		AvgRatingNorm: fallbackAvgRatingNorm,
	}
	if len(products) > 0 {
		fallback.AvgRatingNorm = ratingSum / float64(len(products))
	}

	for name, stats := range categories {
		stats.AvgRatingNorm = fallback.AvgRatingNorm
		if stats.Count > 0 {
			stats.AvgRatingNorm = stats.RatingSum / float64(stats.Count)
		}
		categories[name] = stats
	}

	return Context{Categories: categories, Fallback: fallback}
}

func normalizeRating(rating float64) float64 {
	return clamp(rating, 0, 5) / 5
}

func nonNegativeInt(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}
