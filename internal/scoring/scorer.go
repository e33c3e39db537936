package scoring

import (
	"math"

	"github.com/guarzo/hairtoolrank/internal/model"
)

// ShrinkageReviews is the review count at which an item's own rating and its
// category average carry equal weight.
const ShrinkageReviews = 120

// Result is a weighted score and the components it was built from.
type Result struct {
	Score     float64              `json:"score"`
	Breakdown model.ScoreBreakdown `json:"score_breakdown"`
}

// Score rates one product against its category statistics:
//
//	quality           Bayesian-shrunk rating toward the category average
//	review_confidence log-scaled review volume relative to the category max
//	value             category-relative affordability blended with quality
//
// and blends them with w. Every field is rounded to 4 decimals.
func Score(p model.Listing, w model.Weights, ctx Context) Result {
	category := ctx.For(p.ToolType)
	ratingNorm := normalizeRating(p.Rating)
	reviews := float64(nonNegativeInt(p.ReviewCount))
	price := math.Max(0, p.Price)

	confidence := reviews / (reviews + ShrinkageReviews)
	avg := category.AvgRatingNorm
	if avg == 0 {
		avg = ctx.Fallback.AvgRatingNorm
	}
	quality := confidence*ratingNorm + (1-confidence)*avg

	reviewConfidence := 0.0
	if category.MaxReviews > 0 {
		reviewConfidence = math.Log1p(reviews) / math.Log1p(math.Max(1, float64(category.MaxReviews)))
		reviewConfidence = clamp(reviewConfidence, 0, 1)
	}

	maxPrice := category.MaxPrice
	if maxPrice == 0 {
		maxPrice = price
	}
	priceRange := math.Max(1, maxPrice-category.MinPrice)
	affordability := 1 - clamp((price-category.MinPrice)/priceRange, 0, 1)
	value := clamp(0.7*affordability+0.3*quality, 0, 1)

	final := w.Rating*quality + w.Reviews*reviewConfidence + w.Price*value

	return Result{
		Score: round4(final),
		Breakdown: model.ScoreBreakdown{
			Quality:            round4(quality),
			ReviewConfidence:   round4(reviewConfidence),
			Value:              round4(value),
			Affordability:      round4(affordability),
			BayesianConfidence: round4(confidence),
		},
	}
}
