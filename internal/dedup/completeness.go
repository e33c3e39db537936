package dedup

import (
	"strings"

	"github.com/guarzo/hairtoolrank/internal/identity"
	"github.com/guarzo/hairtoolrank/internal/model"
)

// MaxCompleteness is the score of a listing with every field populated.
const MaxCompleteness = 14

// Completeness counts how many informative fields a listing carries.
// Pricing, rating, review volume and the product link weigh double.
func Completeness(l model.Listing) int {
	score := 0
	if l.Price > 0 {
		score += 2
	}
	if l.Rating > 0 {
		score += 2
	}
	if l.ReviewCount > 0 {
		score += 2
	}
	if identity.ParseURL(l.ProductURL) != nil {
		score += 2
	}
	if identity.ParseURL(l.ImageURL) != nil {
		score++
	}
	for _, text := range []string{l.Description, l.KeyFeatures, l.ReviewText} {
		if strings.TrimSpace(text) != "" {
			score++
		}
	}
	if len(l.Pros) > 0 {
		score++
	}
	if len(l.Cons) > 0 {
		score++
	}
	return score
}

// ChoosePreferred picks the more authoritative of two listings believed to be
// the same product. The cascade is completeness, review count, rating, then
// presence of an id; a full tie keeps existing. The result is always a copy.
func ChoosePreferred(existing, candidate model.Listing) model.Listing {
	if c, e := Completeness(candidate), Completeness(existing); c != e {
		return pick(c > e, existing, candidate)
	}
	if existing.ReviewCount != candidate.ReviewCount {
		return pick(candidate.ReviewCount > existing.ReviewCount, existing, candidate)
	}
	if existing.Rating != candidate.Rating {
		return pick(candidate.Rating > existing.Rating, existing, candidate)
	}
	if existing.ID == "" && candidate.ID != "" {
		return candidate.Clone()
	}
	return existing.Clone()
}

func pick(takeCandidate bool, existing, candidate model.Listing) model.Listing {
	if takeCandidate {
		return candidate.Clone()
	}
	return existing.Clone()
}
