package views

import "github.com/guarzo/hairtoolrank/internal/model"

const peerCount = 3

// Insight places one product within its category.
type Insight struct {
	Count            int                     `json:"count"`
	Rank             int                     `json:"rank"`
	AvgRating        float64                 `json:"avg_rating"`
	AvgPrice         float64                 `json:"avg_price"`
	AvgReviews       float64                 `json:"avg_reviews"`
	TopByScore       []model.EnrichedProduct `json:"top_by_score"`
	MostReviewedPeer *model.EnrichedProduct  `json:"most_reviewed_peer,omitempty"`
}

// CategoryInsight ranks product among the products sharing its tool type
// exactly. An empty tool type only matches other untyped products. Rank is
// the first position holding product's ID.
func CategoryInsight(product model.EnrichedProduct, products []model.EnrichedProduct) Insight {
	var same []model.EnrichedProduct
	for _, p := range products {
		if p.ToolType == product.ToolType {
			same = append(same, p)
		}
	}
	peers := Sort(same, SortScore)

	insight := Insight{Count: len(peers), Rank: 1}
	var ratingSum, priceSum, reviewSum float64
	ranked := false
	for i, p := range peers {
		ratingSum += p.Rating
		priceSum += p.Price
		reviewSum += float64(p.ReviewCount)
		if !ranked && p.ID == product.ID {
			insight.Rank = i + 1
			ranked = true
		}
	}

	n := float64(max(1, len(peers)))
	insight.AvgRating = ratingSum / n
	insight.AvgPrice = priceSum / n
	insight.AvgReviews = reviewSum / n

	for _, p := range peers {
		if p.ID == product.ID {
			continue
		}
		if len(insight.TopByScore) < peerCount {
			insight.TopByScore = append(insight.TopByScore, p)
		}
	}

	for _, p := range Sort(peers, SortReviews) {
		if p.ID != product.ID {
			peer := p
			insight.MostReviewedPeer = &peer
			break
		}
	}

	return insight
}

// Related returns up to n other products, same category first, each group
// ordered by score.
func Related(product model.EnrichedProduct, products []model.EnrichedProduct, n int) []model.EnrichedProduct {
	var same, other []model.EnrichedProduct
	for _, p := range Sort(products, SortScore) {
		switch {
		case p.ID == product.ID:
		case p.ToolType == product.ToolType:
			same = append(same, p)
		default:
			other = append(other, p)
		}
	}
	out := append(same, other...)
	if len(out) > n {
		out = out[:n]
	}
	return out
}
