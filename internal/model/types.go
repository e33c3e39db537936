package model

// Listing is one product entry as supplied by the upstream catalog.
// Values are copied, never shared: every transformation returns a new Listing.
type Listing struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	ToolType    string   `json:"tool_type"`
	Price       float64  `json:"price"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	ProductURL  string   `json:"product_url"`
	ImageURL    string   `json:"image_url"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
	Description string   `json:"description,omitempty"`
	KeyFeatures string   `json:"key_features,omitempty"`
	ReviewText  string   `json:"review_text,omitempty"`
	BestFor     string   `json:"best_for"`
}

// Clone returns a copy that shares no slices with l.
func (l Listing) Clone() Listing {
	out := l
	if l.Pros != nil {
		out.Pros = append([]string(nil), l.Pros...)
	}
	if l.Cons != nil {
		out.Cons = append([]string(nil), l.Cons...)
	}
	return out
}

// Entry is a listing together with its position in the source document.
// Index counts every element of the products array, including skipped ones.
type Entry struct {
	Index   int
	Listing Listing
}

// Weights controls how the three score components are blended.
type Weights struct {
	Rating  float64 `json:"rating"`
	Reviews float64 `json:"reviews"`
	Price   float64 `json:"price"`
}

// DefaultWeights mirrors the published ranking methodology (60/30/10).
func DefaultWeights() Weights {
	return Weights{Rating: 0.6, Reviews: 0.3, Price: 0.1}
}

type Meta struct {
	Source      string  `json:"source"`
	LastUpdated string  `json:"last_updated"`
	Weights     Weights `json:"weights"`
}

// Catalog is a decoded catalog document.
type Catalog struct {
	Meta    Meta
	Entries []Entry
}

// ScoreBreakdown explains a score. Every field is in [0,1], rounded to 4 decimals.
type ScoreBreakdown struct {
	Quality            float64 `json:"quality"`
	ReviewConfidence   float64 `json:"review_confidence"`
	Value              float64 `json:"value"`
	Affordability      float64 `json:"affordability"`
	BayesianConfidence float64 `json:"bayesian_confidence"`
}

// EnrichedProduct is a deduplicated listing with image variants and its score.
type EnrichedProduct struct {
	Listing
	ImageCard           string         `json:"image_card"`
	ImageCardSrcSet     string         `json:"image_card_srcset"`
	ImageFeatured       string         `json:"image_featured"`
	ImageFeaturedSrcSet string         `json:"image_featured_srcset"`
	ImageThumb          string         `json:"image_thumb"`
	ImageThumbSrcSet    string         `json:"image_thumb_srcset"`
	AffiliateURL        string         `json:"affiliate_url"`
	Score               float64        `json:"score"`
	ScoreBreakdown      ScoreBreakdown `json:"score_breakdown"`
}
