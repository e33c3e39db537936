// Package pipeline turns a raw catalog document into the deduplicated, scored
// product list consumed by renderers.
package pipeline

import (
	"fmt"
	"time"

	"github.com/guarzo/hairtoolrank/internal/dedup"
	"github.com/guarzo/hairtoolrank/internal/model"
	"github.com/guarzo/hairtoolrank/internal/scoring"
)

// DefaultAffiliateTag is appended to marketplace product links.
const DefaultAffiliateTag = "bestbeautytech-20"

// Options tunes the presentation-facing parts of enrichment.
type Options struct {
	AffiliateTag string
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{AffiliateTag: DefaultAffiliateTag}
}

// Result is one enrichment pass. It is rebuilt in full on every reload and
// never mutated afterwards.
type Result struct {
	Meta     model.Meta              `json:"meta"`
	Products []model.EnrichedProduct `json:"products"`
	Context  scoring.Context         `json:"context"`
	Stats    dedup.Stats             `json:"stats"`
	Metrics  Metrics                 `json:"-"`
}

// Metrics records how long each stage of a pass took.
type Metrics struct {
	StartTime time.Time
	EndTime   time.Time
	Stages    []StageMetrics
}

// StageMetrics tracks a single stage.
type StageMetrics struct {
	Name     string
	Items    int
	Duration time.Duration
}

// Duration is the wall time of the whole pass.
func (m Metrics) Duration() time.Duration {
	return m.EndTime.Sub(m.StartTime)
}

func (m *Metrics) record(name string, items int, start time.Time) {
	m.Stages = append(m.Stages, StageMetrics{Name: name, Items: items, Duration: time.Since(start)})
}

// BuildCatalog parses raw and runs the full enrichment. The only error is a
// document that is not JSON; every data-quality problem degrades gracefully.
func BuildCatalog(raw []byte, opts Options) (*Result, error) {
	start := time.Now()
	catalog, err := model.ParseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	result := Enrich(catalog, opts)
	result.Metrics.StartTime = start
	return result, nil
}

// Enrich runs dedupe, context building and scoring over a decoded catalog.
func Enrich(catalog *model.Catalog, opts Options) *Result {
	result := &Result{Meta: catalog.Meta}
	result.Metrics.StartTime = time.Now()

	stageStart := time.Now()
	products, stats := dedup.Dedupe(catalog.Entries)
	result.Stats = stats
	result.Metrics.record("dedupe", stats.Input, stageStart)

	stageStart = time.Now()
	result.Context = scoring.BuildContext(products)
	result.Metrics.record("context", len(products), stageStart)

	stageStart = time.Now()
	result.Products = make([]model.EnrichedProduct, 0, len(products))
	for _, p := range products {
		result.Products = append(result.Products, enrichProduct(p, catalog.Meta.Weights, result.Context, opts))
	}
	result.Metrics.record("score", len(products), stageStart)

	result.Metrics.EndTime = time.Now()
	return result
}

func enrichProduct(p model.Listing, w model.Weights, ctx scoring.Context, opts Options) model.EnrichedProduct {
	scored := scoring.Score(p, w, ctx)
	images := DeriveImages(p.ImageURL)

	out := model.EnrichedProduct{
		Listing:             p.Clone(),
		ImageCard:           images.Card,
		ImageCardSrcSet:     images.CardSrcSet,
		ImageFeatured:       images.Featured,
		ImageFeaturedSrcSet: images.FeaturedSrcSet,
		ImageThumb:          images.Thumb,
		ImageThumbSrcSet:    images.ThumbSrcSet,
		AffiliateURL:        AffiliateURL(p.ProductURL, opts.AffiliateTag),
		Score:               scored.Score,
		ScoreBreakdown:      scored.Breakdown,
	}
	out.ImageURL = images.Full
	return out
}

// Find returns the product with the given id.
func (r *Result) Find(id string) (model.EnrichedProduct, bool) {
	for _, p := range r.Products {
		if p.ID == id {
			return p, true
		}
	}
	return model.EnrichedProduct{}, false
}
