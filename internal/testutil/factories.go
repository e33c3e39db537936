// Package testutil generates randomised catalogs for property-style tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/guarzo/hairtoolrank/internal/model"
)

const asinAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var (
	testBrands    = []string{"Test Dyson", "Test Shark", "Test Revlon", "Test Laifen", "Test Conair"}
	testToolTypes = []string{"Premium hair dryers", "Multi-stylers", "Hot-air brush systems", "Flat irons", ""}
	testModels    = []string{"Supersonic", "FlexStyle", "One-Step", "Swift", "InfinitiPro", "Airwrap"}
	urlNoise      = []string{"", "?tag=other-20", "?ref=sr_1_1", "?utm_source=feed&th=1", "/ref=sr_1_3?psc=1"}
)

// TestDataFactory provides methods for generating dynamic test data
type TestDataFactory struct {
	rand *rand.Rand
}

// NewTestDataFactory creates a new test data factory with a seeded random generator
func NewTestDataFactory(seed int64) *TestDataFactory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TestDataFactory{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// GenerateASIN generates a random 10 character item code
func (f *TestDataFactory) GenerateASIN() string {
	var b strings.Builder
	b.WriteByte('B')
	for i := 0; i < 9; i++ {
		b.WriteByte(asinAlphabet[f.rand.Intn(len(asinAlphabet))])
	}
	return b.String()
}

// GenerateProductURL builds a marketplace detail URL for asin with random
// tracking noise that must not affect identity.
func (f *TestDataFactory) GenerateProductURL(asin string) string {
	return "https://www.amazon.com/dp/" + asin + urlNoise[f.rand.Intn(len(urlNoise))]
}

// GenerateListing generates a listing with plausible values. Some fields are
// left empty so completeness varies between listings.
func (f *TestDataFactory) GenerateListing(id int) model.Listing {
	brand := testBrands[f.rand.Intn(len(testBrands))]
	l := model.Listing{
		ID:          fmt.Sprintf("t%03d", id),
		Name:        fmt.Sprintf("%s %s %d", brand, testModels[f.rand.Intn(len(testModels))], 100+f.rand.Intn(900)),
		Brand:       brand,
		ToolType:    testToolTypes[f.rand.Intn(len(testToolTypes))],
		Price:       float64(10+f.rand.Intn(700)) - 0.01,
		Rating:      float64(f.rand.Intn(51)) / 10,
		ReviewCount: f.rand.Intn(50000),
		BestFor:     "Test hair",
	}
	if f.rand.Intn(4) > 0 {
		l.ProductURL = f.GenerateProductURL(f.GenerateASIN())
	}
	if f.rand.Intn(2) == 0 {
		l.ImageURL = "https://m.media-amazon.com/images/I/" + f.GenerateASIN() + "._AC_SX466_.jpg"
	}
	if f.rand.Intn(2) == 0 {
		l.Pros = []string{"Fast", "Light"}
		l.Cons = []string{"Loud"}
	}
	return l
}

// GenerateListings generates n listings where roughly dupRate of them repeat
// an earlier listing's marketplace item with different stats.
func (f *TestDataFactory) GenerateListings(n int, dupRate float64) []model.Listing {
	listings := make([]model.Listing, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 && f.rand.Float64() < dupRate {
			dup := listings[f.rand.Intn(len(listings))].Clone()
			dup.ID = fmt.Sprintf("t%03d", i)
			dup.Rating = float64(f.rand.Intn(51)) / 10
			dup.ReviewCount = f.rand.Intn(50000)
			if dup.ProductURL != "" {
				asin := dup.ProductURL[len("https://www.amazon.com/dp/"):][:10]
				dup.ProductURL = f.GenerateProductURL(asin)
			}
			listings = append(listings, dup)
			continue
		}
		listings = append(listings, f.GenerateListing(i))
	}
	return listings
}

// GenerateCatalogDocument encodes listings as a catalog document with the
// default weights.
func (f *TestDataFactory) GenerateCatalogDocument(listings []model.Listing) []byte {
	doc := struct {
		Meta     model.Meta      `json:"meta"`
		Products []model.Listing `json:"products"`
	}{
		Meta:     model.Meta{Source: "testutil", LastUpdated: "2026-01-01", Weights: model.DefaultWeights()},
		Products: listings,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(fmt.Sprintf("testutil: encode catalog: %v", err))
	}
	return data
}
