package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidDocument is returned when the catalog bytes are not JSON at all.
var ErrInvalidDocument = errors.New("catalog document is not valid JSON")

// ParseCatalog decodes a catalog document. Only syntactically invalid JSON is an
// error: a missing or non-array products field yields an empty catalog and
// non-object entries are skipped.
func ParseCatalog(data []byte) (*Catalog, error) {
	if !json.Valid(data) {
		return nil, ErrInvalidDocument
	}

	catalog := &Catalog{Meta: Meta{Weights: DefaultWeights()}}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		// Valid JSON but not an object.
		return catalog, nil
	}

	if raw, ok := top["meta"]; ok {
		catalog.Meta = decodeMeta(raw)
	}

	var items []json.RawMessage
	if raw, ok := top["products"]; ok {
		if err := json.Unmarshal(raw, &items); err != nil {
			items = nil
		}
	}

	for i, item := range items {
		if !isObject(item) {
			continue
		}
		var l Listing
		if err := json.Unmarshal(item, &l); err != nil {
			continue
		}
		catalog.Entries = append(catalog.Entries, Entry{Index: i, Listing: l})
	}

	return catalog, nil
}

// CountProducts reports how many object entries the products array holds.
// Loaders use it to reject empty documents without a full decode.
func CountProducts(data []byte) int {
	var top struct {
		Products []json.RawMessage `json:"products"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return 0
	}
	n := 0
	for _, item := range top.Products {
		if isObject(item) {
			n++
		}
	}
	return n
}

func decodeMeta(raw json.RawMessage) Meta {
	meta := Meta{Weights: DefaultWeights()}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return meta
	}
	meta.Source = decodeText(fields["source"])
	meta.LastUpdated = decodeText(fields["last_updated"])

	if w, ok := fields["weights"]; ok && isObject(w) {
		var parts map[string]json.RawMessage
		if err := json.Unmarshal(w, &parts); err == nil {
			meta.Weights = Weights{
				Rating:  decodeNumber(parts["rating"]),
				Reviews: decodeNumber(parts["reviews"]),
				Price:   decodeNumber(parts["price"]),
			}
		}
	}
	return meta
}

// UnmarshalJSON decodes a listing leniently. Numbers may arrive as strings and
// anything unusable becomes the zero value.
func (l *Listing) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("listing: %w", err)
	}

	*l = Listing{
		ID:          decodeText(fields["id"]),
		Name:        decodeText(fields["name"]),
		Brand:       decodeText(fields["brand"]),
		ToolType:    decodeText(fields["tool_type"]),
		Price:       decodeNumber(fields["price"]),
		Rating:      decodeNumber(fields["rating"]),
		ReviewCount: decodeCount(fields["review_count"]),
		ProductURL:  decodeText(fields["product_url"]),
		ImageURL:    decodeText(fields["image_url"]),
		Pros:        decodeStrings(fields["pros"]),
		Cons:        decodeStrings(fields["cons"]),
		Description: decodeText(fields["description"]),
		KeyFeatures: decodeText(fields["key_features"]),
		ReviewText:  decodeText(fields["review_text"]),
		BestFor:     decodeText(fields["best_for"]),
	}
	return nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// decodeCount coerces a JSON value to a non-negative int, truncating
// fractions and saturating at math.MaxInt.
func decodeCount(raw json.RawMessage) int {
	f := decodeNumber(raw)
	switch {
	case f <= 0:
		return 0
	case f >= float64(math.MaxInt):
		return math.MaxInt
	}
	return int(f)
}

// decodeNumber coerces a JSON value to a finite float, defaulting to 0.
func decodeNumber(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0
	}

	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if x {
			f = 1
		}
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// decodeText accepts strings, numbers and string lists (joined with ", ").
func decodeText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}

	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []interface{}:
		return strings.Join(stringsOf(x), ", ")
	default:
		return ""
	}
}

func decodeStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var v []interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return stringsOf(v)
}

func stringsOf(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, item := range values {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
