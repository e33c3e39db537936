package report

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/guarzo/hairtoolrank/internal/model"
)

func TestWriteCSV(t *testing.T) {
	products := []model.EnrichedProduct{
		{
			Listing: model.Listing{ID: "low", Name: "Basic Brush", Brand: "Acme", ToolType: "Brushes", Price: 19.5, Rating: 4.1, ReviewCount: 80},
			Score:   0.61,
		},
		{
			Listing:        model.Listing{ID: "high", Name: "=Deal Dryer", Brand: "Shark", ToolType: "Dryers", Price: 199, Rating: 4.4, ReviewCount: 1700, ProductURL: "https://www.amazon.com/dp/B0DDYDWVD1"},
			Score:          0.9123,
			ScoreBreakdown: model.ScoreBreakdown{Quality: 0.8812, ReviewConfidence: 1, Value: 0.75, Affordability: 0.6, BayesianConfidence: 0.934},
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, products); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if len(rows[0]) != len(RankingHeader) {
		t.Errorf("header has %d columns", len(rows[0]))
	}

	first := rows[1]
	if first[0] != "1" || first[1] != "high" {
		t.Errorf("expected highest score first, got %v", first[:2])
	}
	if first[2] != "'=Deal Dryer" {
		t.Errorf("name not escaped: %q", first[2])
	}
	if first[8] != "0.9123" || first[9] != "0.8812" || first[13] != "0.9340" {
		t.Errorf("unexpected score columns: %v", first[8:14])
	}
	if rows[2][5] != "19.50" {
		t.Errorf("price = %q, want 19.50", rows[2][5])
	}
}

func TestWriteListCSV_KeepsOrder(t *testing.T) {
	products := []model.EnrichedProduct{
		{Listing: model.Listing{ID: "cheap", Price: 20}, Score: 0.2},
		{Listing: model.Listing{ID: "dear", Price: 400}, Score: 0.9},
	}

	var buf bytes.Buffer
	if err := WriteListCSV(&buf, products); err != nil {
		t.Fatalf("WriteListCSV failed: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if rows[1][1] != "cheap" || rows[2][1] != "dear" || rows[2][0] != "2" {
		t.Errorf("order not preserved: %v", rows[1:])
	}
}
