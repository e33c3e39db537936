package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/guarzo/hairtoolrank/internal/model"
	"github.com/guarzo/hairtoolrank/internal/views"
)

// RankingHeader is the column order of ranking exports.
var RankingHeader = []string{
	"rank", "id", "name", "brand", "tool_type",
	"price", "rating", "review_count", "score",
	"quality", "review_confidence", "value", "affordability", "bayesian_confidence",
	"product_url",
}

// RankingRows renders products, best score first, as CSV rows including the
// header. Cells are escaped.
func RankingRows(products []model.EnrichedProduct) [][]string {
	return renderRows(views.Sort(products, views.SortScore))
}

// ListRows renders products in the order given; rank is the position.
func ListRows(products []model.EnrichedProduct) [][]string {
	return renderRows(products)
}

func renderRows(products []model.EnrichedProduct) [][]string {
	rows := [][]string{RankingHeader}
	for i, p := range products {
		b := p.ScoreBreakdown
		rows = append(rows, EscapeCSVRow([]string{
			strconv.Itoa(i + 1),
			p.ID,
			p.Name,
			p.Brand,
			p.ToolType,
			money(p.Price),
			strconv.FormatFloat(p.Rating, 'f', 1, 64),
			strconv.Itoa(p.ReviewCount),
			score(p.Score),
			score(b.Quality),
			score(b.ReviewConfidence),
			score(b.Value),
			score(b.Affordability),
			score(b.BayesianConfidence),
			p.ProductURL,
		}))
	}
	return rows
}

// WriteCSV writes the ranking of products to w.
func WriteCSV(w io.Writer, products []model.EnrichedProduct) error {
	return write(w, RankingRows(products))
}

// WriteListCSV writes products to w without reordering them.
func WriteListCSV(w io.Writer, products []model.EnrichedProduct) error {
	return write(w, ListRows(products))
}

func write(w io.Writer, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write ranking csv: %w", err)
	}
	return nil
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func score(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
