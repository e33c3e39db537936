package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/guarzo/hairtoolrank/internal/model"
)

// CatalogScriptID is the element id a page uses to inline its catalog.
const CatalogScriptID = "catalog-data"

func looksLikeHTML(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '<'
}

// ExtractEmbeddedCatalog pulls a catalog document out of an HTML page. The
// script tagged with CatalogScriptID wins; otherwise the first JSON script
// holding products is used.
func ExtractEmbeddedCatalog(page []byte) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	if text := strings.TrimSpace(doc.Find("script#" + CatalogScriptID).First().Text()); text != "" {
		if model.CountProducts([]byte(text)) > 0 {
			return []byte(text), nil
		}
	}

	var found []byte
	doc.Find(`script[type="application/json"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if model.CountProducts([]byte(text)) > 0 {
			found = []byte(text)
			return false
		}
		return true
	})
	if found == nil {
		return nil, ErrNoCatalog
	}
	return found, nil
}
