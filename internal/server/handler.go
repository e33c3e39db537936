package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/guarzo/hairtoolrank/internal/model"
	"github.com/guarzo/hairtoolrank/internal/pipeline"
	"github.com/guarzo/hairtoolrank/internal/report"
	"github.com/guarzo/hairtoolrank/internal/store"
	"github.com/guarzo/hairtoolrank/internal/views"
)

const (
	resultKey       = "catalog"
	relatedCount    = 4
	defaultHistory  = 30
	defaultMoverMin = 0.01
)

// ProductDetail is the payload of a single product lookup.
type ProductDetail struct {
	Product model.EnrichedProduct   `json:"product"`
	Insight views.Insight           `json:"insight"`
	Related []model.EnrichedProduct `json:"related"`
}

func catalog(c *gin.Context) *pipeline.Result {
	return c.MustGet(resultKey).(*pipeline.Result)
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{"status": "healthy", "service": "hairtoolrank"}
	if result, err := s.Current(); err == nil {
		body["products"] = len(result.Products)
		if at := s.publishedAt.Load(); at != nil {
			body["published_at"] = at.UTC()
		}
	} else {
		body["status"] = "loading"
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) meta(c *gin.Context) {
	result := catalog(c)
	c.JSON(http.StatusOK, gin.H{
		"meta":  result.Meta,
		"stats": result.Stats,
		"tools": views.Tools(result.Products),
	})
}

func (s *Server) top(c *gin.Context) {
	n := views.DefaultTopN
	if raw := c.Query("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			badRequest(c, "n must be a positive integer")
			return
		}
		n = parsed
	}
	c.JSON(http.StatusOK, gin.H{"products": views.Top(catalog(c).Products, n)})
}

func (s *Server) products(c *gin.Context) {
	products := catalog(c).Products
	if q := c.Query("q"); strings.TrimSpace(q) != "" {
		products = views.Search(products, q)
	}
	products = views.Category(products, c.Query("tool"), views.ParseSortMode(c.Query("sort")))
	if products == nil {
		products = []model.EnrichedProduct{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(products), "products": products})
}

func (s *Server) product(c *gin.Context) {
	result := catalog(c)
	p, ok := result.Find(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	related := views.Related(p, result.Products, relatedCount)
	if related == nil {
		related = []model.EnrichedProduct{}
	}
	c.JSON(http.StatusOK, ProductDetail{
		Product: p,
		Insight: views.CategoryInsight(p, result.Products),
		Related: related,
	})
}

func (s *Server) tools(c *gin.Context) {
	products := catalog(c).Products
	counts := make(map[string]int)
	for _, p := range products {
		counts[p.ToolType]++
	}
	c.JSON(http.StatusOK, gin.H{"tools": views.Tools(products), "counts": counts})
}

func (s *Server) scoringContext(c *gin.Context) {
	c.JSON(http.StatusOK, catalog(c).Context)
}

func (s *Server) exportCSV(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="hair-tool-ranking.csv"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.WriteCSV(c.Writer, catalog(c).Products); err != nil {
		c.Error(err)
	}
}

func (s *Server) productHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "score history is not configured"})
		return
	}
	result := catalog(c)
	id := c.Param("id")

	index := -1
	for i, p := range result.Products {
		if p.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}

	limit := defaultHistory
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "limit must be an integer")
			return
		}
		limit = parsed
	}

	key := store.ProductKey(result.Products[index], index)
	records, err := s.history.History(c.Request.Context(), key, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []store.ScoreRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"product_key": key, "history": records})
}

func (s *Server) movers(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "score history is not configured"})
		return
	}
	threshold := defaultMoverMin
	if raw := c.Query("min"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			badRequest(c, "min must be a non-negative number")
			return
		}
		threshold = parsed
	}
	deltas, err := s.history.Movers(c.Request.Context(), threshold)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if deltas == nil {
		deltas = []store.ScoreDelta{}
	}
	c.JSON(http.StatusOK, gin.H{"movers": deltas})
}
