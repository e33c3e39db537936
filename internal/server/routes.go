package server

import (
	"github.com/gin-gonic/gin"
)

// RouterConfig controls router behaviour.
type RouterConfig struct {
	Production     bool
	AllowedOrigins []string
}

// Router builds the gin engine serving s.
func (s *Server) Router(cfg RouterConfig) *gin.Engine {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(CORSMiddleware(cfg.AllowedOrigins))

	router.GET("/health", s.health)

	v1 := router.Group("/api/v1")
	v1.Use(s.requireCatalog())
	{
		v1.GET("/meta", s.meta)
		v1.GET("/top", s.top)
		v1.GET("/tools", s.tools)
		v1.GET("/context", s.scoringContext)
		v1.GET("/export.csv", s.exportCSV)

		products := v1.Group("/products")
		{
			products.GET("", s.products)
			products.GET("/:id", s.product)
			products.GET("/:id/history", s.productHistory)
		}

		v1.GET("/movers", s.movers)
	}

	return router
}
