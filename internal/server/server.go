// Package server exposes the current ranked catalog as a JSON API.
package server

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/guarzo/hairtoolrank/internal/pipeline"
	"github.com/guarzo/hairtoolrank/internal/store"
)

// ErrNotReady is reported until the first catalog has been published.
var ErrNotReady = errors.New("catalog not loaded yet")

// History is the subset of the snapshot store the API reads from.
type History interface {
	History(ctx context.Context, productKey string, limit int) ([]store.ScoreRecord, error)
	Movers(ctx context.Context, threshold float64) ([]store.ScoreDelta, error)
}

// Server holds the catalog currently being served. Readers always see a
// complete Result: Publish swaps the whole pass at once.
type Server struct {
	current     atomic.Pointer[pipeline.Result]
	publishedAt atomic.Pointer[time.Time]
	history     History
}

// New creates a server. history may be nil to disable the history routes.
func New(history History) *Server {
	return &Server{history: history}
}

// Publish makes result the catalog served to subsequent requests.
func (s *Server) Publish(result *pipeline.Result) {
	if result == nil {
		return
	}
	now := time.Now()
	s.current.Store(result)
	s.publishedAt.Store(&now)
	log.Printf("Server: published %d products (%s)", len(result.Products), result.Stats)
}

// Current returns the published catalog or ErrNotReady.
func (s *Server) Current() (*pipeline.Result, error) {
	result := s.current.Load()
	if result == nil {
		return nil, ErrNotReady
	}
	return result, nil
}
