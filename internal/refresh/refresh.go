// Package refresh reloads the catalog on a schedule and publishes each new
// ranking.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/guarzo/hairtoolrank/internal/loader"
	"github.com/guarzo/hairtoolrank/internal/pipeline"
)

// ErrRunning is returned by Run when another refresh is still in progress.
var ErrRunning = errors.New("refresh already running")

// Source yields a raw catalog document.
type Source interface {
	Load(ctx context.Context) (loader.Document, error)
}

// Publisher receives every successfully built catalog.
type Publisher interface {
	Publish(result *pipeline.Result)
}

// Snapshotter persists a built catalog.
type Snapshotter interface {
	SaveSnapshot(ctx context.Context, result *pipeline.Result) (int64, error)
}

// Status describes the most recent refresh.
type Status struct {
	LastRefresh   time.Time     `json:"last_refresh"`
	Trigger       string        `json:"trigger"`
	Source        string        `json:"source"`
	FromCache     bool          `json:"from_cache"`
	FromFallback  bool          `json:"from_fallback"`
	Products      int           `json:"products"`
	Duration      time.Duration `json:"duration"`
	SnapshotID    int64         `json:"snapshot_id,omitempty"`
	SnapshotError string        `json:"snapshot_error,omitempty"`
}

// Refresher runs load, build, publish and snapshot as one unit.
type Refresher struct {
	source    Source
	publisher Publisher
	snapshots Snapshotter
	options   pipeline.Options
	timeout   time.Duration

	running sync.Mutex
	mu      sync.RWMutex
	status  Status
	cron    *cron.Cron
}

// New creates a refresher. snapshots may be nil to skip persistence.
func New(source Source, publisher Publisher, snapshots Snapshotter, options pipeline.Options) *Refresher {
	return &Refresher{
		source:    source,
		publisher: publisher,
		snapshots: snapshots,
		options:   options,
		timeout:   2 * time.Minute,
	}
}

// Run performs one refresh.
func (r *Refresher) Run(ctx context.Context) (*pipeline.Result, error) {
	return r.run(ctx, "manual")
}

func (r *Refresher) run(ctx context.Context, trigger string) (*pipeline.Result, error) {
	if !r.running.TryLock() {
		return nil, ErrRunning
	}
	defer r.running.Unlock()

	start := time.Now()
	log.Printf("Refresh: starting (%s)", trigger)

	doc, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	result, err := pipeline.BuildCatalog(doc.Raw, r.options)
	if err != nil {
		return nil, fmt.Errorf("build catalog from %s: %w", doc.Source, err)
	}

	if r.publisher != nil {
		r.publisher.Publish(result)
	}

	status := Status{
		LastRefresh:  time.Now(),
		Trigger:      trigger,
		Source:       doc.Source,
		FromCache:    doc.FromCache,
		FromFallback: doc.FromFallback,
		Products:     len(result.Products),
	}

	if r.snapshots != nil {
		id, err := r.snapshots.SaveSnapshot(ctx, result)
		if err != nil {
			log.Printf("Refresh: Warning: snapshot failed: %v", err)
			status.SnapshotError = err.Error()
		} else {
			status.SnapshotID = id
		}
	}

	status.Duration = time.Since(start)
	r.mu.Lock()
	r.status = status
	r.mu.Unlock()

	log.Printf("Refresh: completed in %v (%s, %d products from %s)",
		status.Duration.Round(time.Millisecond), result.Stats, status.Products, status.Source)
	return result, nil
}

// Status returns the outcome of the last successful refresh.
func (r *Refresher) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Start schedules refreshes with a cron spec such as "@every 6h" or
// "0 */6 * * *". Runs that would overlap a previous one are skipped.
func (r *Refresher) Start(spec string) error {
	if r.cron != nil {
		return errors.New("refresh schedule already started")
	}

	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, r.scheduled); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	c.Start()
	r.cron = c
	log.Printf("Refresh: scheduled with %q", spec)
	return nil
}

func (r *Refresher) scheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if _, err := r.run(ctx, "scheduled"); err != nil {
		log.Printf("Refresh: Warning: scheduled refresh failed: %v", err)
	}
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.cron = nil
}
