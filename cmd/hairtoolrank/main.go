package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guarzo/hairtoolrank/internal/cache"
	"github.com/guarzo/hairtoolrank/internal/config"
	"github.com/guarzo/hairtoolrank/internal/loader"
	"github.com/guarzo/hairtoolrank/internal/model"
	"github.com/guarzo/hairtoolrank/internal/pipeline"
	"github.com/guarzo/hairtoolrank/internal/refresh"
	"github.com/guarzo/hairtoolrank/internal/report"
	"github.com/guarzo/hairtoolrank/internal/server"
	"github.com/guarzo/hairtoolrank/internal/store"
	"github.com/guarzo/hairtoolrank/internal/views"
)

const usage = `Usage: hairtoolrank <command> [flags]

Commands:
  serve      run the JSON API with scheduled catalog refreshes
  rank       load the catalog once and print the ranking (csv or json)
  snapshot   load the catalog once and record its scores in the history store
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(cfg, os.Args[2:])
	case "rank":
		err = runRank(cfg, os.Args[2:], os.Stdout)
	case "snapshot":
		err = runSnapshot(cfg, os.Args[2:], os.Stdout)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime)
	log.SetOutput(os.Stderr)
}

func newLoader(cfg *config.Config) *loader.Loader {
	docCache, err := cache.New(cfg.CachePath)
	if err != nil {
		log.Printf("Warning: document cache disabled: %v", err)
	}
	return loader.New(cfg.Loader(), docCache)
}

func runServe(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.String("port", cfg.Port, "Listen port")
	schedule := fs.String("schedule", cfg.RefreshSchedule, "Refresh cron schedule (empty disables)")
	noHistory := fs.Bool("no-history", false, "Do not record score snapshots")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log.Printf("Starting hairtoolrank")
	log.Printf("Environment: %s", cfg.Environment)
	log.Printf("Data sources: endpoint=%q default=%q", cfg.DataEndpoint, cfg.DefaultDataURL)

	var history *store.Store
	var snapshots refresh.Snapshotter
	if !*noHistory && cfg.SQLitePath != "" {
		s, err := store.Open(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer s.Close()
		history, snapshots = s, s
		log.Printf("Score history: %s", cfg.SQLitePath)
	}

	srv := server.New(nil)
	if history != nil {
		srv = server.New(history)
	}

	refresher := refresh.New(newLoader(cfg), srv, snapshots, cfg.Pipeline())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if _, err := refresher.Run(ctx); err != nil {
			log.Printf("Warning: initial refresh failed: %v", err)
		}
	}()

	if *schedule != "" {
		if err := refresher.Start(*schedule); err != nil {
			return err
		}
		defer refresher.Stop()
	}

	httpServer := &http.Server{
		Addr:              ":" + *port,
		Handler:           srv.Router(server.RouterConfig{Production: cfg.IsProduction(), AllowedOrigins: cfg.AllowedOrigins}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func runRank(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	format := fs.String("format", "csv", "Output format: csv or json")
	outPath := fs.String("out", "", "Output file (default stdout)")
	input := fs.String("input", "", "Read the catalog from this file instead of the configured sources")
	tool := fs.String("tool", "", "Only include this tool type")
	sortBy := fs.String("sort", "score", "Sort by score, rating, reviews or price")
	top := fs.Int("top", 0, "Keep only the first N products (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	result, err := buildOnce(cfg, *input)
	if err != nil {
		return err
	}

	products := views.Category(result.Products, *tool, views.ParseSortMode(*sortBy))
	if *top > 0 && *top < len(products) {
		products = products[:*top]
	}

	w := stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch *format {
	case "csv":
		err = report.WriteListCSV(w, products)
	case "json":
		err = writeJSON(w, result, products)
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return err
	}

	log.Printf("Ranked %d products (%s) in %v", len(products), result.Stats, result.Metrics.Duration().Round(time.Microsecond))
	return nil
}

func runSnapshot(cfg *config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	dbPath := fs.String("db", cfg.SQLitePath, "SQLite history path")
	input := fs.String("input", "", "Read the catalog from this file instead of the configured sources")
	movers := fs.Float64("movers", -1, "After saving, list products whose score moved at least this much (negative disables)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := store.Open(*dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := buildOnce(cfg, *input)
	if err != nil {
		return err
	}

	ctx := context.Background()
	id, err := s.SaveSnapshot(ctx, result)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "snapshot %d: %d products\n", id, len(result.Products))

	if *movers < 0 {
		return nil
	}
	deltas, err := s.Movers(ctx, *movers)
	if err != nil {
		return err
	}
	for _, d := range deltas {
		fmt.Fprintf(stdout, "%+.4f  %.4f -> %.4f  %s\n", d.Delta, d.OldScore, d.NewScore, d.Name)
	}
	return nil
}

// buildOnce ranks a local file when given one, otherwise whatever the loader
// resolves.
func buildOnce(cfg *config.Config, input string) (*pipeline.Result, error) {
	if input != "" {
		raw, err := os.ReadFile(input)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		return pipeline.BuildCatalog(raw, cfg.Pipeline())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	doc, err := newLoader(cfg).Load(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded catalog from %s", doc.Source)
	return pipeline.BuildCatalog(doc.Raw, cfg.Pipeline())
}

func writeJSON(w io.Writer, result *pipeline.Result, products []model.EnrichedProduct) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Meta     model.Meta              `json:"meta"`
		Products []model.EnrichedProduct `json:"products"`
	}{result.Meta, products})
}
