// Package store keeps a SQLite history of scored catalogs so score movements
// can be tracked across refreshes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/guarzo/hairtoolrank/internal/dedup"
	"github.com/guarzo/hairtoolrank/internal/model"
	"github.com/guarzo/hairtoolrank/internal/pipeline"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		taken_at TEXT NOT NULL,
		source TEXT,
		last_updated TEXT,
		input_count INTEGER,
		output_count INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS product_scores (
		snapshot_id INTEGER NOT NULL REFERENCES snapshots(id),
		product_key TEXT NOT NULL,
		product_id TEXT,
		name TEXT,
		brand TEXT,
		tool_type TEXT,
		price REAL,
		rating REAL,
		review_count INTEGER,
		score REAL,
		quality REAL,
		review_confidence REAL,
		value REAL,
		affordability REAL,
		bayesian_confidence REAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_product_scores_key ON product_scores(product_key)`,
	`CREATE INDEX IF NOT EXISTS idx_product_scores_snapshot ON product_scores(snapshot_id)`,
}

// Snapshot describes one saved catalog pass.
type Snapshot struct {
	ID          int64     `json:"id"`
	TakenAt     time.Time `json:"taken_at"`
	Source      string    `json:"source"`
	LastUpdated string    `json:"last_updated"`
	InputCount  int       `json:"input_count"`
	OutputCount int       `json:"output_count"`
}

// ScoreRecord is one product's score within a snapshot.
type ScoreRecord struct {
	SnapshotID         int64     `json:"snapshot_id"`
	TakenAt            time.Time `json:"taken_at"`
	ProductKey         string    `json:"product_key"`
	ProductID          string    `json:"product_id"`
	Name               string    `json:"name"`
	Brand              string    `json:"brand"`
	ToolType           string    `json:"tool_type"`
	Price              float64   `json:"price"`
	Rating             float64   `json:"rating"`
	ReviewCount        int       `json:"review_count"`
	Score              float64   `json:"score"`
	Quality            float64   `json:"quality"`
	ReviewConfidence   float64   `json:"review_confidence"`
	Value              float64   `json:"value"`
	Affordability      float64   `json:"affordability"`
	BayesianConfidence float64   `json:"bayesian_confidence"`
}

// ScoreDelta is a score change between the two most recent snapshots.
type ScoreDelta struct {
	ProductKey string    `json:"product_key"`
	Name       string    `json:"name"`
	OldScore   float64   `json:"old_score"`
	NewScore   float64   `json:"new_score"`
	Delta      float64   `json:"delta"`
	OldTakenAt time.Time `json:"old_taken_at"`
	NewTakenAt time.Time `json:"new_taken_at"`
}

// Store is a SQLite-backed snapshot history. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ProductKey is the stable identity under which a product's history is kept.
func ProductKey(p model.EnrichedProduct, index int) string {
	return dedup.Key(p.Listing, index).String()
}

// SaveSnapshot records every product of result in one transaction and returns
// the new snapshot id.
func (s *Store) SaveSnapshot(ctx context.Context, result *pipeline.Result) (int64, error) {
	if result == nil {
		return 0, fmt.Errorf("save snapshot: nil result")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (taken_at, source, last_updated, input_count, output_count) VALUES (?, ?, ?, ?, ?)`,
		s.now().UTC().Format(time.RFC3339Nano), result.Meta.Source, result.Meta.LastUpdated,
		result.Stats.Input, len(result.Products))
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("snapshot id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO product_scores (
		snapshot_id, product_key, product_id, name, brand, tool_type, price, rating, review_count,
		score, quality, review_confidence, value, affordability, bayesian_confidence
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare scores: %w", err)
	}
	defer stmt.Close()

	for i, p := range result.Products {
		b := p.ScoreBreakdown
		if _, err := stmt.ExecContext(ctx, id, ProductKey(p, i), p.ID, p.Name, p.Brand, p.ToolType,
			p.Price, p.Rating, p.ReviewCount, p.Score,
			b.Quality, b.ReviewConfidence, b.Value, b.Affordability, b.BayesianConfidence); err != nil {
			return 0, fmt.Errorf("insert score %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}
	return id, nil
}

// Snapshots lists saved snapshots, newest first.
func (s *Store) Snapshots(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, taken_at, source, last_updated, input_count, output_count
		 FROM snapshots ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var takenAt string
		var source, lastUpdated sql.NullString
		if err := rows.Scan(&snap.ID, &takenAt, &source, &lastUpdated, &snap.InputCount, &snap.OutputCount); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.TakenAt = parseTime(takenAt)
		snap.Source = source.String
		snap.LastUpdated = lastUpdated.String
		out = append(out, snap)
	}
	return out, rows.Err()
}

// LatestScores returns the products of the newest snapshot ordered by score.
// An empty store yields no records and no error.
func (s *Store) LatestScores(ctx context.Context) ([]ScoreRecord, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return s.scores(ctx, `WHERE ps.snapshot_id = ? ORDER BY ps.score DESC, ps.rowid ASC`, id)
}

// History returns a product's records, newest first. limit <= 0 means all.
func (s *Store) History(ctx context.Context, productKey string, limit int) ([]ScoreRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.scores(ctx, `WHERE ps.product_key = ? ORDER BY ps.snapshot_id DESC LIMIT ?`, productKey, limit)
}

// Movers compares the two newest snapshots and returns products whose score
// moved by at least threshold, largest movement first.
func (s *Store) Movers(ctx context.Context, threshold float64) ([]ScoreDelta, error) {
	snaps, err := s.Snapshots(ctx, 2)
	if err != nil {
		return nil, err
	}
	if len(snaps) < 2 {
		return nil, nil
	}
	newer, err := s.scores(ctx, `WHERE ps.snapshot_id = ? ORDER BY ps.rowid`, snaps[0].ID)
	if err != nil {
		return nil, err
	}
	older, err := s.scores(ctx, `WHERE ps.snapshot_id = ? ORDER BY ps.rowid`, snaps[1].ID)
	if err != nil {
		return nil, err
	}

	previous := make(map[string]ScoreRecord, len(older))
	for _, r := range older {
		previous[r.ProductKey] = r
	}

	var deltas []ScoreDelta
	for _, r := range newer {
		old, ok := previous[r.ProductKey]
		if !ok {
			continue
		}
		delta := r.Score - old.Score
		if math.Abs(delta) < threshold || delta == 0 {
			continue
		}
		deltas = append(deltas, ScoreDelta{
			ProductKey: r.ProductKey,
			Name:       r.Name,
			OldScore:   old.Score,
			NewScore:   r.Score,
			Delta:      delta,
			OldTakenAt: old.TakenAt,
			NewTakenAt: r.TakenAt,
		})
	}
	sort.SliceStable(deltas, func(i, j int) bool {
		return math.Abs(deltas[i].Delta) > math.Abs(deltas[j].Delta)
	})
	return deltas, nil
}

func (s *Store) scores(ctx context.Context, where string, args ...any) ([]ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		ps.snapshot_id, s.taken_at, ps.product_key, ps.product_id, ps.name, ps.brand, ps.tool_type,
		ps.price, ps.rating, ps.review_count, ps.score, ps.quality, ps.review_confidence,
		ps.value, ps.affordability, ps.bayesian_confidence
		FROM product_scores ps JOIN snapshots s ON s.id = ps.snapshot_id `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	var out []ScoreRecord
	for rows.Next() {
		var r ScoreRecord
		var takenAt string
		var id, name, brand, tool sql.NullString
		if err := rows.Scan(&r.SnapshotID, &takenAt, &r.ProductKey, &id, &name, &brand, &tool,
			&r.Price, &r.Rating, &r.ReviewCount, &r.Score, &r.Quality, &r.ReviewConfidence,
			&r.Value, &r.Affordability, &r.BayesianConfidence); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		r.TakenAt = parseTime(takenAt)
		r.ProductID, r.Name, r.Brand, r.ToolType = id.String, name.String, brand.String, tool.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
