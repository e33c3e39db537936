package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/guarzo/hairtoolrank/internal/model"
	"github.com/guarzo/hairtoolrank/internal/pipeline"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.sqlite"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}
	return s
}

func enriched(id, name string, score float64) model.EnrichedProduct {
	return model.EnrichedProduct{
		Listing: model.Listing{
			ID:         id,
			Name:       name,
			Brand:      "Acme",
			ToolType:   "Dryers",
			ProductURL: "https://www.amazon.com/dp/" + id,
		},
		Score:          score,
		ScoreBreakdown: model.ScoreBreakdown{Quality: score},
	}
}

func result(products ...model.EnrichedProduct) *pipeline.Result {
	r := &pipeline.Result{
		Meta:     model.Meta{Source: "test", LastUpdated: "2026-02-09"},
		Products: products,
	}
	r.Stats.Input = len(products)
	r.Stats.Output = len(products)
	return r
}

func TestSaveAndLatestScores(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	latest, err := s.LatestScores(ctx)
	if err != nil || latest != nil {
		t.Fatalf("empty store: got %v, %v", latest, err)
	}

	if _, err := s.SaveSnapshot(ctx, result(enriched("B000000001", "Dryer", 0.5))); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	id, err := s.SaveSnapshot(ctx, result(
		enriched("B000000002", "Brush", 0.4),
		enriched("B000000001", "Dryer", 0.7),
	))
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	latest, err = s.LatestScores(ctx)
	if err != nil {
		t.Fatalf("LatestScores failed: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("expected 2 records, got %d", len(latest))
	}
	if latest[0].ProductID != "B000000001" || latest[0].Score != 0.7 {
		t.Errorf("expected highest score first, got %+v", latest[0])
	}
	if latest[0].SnapshotID != id {
		t.Errorf("snapshot id = %d, want %d", latest[0].SnapshotID, id)
	}
	if latest[0].Quality != 0.7 || latest[0].Brand != "Acme" {
		t.Errorf("breakdown not stored: %+v", latest[0])
	}

	snaps, err := s.Snapshots(ctx, 0)
	if err != nil {
		t.Fatalf("Snapshots failed: %v", err)
	}
	if len(snaps) != 2 || snaps[0].ID != id || snaps[0].OutputCount != 2 || snaps[0].Source != "test" {
		t.Errorf("unexpected snapshots: %+v", snaps)
	}
	if !snaps[0].TakenAt.After(snaps[1].TakenAt) {
		t.Errorf("snapshots not newest first: %v then %v", snaps[0].TakenAt, snaps[1].TakenAt)
	}
}

func TestHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, score := range []float64{0.1, 0.2, 0.3} {
		if _, err := s.SaveSnapshot(ctx, result(enriched("B000000001", "Dryer", score))); err != nil {
			t.Fatalf("SaveSnapshot failed: %v", err)
		}
	}

	key := ProductKey(enriched("B000000001", "Dryer", 0), 0)
	history, err := s.History(ctx, key, 2)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 records, got %d", len(history))
	}
	if history[0].Score != 0.3 || history[1].Score != 0.2 {
		t.Errorf("expected newest first, got %v then %v", history[0].Score, history[1].Score)
	}

	all, err := s.History(ctx, key, 0)
	if err != nil || len(all) != 3 {
		t.Errorf("expected full history of 3, got %d (%v)", len(all), err)
	}

	none, err := s.History(ctx, "asin:nothing", 5)
	if err != nil || len(none) != 0 {
		t.Errorf("expected no history, got %v (%v)", none, err)
	}
}

func TestMovers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	movers, err := s.Movers(ctx, 0.01)
	if err != nil || movers != nil {
		t.Fatalf("single snapshot store should have no movers: %v, %v", movers, err)
	}

	if _, err := s.SaveSnapshot(ctx, result(
		enriched("B000000001", "Dryer", 0.50),
		enriched("B000000002", "Brush", 0.40),
		enriched("B000000003", "Iron", 0.30),
	)); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := s.SaveSnapshot(ctx, result(
		enriched("B000000001", "Dryer", 0.55),
		enriched("B000000002", "Brush", 0.20),
		enriched("B000000003", "Iron", 0.301),
		enriched("B000000004", "Curler", 0.90),
	)); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	movers, err = s.Movers(ctx, 0.01)
	if err != nil {
		t.Fatalf("Movers failed: %v", err)
	}
	if len(movers) != 2 {
		t.Fatalf("expected 2 movers, got %+v", movers)
	}
	if movers[0].Name != "Brush" || movers[0].Delta >= 0 {
		t.Errorf("largest mover should be the falling Brush, got %+v", movers[0])
	}
	if movers[1].Name != "Dryer" || movers[1].OldScore != 0.50 || movers[1].NewScore != 0.55 {
		t.Errorf("unexpected second mover: %+v", movers[1])
	}
}

func TestSaveSnapshot_Nil(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.SaveSnapshot(context.Background(), nil); err == nil {
		t.Error("expected error for nil result")
	}
}
