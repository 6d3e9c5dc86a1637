package history_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"voicematch/internal/history"
	"voicematch/internal/testsupport"
)

func sampleRecord(id string, outcome history.Outcome, created time.Time) history.Record {
	return history.Record{
		ID:          id,
		CreatedAt:   created,
		First:       history.Input{Name: "a.webm", Bytes: 2048, DurationSeconds: 1.5},
		Second:      history.Input{Name: "b.webm", Bytes: 4096, DurationSeconds: 2.25},
		Similarity:  0.8123,
		SameSpeaker: outcome == history.OutcomeSame,
		Threshold:   0.75,
		Backend:     "builtin",
		Outcome:     outcome,
		ElapsedMs:   420,
	}
}

func TestRecordAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Record(ctx, sampleRecord("rec-1", history.OutcomeSame, created)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	got, err := store.Get(ctx, "rec-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected record")
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at = %v, want %v", got.CreatedAt, created)
	}
	if got.First.Name != "a.webm" || got.Second.Bytes != 4096 || got.Second.DurationSeconds != 2.25 {
		t.Fatalf("unexpected inputs: %+v %+v", got.First, got.Second)
	}
	if got.Similarity != 0.8123 || !got.SameSpeaker || got.Outcome != history.OutcomeSame {
		t.Fatalf("unexpected result fields: %+v", got)
	}
	if got.ElapsedMs != 420 || got.Backend != "builtin" {
		t.Fatalf("unexpected metadata: %+v", got)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	got, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestRecordValidation(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.Record(ctx, sampleRecord("", history.OutcomeSame, time.Now())); err == nil {
		t.Fatal("expected error for empty id")
	}
	if err := store.Record(ctx, sampleRecord("x", history.Outcome("maybe"), time.Now())); err == nil {
		t.Fatal("expected error for unknown outcome")
	}
	if err := store.Record(ctx, sampleRecord("dup", history.OutcomeSame, time.Now())); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, sampleRecord("dup", history.OutcomeSame, time.Now())); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
}

func TestFailedRecordStoresError(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()

	rec := sampleRecord("failed-1", history.OutcomeFailed, time.Time{})
	rec.Error = "Audio conversion failed: exit status 1"
	if err := store.Record(ctx, rec); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	got, err := store.Get(ctx, "failed-1")
	if err != nil || got == nil {
		t.Fatalf("Get failed: %v %v", got, err)
	}
	if got.Error != rec.Error {
		t.Fatalf("error = %q, want %q", got.Error, rec.Error)
	}
	if got.Similarity != 0 {
		t.Fatalf("failed record similarity = %v, want 0", got.Similarity)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be stamped")
	}
}

func TestListNewestFirstWithFilter(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	outcomes := []history.Outcome{
		history.OutcomeSame,
		history.OutcomeDifferent,
		history.OutcomeSame,
		history.OutcomeFailed,
	}
	for i, outcome := range outcomes {
		// Sub-second offsets exercise the fixed-width timestamp ordering.
		created := base.Add(time.Duration(i) * 500 * time.Millisecond)
		if err := store.Record(ctx, sampleRecord(fmt.Sprintf("rec-%d", i), outcome, created)); err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
	}

	all, err := store.List(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 records, got %d", len(all))
	}
	for i, want := range []string{"rec-3", "rec-2", "rec-1", "rec-0"} {
		if all[i].ID != want {
			t.Fatalf("position %d = %s, want %s", i, all[i].ID, want)
		}
	}

	same, err := store.List(ctx, history.Filter{Outcome: history.OutcomeSame, Limit: 1})
	if err != nil {
		t.Fatalf("List filtered failed: %v", err)
	}
	if len(same) != 1 || same[0].ID != "rec-2" {
		t.Fatalf("unexpected filtered list: %+v", same)
	}
}

func TestStatsPruneClear(t *testing.T) {
	store := testsupport.MustOpenHistory(t, testsupport.NewConfig(t))
	ctx := context.Background()

	now := time.Now().UTC()
	old := now.Add(-48 * time.Hour)
	records := []history.Record{
		sampleRecord("old-same", history.OutcomeSame, old),
		sampleRecord("old-failed", history.OutcomeFailed, old),
		sampleRecord("new-diff", history.OutcomeDifferent, now),
		sampleRecord("new-same", history.OutcomeSame, now),
	}
	for _, rec := range records {
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("Record %s failed: %v", rec.ID, err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := history.Stats{Total: 4, Same: 2, Different: 1, Failed: 1}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}

	pruned, err := store.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if pruned != 2 {
		t.Fatalf("pruned %d, want 2", pruned)
	}

	cleared, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if cleared != 2 {
		t.Fatalf("cleared %d, want 2", cleared)
	}
	stats, err = store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("expected empty history, got %+v", stats)
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.Record(ctx, sampleRecord("persist", history.OutcomeDifferent, time.Now())); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenHistory(t, cfg)
	got, err := reopened.Get(ctx, "persist")
	if err != nil || got == nil {
		t.Fatalf("expected persisted record, got %v %v", got, err)
	}
	if reopened.Path() != cfg.HistoryDBPath() {
		t.Fatalf("path = %q, want %q", reopened.Path(), cfg.HistoryDBPath())
	}
	if err := reopened.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", cfg.HistoryDBPath())
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = db.Close()

	if _, err := history.Open(cfg); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestParseOutcome(t *testing.T) {
	for _, value := range []string{"same", "different", "failed"} {
		if _, ok := history.ParseOutcome(value); !ok {
			t.Fatalf("expected %q to parse", value)
		}
	}
	if _, ok := history.ParseOutcome("SAME"); ok {
		t.Fatal("outcomes are case sensitive")
	}
}
