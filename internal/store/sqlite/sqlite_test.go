package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"neowatch/internal/model"
	"neowatch/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "neows_test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func approach(id, date string) model.Approach {
	name := "asteroid " + id
	hazardous := false
	return model.Approach{
		ID:                     &id,
		Name:                   &name,
		CloseApproachDate:      &date,
		IsPotentiallyHazardous: &hazardous,
		RelativeVelocityKPS:    5.5,
		MissDistanceKm:         750000,
		OrbitingBody:           "Earth",
	}
}

func countRows(t *testing.T, s *Store) int {
	t.Helper()
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + s.table).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	return count
}

func TestEnsureSchemaIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("first EnsureSchema: %v", err)
	}
	if _, err := s.LoadApproaches(ctx, []model.Approach{approach("1", "2025-01-01")}, store.LoadOptions{}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}
	if got := countRows(t, s); got != 1 {
		t.Fatalf("EnsureSchema altered data: %d rows", got)
	}
}

func TestIdempotentReload(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	rows := []model.Approach{
		approach("1", "2025-01-01"),
		approach("2", "2025-01-02"),
		approach("3", "2025-01-03"),
	}
	opts := store.LoadOptions{DeleteFirst: true, StartDate: "2025-01-01", EndDate: "2025-01-03"}

	for run := 0; run < 2; run++ {
		written, err := s.LoadApproaches(ctx, rows, opts)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if written != 3 {
			t.Fatalf("run %d: written %d, want 3", run, written)
		}
	}

	if got := countRows(t, s); got != 3 {
		t.Fatalf("expected 3 rows after reload, got %d", got)
	}
}

func TestWindowInference(t *testing.T) {
	t.Parallel()

	dates := []string{"2025-01-01", "2025-01-05", "2025-01-03"}
	rows := make([]model.Approach, 0, len(dates))
	for i, date := range dates {
		rows = append(rows, approach(string(rune('a'+i)), date))
	}

	start, end, err := resolveWindow(rows, "", "")
	if err != nil {
		t.Fatalf("resolveWindow: %v", err)
	}
	if start != "2025-01-01" || end != "2025-01-05" {
		t.Fatalf("inferred window [%s, %s], want [2025-01-01, 2025-01-05]", start, end)
	}
}

func TestWindowInferencePartialBounds(t *testing.T) {
	t.Parallel()

	rows := []model.Approach{approach("1", "2025-01-02"), approach("2", "2025-01-04")}

	start, end, err := resolveWindow(rows, "2025-01-01", "")
	if err != nil {
		t.Fatalf("resolveWindow: %v", err)
	}
	if start != "2025-01-01" || end != "2025-01-04" {
		t.Fatalf("window [%s, %s], want [2025-01-01, 2025-01-04]", start, end)
	}
}

func TestWindowInferenceNoDates(t *testing.T) {
	t.Parallel()

	rows := []model.Approach{{OrbitingBody: "Earth"}}
	if _, _, err := resolveWindow(rows, "", ""); err == nil {
		t.Fatal("expected error when no row carries a date")
	}
}

func TestDeleteRangeInclusiveBoundaries(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	rows := []model.Approach{
		approach("1", "2024-12-31"),
		approach("2", "2025-01-01"),
		approach("3", "2025-01-02"),
	}
	if _, err := s.LoadApproaches(ctx, rows, store.LoadOptions{}); err != nil {
		t.Fatalf("load: %v", err)
	}

	deleted, err := s.DeleteRange(ctx, "2025-01-01", "2025-01-01")
	if err != nil {
		t.Fatalf("DeleteRange: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted %d rows, want 1", deleted)
	}
	if got := countRows(t, s); got != 2 {
		t.Fatalf("expected 2 remaining rows, got %d", got)
	}
}

func TestDeleteRangeEmptyResult(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	deleted, err := s.DeleteRange(ctx, "2025-01-01", "2025-01-31")
	if err != nil {
		t.Fatalf("DeleteRange: %v", err)
	}
	if deleted != 0 {
		t.Fatalf("deleted %d rows, want 0", deleted)
	}
}

func TestLoadEmptyBatchFails(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	if _, err := s.LoadApproaches(context.Background(), nil, store.LoadOptions{}); err == nil {
		t.Fatal("expected error for empty batch")
	}
}

func TestDuplicateNaturalKeyFailsAtomically(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.LoadApproaches(ctx, []model.Approach{approach("9", "2025-02-01")}, store.LoadOptions{}); err != nil {
		t.Fatalf("seed load: %v", err)
	}

	// Same natural key twice within one batch: the delete-first pass
	// clears existing rows, but the in-batch duplicate must fail the
	// whole call without leaving a partial insert behind.
	batch := []model.Approach{
		approach("9", "2025-02-01"),
		approach("9", "2025-02-01"),
	}
	if _, err := s.LoadApproaches(ctx, batch, store.LoadOptions{DeleteFirst: true}); err == nil {
		t.Fatal("expected constraint violation")
	}

	// Rollback must also restore the pre-deleted row.
	if got := countRows(t, s); got != 1 {
		t.Fatalf("expected 1 row after failed load, got %d", got)
	}
}

func TestAppendLeavesOutsideWindowUntouched(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.LoadApproaches(ctx, []model.Approach{approach("far", "2024-06-15")}, store.LoadOptions{}); err != nil {
		t.Fatalf("seed load: %v", err)
	}

	rows := []model.Approach{approach("1", "2025-01-01")}
	if _, err := s.LoadApproaches(ctx, rows, store.LoadOptions{Mode: store.ModeAppend, DeleteFirst: true}); err != nil {
		t.Fatalf("windowed load: %v", err)
	}

	if got := countRows(t, s); got != 2 {
		t.Fatalf("expected 2 rows, got %d", got)
	}
}

func TestModeFailOnExistingTable(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.LoadApproaches(ctx, []model.Approach{approach("1", "2025-01-01")}, store.LoadOptions{}); err != nil {
		t.Fatalf("seed load: %v", err)
	}

	_, err := s.LoadApproaches(ctx, []model.Approach{approach("2", "2025-01-02")}, store.LoadOptions{Mode: store.ModeFail})
	if err == nil {
		t.Fatal("expected ModeFail to reject a pre-existing table")
	}
}

func TestModeReplaceDropsForeignRows(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.LoadApproaches(ctx, []model.Approach{approach("old", "2019-01-01")}, store.LoadOptions{}); err != nil {
		t.Fatalf("seed load: %v", err)
	}

	rows := []model.Approach{approach("new", "2025-01-01")}
	if _, err := s.LoadApproaches(ctx, rows, store.LoadOptions{Mode: store.ModeReplace}); err != nil {
		t.Fatalf("replace load: %v", err)
	}

	if got := countRows(t, s); got != 1 {
		t.Fatalf("expected only the replacement row, got %d rows", got)
	}
}

func TestNewWithTableRejectsBadIdentifier(t *testing.T) {
	t.Parallel()

	_, err := NewWithTable(filepath.Join(t.TempDir(), "x.db"), "neows; DROP TABLE neows")
	if err == nil {
		t.Fatal("expected invalid table name to be rejected")
	}
}
