package storage

import (
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndGetActivations(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveActivation("pressed", "fn"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.SaveActivation("released", "fn"); err != nil {
		t.Fatalf("save: %v", err)
	}

	activations, err := db.GetActivations(10, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(activations) != 2 {
		t.Fatalf("expected 2 activations, got %d", len(activations))
	}
	for _, a := range activations {
		if a.Hotkey != "fn" {
			t.Fatalf("hotkey = %q", a.Hotkey)
		}
		if a.Timestamp.IsZero() {
			t.Fatalf("timestamp not populated")
		}
	}

	count, err := db.GetActivationCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d", count)
	}
}

func TestGetActivationsPagination(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		if err := db.SaveActivation("toggled", "cmd+shift+v"); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	page, err := db.GetActivations(2, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}

	rest, err := db.GetActivations(10, 4)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("expected 1 remaining, got %d", len(rest))
	}
}

func TestSaveAndGetDiagnostics(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveDiagnostic("tap_restarted", "ok", "attempt 1"); err != nil {
		t.Fatalf("save: %v", err)
	}

	diags, err := db.GetDiagnostics(10, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(diags))
	}
	d := diags[0]
	if d.Kind != "tap_restarted" || d.Outcome != "ok" || d.Detail != "attempt 1" {
		t.Fatalf("unexpected diagnostic: %+v", d)
	}
}

func TestGetDailyActivationCounts(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 3; i++ {
		if err := db.SaveActivation("pressed", "fn"); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	counts, err := db.GetDailyActivationCounts(7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(counts) != 1 {
		t.Fatalf("expected a single day bucket, got %d", len(counts))
	}
	if counts[0].Count != 3 {
		t.Fatalf("count = %d", counts[0].Count)
	}
}

func TestOpenIsIdempotentOnSchema(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.SaveActivation("pressed", "fn"); err != nil {
		t.Fatalf("save: %v", err)
	}
	db.Close()

	// Reopening the same file must keep existing rows.
	db, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	count, err := db.GetActivationCount()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("count after reopen = %d", count)
	}
}
