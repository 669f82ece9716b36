package history

import (
	"context"
	"testing"
	"time"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_RecordAndQuery(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, time.July, 10, 8, 0, 0, 0, time.UTC)

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			// Record out of order, expect ascending back.
			for _, off := range []time.Duration{2 * time.Hour, 0, time.Hour} {
				if err := store.RecordIncident(ctx, "HSR Layout", "flooding", base.Add(off)); err != nil {
					t.Fatalf("RecordIncident failed: %v", err)
				}
			}
			if err := store.RecordIncident(ctx, "Whitefield", "traffic", base); err != nil {
				t.Fatalf("RecordIncident failed: %v", err)
			}

			got, err := store.Timestamps(ctx, "HSR Layout", "flooding")
			if err != nil {
				t.Fatalf("Timestamps failed: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("Expected 3 timestamps, got %d", len(got))
			}
			for i := 1; i < len(got); i++ {
				if got[i].Before(got[i-1]) {
					t.Errorf("Timestamps not ascending: %v", got)
				}
			}

			// Pairs are independent.
			other, err := store.Timestamps(ctx, "Whitefield", "traffic")
			if err != nil {
				t.Fatalf("Timestamps failed: %v", err)
			}
			if len(other) != 1 {
				t.Errorf("Expected 1 timestamp for the other pair, got %d", len(other))
			}
		})
	}
}

func TestStore_UnknownPairIsEmpty(t *testing.T) {
	ctx := context.Background()

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := store.Timestamps(ctx, "Nowhere", "nothing")
			if err != nil {
				t.Fatalf("Timestamps failed: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("Expected empty history, got %v", got)
			}
		})
	}
}

func TestStore_Prune(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, time.July, 10, 8, 0, 0, 0, time.UTC)

	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for day := 0; day < 5; day++ {
				if err := store.RecordIncident(ctx, "HSR Layout", "flooding", base.AddDate(0, 0, day)); err != nil {
					t.Fatalf("RecordIncident failed: %v", err)
				}
			}

			removed, err := store.Prune(ctx, base.AddDate(0, 0, 3))
			if err != nil {
				t.Fatalf("Prune failed: %v", err)
			}
			if removed != 3 {
				t.Errorf("Expected 3 entries removed, got %d", removed)
			}

			got, err := store.Timestamps(ctx, "HSR Layout", "flooding")
			if err != nil {
				t.Fatalf("Timestamps failed: %v", err)
			}
			if len(got) != 2 {
				t.Errorf("Expected 2 surviving timestamps, got %d", len(got))
			}
			for _, ts := range got {
				if ts.Before(base.AddDate(0, 0, 3)) {
					t.Errorf("Pruned timestamp survived: %v", ts)
				}
			}

			// A second sweep finds nothing.
			removed, err = store.Prune(ctx, base.AddDate(0, 0, 3))
			if err != nil {
				t.Fatalf("Prune failed: %v", err)
			}
			if removed != 0 {
				t.Errorf("Expected idempotent prune, removed %d", removed)
			}
		})
	}
}

func TestMemoryStore_PruneDropsEmptyPairs(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, time.July, 10, 8, 0, 0, 0, time.UTC)

	store := NewMemoryStore()
	if err := store.RecordIncident(ctx, "BTM Layout", "maintenance", base); err != nil {
		t.Fatalf("RecordIncident failed: %v", err)
	}

	removed, err := store.Prune(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}

	got, _ := store.Timestamps(ctx, "BTM Layout", "maintenance")
	if len(got) != 0 {
		t.Errorf("Expected empty pair after full prune, got %v", got)
	}
}
