package audit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRecordAndRecent(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := store.Record(ctx, Entry{Time: time.Now(), ConnID: "c1", Code: "11", Name: "Checkout", OK: true})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d; want 3", len(entries))
	}
	if entries[0].ID == 0 {
		t.Errorf("entries should be assigned non-zero IDs")
	}
}

func TestMemoryStoreDropsOldestPastCapacity(t *testing.T) {
	store := NewMemoryStore(2)
	ctx := context.Background()

	store.Record(ctx, Entry{Code: "11"})
	store.Record(ctx, Entry{Code: "12"})
	store.Record(ctx, Entry{Code: "09"})

	entries, _ := store.Recent(ctx, 10)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d; want 2 (capacity enforced)", len(entries))
	}
	if entries[0].Code != "12" || entries[1].Code != "09" {
		t.Errorf("expected oldest entry to be dropped, got %+v", entries)
	}
}

func TestMemoryStoreRecentRespectsLimit(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		store.Record(ctx, Entry{Code: "11"})
	}
	entries, _ := store.Recent(ctx, 2)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d; want 2", len(entries))
	}
}

func TestNewMemoryStoreDefaultsCapacity(t *testing.T) {
	store := NewMemoryStore(0)
	if store.cap != 1000 {
		t.Errorf("cap = %d; want default 1000", store.cap)
	}
}
