package archive

import (
	"context"
	"testing"
)

func TestLocalStore_RoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error: %v", err)
	}
	ctx := context.Background()

	key := Key(2026, 8, 26, "run-abc")
	if key != "reports/2026/08/26/run-abc.csv" {
		t.Fatalf("Key() = %q", key)
	}

	exists, err := store.Exists(ctx, key)
	if err != nil || exists {
		t.Fatalf("Exists() before Put = %v, %v", exists, err)
	}

	data := []byte("ticker,weight\nAAPL,0.5\n")
	if err := store.Put(ctx, key, data); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	exists, err = store.Exists(ctx, key)
	if err != nil || !exists {
		t.Fatalf("Exists() after Put = %v, %v", exists, err)
	}

	got, err := store.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("Get() = %q, want %q", got, data)
	}
}

func TestLocalStore_List(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	keys := []string{
		Key(2026, 8, 25, "run-1"),
		Key(2026, 8, 26, "run-2"),
		Key(2026, 8, 26, "run-3"),
	}
	for _, k := range keys {
		if err := store.Put(ctx, k, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.List(ctx, "reports/2026/08/26")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List() returned %d keys, want 2: %v", len(got), got)
	}

	all, err := store.List(ctx, "reports")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("List(reports) returned %d keys, want 3", len(all))
	}

	empty, err := store.List(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("List() on missing prefix error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("List() on missing prefix = %v, want empty", empty)
	}
}

func TestLocalStore_Delete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	key := Key(2026, 1, 2, "run-del")
	if err := store.Put(ctx, key, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	exists, err := store.Exists(ctx, key)
	if err != nil || exists {
		t.Errorf("Exists() after Delete = %v, %v", exists, err)
	}
}
