package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestIdentityStore_MissingFileLoadsEmpty(t *testing.T) {
	store := NewIdentityStore(newTestClient(t))

	mapping, err := store.Load(context.Background(), "bmw-i8")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(mapping) != 0 {
		t.Errorf("mapping = %v, want empty", mapping)
	}
}

func TestIdentityStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	store := NewIdentityStore(client)

	want := map[string]int{"ext-a": 1, "ext-b": 2, "ext-c": 3}
	if err := store.Save(ctx, "bmw-i8", want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "bmw-i8")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("mapping size = %d, want %d", len(got), len(want))
	}
	for ext, id := range want {
		if got[ext] != id {
			t.Errorf("mapping[%q] = %d, want %d", ext, got[ext], id)
		}
	}

	// The mapping lives next to the model's ledger.
	if _, err := os.Stat(filepath.Join(client.DataDir(), "bmw-i8", "id_mapping.json")); err != nil {
		t.Errorf("id_mapping.json missing: %v", err)
	}
}

func TestIdentityStore_CorruptFileDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	store := NewIdentityStore(client)

	dir := filepath.Join(client.DataDir(), "bmw-i8")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "id_mapping.json")
	if err := os.WriteFile(path, []byte("%%%"), 0o644); err != nil {
		t.Fatal(err)
	}

	mapping, err := store.Load(ctx, "bmw-i8")
	if err != nil {
		t.Fatalf("Load corrupt = %v, want empty map and nil error", err)
	}
	if len(mapping) != 0 {
		t.Errorf("mapping = %v, want empty", mapping)
	}
	matches, _ := filepath.Glob(path + ".corrupt-*")
	if len(matches) != 1 {
		t.Errorf("quarantine files = %v, want exactly one", matches)
	}
}
