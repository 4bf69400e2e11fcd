package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mzurek/carledger/internal/domain"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func testLedger(model string) *domain.Ledger {
	l := domain.NewLedger(model)
	l.Listings["ext-1"] = &domain.Listing{
		ID:                   "ext-1",
		InternalID:           1,
		Title:                "BMW i8",
		InitialPrice:         1000,
		CurrentPrice:         900,
		Model:                model,
		FirstSeen:            "2025-01-01",
		LastSeen:             "2025-01-02",
		FirstScrapeTimestamp: 1735718400,
		LastScrapeTimestamp:  1735804800,
		PriceChange:          -100,
		PriceReadings: []domain.PriceReading{
			{Timestamp: 1735718400, Price: 1000},
			{Timestamp: 1735804800, Price: 900},
		},
	}
	l.Metadata.TotalListings = 1
	l.Metadata.TotalPriceReadings = 2
	l.Metadata.LastUpdated = time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
	return l
}

func TestLedgerStore_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(newTestClient(t))

	if err := store.Save(ctx, testLedger("bmw-i8")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "bmw-i8")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry := got.Listings["ext-1"]
	if entry == nil {
		t.Fatal("entry missing after round trip")
	}
	if entry.InitialPrice != 1000 || entry.CurrentPrice != 900 || entry.PriceChange != -100 {
		t.Errorf("prices after round trip: %+v", entry)
	}
	if len(entry.PriceReadings) != 2 || entry.PriceReadings[0].Price != 1000 {
		t.Errorf("readings after round trip: %+v", entry.PriceReadings)
	}
	if got.Metadata.Model != "bmw-i8" || got.Metadata.TotalPriceReadings != 2 {
		t.Errorf("metadata after round trip: %+v", got.Metadata)
	}
}

func TestLedgerStore_ReadingsPersistAsPairs(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	store := NewLedgerStore(client)

	if err := store.Save(ctx, testLedger("bmw-i8")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, err := os.ReadFile(client.ledgerPath("bmw-i8"))
	if err != nil {
		t.Fatalf("read ledger file: %v", err)
	}

	// The companion tooling reads price_readings as [timestamp, price]
	// pairs, not objects.
	var doc struct {
		Listings map[string]struct {
			PriceReadings [][2]int64 `json:"price_readings"`
		} `json:"listings"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("price_readings not serialised as pairs: %v\n%s", err, raw)
	}
	readings := doc.Listings["ext-1"].PriceReadings
	if len(readings) != 2 || readings[0] != [2]int64{1735718400, 1000} {
		t.Errorf("readings on disk: %v", readings)
	}
}

func TestLedgerStore_LoadMissing(t *testing.T) {
	store := NewLedgerStore(newTestClient(t))

	_, err := store.Load(context.Background(), "no-such-model")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Load missing = %v, want ErrNotFound", err)
	}
}

func TestLedgerStore_LoadLegacyDetection(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	store := NewLedgerStore(client)

	dir := filepath.Join(client.DataDir(), "bmw-i8")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	legacy := `[{"id":"ext-1","title":"BMW i8","price":1000,"url":"https://example.com/1",
		"model":"bmw-i8","scrape_date":"2025-01-01T10:00:00","scrape_timestamp":1735725600}]`
	if err := os.WriteFile(filepath.Join(dir, "bmw-i8.json"), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Load(ctx, "bmw-i8"); !errors.Is(err, domain.ErrLegacyFormat) {
		t.Errorf("Load legacy file = %v, want ErrLegacyFormat", err)
	}

	records, err := store.LoadLegacy(ctx, "bmw-i8")
	if err != nil {
		t.Fatalf("LoadLegacy: %v", err)
	}
	if len(records) != 1 || records[0].Price != 1000 || records[0].ID != "ext-1" {
		t.Errorf("legacy records: %+v", records)
	}
}

func TestLedgerStore_CorruptFileQuarantined(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	store := NewLedgerStore(client)

	dir := filepath.Join(client.DataDir(), "bmw-i8")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "bmw-i8.json")
	if err := os.WriteFile(path, []byte("{not json at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := store.Load(ctx, "bmw-i8")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Load corrupt = %v, want ErrNotFound (treated as absent)", err)
	}

	// The bad file must be renamed out of the way, not left to be
	// silently overwritten by the next save.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt file still in place")
	}
	matches, _ := filepath.Glob(path + ".corrupt-*")
	if len(matches) != 1 {
		t.Errorf("quarantine files = %v, want exactly one", matches)
	}
}

func TestLedgerStore_Models(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	store := NewLedgerStore(client)

	for _, model := range []string{"lexus-lc", "bmw-i8"} {
		if err := store.Save(ctx, testLedger(model)); err != nil {
			t.Fatalf("Save %s: %v", model, err)
		}
	}
	// Directories that are hidden, reserved, or empty are not models.
	for _, dir := range []string{"plots", ".cache", "empty-dir"} {
		if err := os.MkdirAll(filepath.Join(client.DataDir(), dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}

	models, err := store.Models(ctx)
	if err != nil {
		t.Fatalf("Models: %v", err)
	}
	if len(models) != 2 || models[0] != "bmw-i8" || models[1] != "lexus-lc" {
		t.Errorf("Models = %v, want [bmw-i8 lexus-lc]", models)
	}
}

func TestLedgerStore_Stat(t *testing.T) {
	ctx := context.Background()
	store := NewLedgerStore(newTestClient(t))

	if _, err := store.Stat(ctx, "bmw-i8"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Stat missing = %v, want ErrNotFound", err)
	}

	if err := store.Save(ctx, testLedger("bmw-i8")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := store.Stat(ctx, "bmw-i8")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Size <= 0 {
		t.Errorf("file size = %d, want > 0", info.Size)
	}
}

func TestLedgerStore_ModelNameSanitised(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	store := NewLedgerStore(client)

	if err := store.Save(ctx, testLedger("bmw/i8")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(client.DataDir(), "bmw_i8", "bmw_i8.json")); err != nil {
		t.Errorf("sanitised ledger path missing: %v", err)
	}
}
