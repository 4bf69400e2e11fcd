package service

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mzurek/carledger/internal/domain"
)

// memBlob is an in-memory domain.BlobWriter recording every uploaded object.
type memBlob struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemBlob() *memBlob {
	return &memBlob{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (b *memBlob) Put(ctx context.Context, key string, data io.Reader, contentType string) error {
	body, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = body
	b.types[key] = contentType
	return nil
}

func TestArchiveService_ArchiveLedgers(t *testing.T) {
	ctx := context.Background()
	_, ledgers, identities := newStores(t)
	listings := NewListingService(ledgers, identities, discard())

	batch := []domain.Observation{
		{ID: "a", Title: "Golf GTI", Price: 21000, Model: "vw-golf"},
	}
	if _, err := listings.StoreListings(ctx, "vw-golf", batch, "2025-02-01"); err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := listings.StoreListings(ctx, "audi-a4", []domain.Observation{
		{ID: "b", Title: "A4 Avant", Price: 31000, Model: "audi-a4"},
	}, "2025-02-01"); err != nil {
		t.Fatalf("store: %v", err)
	}

	blob := newMemBlob()
	archive := NewArchiveService(ledgers, blob, "carledger", 2, discard())

	n, err := archive.ArchiveLedgers(ctx)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if n != 2 {
		t.Fatalf("archived = %d, want 2", n)
	}

	var golfKey string
	for key := range blob.objects {
		if strings.HasPrefix(key, "carledger/ledgers/") && strings.HasSuffix(key, "/vw-golf.json") {
			golfKey = key
		}
	}
	if golfKey == "" {
		t.Fatalf("no vw-golf object uploaded, keys: %v", keysOf(blob.objects))
	}
	if ct := blob.types[golfKey]; ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var led domain.Ledger
	if err := json.Unmarshal(blob.objects[golfKey], &led); err != nil {
		t.Fatalf("uploaded ledger not valid json: %v", err)
	}
	if led.Metadata.Model != "vw-golf" || len(led.Listings) != 1 {
		t.Errorf("uploaded ledger = %+v", led.Metadata)
	}
}

func TestArchiveService_ArchiveFile(t *testing.T) {
	ctx := context.Background()
	_, ledgers, _ := newStores(t)

	path := filepath.Join(t.TempDir(), "history.csv")
	if err := os.WriteFile(path, []byte("id,price\na,1\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	blob := newMemBlob()
	archive := NewArchiveService(ledgers, blob, "carledger", 1, discard())

	if err := archive.ArchiveFile(ctx, path, "text/csv"); err != nil {
		t.Fatalf("archive file: %v", err)
	}

	found := false
	for key, body := range blob.objects {
		if strings.HasSuffix(key, "/history.csv") {
			found = true
			if string(body) != "id,price\na,1\n" {
				t.Errorf("uploaded body = %q", body)
			}
			if blob.types[key] != "text/csv" {
				t.Errorf("content type = %q", blob.types[key])
			}
		}
	}
	if !found {
		t.Fatalf("export object missing, keys: %v", keysOf(blob.objects))
	}
}

func keysOf(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
