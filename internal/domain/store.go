package domain

import (
	"context"
	"io"
	"time"
)

// LedgerFileInfo describes a model's persisted ledger file.
type LedgerFileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// LedgerStore persists per-model ledgers.
//
// Stores assume a single writer per data directory: each store call is a
// full load-mutate-save cycle with no locking, and concurrent writers from
// separate processes race last-writer-wins at the file level.
type LedgerStore interface {
	// Load reads the model's ledger. It returns ErrNotFound when no
	// ledger file exists and ErrLegacyFormat when the file holds the
	// legacy flat-array shape.
	Load(ctx context.Context, model string) (*Ledger, error)

	// LoadLegacy reads a legacy flat-array file for the model. It
	// returns ErrNotFound when no file exists.
	LoadLegacy(ctx context.Context, model string) ([]LegacyRecord, error)

	// Save writes the ledger back as one unit.
	Save(ctx context.Context, ledger *Ledger) error

	// Models enumerates the model names present under the data root.
	Models(ctx context.Context) ([]string, error)

	// Stat describes the model's ledger file, returning ErrNotFound
	// when it is absent.
	Stat(ctx context.Context, model string) (LedgerFileInfo, error)
}

// IdentityStore persists the per-model mapping from external listing id to
// internal sequence number. A missing or unreadable map loads as empty;
// entries are never deleted.
type IdentityStore interface {
	Load(ctx context.Context, model string) (map[string]int, error)
	Save(ctx context.Context, model string, mapping map[string]int) error
}

// BlobWriter uploads objects to external blob storage.
type BlobWriter interface {
	Put(ctx context.Context, key string, data io.Reader, contentType string) error
}
