package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/mzurek/carledger/internal/domain"
)

// LedgerStore implements domain.LedgerStore on per-model JSON files.
type LedgerStore struct {
	client *Client
}

var _ domain.LedgerStore = (*LedgerStore)(nil)

// NewLedgerStore creates a LedgerStore over the given client.
func NewLedgerStore(client *Client) *LedgerStore {
	return &LedgerStore{client: client}
}

// Load reads the model's ledger file. A missing file returns ErrNotFound; a
// legacy flat-array file returns ErrLegacyFormat; an unparseable file is
// quarantined and reported as ErrNotFound so the caller restarts from an
// empty ledger.
func (s *LedgerStore) Load(ctx context.Context, model string) (*domain.Ledger, error) {
	path := s.client.ledgerPath(model)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("jsonfile: ledger for model %q: %w", model, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read ledger %q: %w", path, err)
	}

	if firstJSONByte(data) == '[' {
		return nil, fmt.Errorf("jsonfile: ledger for model %q: %w", model, domain.ErrLegacyFormat)
	}

	var ledger domain.Ledger
	if err := json.Unmarshal(data, &ledger); err != nil {
		s.client.quarantine(path, err)
		return nil, fmt.Errorf("jsonfile: ledger for model %q: %w", model, domain.ErrNotFound)
	}
	if ledger.Listings == nil {
		ledger.Listings = make(map[string]*domain.Listing)
	}
	if ledger.Metadata.Model == "" {
		ledger.Metadata.Model = model
	}
	return &ledger, nil
}

// LoadLegacy reads a legacy flat-array file for the model. A file already
// in the current ledger shape is an error; unparseable files are
// quarantined and reported as ErrNotFound.
func (s *LedgerStore) LoadLegacy(ctx context.Context, model string) ([]domain.LegacyRecord, error) {
	path := s.client.ledgerPath(model)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("jsonfile: legacy data for model %q: %w", model, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read legacy data %q: %w", path, err)
	}

	if firstJSONByte(data) != '[' {
		return nil, fmt.Errorf("jsonfile: model %q does not hold legacy flat-array data", model)
	}

	var records []domain.LegacyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.client.quarantine(path, err)
		return nil, fmt.Errorf("jsonfile: legacy data for model %q: %w", model, domain.ErrNotFound)
	}
	return records, nil
}

// Save writes the full ledger back as one unit.
func (s *LedgerStore) Save(ctx context.Context, ledger *domain.Ledger) error {
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: marshal ledger for model %q: %w", ledger.Metadata.Model, err)
	}
	if err := s.client.writeFile(s.client.ledgerPath(ledger.Metadata.Model), data); err != nil {
		return fmt.Errorf("jsonfile: save ledger for model %q: %w", ledger.Metadata.Model, err)
	}
	return nil
}

// Models lists model names under the data root: directories that are not
// hidden, not the plots directory, and contain a ledger file.
func (s *LedgerStore) Models(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.client.DataDir())
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read data dir %q: %w", s.client.DataDir(), err)
	}

	var models []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || name[0] == '.' || name == "plots" {
			continue
		}
		if _, err := os.Stat(s.client.ledgerPath(name)); err != nil {
			continue
		}
		models = append(models, name)
	}
	sort.Strings(models)
	return models, nil
}

// Stat describes the model's ledger file.
func (s *LedgerStore) Stat(ctx context.Context, model string) (domain.LedgerFileInfo, error) {
	path := s.client.ledgerPath(model)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return domain.LedgerFileInfo{}, fmt.Errorf("jsonfile: ledger for model %q: %w", model, domain.ErrNotFound)
	}
	if err != nil {
		return domain.LedgerFileInfo{}, fmt.Errorf("jsonfile: stat ledger %q: %w", path, err)
	}
	return domain.LedgerFileInfo{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}
