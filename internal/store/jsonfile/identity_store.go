package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mzurek/carledger/internal/domain"
)

// IdentityStore implements domain.IdentityStore on per-model
// id_mapping.json files kept alongside each model's ledger.
type IdentityStore struct {
	client *Client
}

var _ domain.IdentityStore = (*IdentityStore)(nil)

// NewIdentityStore creates an IdentityStore over the given client.
func NewIdentityStore(client *Client) *IdentityStore {
	return &IdentityStore{client: client}
}

// Load reads the model's id mapping. A missing file yields an empty map
// with no error; an unparseable file is quarantined and likewise degrades
// to an empty map.
func (s *IdentityStore) Load(ctx context.Context, model string) (map[string]int, error) {
	path := s.client.identityPath(model)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("jsonfile: read id mapping %q: %w", path, err)
	}

	mapping := make(map[string]int)
	if err := json.Unmarshal(data, &mapping); err != nil {
		s.client.quarantine(path, err)
		return make(map[string]int), nil
	}
	return mapping, nil
}

// Save writes the full mapping back. Called on every assignment; the write
// volume is bounded by scrape batch size.
func (s *IdentityStore) Save(ctx context.Context, model string, mapping map[string]int) error {
	data, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: marshal id mapping for model %q: %w", model, err)
	}
	if err := s.client.writeFile(s.client.identityPath(model), data); err != nil {
		return fmt.Errorf("jsonfile: save id mapping for model %q: %w", model, err)
	}
	return nil
}
