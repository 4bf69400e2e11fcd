// Package identity assigns stable internal sequence numbers to externally
// observed listing ids, one mapping per model.
package identity

import (
	"context"
	"log/slog"

	"github.com/mzurek/carledger/internal/domain"
)

// NextID returns the internal id to assign next: one past the highest id
// already handed out, or 1 for an empty mapping. Allocation is strictly
// monotonic; ids of removed map entries are never reused, so an internal id
// refers to one external id for the lifetime of the data directory.
func NextID(mapping map[string]int) int {
	max := 0
	for _, id := range mapping {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// Mapper hands out internal ids for one model, persisting the mapping
// through an IdentityStore. Every assignment rewrites the mapping file
// immediately; call volume is bounded by scrape batch size, so no batching
// is needed. A failed save is logged and the mapper continues with its
// in-memory state, keeping assignments consistent for the process lifetime.
type Mapper struct {
	store   domain.IdentityStore
	model   string
	logger  *slog.Logger
	mapping map[string]int
}

// NewMapper creates a Mapper for the given model.
func NewMapper(store domain.IdentityStore, model string, logger *slog.Logger) *Mapper {
	return &Mapper{
		store:  store,
		model:  model,
		logger: logger.With(slog.String("component", "identity"), slog.String("model", model)),
	}
}

// InternalID returns the internal id for externalID, assigning and
// persisting a new one on first sight. Repeated calls with the same id
// always return the same value.
func (m *Mapper) InternalID(ctx context.Context, externalID string) int {
	if m.mapping == nil {
		m.load(ctx)
	}

	if id, ok := m.mapping[externalID]; ok {
		return id
	}

	id := NextID(m.mapping)
	m.mapping[externalID] = id

	if err := m.store.Save(ctx, m.model, m.mapping); err != nil {
		m.logger.ErrorContext(ctx, "saving id mapping failed, continuing in memory",
			slog.String("external_id", externalID),
			slog.String("error", err.Error()),
		)
	}

	return id
}

// Size returns the number of external ids mapped so far.
func (m *Mapper) Size(ctx context.Context) int {
	if m.mapping == nil {
		m.load(ctx)
	}
	return len(m.mapping)
}

func (m *Mapper) load(ctx context.Context) {
	mapping, err := m.store.Load(ctx, m.model)
	if err != nil {
		m.logger.WarnContext(ctx, "could not load id mapping, starting empty",
			slog.String("error", err.Error()),
		)
		mapping = nil
	}
	if mapping == nil {
		mapping = make(map[string]int)
	}
	m.mapping = mapping
}
