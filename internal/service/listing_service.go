// Package service orchestrates the reconciliation engine, identity mapping,
// and the flattened historical view over the persisted stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mzurek/carledger/internal/domain"
	"github.com/mzurek/carledger/internal/identity"
	"github.com/mzurek/carledger/internal/ledger"
)

// ListingService owns read-modify-write access to model ledgers. Each call
// is a full load-merge-save cycle; the service assumes it is the only
// writer for its data directory.
type ListingService struct {
	ledgers    domain.LedgerStore
	identities domain.IdentityStore
	logger     *slog.Logger
	now        func() time.Time
}

// NewListingService creates a ListingService with all required dependencies.
func NewListingService(ledgers domain.LedgerStore, identities domain.IdentityStore, logger *slog.Logger) *ListingService {
	return &ListingService{
		ledgers:    ledgers,
		identities: identities,
		logger:     logger.With(slog.String("component", "listing_service")),
		now:        time.Now,
	}
}

// StoreListings merges a scraped observation batch into the model's ledger
// and persists the result. date is the scrape day (YYYY-MM-DD). An empty
// batch is a logged no-op. The returned ledger reflects the merge even when
// persisting failed; in that case the error reports the write failure.
func (s *ListingService) StoreListings(ctx context.Context, model string, batch []domain.Observation, date string) (*domain.Ledger, error) {
	if len(batch) == 0 {
		s.logger.WarnContext(ctx, "no listings in batch, skipping store",
			slog.String("model", model),
			slog.String("date", date),
		)
		return nil, nil
	}

	led, err := s.loadOrCreate(ctx, model)
	if err != nil {
		return nil, err
	}

	mapper := identity.NewMapper(s.identities, model, s.logger)
	assign := func(externalID string) int {
		return mapper.InternalID(ctx, externalID)
	}

	res := ledger.Reconcile(led, batch, date, s.now().UTC(), assign)

	runID := uuid.NewString()
	s.logger.InfoContext(ctx, "listings reconciled",
		slog.String("model", model),
		slog.String("date", date),
		slog.String("run_id", runID),
		slog.Int("total", res.Total),
		slog.Int("new", res.New),
		slog.Int("changed", res.Changed),
		slog.Int("skipped", res.Skipped),
	)

	if err := s.ledgers.Save(ctx, led); err != nil {
		s.logger.ErrorContext(ctx, "saving ledger failed",
			slog.String("model", model),
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
		return led, fmt.Errorf("service: store listings for model %q: %w", model, err)
	}

	return led, nil
}

// CleanDuplicateReadings removes price readings that repeat an earlier
// reading's calendar day, keeping the first reading of each day. With
// dryRun set it only reports what would be removed. Returns the number of
// readings removed (or that would be).
func (s *ListingService) CleanDuplicateReadings(ctx context.Context, model string, dryRun bool) (int, error) {
	led, err := s.ledgers.Load(ctx, model)
	if err != nil {
		return 0, fmt.Errorf("service: clean model %q: %w", model, err)
	}

	removed := 0
	for _, entry := range led.Listings {
		seen := make(map[string]bool, len(entry.PriceReadings))
		kept := make([]domain.PriceReading, 0, len(entry.PriceReadings))
		for _, r := range entry.PriceReadings {
			day := r.Date()
			if seen[day] {
				removed++
				continue
			}
			seen[day] = true
			kept = append(kept, r)
		}
		if !dryRun {
			entry.PriceReadings = kept
		}
	}

	if removed == 0 {
		s.logger.InfoContext(ctx, "no duplicate readings found", slog.String("model", model))
		return 0, nil
	}

	if dryRun {
		s.logger.InfoContext(ctx, "dry run, duplicates left in place",
			slog.String("model", model),
			slog.Int("would_remove", removed),
		)
		return removed, nil
	}

	led.Metadata.LastUpdated = s.now().UTC()
	led.Metadata.TotalPriceReadings = led.TotalPriceReadings()
	if err := s.ledgers.Save(ctx, led); err != nil {
		return removed, fmt.Errorf("service: clean model %q: %w", model, err)
	}
	s.logger.InfoContext(ctx, "duplicate readings removed",
		slog.String("model", model),
		slog.Int("removed", removed),
	)
	return removed, nil
}

func (s *ListingService) loadOrCreate(ctx context.Context, model string) (*domain.Ledger, error) {
	led, err := s.ledgers.Load(ctx, model)
	switch {
	case err == nil:
		return led, nil
	case errors.Is(err, domain.ErrNotFound):
		return domain.NewLedger(model), nil
	case errors.Is(err, domain.ErrLegacyFormat):
		// Legacy files are read-only; refusing the write protects them
		// from being replaced by a ledger seeded from one batch.
		return nil, fmt.Errorf("service: model %q holds legacy data, migrate before storing: %w", model, err)
	default:
		return nil, fmt.Errorf("service: load ledger for model %q: %w", model, err)
	}
}
