package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mzurek/carledger/internal/domain"
)

// StatusService is the read-only reporter over one or many model ledgers.
type StatusService struct {
	ledgers domain.LedgerStore
	logger  *slog.Logger
}

// NewStatusService creates a StatusService over the given ledger store.
func NewStatusService(ledgers domain.LedgerStore, logger *slog.Logger) *StatusService {
	return &StatusService{
		ledgers: ledgers,
		logger:  logger.With(slog.String("component", "status_service")),
	}
}

// Status reports the per-model operational summary for every model under
// the data root. A model whose ledger cannot be read contributes a status
// carrying the error instead of failing the run.
func (s *StatusService) Status(ctx context.Context) ([]domain.ModelStatus, error) {
	models, err := s.ledgers.Models(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: status: %w", err)
	}

	statuses := make([]domain.ModelStatus, 0, len(models))
	for _, model := range models {
		statuses = append(statuses, s.modelStatus(ctx, model))
	}
	return statuses, nil
}

func (s *StatusService) modelStatus(ctx context.Context, model string) domain.ModelStatus {
	status := domain.ModelStatus{Model: model}

	if info, err := s.ledgers.Stat(ctx, model); err == nil {
		status.FileSize = info.Size
	}

	led, err := s.ledgers.Load(ctx, model)
	if errors.Is(err, domain.ErrLegacyFormat) {
		records, legacyErr := s.ledgers.LoadLegacy(ctx, model)
		if legacyErr != nil {
			status.Error = legacyErr.Error()
			return status
		}
		status.Legacy = true
		status.TotalListings = len(records)
		status.LastUpdated = "unknown (legacy format)"
		return status
	}
	if err != nil {
		status.Error = err.Error()
		return status
	}

	status.TotalListings = led.Metadata.TotalListings
	status.TotalPriceReadings = led.Metadata.TotalPriceReadings
	if !led.Metadata.LastUpdated.IsZero() {
		status.LastUpdated = led.Metadata.LastUpdated.UTC().Format(time.RFC3339)
	}
	return status
}

// Stats computes summary statistics over one model's ledger.
func (s *StatusService) Stats(ctx context.Context, model string) (domain.ModelStats, error) {
	led, err := s.ledgers.Load(ctx, model)
	if err != nil {
		return domain.ModelStats{}, fmt.Errorf("service: stats for model %q: %w", model, err)
	}

	stats := domain.ModelStats{
		Model:         model,
		TotalListings: len(led.Listings),
	}
	if stats.TotalListings == 0 {
		return stats, nil
	}

	var priceSum int
	for _, entry := range led.Listings {
		priceSum += entry.CurrentPrice
		if len(entry.PriceReadings) > 1 {
			stats.WithPriceChanges++
		}
	}
	stats.AverageCurrentPrice = float64(priceSum) / float64(stats.TotalListings)
	return stats, nil
}
