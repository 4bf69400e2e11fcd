package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mzurek/carledger/internal/domain"
)

// HistoryService builds the flattened historical view: one row per
// point-in-time observation, for analysis and export consumers. It never
// mutates ledgers.
type HistoryService struct {
	ledgers domain.LedgerStore
	logger  *slog.Logger
}

// NewHistoryService creates a HistoryService over the given ledger store.
func NewHistoryService(ledgers domain.LedgerStore, logger *slog.Logger) *HistoryService {
	return &HistoryService{
		ledgers: ledgers,
		logger:  logger.With(slog.String("component", "history_service")),
	}
}

// HistoricalData returns the flat view for one model, or for every model
// under the data root when model is empty. Rows are not time-sorted.
//
// A model with no ledger at all yields ErrNotFound; a ledger that produces
// zero rows yields ErrEmptyData. Legacy flat-array files are converted
// read-only, each record becoming one independent row.
func (s *HistoryService) HistoricalData(ctx context.Context, model string) ([]domain.HistoryRow, error) {
	if model != "" {
		return s.modelRows(ctx, model)
	}

	models, err := s.ledgers.Models(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: list models: %w", err)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("service: historical data: %w", domain.ErrNotFound)
	}

	var rows []domain.HistoryRow
	for _, m := range models {
		modelRows, err := s.modelRows(ctx, m)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrEmptyData) {
				s.logger.WarnContext(ctx, "skipping model without usable data",
					slog.String("model", m),
					slog.String("reason", err.Error()),
				)
				continue
			}
			return nil, err
		}
		rows = append(rows, modelRows...)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("service: historical data: %w", domain.ErrEmptyData)
	}
	return rows, nil
}

func (s *HistoryService) modelRows(ctx context.Context, model string) ([]domain.HistoryRow, error) {
	led, err := s.ledgers.Load(ctx, model)
	if errors.Is(err, domain.ErrLegacyFormat) {
		return s.legacyRows(ctx, model)
	}
	if err != nil {
		return nil, fmt.Errorf("service: historical data for model %q: %w", model, err)
	}

	rows := make([]domain.HistoryRow, 0, len(led.Listings))
	for _, entry := range led.Listings {
		rows = append(rows, flatten(entry)...)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("service: historical data for model %q: %w", model, domain.ErrEmptyData)
	}
	return rows, nil
}

// flatten emits the entry's current state as one row, then one row per
// price reading except the most recent, which the current row already
// represents.
func flatten(entry *domain.Listing) []domain.HistoryRow {
	current := domain.HistoryRow{
		ID:              entry.ID,
		InternalID:      strconv.Itoa(entry.InternalID),
		Title:           entry.Title,
		Price:           entry.CurrentPrice,
		Year:            entry.Year,
		Mileage:         entry.Mileage,
		URL:             entry.URL,
		Model:           entry.Model,
		Date:            entry.LastSeen,
		ScrapeTimestamp: entry.LastScrapeTimestamp,
	}

	rows := []domain.HistoryRow{current}
	if len(entry.PriceReadings) < 2 {
		return rows
	}
	for _, r := range entry.PriceReadings[:len(entry.PriceReadings)-1] {
		row := current
		row.Price = r.Price
		row.Date = r.Date()
		row.ScrapeTimestamp = r.Timestamp
		rows = append(rows, row)
	}
	return rows
}

func (s *HistoryService) legacyRows(ctx context.Context, model string) ([]domain.HistoryRow, error) {
	records, err := s.ledgers.LoadLegacy(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("service: legacy data for model %q: %w", model, err)
	}

	s.logger.InfoContext(ctx, "reading legacy flat-array data",
		slog.String("model", model),
		slog.Int("records", len(records)),
	)

	rows := make([]domain.HistoryRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, domain.HistoryRow{
			ID: rec.ID,
			// Legacy data predates identity mapping; the external id
			// stands in for the internal one.
			InternalID:      rec.ID,
			Title:           rec.Title,
			Price:           rec.Price,
			Year:            rec.Year,
			Mileage:         rec.Mileage,
			URL:             rec.URL,
			Model:           rec.Model,
			Date:            legacyDate(rec),
			ScrapeTimestamp: rec.ScrapeTimestamp,
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("service: legacy data for model %q: %w", model, domain.ErrEmptyData)
	}
	return rows, nil
}

// legacyDate picks the record's day: the explicit date field when present,
// else the day prefix of its scrape_date.
func legacyDate(rec domain.LegacyRecord) string {
	if rec.Date != "" {
		return rec.Date
	}
	day, _, _ := strings.Cut(rec.ScrapeDate, "T")
	return day
}
