package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mzurek/carledger/internal/domain"
)

// ArchiveService uploads ledger snapshots and export files to blob storage
// for off-machine retention. It reads ledgers through the store and never
// mutates them.
type ArchiveService struct {
	ledgers     domain.LedgerStore
	blob        domain.BlobWriter
	prefix      string
	concurrency int
	logger      *slog.Logger
}

// NewArchiveService creates an ArchiveService. prefix is prepended to every
// object key; concurrency bounds parallel uploads (minimum 1).
func NewArchiveService(ledgers domain.LedgerStore, blob domain.BlobWriter, prefix string, concurrency int, logger *slog.Logger) *ArchiveService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ArchiveService{
		ledgers:     ledgers,
		blob:        blob,
		prefix:      prefix,
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "archive_service")),
	}
}

// ArchiveLedgers uploads a snapshot of every model ledger under a
// date-stamped key prefix. Legacy-format models are skipped with a warning.
// Returns the number of ledgers archived.
func (s *ArchiveService) ArchiveLedgers(ctx context.Context) (int, error) {
	models, err := s.ledgers.Models(ctx)
	if err != nil {
		return 0, fmt.Errorf("service: archive ledgers: %w", err)
	}

	runID := uuid.NewString()
	day := time.Now().UTC().Format("2006-01-02")
	s.logger.InfoContext(ctx, "starting ledger archive run",
		slog.String("run_id", runID),
		slog.Int("models", len(models)),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	var archived atomic.Int64
	for _, model := range models {
		model := model
		g.Go(func() error {
			led, err := s.ledgers.Load(ctx, model)
			if err != nil {
				s.logger.WarnContext(ctx, "skipping model in archive run",
					slog.String("model", model),
					slog.String("run_id", runID),
					slog.String("reason", err.Error()),
				)
				return nil
			}
			data, err := json.Marshal(led)
			if err != nil {
				return fmt.Errorf("service: marshal ledger for model %q: %w", model, err)
			}
			key := path.Join(s.prefix, "ledgers", day, model+".json")
			if err := s.blob.Put(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
				return fmt.Errorf("service: archive ledger for model %q: %w", model, err)
			}
			archived.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(archived.Load()), err
	}

	s.logger.InfoContext(ctx, "ledger archive run complete",
		slog.String("run_id", runID),
		slog.Int64("archived", archived.Load()),
	)
	return int(archived.Load()), nil
}

// ArchiveFile uploads one local file (typically an export) under the
// configured prefix, keyed by its base name and today's date.
func (s *ArchiveService) ArchiveFile(ctx context.Context, localPath, contentType string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("service: archive file %q: %w", localPath, err)
	}
	defer f.Close()

	day := time.Now().UTC().Format("2006-01-02")
	key := path.Join(s.prefix, "exports", day, filepath.Base(localPath))
	if err := s.blob.Put(ctx, key, f, contentType); err != nil {
		return fmt.Errorf("service: archive file %q: %w", localPath, err)
	}

	s.logger.InfoContext(ctx, "export archived",
		slog.String("path", localPath),
		slog.String("key", key),
	)
	return nil
}
