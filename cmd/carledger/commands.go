package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	s3blob "github.com/mzurek/carledger/internal/blob/s3"
	"github.com/mzurek/carledger/internal/domain"
	"github.com/mzurek/carledger/internal/export"
	"github.com/mzurek/carledger/internal/service"
)

// cmdSync reconciles one scraped batch file into a model's ledger.
func cmdSync(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	model := fs.String("model", "", "model identifier, e.g. bmw-i4")
	batchPath := fs.String("batch", "", "path to a JSON array of scraped listings")
	date := fs.String("date", time.Now().UTC().Format("2006-01-02"), "scrape date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *model == "" || *batchPath == "" {
		return fmt.Errorf("-model and -batch are required")
	}

	data, err := os.ReadFile(*batchPath)
	if err != nil {
		return fmt.Errorf("read batch: %w", err)
	}
	var batch []domain.Observation
	if err := json.Unmarshal(data, &batch); err != nil {
		return fmt.Errorf("parse batch %q: %w", *batchPath, err)
	}

	listings := service.NewListingService(a.ledgers, a.identities, a.logger)
	led, err := listings.StoreListings(ctx, *model, batch, *date)
	if err != nil {
		return err
	}
	if led == nil {
		fmt.Println("batch was empty, nothing stored")
		return nil
	}
	fmt.Printf("stored %d listings for %s (%d price readings)\n",
		led.Metadata.TotalListings, *model, led.Metadata.TotalPriceReadings)
	return nil
}

// cmdHistory prints the flattened historical view as a JSON array.
func cmdHistory(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	model := fs.String("model", "", "model identifier (empty for all models)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	history := service.NewHistoryService(a.ledgers, a.logger)
	rows, err := history.HistoricalData(ctx, *model)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// cmdStatus prints a one-line summary per model ledger.
func cmdStatus(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	status := service.NewStatusService(a.ledgers, a.logger)
	statuses, err := status.Status(ctx)
	if err != nil {
		return err
	}
	if len(statuses) == 0 {
		fmt.Println("no model ledgers found")
		return nil
	}

	for _, st := range statuses {
		switch {
		case st.Error != "":
			fmt.Printf("%-24s ERROR %s\n", st.Model, st.Error)
		case st.Legacy:
			fmt.Printf("%-24s %4d listings (legacy format) %8d bytes\n",
				st.Model, st.TotalListings, st.FileSize)
		default:
			fmt.Printf("%-24s %4d listings %5d readings  updated %s  %8d bytes\n",
				st.Model, st.TotalListings, st.TotalPriceReadings, st.LastUpdated, st.FileSize)
		}
	}
	return nil
}

// cmdStats prints summary statistics for a single model.
func cmdStats(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	model := fs.String("model", "", "model identifier")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *model == "" {
		return fmt.Errorf("-model is required")
	}

	status := service.NewStatusService(a.ledgers, a.logger)
	stats, err := status.Stats(ctx, *model)
	if err != nil {
		return err
	}

	fmt.Printf("model:               %s\n", stats.Model)
	fmt.Printf("listings:            %d\n", stats.TotalListings)
	fmt.Printf("with price changes:  %d\n", stats.WithPriceChanges)
	fmt.Printf("avg current price:   %.0f\n", stats.AverageCurrentPrice)
	return nil
}

// cmdExport writes the flattened history to a file, then optionally uploads
// it when S3 archiving is enabled.
func cmdExport(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	model := fs.String("model", "", "model identifier (empty for all models)")
	format := fs.String("format", a.cfg.Export.Format, "output format: csv or xlsx")
	out := fs.String("out", "", "output path (defaults to the configured export dir)")
	upload := fs.Bool("upload", false, "also upload the export to S3 (requires s3.enabled)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	history := service.NewHistoryService(a.ledgers, a.logger)
	rows, err := history.HistoricalData(ctx, *model)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		name := "all-models"
		if *model != "" {
			name = *model
		}
		path = filepath.Join(a.cfg.Export.Dir,
			fmt.Sprintf("%s-%s.%s", name, time.Now().UTC().Format("2006-01-02"), *format))
	}

	if err := export.Write(path, strings.ToLower(*format), rows); err != nil {
		return err
	}
	fmt.Printf("wrote %d rows to %s\n", len(rows), path)

	if *upload {
		archive, err := newArchiveService(ctx, a)
		if err != nil {
			return err
		}
		contentType := "text/csv"
		if strings.ToLower(*format) == export.FormatXLSX {
			contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		}
		if err := archive.ArchiveFile(ctx, path, contentType); err != nil {
			return err
		}
		fmt.Println("export uploaded")
	}
	return nil
}

// cmdClean drops duplicate same-day price readings from a model's ledger.
func cmdClean(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("clean", flag.ExitOnError)
	model := fs.String("model", "", "model identifier")
	dryRun := fs.Bool("dry-run", false, "report duplicates without modifying the ledger")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *model == "" {
		return fmt.Errorf("-model is required")
	}

	listings := service.NewListingService(a.ledgers, a.identities, a.logger)
	removed, err := listings.CleanDuplicateReadings(ctx, *model, *dryRun)
	if err != nil {
		return err
	}
	if *dryRun {
		fmt.Printf("would remove %d duplicate readings from %s\n", removed, *model)
	} else {
		fmt.Printf("removed %d duplicate readings from %s\n", removed, *model)
	}
	return nil
}

// cmdArchive uploads a snapshot of every model ledger to S3.
func cmdArchive(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("archive", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	archive, err := newArchiveService(ctx, a)
	if err != nil {
		return err
	}
	n, err := archive.ArchiveLedgers(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("archived %d ledgers\n", n)
	return nil
}

// newArchiveService builds the S3 client and archive service from config.
func newArchiveService(ctx context.Context, a *app) (*service.ArchiveService, error) {
	if !a.cfg.S3.Enabled {
		return nil, fmt.Errorf("s3 archiving is disabled; set s3.enabled = true")
	}

	client, err := s3blob.New(ctx, s3blob.ClientConfig{
		Endpoint:       a.cfg.S3.Endpoint,
		Region:         a.cfg.S3.Region,
		Bucket:         a.cfg.S3.Bucket,
		AccessKey:      a.cfg.S3.AccessKey,
		SecretKey:      a.cfg.S3.SecretKey,
		UseSSL:         a.cfg.S3.UseSSL,
		ForcePathStyle: a.cfg.S3.ForcePathStyle,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Health(ctx); err != nil {
		return nil, err
	}

	writer := s3blob.NewWriter(client)
	return service.NewArchiveService(a.ledgers, writer,
		a.cfg.Archive.Prefix, a.cfg.Archive.Concurrency, a.logger), nil
}
