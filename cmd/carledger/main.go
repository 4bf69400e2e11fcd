// Command carledger maintains per-model car listing ledgers: it reconciles
// scraped listing batches into JSON ledger files, builds flattened price
// histories, and reports on the health of the persisted data.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mzurek/carledger/internal/config"
	"github.com/mzurek/carledger/internal/store/jsonfile"
)

const usage = `usage: carledger [-config path] <command> [flags]

commands:
  sync      reconcile a scraped batch into a model ledger
  history   print the flattened price history as JSON
  status    summarise every model ledger
  stats     print summary statistics for one model
  export    write the price history to a csv or xlsx file
  clean     drop duplicate same-day price readings
  archive   upload ledger snapshots to S3-compatible storage
`

func main() {
	configPath := flag.String("config", "", "path to configuration file (optional)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// Rebuild the logger at the configured level.
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	client, err := jsonfile.NewClient(cfg.DataDir, logger)
	if err != nil {
		logger.Error("failed to open data dir",
			slog.String("data_dir", cfg.DataDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	a := &app{
		cfg:        cfg,
		logger:     logger,
		ledgers:    jsonfile.NewLedgerStore(client),
		identities: jsonfile.NewIdentityStore(client),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, a, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "carledger %s: %v\n", args[0], err)
		os.Exit(1)
	}
}

// app bundles the shared dependencies every subcommand needs. The tool is a
// short-lived CLI, so services are built per command rather than held here.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	ledgers    *jsonfile.LedgerStore
	identities *jsonfile.IdentityStore
}

func run(ctx context.Context, a *app, command string, args []string) error {
	switch command {
	case "sync":
		return cmdSync(ctx, a, args)
	case "history":
		return cmdHistory(ctx, a, args)
	case "status":
		return cmdStatus(ctx, a, args)
	case "stats":
		return cmdStats(ctx, a, args)
	case "export":
		return cmdExport(ctx, a, args)
	case "clean":
		return cmdClean(ctx, a, args)
	case "archive":
		return cmdArchive(ctx, a, args)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}
