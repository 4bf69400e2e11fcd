// Package jsonfile implements the domain store interfaces on per-model JSON
// files under a single data directory. The on-disk layout is an external
// contract shared with the companion plotting tooling:
//
//	<data_dir>/<model>/<model>.json       ledger (metadata + listings)
//	<data_dir>/<model>/id_mapping.json    external id -> internal id
//
// Writes go through a temp file plus rename so a reader never observes a
// torn file. The package assumes a single writer per data directory; see
// domain.LedgerStore.
package jsonfile

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client holds the data directory shared by the ledger and identity stores.
type Client struct {
	dataDir string
	logger  *slog.Logger
}

// NewClient creates the data directory if needed and returns a Client.
func NewClient(dataDir string, logger *slog.Logger) (*Client, error) {
	if dataDir == "" {
		return nil, fmt.Errorf("jsonfile: data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: create data dir %q: %w", dataDir, err)
	}
	return &Client{
		dataDir: dataDir,
		logger:  logger.With(slog.String("component", "jsonfile")),
	}, nil
}

// DataDir returns the data directory root.
func (c *Client) DataDir() string {
	return c.dataDir
}

// sanitizeModel makes a model name filesystem-safe.
func sanitizeModel(model string) string {
	return strings.ReplaceAll(model, "/", "_")
}

// modelDir returns the model's directory without creating it.
func (c *Client) modelDir(model string) string {
	return filepath.Join(c.dataDir, sanitizeModel(model))
}

// ledgerPath returns the model's ledger file path.
func (c *Client) ledgerPath(model string) string {
	name := sanitizeModel(model)
	return filepath.Join(c.dataDir, name, name+".json")
}

// identityPath returns the model's id mapping file path.
func (c *Client) identityPath(model string) string {
	return filepath.Join(c.modelDir(model), "id_mapping.json")
}

// writeFile writes data atomically: temp file in the target directory, then
// rename over the destination.
func (c *Client) writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("jsonfile: create dir %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("jsonfile: create temp file in %q: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: write %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: close temp for %q: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: rename temp over %q: %w", path, err)
	}
	return nil
}

// quarantine renames an unparseable file out of the way so the next save
// cannot silently overwrite it, and logs loudly. Failure to rename is
// logged too; in either case the caller proceeds from empty state.
func (c *Client) quarantine(path string, cause error) {
	dst := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	if err := os.Rename(path, dst); err != nil {
		c.logger.Error("corrupt data file could not be quarantined",
			slog.String("path", path),
			slog.String("parse_error", cause.Error()),
			slog.String("rename_error", err.Error()),
		)
		return
	}
	c.logger.Warn("corrupt data file quarantined, starting from empty state",
		slog.String("path", path),
		slog.String("quarantined_as", dst),
		slog.String("parse_error", cause.Error()),
	)
}

// firstJSONByte returns the first non-whitespace byte of data, or 0.
func firstJSONByte(data []byte) byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}
