// Package config defines the top-level configuration for the car ledger and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by CARLEDGER_* environment
// variables.
type Config struct {
	DataDir  string        `toml:"data_dir"`
	LogLevel string        `toml:"log_level"`
	Export   ExportConfig  `toml:"export"`
	S3       S3Config      `toml:"s3"`
	Archive  ArchiveConfig `toml:"archive"`
}

// ExportConfig holds defaults for the export command.
type ExportConfig struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
}

// S3Config holds S3-compatible object storage parameters for off-site
// ledger archives. The whole section is inert unless Enabled is true.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig tunes the archive run itself.
type ArchiveConfig struct {
	Prefix      string `toml:"prefix"`
	Concurrency int    `toml:"concurrency"`
}

// Defaults returns a Config with sensible local-first defaults. Running
// without a config file gives a working setup that writes under ./data.
func Defaults() Config {
	return Config{
		DataDir:  "data",
		LogLevel: "info",
		Export: ExportConfig{
			Dir:    "exports",
			Format: "csv",
		},
		S3: S3Config{
			Enabled:        false,
			Region:         "us-east-1",
			UseSSL:         true,
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Prefix:      "carledger",
			Concurrency: 4,
		},
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validExportFormats enumerates the accepted values for Export.Format.
var validExportFormats = map[string]bool{
	"csv":  true,
	"xlsx": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, "data_dir must not be empty")
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}
	if !validExportFormats[strings.ToLower(c.Export.Format)] {
		errs = append(errs, fmt.Sprintf("export: unknown format %q (valid: csv, xlsx)", c.Export.Format))
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			errs = append(errs, "s3: access_key and secret_key must both be set when enabled")
		}
	}

	if c.Archive.Concurrency < 1 {
		errs = append(errs, "archive: concurrency must be >= 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
