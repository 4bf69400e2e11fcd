package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "data" {
		t.Errorf("data_dir = %q, want data", cfg.DataDir)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log_level = %q, want info", cfg.LogLevel)
	}
	if cfg.Export.Format != "csv" {
		t.Errorf("export format = %q, want csv", cfg.Export.Format)
	}
	if cfg.Archive.Concurrency != 4 {
		t.Errorf("archive concurrency = %d, want 4", cfg.Archive.Concurrency)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadFromTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carledger.toml")
	body := `
data_dir = "/var/lib/carledger"
log_level = "debug"

[export]
format = "xlsx"

[s3]
enabled = true
endpoint = "minio.local:9000"
region = "eu-central-1"
bucket = "car-archives"
access_key = "ak"
secret_key = "sk"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/var/lib/carledger" {
		t.Errorf("data_dir = %q", cfg.DataDir)
	}
	if cfg.Export.Format != "xlsx" {
		t.Errorf("export format = %q", cfg.Export.Format)
	}
	if !cfg.S3.Enabled || cfg.S3.Bucket != "car-archives" {
		t.Errorf("s3 section not decoded: %+v", cfg.S3)
	}
	// Untouched sections keep their defaults.
	if cfg.Archive.Prefix != "carledger" {
		t.Errorf("archive prefix = %q, want default", cfg.Archive.Prefix)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("validate: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CARLEDGER_DATA_DIR", "/tmp/override")
	t.Setenv("CARLEDGER_ARCHIVE_CONCURRENCY", "8")
	t.Setenv("CARLEDGER_S3_ENABLED", "true")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/tmp/override" {
		t.Errorf("data_dir = %q, want env override", cfg.DataDir)
	}
	if cfg.Archive.Concurrency != 8 {
		t.Errorf("concurrency = %d, want 8", cfg.Archive.Concurrency)
	}
	if !cfg.S3.Enabled {
		t.Error("s3 enabled override not applied")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "verbose"
	cfg.Export.Format = "parquet"
	cfg.S3.Enabled = true // bucket and credentials left empty
	cfg.Archive.Concurrency = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"log_level", "format", "bucket", "concurrency"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q: %v", want, err)
		}
	}
}
