package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies CARLEDGER_* environment variable overrides, and
// returns the final Config. Path may be empty, in which case only defaults
// and environment overrides apply. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CARLEDGER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject credentials at deploy time without touching the
// TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.DataDir, "CARLEDGER_DATA_DIR")
	setStr(&cfg.LogLevel, "CARLEDGER_LOG_LEVEL")

	setStr(&cfg.Export.Dir, "CARLEDGER_EXPORT_DIR")
	setStr(&cfg.Export.Format, "CARLEDGER_EXPORT_FORMAT")

	setBool(&cfg.S3.Enabled, "CARLEDGER_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "CARLEDGER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "CARLEDGER_S3_REGION")
	setStr(&cfg.S3.Bucket, "CARLEDGER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "CARLEDGER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "CARLEDGER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "CARLEDGER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "CARLEDGER_S3_FORCE_PATH_STYLE")

	setStr(&cfg.Archive.Prefix, "CARLEDGER_ARCHIVE_PREFIX")
	setInt(&cfg.Archive.Concurrency, "CARLEDGER_ARCHIVE_CONCURRENCY")
}

// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
