// Package config loads the lyricwire configuration: a YAML file validated
// against an embedded CUE schema, with environment variables taking
// precedence over file values.
//
// Configuration is read once at startup. There is no hot reload; changing
// anything means tearing the session down and reconnecting.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Config is the full configuration surface.
type Config struct {
	FeedURL     string `yaml:"feed_url" json:"feed_url"`
	CachePath   string `yaml:"cache_path" json:"cache_path"`
	ArchivePath string `yaml:"archive_path" json:"archive_path"`
	OffsetMs    int64  `yaml:"offset_ms" json:"offset_ms"`
	Enabled     bool   `yaml:"enabled" json:"enabled"`
	LogLevel    string `yaml:"log_level" json:"log_level"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	dir := ""
	if cacheDir, err := os.UserCacheDir(); err == nil {
		dir = filepath.Join(cacheDir, "lyricwire")
	}
	return Config{
		FeedURL:     "ws://127.0.0.1:1608/feed",
		CachePath:   filepath.Join(dir, "timeline.json"),
		ArchivePath: filepath.Join(dir, "archive.db"),
		OffsetMs:    0,
		Enabled:     true,
		LogLevel:    "info",
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (optional when path is empty), then environment overrides, then
// schema validation.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate unifies the configuration with the embedded CUE schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal: config schema does not compile: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("internal: config schema missing #Config: %w", err)
	}

	unified := def.Unify(ctx.Encode(cfg))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnv overlays LYRICWIRE_* environment variables. Unparseable numeric
// or boolean values are ignored rather than failing startup; the schema
// validation afterwards still catches out-of-range results.
func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("LYRICWIRE_FEED_URL"); ok {
		cfg.FeedURL = v
	}
	if v, ok := os.LookupEnv("LYRICWIRE_CACHE_PATH"); ok {
		cfg.CachePath = v
	}
	if v, ok := os.LookupEnv("LYRICWIRE_ARCHIVE_PATH"); ok {
		cfg.ArchivePath = v
	}
	if v, ok := os.LookupEnv("LYRICWIRE_OFFSET_MS"); ok {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.OffsetMs = n
		}
	}
	if v, ok := os.LookupEnv("LYRICWIRE_ENABLED"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Enabled = b
		}
	}
	if v, ok := os.LookupEnv("LYRICWIRE_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
}
