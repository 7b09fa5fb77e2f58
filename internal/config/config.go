// Package config loads bunko's configuration from a TOML file with
// environment-variable overrides for the sync knobs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment overrides. These are the two externally tunable knobs the
// engine core depends on; everything else lives in the config file or flags.
const (
	EnvSyncInterval = "BUNKO_SYNC_INTERVAL"
	EnvPrewarm      = "BUNKO_PREWARM"
)

// Config represents the bunko configuration in TOML format.
type Config struct {
	// CorpusDir is the directory holding the PDF corpus.
	CorpusDir string `toml:"corpus_dir"`

	// ThumbsDir is the directory holding pre-generated thumbnails.
	// Thumbnail generation is handled outside bunko; this is only served.
	ThumbsDir string `toml:"thumbs_dir"`

	// DBPath is the SQLite index database path.
	DBPath string `toml:"db_path"`

	// ListenAddr is the HTTP listen address.
	ListenAddr string `toml:"listen_addr"`

	// Token is the bearer token required on API requests. Empty disables
	// auth (local use only).
	Token string `toml:"token"`

	// SyncIntervalSecs is the minimum number of seconds between corpus
	// sync passes. 0 re-checks the corpus on every request.
	SyncIntervalSecs int `toml:"sync_interval_secs"`

	// Prewarm runs a full sync pass on startup.
	Prewarm bool `toml:"prewarm"`

	// SnippetWindow is the context window, in runes, around a match in
	// detail-search snippets.
	SnippetWindow int `toml:"snippet_window"`

	// Logs defines log file settings.
	Logs LogSettings `toml:"logs"`
}

// LogSettings defines log file management settings.
type LogSettings struct {
	// Dir is the log directory. Empty discards logs unless -debug is set.
	Dir string `toml:"dir"`

	// Level is "debug", "info" (default), "warn" or "error".
	Level string `toml:"level"`

	// MaxSizeMB is the max log size in MB before rotation.
	MaxSizeMB int `toml:"max_size_mb"`

	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `toml:"max_backups"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		CorpusDir:        "resources/pdfs",
		ThumbsDir:        "resources/thumbnails",
		DBPath:           "resources/search.db",
		ListenAddr:       "127.0.0.1:8430",
		SyncIntervalSecs: 60,
		Prewarm:          true,
		SnippetWindow:    80,
	}
}

// Load reads the config file at path (missing file is not an error: defaults
// apply) and then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := os.LookupEnv(EnvSyncInterval); ok {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvSyncInterval, err)
		}
		c.SyncIntervalSecs = secs
	}
	if v, ok := os.LookupEnv(EnvPrewarm); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvPrewarm, err)
		}
		c.Prewarm = b
	}
	return nil
}

func (c *Config) validate() error {
	if c.SyncIntervalSecs < 0 {
		return fmt.Errorf("config: sync_interval_secs must be >= 0, got %d", c.SyncIntervalSecs)
	}
	if c.SnippetWindow <= 0 {
		c.SnippetWindow = Default().SnippetWindow
	}
	return nil
}

// SyncInterval returns the minimum interval between sync passes.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSecs) * time.Second
}
