package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:8430" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.SyncIntervalSecs != 60 || !cfg.Prewarm {
		t.Errorf("sync defaults wrong: interval=%d prewarm=%v", cfg.SyncIntervalSecs, cfg.Prewarm)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
corpus_dir = "/srv/pdfs"
sync_interval_secs = 5
prewarm = false
token = "secret"

[logs]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CorpusDir != "/srv/pdfs" {
		t.Errorf("CorpusDir = %q", cfg.CorpusDir)
	}
	if cfg.SyncInterval() != 5*time.Second {
		t.Errorf("SyncInterval = %v", cfg.SyncInterval())
	}
	if cfg.Prewarm {
		t.Error("Prewarm should be false")
	}
	if cfg.Logs.Level != "debug" {
		t.Errorf("Logs.Level = %q", cfg.Logs.Level)
	}
	// Unset fields keep defaults.
	if cfg.DBPath != "resources/search.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvSyncInterval, "0")
	t.Setenv(EnvPrewarm, "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SyncIntervalSecs != 0 {
		t.Errorf("SyncIntervalSecs = %d, want 0", cfg.SyncIntervalSecs)
	}
	if cfg.Prewarm {
		t.Error("Prewarm should be overridden to false")
	}
}

func TestEnvRejectsGarbage(t *testing.T) {
	t.Setenv(EnvSyncInterval, "soon")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for non-numeric sync interval")
	}
}

func TestNegativeIntervalRejected(t *testing.T) {
	t.Setenv(EnvSyncInterval, "-1")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for negative sync interval")
	}
}
