package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "./test.db"
engine:
  assign_threshold: 0.4
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Storage.DatabasePath != filepath.Join(dir, "test.db") {
		t.Errorf("database_path not expanded relative to config dir: %q", cfg.Storage.DatabasePath)
	}
	if cfg.Engine.AssignThreshold != 0.4 {
		t.Errorf("assign_threshold=%v, want 0.4", cfg.Engine.AssignThreshold)
	}
	// Unset engine values fall back to defaults.
	if cfg.Engine.RebuildThreshold != 100 || cfg.Engine.NameBoost != 0.2 || cfg.Engine.MaxClusterConcepts != 5 {
		t.Errorf("engine defaults not applied: %+v", cfg.Engine)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("default port=%d", cfg.Server.Port)
	}
	if cfg.Engine.AssignThreshold != 0.5 {
		t.Errorf("default assign_threshold=%v", cfg.Engine.AssignThreshold)
	}
	if cfg.Extract.MaxConcepts != 8 || cfg.Extract.CacheSize != 1024 {
		t.Errorf("extract defaults: %+v", cfg.Extract)
	}
	if len(cfg.Watch.Extensions) == 0 {
		t.Error("watch extensions should default")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := DefaultConfig()
	cfg.Server.Port = 9999
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("round-trip port=%d, want 9999", loaded.Server.Port)
	}
}

func TestRecursiveOrDefault(t *testing.T) {
	w := WatchConfig{}
	if !w.RecursiveOrDefault() {
		t.Error("recursive should default to true")
	}
	f := false
	w.Recursive = &f
	if w.RecursiveOrDefault() {
		t.Error("explicit false should win")
	}
}
