// Package config provides configuration loading and structs for the matome
// server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Engine  EngineConfig  `yaml:"engine"`
	Extract ExtractConfig `yaml:"extract"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the database and the keyword catalog.
// An empty BleveIndexPath keeps the keyword catalog in memory; it is then
// rebuilt from the database on restore.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
}

// EngineConfig holds the knowledge-organization tunables. The defaults are
// empirically chosen constants preserved from production use; they are
// configuration rather than code because their optimality is unverified.
type EngineConfig struct {
	// RebuildThreshold is the number of incremental vector-index mutations
	// that schedules a full vocabulary rebuild.
	RebuildThreshold int `yaml:"rebuild_threshold"`
	// AssignThreshold is the minimum boosted Jaccard score for a document
	// to join an existing cluster.
	AssignThreshold float64 `yaml:"assign_threshold"`
	// NameBoost is added to a cluster's score when the suggested topic
	// matches its name case-insensitively.
	NameBoost float64 `yaml:"name_boost"`
	// MaxClusterConcepts caps the representative concept list stored per
	// cluster at creation time.
	MaxClusterConcepts int `yaml:"max_cluster_concepts"`
}

// ExtractConfig holds concept extraction settings.
type ExtractConfig struct {
	// MaxConcepts is the number of concepts extracted per document.
	MaxConcepts int `yaml:"max_concepts"`
	// CacheSize is the extraction LRU cache capacity.
	CacheSize int `yaml:"cache_size"`
}

// WatchConfig holds drop-folder watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true
// when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// DefaultConfig returns a config with all defaults applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, applies defaults, and
// expands storage and watch paths.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Storage.BleveIndexPath != "" {
		cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
