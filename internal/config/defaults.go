package config

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/matome/data/db/documents.db"
	}
	if cfg.Engine.RebuildThreshold == 0 {
		cfg.Engine.RebuildThreshold = 100
	}
	if cfg.Engine.AssignThreshold == 0 {
		cfg.Engine.AssignThreshold = 0.5
	}
	if cfg.Engine.NameBoost == 0 {
		cfg.Engine.NameBoost = 0.2
	}
	if cfg.Engine.MaxClusterConcepts == 0 {
		cfg.Engine.MaxClusterConcepts = 5
	}
	if cfg.Extract.MaxConcepts == 0 {
		cfg.Extract.MaxConcepts = 8
	}
	if cfg.Extract.CacheSize == 0 {
		cfg.Extract.CacheSize = 1024
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".txt", ".md"}
	}
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
