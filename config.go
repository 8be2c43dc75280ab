package papergraph

import (
	"os"
	"path/filepath"
)

// Config holds all configuration for the papergraph engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.papergraph/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "papergraph". The file will be <DBName>.db inside the
	// storage directory (~/.papergraph/ or working dir).
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath is
	// not explicitly set. Options: "home" (default) uses ~/.papergraph/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// CacheTTLSeconds bounds how long derived view results are memoized.
	// Views are keyed by snapshot identity, so the TTL only limits memory
	// held for snapshots nobody is looking at anymore.
	CacheTTLSeconds int `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`

	// SearchLimit is the default result cap for node label search.
	SearchLimit int `json:"search_limit" yaml:"search_limit"`
}

// DefaultConfig returns a Config with sensible defaults.
// Database is stored in ~/.papergraph/papergraph.db by default.
func DefaultConfig() Config {
	return Config{
		DBName:          "papergraph",
		StorageDir:      "home",
		CacheTTLSeconds: 300,
		SearchLimit:     20,
	}
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "papergraph"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		dir := filepath.Join(home, ".papergraph")
		return filepath.Join(dir, name+".db")
	}
}
