// Package config defines the tool's settings and how they are layered.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Config holds every tunable of a processing run. Flags set explicitly on the
// command line override these values in cmd.
type Config struct {
	// DBPath is the SQLite metrics database.
	DBPath string `koanf:"db_path"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Workers bounds how many matches are processed concurrently.
	Workers int `koanf:"workers"`

	// MetricsFile, when set, receives run counters in Prometheus textfile format.
	MetricsFile string `koanf:"metrics_file"`

	// TimeLimit is the only match length (minutes) considered; 0 accepts all.
	TimeLimit int `koanf:"time_limit"`

	// AllowGroups admits matches played in private groups.
	AllowGroups bool `koanf:"allow_groups"`

	// StrictGeometry rejects maps with more than one stand tile per team.
	StrictGeometry bool `koanf:"strict_geometry"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		DBPath:         DefaultDBPath(),
		LogLevel:       "info",
		Workers:        runtime.NumCPU(),
		TimeLimit:      8,
		StrictGeometry: true,
	}
}

// DefaultDBPath is ~/.ctfmetrics/metrics.db, or a relative path when the
// home directory cannot be resolved.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".ctfmetrics", "metrics.db")
}
