// Package config defines the lsmdb shell configuration.
package config

import (
	"path/filepath"
	"time"
)

// Default configuration values.
const (
	DefaultPrompt   = "(lsm_db) "
	DefaultOutput   = "table"
	HistoryFileName = ".cmd_history"
	DataDirName     = ".lsmdb"

	DefaultGCInterval       = 10 * time.Minute
	DefaultGCThreshold      = 0.5
	DefaultCacheSize        = 64 << 20
	DefaultValueLogFileSize = 1 << 28
	DefaultNumMemtables     = 2

	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
)

// Default returns the default configuration.
// Paths are left empty until ResolvePaths is called.
func Default() *Config {
	return &Config{
		CLI: CLISection{
			Prompt: DefaultPrompt,
			Output: DefaultOutput,
		},
		Storage: StorageSection{
			GCInterval:       DefaultGCInterval,
			GCThreshold:      DefaultGCThreshold,
			CacheSize:        DefaultCacheSize,
			ValueLogFileSize: DefaultValueLogFileSize,
			NumMemtables:     DefaultNumMemtables,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// ResolvePaths fills empty path settings relative to workDir.
// The shell calls it once at startup with the process working directory.
func (c *Config) ResolvePaths(workDir string) {
	if c.CLI.HistoryFile == "" {
		c.CLI.HistoryFile = filepath.Join(workDir, HistoryFileName)
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = filepath.Join(workDir, DataDirName)
	}
}
