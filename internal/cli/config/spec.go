// Package config defines the lsmdb shell configuration.
package config

import "time"

// Config is the root configuration for lsmdb.
type Config struct {
	CLI     CLISection     `koanf:"cli" json:"cli" yaml:"cli"`
	Storage StorageSection `koanf:"storage" json:"storage" yaml:"storage"`
	Log     LogSection     `koanf:"log" json:"log" yaml:"log"`
}

// CLISection configures the interactive shell.
type CLISection struct {
	// Prompt is printed before every input line.
	Prompt string `koanf:"prompt" json:"prompt" yaml:"prompt"`
	// HistoryFile is the history log location.
	// Empty means <working directory>/.cmd_history.
	HistoryFile string `koanf:"history_file" json:"history_file" yaml:"history_file"`
	// Output is the stats output format: table, json, yaml.
	Output string `koanf:"output" json:"output" yaml:"output"`
}

// StorageSection configures the storage engine.
type StorageSection struct {
	// Dir is the data directory. Empty means <working directory>/.lsmdb.
	Dir string `koanf:"dir" json:"dir" yaml:"dir"`
	// InMemory keeps all data in memory; Dir is ignored.
	InMemory bool `koanf:"in_memory" json:"in_memory" yaml:"in_memory"`

	SyncWrites       bool          `koanf:"sync_writes" json:"sync_writes" yaml:"sync_writes"`
	GCInterval       time.Duration `koanf:"gc_interval" json:"gc_interval" yaml:"gc_interval"`
	GCThreshold      float64       `koanf:"gc_threshold" json:"gc_threshold" yaml:"gc_threshold"`
	CacheSize        int64         `koanf:"cache_size" json:"cache_size" yaml:"cache_size"`
	ValueLogFileSize int64         `koanf:"value_log_file_size" json:"value_log_file_size" yaml:"value_log_file_size"`
	NumMemtables     int           `koanf:"num_memtables" json:"num_memtables" yaml:"num_memtables"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}
