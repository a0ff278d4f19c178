// Package config defines the lsmdb shell configuration.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/niebayes/LSM-Tree/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyCLI(&cfg.CLI); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyCLI(cfg *CLISection) error {
	switch strings.ToLower(cfg.Output) {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("cli.output must be one of table, json, yaml: got %q", cfg.Output)
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if cfg.GCThreshold <= 0 || cfg.GCThreshold >= 1 {
		return errors.New("storage.gc_threshold must be between 0 and 1")
	}
	if cfg.GCInterval <= 0 {
		return errors.New("storage.gc_interval must be positive")
	}
	if cfg.NumMemtables < 1 {
		return errors.New("storage.num_memtables must be at least 1")
	}
	if cfg.CacheSize < 0 || cfg.ValueLogFileSize < 0 {
		return errors.New("storage sizes must not be negative")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json: got %q", cfg.Format)
	}
	return nil
}
