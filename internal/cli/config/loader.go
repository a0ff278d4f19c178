// Package config defines the lsmdb shell configuration.
package config

import (
	"fmt"

	"github.com/niebayes/LSM-Tree/internal/infra/confloader"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "LSMDB_"

// Load builds the configuration from defaults, the optional YAML file at
// path, LSMDB_* environment variables and flag overrides, in that order.
func Load(path string, flags map[string]any) (*Config, error) {
	cfg := Default()

	opts := []confloader.Option{
		confloader.WithEnvPrefix(EnvPrefix),
		confloader.WithFlags(flags),
	}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}

	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, err
	}

	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ReadLogLevel reads log.level from the YAML file at path.
// It returns an empty string if the file does not set it.
func ReadLogLevel(path string) (string, error) {
	l := confloader.NewLoader()
	if err := l.LoadFile(path); err != nil {
		return "", err
	}
	return l.GetString("log.level"), nil
}
