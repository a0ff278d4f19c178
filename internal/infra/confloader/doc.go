// Package confloader provides configuration loading mechanism.
//
// This package implements a layered configuration loader using koanf:
//
//   - loader.go: File, environment and map sources
//   - provider.go: In-memory koanf provider for flag values
//   - watcher.go: fsnotify based change notification for config files
//
// Priority (highest to lowest):
//
//  1. Command-line flags
//  2. Environment variables under the configured prefix
//  3. Configuration file (YAML)
//  4. Default values
package confloader
