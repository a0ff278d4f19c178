// Package config defines the lsmdb shell configuration.
//
//   - spec.go: Config struct and sections
//   - default.go: Default values and working directory resolution
//   - loader.go: Loading from file, environment and flags
//   - verify.go: Validation
package config
