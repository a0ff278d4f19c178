// Package output provides output formatting for the lsmdb shell.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: Column-aligned tables for structs and slices
//   - json.go: JSON output formatting
//   - yaml.go: YAML output formatting
//
// The print command renders engine statistics through the
// formatter selected by cli.output.
package output
