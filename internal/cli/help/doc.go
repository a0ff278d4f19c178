// Package help holds the usage table printed by the lsmdb shell.
//
// This package is the single source of the shell's usage text:
//
//   - help.go: Ordered usage entries and their rendering
//
// Every grammar keyword and alias appears in exactly one entry. The
// table is printed once at startup and again for each help command.
package help
