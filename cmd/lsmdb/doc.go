// Package main provides the entry point for lsmdb.
//
// lsmdb is an interactive shell over an embedded LSM-tree key-value
// store. Keys and values are 64-bit signed integers.
//
// Usage:
//
//	lsmdb [--data-dir DIR] [--in-memory] [--config FILE]
//	lsmdb config show
//	lsmdb < commands.txt
//
// Type "help" at the prompt for the command list.
package main
