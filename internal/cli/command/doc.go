// Package command defines the lsmdb process surface using urfave/cli/v2.
//
//   - root.go: Root command, global flags and the interactive shell
//   - config.go: Configuration inspection subcommands
//
// Running lsmdb without a subcommand opens the storage engine and starts
// an interactive session on stdin. A terminal gets line editing; pipes
// and redirected files are read line by line without a prompt.
package command
