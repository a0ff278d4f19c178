// Package storage provides the lsmdb storage engine.
//
// The engine is an embedded LSM tree (Badger) holding int64 keys and
// int64 values:
//
//   - kv.go: Key and value encoding, configuration and statistics
//   - badger.go: Badger-backed KV operations and value log GC
//   - engine.go: Shell command handling and batch file loading
//
// Keys are encoded big-endian with the sign bit flipped so that byte
// order matches numeric order; range scans are half-open [start, end).
package storage
