// Package storage provides the lsmdb storage engine.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/niebayes/LSM-Tree/internal/cli/grammar"
	"github.com/niebayes/LSM-Tree/internal/cli/output"
	"github.com/niebayes/LSM-Tree/internal/telemetry/logger"
	"github.com/niebayes/LSM-Tree/internal/telemetry/metric"
)

// BadgerEngine stores int64 pairs in Badger v3.
type BadgerEngine struct {
	db     *badger.DB
	cfg    Config
	logger logger.Logger

	output    io.Writer
	formatter output.Formatter
	format    output.Format
	metrics   *metric.Registry

	// GC bookkeeping
	lastGCTime atomic.Int64 // Unix milliseconds
	gcRuns     atomic.Uint64

	// mu is held for reading by every database operation and for
	// writing by Close.
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// Option configures a BadgerEngine.
type Option func(*BadgerEngine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *BadgerEngine) {
		e.logger = l
	}
}

// WithOutput sets the writer command results are printed to.
func WithOutput(w io.Writer) Option {
	return func(e *BadgerEngine) {
		e.output = w
	}
}

// WithFormat sets the output format for print and range results.
func WithFormat(f output.Format) Option {
	return func(e *BadgerEngine) {
		e.format = f
	}
}

// WithMetrics records command metrics in m and exposes engine
// statistics through it.
func WithMetrics(m *metric.Registry) Option {
	return func(e *BadgerEngine) {
		e.metrics = m
	}
}

// Open opens a Badger engine.
func Open(cfg Config, opts ...Option) (*BadgerEngine, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}

	e := &BadgerEngine{
		cfg:    cfg,
		logger: logger.Default(),
		output: os.Stdout,
		format: output.FormatTable,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.format = output.ParseFormat(string(e.format))
	e.formatter = output.NewFormatter(e.format)

	// Build Badger options
	bopts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = &badgerLogger{logger: e.logger.With("component", "badger")}
	bopts.SyncWrites = cfg.SyncWrites
	if cfg.CacheSize > 0 {
		bopts.BlockCacheSize = cfg.CacheSize
	}
	if cfg.ValueLogFileSize > 0 {
		bopts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	if cfg.NumMemtables > 0 {
		bopts.NumMemtables = cfg.NumMemtables
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}
	e.db = db

	if e.metrics != nil {
		if err := e.metrics.Register(metric.NewCollector("badger", statsHelp, e.statsValues)); err != nil {
			db.Close()
			return nil, err
		}
	}

	// Value log GC is meaningless in memory.
	if cfg.InMemory || cfg.GCInterval <= 0 {
		close(e.doneCh)
	} else {
		go e.gcLoop()
	}

	e.logger.Info("badger engine started",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"cache_size", cfg.CacheSize,
		"gc_interval", cfg.GCInterval)

	return e, nil
}

// Put stores a key-value pair, replacing any existing value.
func (e *BadgerEngine) Put(key grammar.Key, value grammar.Value) error {
	release, err := e.acquire()
	if err != nil {
		return err
	}
	defer release()
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Set(EncodeKey(key), EncodeValue(value))
	})
}

// Get retrieves the value stored under key.
func (e *BadgerEngine) Get(key grammar.Key) (grammar.Value, error) {
	release, err := e.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	var value grammar.Value
	err = e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(EncodeKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			v, err := DecodeValue(val)
			value = v
			return err
		})
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (e *BadgerEngine) Delete(key grammar.Key) error {
	release, err := e.acquire()
	if err != nil {
		return err
	}
	defer release()
	return e.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(EncodeKey(key))
	})
}

// Range calls fn for every pair with start <= key < end in key order.
// fn returns false to stop iteration.
func (e *BadgerEngine) Range(start, end grammar.Key, fn func(Pair) bool) error {
	release, err := e.acquire()
	if err != nil {
		return err
	}
	defer release()
	if start >= end {
		return nil
	}

	upper := EncodeKey(end)
	return e.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(EncodeKey(start)); it.Valid(); it.Next() {
			item := it.Item()
			if bytes.Compare(item.Key(), upper) >= 0 {
				break
			}

			key, err := DecodeKey(item.Key())
			if err != nil {
				return err
			}
			var value grammar.Value
			if err := item.Value(func(val []byte) error {
				value, err = DecodeValue(val)
				return err
			}); err != nil {
				return err
			}

			if !fn(Pair{Key: key, Value: value}) {
				break
			}
		}
		return nil
	})
}

// Apply writes a sequence of Put and Delete commands in one batch.
// Later commands win over earlier ones for the same key.
func (e *BadgerEngine) Apply(cmds []grammar.Command) error {
	release, err := e.acquire()
	if err != nil {
		return err
	}
	defer release()

	wb := e.db.NewWriteBatch()
	defer wb.Cancel()

	for _, cmd := range cmds {
		var err error
		switch c := cmd.(type) {
		case grammar.Put:
			err = wb.Set(EncodeKey(c.Key), EncodeValue(c.Value))
		case grammar.Delete:
			err = wb.Delete(EncodeKey(c.Key))
		default:
			err = fmt.Errorf("%w in batch: %s", ErrUnsupported, cmd.Name())
		}
		if err != nil {
			return err
		}
	}

	return wb.Flush()
}

// GC runs value log garbage collection until nothing is left to rewrite.
// Returns the number of rewritten value log files.
func (e *BadgerEngine) GC() (uint64, error) {
	release, err := e.acquire()
	if err != nil {
		return 0, err
	}
	defer release()
	if e.cfg.InMemory {
		return 0, nil
	}

	startTime := time.Now()
	var runs uint64
	for {
		err := e.db.RunValueLogGC(e.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return runs, fmt.Errorf("gc: %w", err)
		}
		runs++
	}

	e.lastGCTime.Store(time.Now().UnixMilli())
	e.gcRuns.Add(runs)

	e.logger.Info("gc completed",
		"rewrites", runs,
		"elapsed", time.Since(startTime))

	return runs, nil
}

// Stats returns storage statistics.
func (e *BadgerEngine) Stats() (*Stats, error) {
	release, err := e.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	var keys uint64
	err = e.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Only need keys
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	lsm, vlog := e.db.Size()
	stats := &Stats{
		Keys:         keys,
		LSMSize:      lsm,
		ValueLogSize: vlog,
		TotalSize:    lsm + vlog,
		GCRuns:       e.gcRuns.Load(),
		InMemory:     e.cfg.InMemory,
	}
	if !e.cfg.InMemory {
		stats.Dir = e.cfg.Dir
	}
	if ms := e.lastGCTime.Load(); ms > 0 {
		stats.LastGC = time.UnixMilli(ms)
	}
	return stats, nil
}

// statsHelp describes the gauges exported from Stats.
var statsHelp = map[string]string{
	"keys":                 "Live keys in the database",
	"lsm_size_bytes":       "Badger LSM tree size in bytes",
	"value_log_size_bytes": "Badger value log size in bytes",
	"gc_runs":              "Value log files rewritten by GC",
}

func (e *BadgerEngine) statsValues() map[string]float64 {
	stats, err := e.Stats()
	if err != nil {
		return nil
	}
	return map[string]float64{
		"keys":                 float64(stats.Keys),
		"lsm_size_bytes":       float64(stats.LSMSize),
		"value_log_size_bytes": float64(stats.ValueLogSize),
		"gc_runs":              float64(stats.GCRuns),
	}
}

// acquire keeps the database open until release is called.
func (e *BadgerEngine) acquire() (release func(), err error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, ErrClosed
	}
	return e.mu.RUnlock, nil
}

// Close stops the GC loop and closes the database once in-flight
// operations finish. Calling Close more than once is safe.
func (e *BadgerEngine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		e.logger.Info("shutting down badger engine")

		close(e.stopCh)
		<-e.doneCh

		e.mu.Lock()
		defer e.mu.Unlock()
		e.closed = true

		if cerr := e.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
			return
		}

		e.logger.Info("badger engine shutdown complete")
	})
	return err
}

// gcLoop runs periodic garbage collection.
func (e *BadgerEngine) gcLoop() {
	defer close(e.doneCh)

	ticker := time.NewTicker(e.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := e.GC(); err != nil {
				e.logger.Error("auto gc failed", "error", err)
			}

		case <-e.stopCh:
			return
		}
	}
}

// badgerLogger adapts logger.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
