// Package command defines the lsmdb process surface using urfave/cli/v2.
package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/niebayes/LSM-Tree/internal/cli/config"
	"github.com/niebayes/LSM-Tree/internal/cli/output"
	"github.com/niebayes/LSM-Tree/internal/cli/repl"
	"github.com/niebayes/LSM-Tree/internal/infra/buildinfo"
	"github.com/niebayes/LSM-Tree/internal/infra/confloader"
	"github.com/niebayes/LSM-Tree/internal/infra/shutdown"
	"github.com/niebayes/LSM-Tree/internal/storage"
	"github.com/niebayes/LSM-Tree/internal/telemetry/logger"
	"github.com/niebayes/LSM-Tree/internal/telemetry/metric"
)

// shutdownTimeout bounds cleanup after a termination signal.
const shutdownTimeout = 5 * time.Second

// exit terminates the process after a signal; replaced in tests.
var exit = os.Exit

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "lsmdb",
		Usage:   "Interactive shell for an LSM-tree key-value store",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ConfigCommand(),
		},
		Action: runShell,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
			EnvVars: []string{"LSMDB_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Storage directory (default: ./" + config.DataDirName + ")",
		},
		&cli.BoolFlag{
			Name:  "in-memory",
			Usage: "Keep all data in memory",
		},
		&cli.StringFlag{
			Name:  "history-file",
			Usage: "History file (default: ./" + config.HistoryFileName + ")",
		},
		&cli.StringFlag{
			Name:  "prompt",
			Usage: "Prompt text",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format for print and range: table, json, yaml",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "Log format: text, json",
		},
	}
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"data-dir":     "storage.dir",
	"in-memory":    "storage.in_memory",
	"history-file": "cli.history_file",
	"prompt":       "cli.prompt",
	"output":       "cli.output",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

// flagOverrides returns the explicitly set flags as configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	overrides := make(map[string]any)
	for name, key := range flagKeys {
		if !c.IsSet(name) {
			continue
		}
		if name == "in-memory" {
			overrides[key] = c.Bool(name)
		} else {
			overrides[key] = c.String(name)
		}
	}
	return overrides
}

// loadConfig loads the configuration and resolves paths against the
// working directory.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"), flagOverrides(c))
	if err != nil {
		return nil, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}
	cfg.ResolvePaths(wd)
	return cfg, nil
}

// storageConfig converts the storage section to engine options.
func storageConfig(s config.StorageSection) storage.Config {
	return storage.Config{
		Dir:              s.Dir,
		InMemory:         s.InMemory,
		SyncWrites:       s.SyncWrites,
		GCInterval:       s.GCInterval,
		GCThreshold:      s.GCThreshold,
		CacheSize:        s.CacheSize,
		ValueLogFileSize: s.ValueLogFileSize,
		NumMemtables:     s.NumMemtables,
	}
}

// runShell runs the interactive session until quit or end of input.
func runShell(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: c.App.ErrWriter,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	metrics := metric.NewRegistry()
	engine, err := storage.Open(storageConfig(cfg.Storage),
		storage.WithLogger(log),
		storage.WithOutput(c.App.Writer),
		storage.WithFormat(output.ParseFormat(cfg.CLI.Output)),
		storage.WithMetrics(metrics),
	)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer engine.Close()

	history := repl.NewHistory(cfg.CLI.HistoryFile)
	if err := history.Load(); err != nil {
		log.Warn("failed to load history", "file", cfg.CLI.HistoryFile, "error", err)
	}

	src := newLineSource(c, history)
	defer src.Close()

	if path := c.String("config"); path != "" {
		stop := watchLogLevel(path, log)
		defer stop()
	}

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sh := shutdown.NewHandler(shutdownTimeout)
	sh.OnShutdown(func(ctx context.Context) error { return closeWithin(ctx, engine) })
	sh.OnShutdown(func(ctx context.Context) error { return closeWithin(ctx, src) })
	go func() {
		sig, err := sh.Wait(ctx)
		if sig == nil {
			return
		}
		if err != nil {
			log.Error("shutdown failed", "error", err)
		}
		log.Warn("terminated by signal", "signal", sig.String())
		exit(shutdown.ExitCode(sig))
	}()

	session := repl.New(src,
		repl.WithPrompt(cfg.CLI.Prompt),
		repl.WithHistory(history),
		repl.WithOutput(c.App.Writer),
		repl.WithLogger(log),
		repl.WithMetrics(metrics),
	)

	log.Info("session started",
		"session_id", session.ID(),
		"history_file", cfg.CLI.HistoryFile,
		"data_dir", cfg.Storage.Dir,
		"in_memory", cfg.Storage.InMemory)

	if err := session.Run(ctx, engine); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// closeWithin closes c, giving up when ctx ends first.
// The engine waits for an in-flight command before it closes.
func closeWithin(ctx context.Context, c io.Closer) error {
	errCh := make(chan error, 1)
	go func() { errCh <- c.Close() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return fmt.Errorf("close: %w", ctx.Err())
	}
}

// newLineSource picks line editing for terminals and plain reads otherwise.
func newLineSource(c *cli.Context, history *repl.History) repl.LineSource {
	if f, ok := c.App.Reader.(*os.File); ok && repl.IsTerminal(f) {
		return repl.NewTerminalSource(f, c.App.Writer, history, repl.NewCompleter())
	}
	return repl.NewReaderSource(c.App.Reader, nil)
}

// watchLogLevel applies log.level changes in the config file at path
// without restarting. The returned function stops watching.
func watchLogLevel(path string, log logger.Logger) func() {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		log.Warn("config watcher unavailable", "error", err)
		return func() {}
	}
	if err := w.Watch(path); err != nil {
		log.Warn("cannot watch config file", "file", path, "error", err)
		w.Stop()
		return func() {}
	}

	w.OnChange(func(file string) {
		level, err := config.ReadLogLevel(file)
		if err != nil {
			log.Warn("failed to reload config", "file", file, "error", err)
			return
		}
		if level == "" || !logger.ValidLevel(level) {
			log.Warn("ignoring log level", "file", file, "level", level)
			return
		}
		prev := logger.GetLevel()
		logger.SetLevel(level)
		if cur := logger.GetLevel(); cur != prev {
			log.Info("log level changed", "from", prev, "to", cur)
		}
	})
	w.StartAsync()

	return func() { w.Stop() }
}
