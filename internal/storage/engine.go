// Package storage provides the lsmdb storage engine.
package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/niebayes/LSM-Tree/internal/cli/grammar"
	"github.com/niebayes/LSM-Tree/internal/cli/output"
	"github.com/niebayes/LSM-Tree/internal/telemetry/logger"
	"github.com/niebayes/LSM-Tree/internal/telemetry/metric"
)

// Engine executes shell commands against a store.
//
// Handle reports results and failures on the engine's own output;
// nothing is returned to the caller.
type Engine interface {
	Handle(ctx context.Context, cmd grammar.Command)
	Close() error
}

var _ Engine = (*BadgerEngine)(nil)

// LoadResult summarizes a batch file load.
type LoadResult struct {
	// Applied counts put and delete lines written to the store.
	Applied int
	// Skipped counts valid commands that do not mutate the store.
	Skipped int
	// Rejected counts lines the grammar did not accept.
	Rejected int
}

// Report is the print command payload for structured output formats.
type Report struct {
	Stats   *Stats          `json:"stats" yaml:"stats"`
	Metrics []metric.Sample `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Handle executes cmd and prints its result.
// Quit and Help are shell commands and are reported as unsupported.
func (e *BadgerEngine) Handle(ctx context.Context, cmd grammar.Command) {
	log := logger.L(ctx).With("command", cmd.Name())
	start := time.Now()

	err := e.handle(cmd)

	if e.metrics != nil {
		e.metrics.CommandsTotal.WithLabelValues(cmd.Name()).Inc()
		e.metrics.CommandDuration.WithLabelValues(cmd.Name()).Observe(time.Since(start).Seconds())
		if err != nil {
			e.metrics.CommandErrors.WithLabelValues(cmd.Name()).Inc()
		}
	}

	if err != nil {
		log.Error("command failed", "input", cmd.String(), "error", err)
		fmt.Fprintf(e.output, "error: %v\n", err)
		return
	}
	log.Debug("command handled", "input", cmd.String(), "elapsed", time.Since(start))
}

func (e *BadgerEngine) handle(cmd grammar.Command) error {
	switch c := cmd.(type) {
	case grammar.Put:
		return e.Put(c.Key, c.Value)
	case grammar.Get:
		return e.printGet(c.Key)
	case grammar.Range:
		return e.printRange(c.Start, c.End)
	case grammar.Delete:
		return e.Delete(c.Key)
	case grammar.Load:
		res, err := e.LoadFile(c.Path)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.output, "loaded %d commands from %s", res.Applied, c.Path)
		if res.Skipped > 0 || res.Rejected > 0 {
			fmt.Fprintf(e.output, " (%d skipped, %d rejected)", res.Skipped, res.Rejected)
		}
		fmt.Fprintln(e.output)
		return nil
	case grammar.PrintStats:
		return e.printStats()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, cmd.Name())
	}
}

func (e *BadgerEngine) printGet(key grammar.Key) error {
	value, err := e.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		fmt.Fprintln(e.output, ErrKeyNotFound.Error())
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(e.output, value)
	return nil
}

func (e *BadgerEngine) printRange(start, end grammar.Key) error {
	var pairs []Pair
	if err := e.Range(start, end, func(p Pair) bool {
		pairs = append(pairs, p)
		return true
	}); err != nil {
		return err
	}

	if e.format != output.FormatTable {
		if pairs == nil {
			pairs = []Pair{}
		}
		return e.formatter.Format(e.output, pairs)
	}

	if len(pairs) == 0 {
		fmt.Fprintln(e.output, "no keys in range")
		return nil
	}
	table := &output.Table{Headers: []string{"KEY", "VALUE"}}
	for _, p := range pairs {
		table.AddRow(strconv.FormatInt(p.Key, 10), strconv.FormatInt(p.Value, 10))
	}
	return e.formatter.Format(e.output, table)
}

func (e *BadgerEngine) printStats() error {
	stats, err := e.Stats()
	if err != nil {
		return err
	}

	var samples []metric.Sample
	if e.metrics != nil {
		if samples, err = e.metrics.Snapshot(); err != nil {
			return err
		}
	}

	if e.format != output.FormatTable {
		return e.formatter.Format(e.output, Report{Stats: stats, Metrics: samples})
	}

	if err := e.formatter.Format(e.output, stats); err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}
	fmt.Fprintln(e.output)
	return e.formatter.Format(e.output, samples)
}

// LoadFile applies the put and delete lines of a batch file in one write
// batch. Lines use the shell's own command syntax; blank lines are ignored.
func (e *BadgerEngine) LoadFile(path string) (LoadResult, error) {
	var res LoadResult

	f, err := os.Open(path)
	if err != nil {
		return res, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	var cmds []grammar.Command
	r := bufio.NewReader(f)
	lineNo := 0
	for {
		line, rerr := r.ReadString('\n')
		if rerr != nil && rerr != io.EOF {
			return res, fmt.Errorf("read batch file: %w", rerr)
		}
		if rerr == io.EOF && line == "" {
			break
		}
		lineNo++
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := grammar.ParseLine(line)
		if err != nil {
			res.Rejected++
			e.logger.Debug("batch line rejected", "file", path, "line", lineNo, "reason", err)
			continue
		}

		switch cmd.(type) {
		case grammar.Put, grammar.Delete:
			cmds = append(cmds, cmd)
		default:
			res.Skipped++
			e.logger.Debug("batch line skipped", "file", path, "line", lineNo, "command", cmd.Name())
		}
	}

	if err := e.Apply(cmds); err != nil {
		return res, fmt.Errorf("apply batch: %w", err)
	}
	res.Applied = len(cmds)
	return res, nil
}
