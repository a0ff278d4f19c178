package command

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/niebayes/LSM-Tree/internal/telemetry/logger"
)

// runApp runs the application with stdin taken from input.
func runApp(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(input)
	app.Writer = &stdout
	app.ErrWriter = &stderr

	err := app.Run(append([]string{"lsmdb"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestApp(t *testing.T) {
	app := App()
	if app == nil {
		t.Fatal("App() returned nil")
	}

	if app.Name != "lsmdb" {
		t.Errorf("Name = %q, want %q", app.Name, "lsmdb")
	}
	if app.Usage == "" {
		t.Error("Usage should not be empty")
	}
	if app.Version == "" {
		t.Error("Version should not be empty")
	}
	if app.Action == nil {
		t.Error("default action should run the shell")
	}

	commandNames := make(map[string]bool)
	for _, cmd := range app.Commands {
		commandNames[cmd.Name] = true
	}
	if !commandNames["config"] {
		t.Error("missing config command")
	}
}

func TestApp_GlobalFlags(t *testing.T) {
	app := App()

	flagNames := make(map[string]bool)
	for _, flag := range app.Flags {
		flagNames[flag.Names()[0]] = true
	}

	for name := range flagKeys {
		if !flagNames[name] {
			t.Errorf("missing flag for %s", name)
		}
	}
	if !flagNames["config"] {
		t.Error("missing flag: config")
	}
}

func TestFlagOverrides(t *testing.T) {
	var got map[string]any
	app := &cli.App{
		Flags: globalFlags(),
		Action: func(c *cli.Context) error {
			got = flagOverrides(c)
			return nil
		},
	}

	args := []string{
		"test",
		"--data-dir", "/tmp/db",
		"--in-memory",
		"-o", "json",
		"--log-level", "debug",
	}
	if err := app.Run(args); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}

	want := map[string]any{
		"storage.dir":       "/tmp/db",
		"storage.in_memory": true,
		"cli.output":        "json",
		"log.level":         "debug",
	}
	if len(got) != len(want) {
		t.Errorf("overrides = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("overrides[%q] = %v, want %v", k, got[k], v)
		}
	}
}

func TestFlagOverrides_Unset(t *testing.T) {
	app := &cli.App{
		Flags: globalFlags(),
		Action: func(c *cli.Context) error {
			if got := flagOverrides(c); len(got) != 0 {
				t.Errorf("overrides = %v, want none", got)
			}
			return nil
		},
	}

	if err := app.Run([]string{"test"}); err != nil {
		t.Fatalf("app.Run failed: %v", err)
	}
}

func TestRunShell_Scenario(t *testing.T) {
	history := filepath.Join(t.TempDir(), ".cmd_history")

	stdout, _, err := runApp(t, "put 3 7\nget 3\nxyz\nquit\nget 3\n",
		"--in-memory", "--history-file", history)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !strings.HasPrefix(stdout, "  Usage:\n") {
		t.Errorf("stdout should start with usage table:\n%s", stdout)
	}
	if !strings.Contains(stdout, "\n7\n") {
		t.Errorf("stdout missing get result:\n%s", stdout)
	}
	if strings.Count(stdout, "unrecognized command") != 1 {
		t.Errorf("stdout should reject exactly one line:\n%s", stdout)
	}

	data, err := os.ReadFile(history)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "put 3 7\nget 3\nxyz\nquit\n" {
		t.Errorf("history = %q", data)
	}
}

func TestRunShell_EOF(t *testing.T) {
	history := filepath.Join(t.TempDir(), "history")

	stdout, _, err := runApp(t, "put 1 2\nget 1", "--in-memory", "--history-file", history)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.HasSuffix(stdout, "2\n") {
		t.Errorf("stdout = %q, want get result before exit", stdout)
	}
}

func TestRunShell_Persistent(t *testing.T) {
	dir := t.TempDir()
	args := []string{"--data-dir", filepath.Join(dir, "db"), "--history-file", filepath.Join(dir, "h")}

	if _, _, err := runApp(t, "put -5 50\nq\n", args...); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	stdout, _, err := runApp(t, "g -5\nq\n", args...)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if !strings.Contains(stdout, "\n50\n") {
		t.Errorf("value should survive restart:\n%s", stdout)
	}
}

func TestRunShell_OutputFormat(t *testing.T) {
	history := filepath.Join(t.TempDir(), "history")

	stdout, _, err := runApp(t, "put 1 2\nrange 0 5\nq\n",
		"--in-memory", "--history-file", history, "-o", "json")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stdout, `"key": 1`) || !strings.Contains(stdout, `"value": 2`) {
		t.Errorf("range should print JSON:\n%s", stdout)
	}
}

func TestRunShell_InvalidConfig(t *testing.T) {
	_, _, err := runApp(t, "", "--in-memory", "-o", "xml")
	if err == nil {
		t.Fatal("expected error for invalid output format")
	}
	if !strings.Contains(err.Error(), "cli.output") {
		t.Errorf("error = %v", err)
	}
}

func TestRunShell_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "lsmdb.yaml")
	content := "cli:\n  history_file: " + filepath.Join(dir, "hist") + "\nstorage:\n  in_memory: true\nlog:\n  level: debug\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := runApp(t, "get 1\nq\n", "--config", cfgPath, "--log-format", "json")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(stderr, `"msg":"session started"`) {
		t.Errorf("debug logs should be JSON on stderr:\n%s", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "hist")); err != nil {
		t.Errorf("history file from config not written: %v", err)
	}
}

// blockingCloser blocks Close until release is closed.
type blockingCloser struct {
	release chan struct{}
}

func (c *blockingCloser) Close() error {
	<-c.release
	return nil
}

func TestCloseWithin(t *testing.T) {
	c := &blockingCloser{release: make(chan struct{})}
	close(c.release)
	if err := closeWithin(context.Background(), c); err != nil {
		t.Errorf("closeWithin() error = %v", err)
	}
}

func TestCloseWithin_Timeout(t *testing.T) {
	c := &blockingCloser{release: make(chan struct{})}
	defer close(c.release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := closeWithin(ctx, c); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("closeWithin() error = %v, want deadline exceeded", err)
	}
}

func TestWatchLogLevel(t *testing.T) {
	prev := logger.GetLevel()
	t.Cleanup(func() { logger.SetLevel(prev) })
	logger.SetLevel("warn")

	path := filepath.Join(t.TempDir(), "lsmdb.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: warn\n"), 0644); err != nil {
		t.Fatal(err)
	}

	stop := watchLogLevel(path, logger.Discard())
	defer stop()

	waitLevel := func(want string) bool {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if logger.GetLevel() == want {
				return true
			}
			time.Sleep(10 * time.Millisecond)
		}
		return false
	}

	if err := os.WriteFile(path, []byte("log:\n  level: verbose\n"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := logger.GetLevel(); got != "warn" {
		t.Errorf("level = %q after invalid value, want warn", got)
	}

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !waitLevel("debug") {
		t.Errorf("level = %q, want debug after config change", logger.GetLevel())
	}
}
