// Package shutdown releases lsmdb resources when the process is signaled.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// DefaultSignals are the signals Wait reacts to when none are given.
var DefaultSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// Handler runs cleanup hooks on a termination signal.
type Handler struct {
	timeout time.Duration
	signals []os.Signal
	hooks   []func(context.Context) error
	mu      sync.Mutex
	once    sync.Once
	err     error
}

// NewHandler creates a new shutdown handler.
// Hooks share a context bounded by timeout.
func NewHandler(timeout time.Duration, signals ...os.Signal) *Handler {
	if len(signals) == 0 {
		signals = DefaultSignals
	}
	return &Handler{
		timeout: timeout,
		signals: signals,
		hooks:   make([]func(context.Context) error, 0),
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Wait blocks until a signal arrives or ctx is done.
//
// On a signal it runs the hooks and returns the signal with the last hook
// error. When ctx ends first it returns a nil signal and runs nothing.
func (h *Handler) Wait(ctx context.Context) (os.Signal, error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, h.signals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		return sig, h.Shutdown()
	case <-ctx.Done():
		return nil, nil
	}
}

// Shutdown runs the hooks once and returns the last hook error.
// Later calls return the same error without running hooks again.
func (h *Handler) Shutdown() error {
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()

		h.mu.Lock()
		hooks := make([]func(context.Context) error, len(h.hooks))
		copy(hooks, h.hooks)
		h.mu.Unlock()

		for i := len(hooks) - 1; i >= 0; i-- {
			if err := hooks[i](ctx); err != nil {
				h.err = err
			}
		}
	})
	return h.err
}

// ExitCode returns the conventional exit status for a process
// terminated by sig.
func ExitCode(sig os.Signal) int {
	if s, ok := sig.(syscall.Signal); ok {
		return 128 + int(s)
	}
	return 1
}
