// Package shutdown releases lsmdb resources when the process is signaled.
//
// The shell normally exits through quit or end of input. When a
// termination signal arrives while it is blocked on input, the registered
// hooks restore the terminal and close the storage engine before the
// process exits.
//
// Usage:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return engine.Close() })
//	sig, err := h.Wait(ctx) // nil signal when ctx ends first
package shutdown
