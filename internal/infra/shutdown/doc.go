// Package shutdown coordinates graceful termination of vftledger serve.
//
// A signal context ends the running workers; registered hooks then run
// in reverse order under a shared timeout (final checkpoint, metrics
// listener, storage close).
//
// Usage:
//
//	ctx, cancel := shutdown.WithSignals(context.Background())
//	defer cancel()
//	h := shutdown.NewHandler(10*time.Second, log)
//	h.OnShutdown("storage", engine.Close)
//	<-ctx.Done()
//	err := h.Shutdown()
package shutdown
