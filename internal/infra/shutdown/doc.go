// Package shutdown provides the shutdown coordination for vedis.
//
// Two pieces live here:
//
//   - Latch: a one-shot signal fired by the SHUTDOWN command. Firing is
//     idempotent; any number of goroutines may wait on it.
//   - Handler: the process run loop. It blocks until the Latch fires or
//     SIGINT/SIGTERM arrives, then runs cleanup hooks under a timeout.
//
// Usage:
//
//	latch := shutdown.NewLatch()
//	h := shutdown.NewHandler(30*time.Second, latch)
//	h.OnShutdown(srv.Shutdown)
//	_ = h.Wait()
package shutdown
