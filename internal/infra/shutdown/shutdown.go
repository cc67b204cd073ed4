// Package shutdown provides graceful shutdown handling.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Reason tells why the handler started shutting down.
type Reason string

// Shutdown reasons.
const (
	ReasonCommand Reason = "command"
	ReasonSignal  Reason = "signal"
)

// Handler handles graceful shutdown.
type Handler struct {
	timeout time.Duration
	trigger *Latch
	hooks   []func(context.Context) error
	mu      sync.Mutex
	reason  Reason
	done    chan struct{}

	once sync.Once
	err  error
}

// NewHandler creates a new shutdown handler. trigger may be nil, in which
// case only OS signals start the shutdown.
func NewHandler(timeout time.Duration, trigger *Latch) *Handler {
	return &Handler{
		timeout: timeout,
		trigger: trigger,
		hooks:   make([]func(context.Context) error, 0),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Wait blocks until the trigger latch fires or SIGINT/SIGTERM is received,
// then executes the hooks. It returns the last hook error. A signal also
// fires the latch so components watching it stop serving. Later calls
// wait for the first one and return its result.
func (h *Handler) Wait() error {
	h.once.Do(func() {
		h.err = h.wait()
		close(h.done)
	})
	return h.err
}

func (h *Handler) wait() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var fired <-chan struct{}
	if h.trigger != nil {
		fired = h.trigger.Done()
	}

	var reason Reason
	select {
	case <-sigCh:
		reason = ReasonSignal
		if h.trigger != nil {
			h.trigger.Fire()
		}
	case <-fired:
		reason = ReasonCommand
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	h.reason = reason
	hooks := make([]func(context.Context) error, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var lastErr error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i](ctx); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Reason returns why shutdown started, or "" while still waiting.
func (h *Handler) Reason() Reason {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reason
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
