package shutdown

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestNewHandler(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	if h == nil {
		t.Fatal("NewHandler returned nil")
	}
	if h.timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", h.timeout)
	}
	if h.hooks == nil {
		t.Error("hooks should be initialized")
	}
	if h.done == nil {
		t.Error("done channel should be initialized")
	}
	if h.Reason() != "" {
		t.Errorf("Reason() = %q before Wait, want empty", h.Reason())
	}
}

func TestHandler_Done(t *testing.T) {
	h := NewHandler(5*time.Second, nil)

	select {
	case <-h.Done():
		t.Error("Done channel should not be closed initially")
	default:
	}
}

func TestHandler_Wait_Latch(t *testing.T) {
	latch := NewLatch()
	h := NewHandler(5*time.Second, latch)

	callOrder := make([]int, 0)
	var mu sync.Mutex
	for i := 1; i <= 3; i++ {
		i := i
		h.OnShutdown(func(ctx context.Context) error {
			mu.Lock()
			callOrder = append(callOrder, i)
			mu.Unlock()
			return nil
		})
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Wait()
	}()

	// Hooks must not run before the latch fires.
	time.Sleep(20 * time.Millisecond)
	mu.Lock()
	if len(callOrder) != 0 {
		t.Fatalf("hooks ran before trigger: %v", callOrder)
	}
	mu.Unlock()

	latch.Fire()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(callOrder) != 3 || callOrder[0] != 3 || callOrder[1] != 2 || callOrder[2] != 1 {
		t.Errorf("hooks called in wrong order: %v, want [3 2 1]", callOrder)
	}
	if h.Reason() != ReasonCommand {
		t.Errorf("Reason() = %q, want %q", h.Reason(), ReasonCommand)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Wait completes")
	}
}

func TestHandler_Wait_HookError(t *testing.T) {
	latch := NewLatch()
	h := NewHandler(5*time.Second, latch)

	expectedErr := errors.New("hook error")
	h.OnShutdown(func(ctx context.Context) error { return nil })
	h.OnShutdown(func(ctx context.Context) error { return expectedErr })
	h.OnShutdown(func(ctx context.Context) error { return nil })

	latch.Fire()
	if err := h.Wait(); !errors.Is(err, expectedErr) {
		t.Errorf("Wait() returned %v, want %v", err, expectedErr)
	}
}

func TestHandler_Wait_HookDeadline(t *testing.T) {
	latch := NewLatch()
	h := NewHandler(30*time.Millisecond, latch)

	h.OnShutdown(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	latch.Fire()
	if err := h.Wait(); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() returned %v, want context.DeadlineExceeded", err)
	}
}

func TestHandler_Wait_WithSignal(t *testing.T) {
	latch := NewLatch()
	h := NewHandler(5*time.Second, latch)

	called := make(chan struct{})
	h.OnShutdown(func(ctx context.Context) error {
		close(called)
		return nil
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Wait()
	}()

	// Give Wait time to set up signal handler
	time.Sleep(50 * time.Millisecond)

	syscall.Kill(syscall.Getpid(), syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}

	select {
	case <-called:
	default:
		t.Error("hook was not called")
	}
	if h.Reason() != ReasonSignal {
		t.Errorf("Reason() = %q, want %q", h.Reason(), ReasonSignal)
	}
	if !latch.Fired() {
		t.Error("signal should fire the latch")
	}
}

func TestHandler_Wait_Twice(t *testing.T) {
	latch := NewLatch()
	h := NewHandler(time.Second, latch)

	calls := 0
	expectedErr := errors.New("hook failed")
	h.OnShutdown(func(context.Context) error {
		calls++
		return expectedErr
	})

	latch.Fire()
	for i := 0; i < 2; i++ {
		if err := h.Wait(); !errors.Is(err, expectedErr) {
			t.Errorf("Wait() #%d returned %v, want %v", i+1, err, expectedErr)
		}
	}
	if calls != 1 {
		t.Errorf("hook called %d times, want 1", calls)
	}
	select {
	case <-h.Done():
	default:
		t.Error("Done() should be closed")
	}
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := NewHandler(5*time.Second, nil)

	var wg sync.WaitGroup
	numGoroutines := 10

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown(func(ctx context.Context) error {
				return nil
			})
		}()
	}

	wg.Wait()

	h.mu.Lock()
	if len(h.hooks) != numGoroutines {
		t.Errorf("expected %d hooks, got %d", numGoroutines, len(h.hooks))
	}
	h.mu.Unlock()
}
