package shutdown

import "sync"

// Latch is a single-fire signal. It starts armed and transitions to fired
// at most once.
type Latch struct {
	once sync.Once
	done chan struct{}
}

// NewLatch returns an armed latch.
func NewLatch() *Latch {
	return &Latch{done: make(chan struct{})}
}

// Fire fires the latch. It reports true only for the call that performed
// the transition; later calls are no-ops.
func (l *Latch) Fire() bool {
	fired := false
	l.once.Do(func() {
		close(l.done)
		fired = true
	})
	return fired
}

// Wait blocks until the latch has fired.
func (l *Latch) Wait() {
	<-l.done
}

// Done returns a channel that is closed once the latch fires.
func (l *Latch) Done() <-chan struct{} {
	return l.done
}

// Fired reports whether the latch has fired.
func (l *Latch) Fired() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}
