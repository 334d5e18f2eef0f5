package lazyload

import (
	"sync"
	"time"
)

// Throttle runs fn at most once per window. The first call in a burst runs
// immediately; later calls are dropped until the window has elapsed.
// It is not a debounce.
type Throttle struct {
	fn    func()
	limit time.Duration

	mu      sync.Mutex
	wait    bool
	timer   *time.Timer
	stopped bool
}

// NewThrottle wraps fn. A limit <= 0 means DefaultThrottle.
func NewThrottle(fn func(), limit time.Duration) *Throttle {
	if limit <= 0 {
		limit = DefaultThrottle
	}
	return &Throttle{fn: fn, limit: limit}
}

// Limit returns the window length.
func (t *Throttle) Limit() time.Duration { return t.limit }

// Call runs fn on the calling goroutine unless a window is open.
// Reports whether fn ran.
func (t *Throttle) Call() bool {
	t.mu.Lock()
	if t.wait || t.stopped {
		t.mu.Unlock()
		return false
	}
	t.wait = true
	t.timer = time.AfterFunc(t.limit, t.reopen)
	t.mu.Unlock()

	t.fn()
	return true
}

func (t *Throttle) reopen() {
	t.mu.Lock()
	t.wait = false
	t.mu.Unlock()
}

// Stop drops all future calls.
func (t *Throttle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}
