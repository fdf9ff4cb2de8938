package connections

import (
	"log/slog"
	"sync"
	"time"
)

// WindowLimiter enforces a rolling per-minute call quota for one connection.
// Once the quota is reached inside the current 60-second window, Wait blocks
// until the window rolls over. A single mutex protects the counter because
// health checks may call in alongside the loop.
type WindowLimiter struct {
	mu          sync.Mutex
	rpm         int
	window      time.Duration
	windowStart time.Time
	count       int
	clock       Clock
}

// NewWindowLimiter creates a limiter allowing rpm calls per minute.
// rpm <= 0 disables limiting (Wait returns immediately).
func NewWindowLimiter(rpm int) *WindowLimiter {
	return &WindowLimiter{
		rpm:    rpm,
		window: time.Minute,
		clock:  SystemClock(),
	}
}

// SetClock replaces the wall clock. Test hook.
func (l *WindowLimiter) SetClock(c Clock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.clock = c
}

// Wait reserves one call slot, blocking until the window has capacity.
func (l *WindowLimiter) Wait() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rpm <= 0 {
		return
	}

	now := l.clock.Now()
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
		l.windowStart = now
		l.count = 0
	} else if l.count >= l.rpm {
		wait := l.window - now.Sub(l.windowStart)
		slog.Debug("rate limit reached, waiting for window reset", "wait", wait)
		l.clock.Sleep(wait)
		l.windowStart = l.clock.Now()
		l.count = 0
	}

	l.count++
}
