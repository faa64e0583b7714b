package eventhandler

import (
	"time"

	"github.com/domi413/typetrace-backend/internal/keystroke"
)

// buffer is the coalescing buffer: a bounded sequence with two flush
// triggers, size and time. It is embedded directly in EventHandler
// rather than exposed as its own package, since nothing outside
// EventHandler needs more than push/flush-predicate/take-all-and-clear.
type buffer struct {
	pending     []keystroke.Event
	capacity    int
	timeout     time.Duration
	windowStart time.Time
}

func newBuffer(capacity int, timeout time.Duration, start time.Time) *buffer {
	return &buffer{
		pending:     make([]keystroke.Event, 0, capacity),
		capacity:    capacity,
		timeout:     timeout,
		windowStart: start,
	}
}

// push appends ev. Callers must check shouldFlush afterward; push itself
// never flushes, so len(pending) can exceed capacity between a push and
// the following flush check.
func (b *buffer) push(ev keystroke.Event) {
	b.pending = append(b.pending, ev)
}

func (b *buffer) len() int {
	return len(b.pending)
}

// shouldFlush is the flush predicate: size trigger OR (non-empty AND time
// trigger). Evaluated once per tick, including ticks that observed no
// events, so a long-silent buffer still drains.
func (b *buffer) shouldFlush(now time.Time) bool {
	if len(b.pending) >= b.capacity {
		return true
	}
	return len(b.pending) > 0 && now.Sub(b.windowStart) >= b.timeout
}

// takeAll returns the pending events and clears the buffer, regardless of
// which trigger fired.
func (b *buffer) takeAll() []keystroke.Event {
	out := b.pending
	b.pending = make([]keystroke.Event, 0, b.capacity)
	return out
}

func (b *buffer) resetWindow(now time.Time) {
	b.windowStart = now
}
