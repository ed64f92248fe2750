package eventbus

import (
	"context"
	"sync"
)

// Handle is one subscriber's cursor into a Bus.
// A Handle must not be read from more than one goroutine at a time.
type Handle[T Cloner[T]] struct {
	bus       *Bus[T]
	next      uint64 // guarded by bus.mu
	closed    bool   // guarded by bus.mu
	done      chan struct{}
	closeOnce sync.Once
}

// Next blocks until the next event is available and returns a copy of it.
//
// It returns an *OverrunError if events were lost since the previous read,
// ErrClosed once the bus or handle is closed, or ctx.Err() if ctx ends first.
func (h *Handle[T]) Next(ctx context.Context) (T, error) {
	var zero T
	b := h.bus

	for {
		b.mu.Lock()
		if h.closed || b.closed {
			b.mu.Unlock()
			return zero, ErrClosed
		}

		if h.next < b.tail {
			if oldest := b.oldest(); h.next < oldest {
				missed := oldest - h.next
				h.next = oldest
				b.mu.Unlock()
				return zero, &OverrunError{Missed: missed}
			}
			ev := b.ring[h.next%b.capacity].Clone()
			h.next++
			b.mu.Unlock()
			return ev, nil
		}

		wait := b.notify
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-h.done:
		case <-wait:
		}
	}
}

// Close detaches the handle from the bus and wakes a blocked Next.
// Close is idempotent.
func (h *Handle[T]) Close() {
	h.closeOnce.Do(func() {
		b := h.bus
		b.mu.Lock()
		h.closed = true
		delete(b.handles, h)
		b.mu.Unlock()
		close(h.done)
	})
}
