package eventbus

import "sync"

// DefaultCapacity is the retention used when New is given a non-positive size.
const DefaultCapacity = 100

// Cloner is implemented by event types. Each reader receives its own copy.
type Cloner[T any] interface {
	Clone() T
}

// Bus fans events of type T out to every attached Handle.
// It is safe for concurrent use.
type Bus[T Cloner[T]] struct {
	mu       sync.Mutex
	ring     []T
	tail     uint64 // sequence number of the next event
	notify   chan struct{}
	closed   bool
	handles  map[*Handle[T]]struct{}
	capacity uint64
}

// New creates a bus that retains the last capacity events.
func New[T Cloner[T]](capacity int) *Bus[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus[T]{
		ring:     make([]T, capacity),
		notify:   make(chan struct{}),
		handles:  make(map[*Handle[T]]struct{}),
		capacity: uint64(capacity),
	}
}

// Publish stores ev and wakes every waiting reader. It returns the number of
// handles attached at the time of the call, which may be zero.
func (b *Bus[T]) Publish(ev T) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	b.ring[b.tail%b.capacity] = ev.Clone()
	b.tail++

	close(b.notify)
	b.notify = make(chan struct{})

	return len(b.handles), nil
}

// Subscribe attaches a new handle positioned after the latest event.
// On a closed bus the handle is returned detached and reports ErrClosed.
func (b *Bus[T]) Subscribe() *Handle[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := &Handle[T]{
		bus:  b,
		next: b.tail,
		done: make(chan struct{}),
	}
	if !b.closed {
		b.handles[h] = struct{}{}
	}
	return h
}

// SubscriberCount returns the number of attached handles.
func (b *Bus[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handles)
}

// Published returns the total number of events published since creation.
func (b *Bus[T]) Published() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tail
}

// Capacity returns the number of events retained.
func (b *Bus[T]) Capacity() int {
	return int(b.capacity)
}

// Close shuts the bus down. Every handle reports ErrClosed from then on.
// Close is idempotent.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	clear(b.handles)
	close(b.notify)
}

// oldest returns the sequence number of the oldest retained event.
// Caller must hold b.mu.
func (b *Bus[T]) oldest() uint64 {
	if b.tail > b.capacity {
		return b.tail - b.capacity
	}
	return 0
}
