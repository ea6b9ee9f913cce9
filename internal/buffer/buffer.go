// Package buffer provides a fixed-capacity, newest-first history buffer.
package buffer

// Buffer holds the most recent items pushed into it, newest first.
// Once the length exceeds the capacity the oldest items are discarded,
// so Len() <= Cap() holds after every operation. The zero value is not
// usable; construct with New.
type Buffer[T any] struct {
	items []T
	cap   int
}

// New creates a buffer with the given capacity. Capacities below 1 are
// treated as 1.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{
		items: make([]T, 0, capacity),
		cap:   capacity,
	}
}

// Push inserts item at the head. If the buffer is full the oldest item
// is dropped.
func (b *Buffer[T]) Push(item T) {
	if len(b.items) < b.cap {
		b.items = append(b.items, item)
		copy(b.items[1:], b.items)
		b.items[0] = item
		return
	}
	// Full: shift right, overwriting the tail.
	copy(b.items[1:], b.items[:b.cap-1])
	b.items[0] = item
}

// Items returns a copy of the current contents, newest first.
func (b *Buffer[T]) Items() []T {
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

// Each calls fn with a pointer to every held item, newest first,
// allowing in-place updates.
func (b *Buffer[T]) Each(fn func(*T)) {
	for i := range b.items {
		fn(&b.items[i])
	}
}

// Head returns the most recently pushed item, or false when empty.
func (b *Buffer[T]) Head() (T, bool) {
	if len(b.items) == 0 {
		var zero T
		return zero, false
	}
	return b.items[0], true
}

// Len returns the number of items currently held.
func (b *Buffer[T]) Len() int { return len(b.items) }

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int { return b.cap }
