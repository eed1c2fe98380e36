// Package ring provides a fixed-capacity ring buffer with O(1) append.
// Once full, each append evicts the oldest entry.
package ring

import "sync"

// Buffer is a bounded FIFO over a circular slice. Safe for concurrent use.
type Buffer[T any] struct {
	mu    sync.RWMutex
	items []T
	head  int // index of oldest entry
	size  int
}

// New creates a buffer holding at most capacity entries
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends an entry, evicting the oldest when full
func (b *Buffer[T]) Push(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tail := (b.head + b.size) % len(b.items)
	b.items[tail] = item
	if b.size < len(b.items) {
		b.size++
	} else {
		b.head = (b.head + 1) % len(b.items)
	}
}

// Len returns the number of stored entries
func (b *Buffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Newest returns up to limit entries, most recent first.
// limit <= 0 returns everything.
func (b *Buffer[T]) Newest(limit int) []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := b.size
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		idx := (b.head + b.size - 1 - i + len(b.items)) % len(b.items)
		out = append(out, b.items[idx])
	}
	return out
}
