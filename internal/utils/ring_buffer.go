package utils

import "sync"

// RingBuffer is a fixed-size FIFO of T. Pushing into a full buffer evicts the
// oldest element. Elements are kept in arrival order, oldest first.
//
// Example:
//
//	rb := NewRingBuffer[int](3)
//	rb.Push(1)
//	rb.Push(2)
//	rb.Push(3)
//	rb.Push(4) // 1 is evicted
//	fmt.Println(rb.ToSlice()) // [2 3 4]
type RingBuffer[T any] struct {
	data  []T // backing storage
	size  int // capacity
	count int // number of stored elements
	head  int // index of the oldest element
	tail  int // index of the next write
	mu    sync.RWMutex
}

// NewRingBuffer creates a buffer holding at most size elements.
// Panics when size is not positive.
func NewRingBuffer[T any](size int) *RingBuffer[T] {
	if size <= 0 {
		panic("ring buffer size must be positive")
	}
	return &RingBuffer[T]{
		data: make([]T, size),
		size: size,
	}
}

// Push appends item, evicting the oldest element when the buffer is full.
// It reports whether an element was evicted.
func (rb *RingBuffer[T]) Push(item T) bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.data[rb.tail] = item
	rb.tail = (rb.tail + 1) % rb.size

	if rb.count < rb.size {
		rb.count++
		return false
	}
	rb.head = (rb.head + 1) % rb.size
	return true
}

// Len returns the number of stored elements, always within [0, Cap()].
func (rb *RingBuffer[T]) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Cap returns the buffer capacity.
func (rb *RingBuffer[T]) Cap() int {
	return rb.size
}

// At returns the i-th element, where 0 is the oldest and Len()-1 the newest.
// Panics when i is out of range.
func (rb *RingBuffer[T]) At(i int) T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.at(i)
}

func (rb *RingBuffer[T]) at(i int) T {
	if i < 0 || i >= rb.count {
		panic("index out of range")
	}
	return rb.data[(rb.head+i)%rb.size]
}

// ToSlice returns a copy of the stored elements, oldest first.
// An empty buffer yields an empty, non-nil slice.
func (rb *RingBuffer[T]) ToSlice() []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	result := make([]T, rb.count)
	for i := 0; i < rb.count; i++ {
		result[i] = rb.at(i)
	}
	return result
}
