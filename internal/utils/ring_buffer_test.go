package utils

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBuffer_NewRingBuffer(t *testing.T) {
	t.Run("positive size", func(t *testing.T) {
		rb := NewRingBuffer[int](3)
		assert.Equal(t, 3, rb.Cap())
		assert.Equal(t, 0, rb.Len())
		assert.Empty(t, rb.ToSlice())
		assert.NotNil(t, rb.ToSlice())
	})

	t.Run("zero size panics", func(t *testing.T) {
		assert.Panics(t, func() { NewRingBuffer[int](0) })
	})

	t.Run("negative size panics", func(t *testing.T) {
		assert.Panics(t, func() { NewRingBuffer[int](-1) })
	})
}

func TestRingBuffer_Push(t *testing.T) {
	rb := NewRingBuffer[int](3)

	assert.False(t, rb.Push(1))
	assert.False(t, rb.Push(2))
	assert.False(t, rb.Push(3))
	assert.Equal(t, 3, rb.Len())

	for i, exp := range []int{1, 2, 3} {
		assert.Equal(t, exp, rb.At(i), "At(%d)", i)
	}
}

func TestRingBuffer_OverwriteOnFull(t *testing.T) {
	rb := NewRingBuffer[int](3)

	rb.Push(1)
	rb.Push(2)
	rb.Push(3)
	evicted := rb.Push(4)

	assert.True(t, evicted, "pushing into a full buffer evicts")
	assert.Equal(t, 3, rb.Len())
	assert.Equal(t, []int{2, 3, 4}, rb.ToSlice())
}

func TestRingBuffer_FullOverwriteSequence(t *testing.T) {
	rb := NewRingBuffer[int](3)
	for i := 1; i <= 6; i++ {
		rb.Push(i)
	}
	assert.Equal(t, []int{4, 5, 6}, rb.ToSlice())
}

func TestRingBuffer_At_IndexOutOfBounds(t *testing.T) {
	rb := NewRingBuffer[int](3)
	rb.Push(10)

	assert.Panics(t, func() { _ = rb.At(-1) })
	assert.Panics(t, func() { _ = rb.At(1) })
}

func TestRingBuffer_CapAndLen(t *testing.T) {
	rb := NewRingBuffer[struct{}](5)
	for i := 0; i < 7; i++ {
		rb.Push(struct{}{})
		assert.LessOrEqual(t, rb.Len(), rb.Cap(), "after push %d", i+1)
	}
	assert.Equal(t, 5, rb.Cap())
}

func TestRingBuffer_ConcurrentPush(t *testing.T) {
	rb := NewRingBuffer[int](100)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				rb.Push(i)
				_ = rb.ToSlice()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, rb.Len())
}
