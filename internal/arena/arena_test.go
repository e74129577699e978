package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBumpAllocatorServesWithinCapacity(t *testing.T) {
	a := NewBumpAllocator(make([]byte, 64))
	b1, err := a.Alloc(10)
	require.NoError(t, err)
	require.Len(t, b1, 10)

	b2, err := a.Alloc(10)
	require.NoError(t, err)
	require.Len(t, b2, 10)
	// Alloc aligns to 8 bytes: the second block starts at 16, ends at 26.
	require.Equal(t, 26, a.Used())
}

func TestBumpAllocatorOutOfMemory(t *testing.T) {
	a := NewBumpAllocator(make([]byte, 8))
	_, err := a.Alloc(16)
	require.ErrorIs(t, err, ErrOutOfMemory)
}

func TestBumpAllocatorDestroyResets(t *testing.T) {
	a := NewBumpAllocator(make([]byte, 16))
	_, err := a.Alloc(16)
	require.NoError(t, err)
	_, err = a.Alloc(1)
	require.ErrorIs(t, err, ErrOutOfMemory)

	a.Destroy()
	require.Equal(t, 0, a.Used())
	_, err = a.Alloc(16)
	require.NoError(t, err)
}

func TestBumpAllocatorAlignment(t *testing.T) {
	a := NewBumpAllocator(make([]byte, 64))
	_, err := a.Alloc(3) // misalign the offset
	require.NoError(t, err)

	b, err := a.Align(8, 16)
	require.NoError(t, err)
	require.Len(t, b, 8)
}

// TestHeapAndBumpAllocatorsAgree mirrors the teacher's
// TestExecuteWithBumpAllocator / TestCallWithBumpAllocator pattern: run
// the same sequence of allocations through both allocator kinds and
// check their observable byte contents match.
func TestHeapAndBumpAllocatorsAgree(t *testing.T) {
	run := func(a Allocator) []byte {
		b, _ := a.Alloc(4)
		b[0], b[1], b[2], b[3] = 1, 2, 3, 4
		return append([]byte{}, b...)
	}

	heap := run(NewHeapAllocator())
	bump := run(NewBumpAllocator(make([]byte, 64)))
	require.Equal(t, heap, bump)
}
