// Package arena implements the per-VM memory arena described in
// njs-go's core design: one region owning every heap allocation a VM
// makes beyond the 16-byte inline Value payload, freed in bulk when the
// VM is destroyed. It is modeled directly on the teacher's
// core/arena.Allocator interface (alloc/align/free/destroy), which the
// teacher's own runtime tests exercise via Config.EVMConfig.Allocator.
package arena

import (
	"unsafe"

	"github.com/pkg/errors"
)

// ErrOutOfMemory is returned (and, at the VM level, surfaced as the
// njs MemoryError singleton, spec §7) when an Allocator cannot satisfy
// a request.
var ErrOutOfMemory = errors.New("arena: out of memory")

// Allocator is the arena contract the VM core consumes. Implementations
// need not be safe for concurrent use; a VM instance is single-threaded
// (spec §5).
type Allocator interface {
	// Alloc returns size bytes of zeroed, arena-owned storage.
	Alloc(size int) ([]byte, error)
	// Align returns an allocation whose start address is a multiple of
	// align (align must be a power of two).
	Align(size, align int) ([]byte, error)
	// Free returns b to the allocator. Bump-style allocators may treat
	// this as a no-op; it exists so pooling allocators can reclaim
	// short-lived buffers (e.g. a call frame's argument vector).
	Free(b []byte)
	// Destroy releases every byte the allocator has ever handed out.
	// Destroy is O(1) for arena/bump allocators.
	Destroy()
}

// HeapAllocator delegates to the Go heap/GC. It is the default
// Allocator, used whenever a host does not supply one; it exists mainly
// so BumpAllocator has something to be compared against in tests and
// so a VM can be safely kept alive longer than one request without
// accumulating one giant slab.
type HeapAllocator struct {
	live [][]byte
}

// NewHeapAllocator returns the default GC-backed allocator.
func NewHeapAllocator() *HeapAllocator {
	return &HeapAllocator{}
}

func (h *HeapAllocator) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, errors.Errorf("arena: negative size %d", size)
	}
	b := make([]byte, size)
	h.live = append(h.live, b)
	return b, nil
}

func (h *HeapAllocator) Align(size, align int) ([]byte, error) {
	// The Go heap always returns sufficiently aligned allocations for
	// any size up to the platform word size; for larger alignments we
	// over-allocate by align-1 bytes and trim with alignSlice.
	if align <= 8 {
		return h.Alloc(size)
	}
	raw, err := h.Alloc(size + align - 1)
	if err != nil {
		return nil, err
	}
	return alignSlice(raw, size, align), nil
}

func (h *HeapAllocator) Free(b []byte) {
	// GC reclaims it; nothing to do.
}

func (h *HeapAllocator) Destroy() {
	h.live = nil
}

// BumpAllocator is a slab/bump allocator: allocations are served from a
// single contiguous slab by advancing an offset; Free is a no-op, and
// Destroy resets the offset to zero, releasing everything in O(1). It
// is the concrete allocator the teacher's runtime tests
// (core/vm/runtime/arena_test.go TestExecuteWithBumpAllocator,
// TestNestedCallsWithBumpAllocator) compare against the heap path to
// prove per-call-frame allocations (Contract/Memory/Stack equivalents
// here: Frame/Object/FlatHash) behave identically either way.
type BumpAllocator struct {
	slab   []byte
	offset int
}

// NewBumpAllocator wraps a pre-allocated slab. The VM draws all
// per-invocation heap (values beyond the 16-byte inline payload,
// property maps, frames, compiled code, per spec §3.6) from slab until
// it is exhausted.
func NewBumpAllocator(slab []byte) *BumpAllocator {
	return &BumpAllocator{slab: slab}
}

func (b *BumpAllocator) Alloc(size int) ([]byte, error) {
	return b.Align(size, 8)
}

func (b *BumpAllocator) Align(size, align int) ([]byte, error) {
	if size < 0 {
		return nil, errors.Errorf("arena: negative size %d", size)
	}
	start := alignUp(b.offset, align)
	end := start + size
	if end > len(b.slab) {
		return nil, ErrOutOfMemory
	}
	region := b.slab[start:end:end]
	for i := range region {
		region[i] = 0
	}
	b.offset = end
	return region, nil
}

// Free is a no-op: bump allocators never reclaim individual
// allocations, only the whole slab via Destroy.
func (b *BumpAllocator) Free([]byte) {}

// Destroy resets the bump offset, making the entire slab available
// again. It does not zero the slab eagerly; Align zeroes on reuse.
func (b *BumpAllocator) Destroy() {
	b.offset = 0
}

// Used reports how many bytes of the slab are currently allocated.
func (b *BumpAllocator) Used() int { return b.offset }

// Cap reports the slab's total capacity.
func (b *BumpAllocator) Cap() int { return len(b.slab) }

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}

func alignSlice(raw []byte, size, align int) []byte {
	addr := uintptr(unsafe.Pointer(&raw[0]))
	pad := alignUp(int(addr), align) - int(addr)
	return raw[pad : pad+size : pad+size]
}
