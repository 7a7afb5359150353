package allocator

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// ErrOutOfMemory indicates the host could not obtain more backing storage
// for the arena. It is the only allocation failure propagated to callers.
var ErrOutOfMemory = errors.New("arena out of memory")

// DefaultSlabSize is the granularity at which an arena requests backing
// storage. Requests larger than a slab get a dedicated slab of their own.
const DefaultSlabSize = 64 * 1024

// maxAllocation caps a single request; anything beyond it is treated as
// resource exhaustion rather than a recoverable condition.
const maxAllocation = int64(1) << 36

// Arena is a bump allocator owned exclusively by one execution context.
// Grown storage never relocates: each slab is pinned by the slabs slice, so
// previously returned addresses remain valid until the arena itself is
// dropped. Individual blocks are never freed.
type Arena struct {
	mu       sync.Mutex
	slabSize int
	slabs    [][]byte
	used     int // bytes consumed from the last slab
	total    int64
}

// New returns an empty arena with the default slab size.
func New() *Arena {
	return NewWithSlabSize(DefaultSlabSize)
}

// NewWithSlabSize returns an empty arena growing in slabs of the given size.
func NewWithSlabSize(slabSize int) *Arena {
	if slabSize < 1 {
		slabSize = DefaultSlabSize
	}
	return &Arena{slabSize: slabSize}
}

// Allocate bump-allocates a block of the given size and alignment and
// returns its address. The alignment must be a power of two; zero or
// negative values fall back to the platform word size. The returned address
// stays valid for the lifetime of the owning context.
func (a *Arena) Allocate(size int64, align int) (unsafe.Pointer, error) {
	if size < 0 {
		return nil, fmt.Errorf("negative allocation size %d: %w", size, ErrOutOfMemory)
	}
	if align <= 0 {
		align = int(unsafe.Sizeof(uintptr(0)))
	}
	if align&(align-1) != 0 {
		return nil, fmt.Errorf("alignment %d is not a power of two", align)
	}
	if size+int64(align) > maxAllocation {
		return nil, fmt.Errorf("allocation of %d bytes: %w", size, ErrOutOfMemory)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if p := a.claim(size, align); p != nil {
		return p, nil
	}
	if err := a.grow(size, align); err != nil {
		return nil, err
	}
	p := a.claim(size, align)
	if p == nil {
		// A fresh slab sized for the request always fits it.
		return nil, fmt.Errorf("allocation of %d bytes align %d: %w", size, align, ErrOutOfMemory)
	}
	return p, nil
}

// Size returns the total number of bytes handed out so far.
func (a *Arena) Size() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}

// claim tries to carve the request out of the current slab. Caller holds mu.
func (a *Arena) claim(size int64, align int) unsafe.Pointer {
	if len(a.slabs) == 0 {
		return nil
	}
	slab := a.slabs[len(a.slabs)-1]
	base := unsafe.Pointer(unsafe.SliceData(slab))
	// Align the offset so the resulting address is aligned; the pointer
	// itself never leaves pointer domain.
	mask := uintptr(align) - 1
	off := uintptr(a.used)
	if rem := (uintptr(base) + off) & mask; rem != 0 {
		off += uintptr(align) - rem
	}
	end := off + uintptr(size)
	if end > uintptr(len(slab)) {
		return nil
	}
	a.used = int(end)
	a.total += size
	return unsafe.Add(base, off)
}

// grow appends a slab large enough for the request. Caller holds mu.
func (a *Arena) grow(size int64, align int) error {
	need := size + int64(align)
	slabSize := int64(a.slabSize)
	if need > slabSize {
		slabSize = need
	}
	slab := make([]byte, slabSize)
	a.slabs = append(a.slabs, slab)
	a.used = 0
	return nil
}
