package task

import (
	"sync/atomic"
	"unsafe"
)

// Func is the Go-side signature of a compiled task body. The compiled kernel
// invokes one task per 3D coordinate of the launch extent; the runtime passes
// the flattened task index, the total task count and the executing thread's
// index/count so the body can depend on deterministic numbering.
type Func func(data unsafe.Pointer, threadIndex, threadCount int32,
	taskIndex, taskCount int32,
	taskIndex0, taskIndex1, taskIndex2 int32,
	taskCount0, taskCount1, taskCount2 int32)

// Extent is the three-dimensional task count of one launch.
type Extent struct {
	N0 int32 `json:"n0" yaml:"n0"`
	N1 int32 `json:"n1" yaml:"n1"`
	N2 int32 `json:"n2" yaml:"n2"`
}

// Total returns the flattened task count n0*n1*n2. Negative counts are
// treated as empty launches.
func (e Extent) Total() int64 {
	if e.N0 <= 0 || e.N1 <= 0 || e.N2 <= 0 {
		return 0
	}
	return int64(e.N0) * int64(e.N1) * int64(e.N2)
}

// Coordinates recovers the 3D coordinates of a flattened task index.
func (e Extent) Coordinates(index int64) (int32, int32, int32) {
	i0 := int32(index % int64(e.N0))
	rest := index / int64(e.N0)
	i1 := int32(rest % int64(e.N1))
	i2 := int32(rest / int64(e.N1))
	return i0, i1, i2
}

// DefaultChunkSize is the dispatch granularity used when no override is
// supplied at launch time.
const DefaultChunkSize = 4

// Group represents the set of tasks created by one launch call. The group
// owns no caller data; the data pointer's lifetime is the caller's
// responsibility. Execution is deferred entirely to sync time: a group is
// only a partitionable index space until an executor starts claiming chunks.
type Group struct {
	fn        Func
	data      unsafe.Pointer
	extent    Extent
	chunkSize int64
	numChunks int64

	// cursor hands each chunk ordinal to exactly one executor; completed
	// counts chunks that finished running. done flips once and never reverts.
	cursor    atomic.Int64
	completed atomic.Int64
	done      atomic.Bool
}

// NewGroup builds a group over the flattened [0, extent.Total()) index space
// partitioned into consecutive ranges of at most chunkSize indices. The chunk
// size is snapshotted here so that every executor, including ones borrowing
// work from another context, sees the same partition.
func NewGroup(fn Func, data unsafe.Pointer, extent Extent, chunkSize int) *Group {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	g := &Group{
		fn:        fn,
		data:      data,
		extent:    extent,
		chunkSize: int64(chunkSize),
	}
	total := extent.Total()
	g.numChunks = (total + g.chunkSize - 1) / g.chunkSize
	if g.numChunks == 0 {
		// An empty launch has nothing to execute and is born complete.
		g.done.Store(true)
	}
	return g
}

// Extent returns the 3D task count of this group.
func (g *Group) Extent() Extent { return g.extent }

// Data returns the caller-provided argument block.
func (g *Group) Data() unsafe.Pointer { return g.data }

// NumChunks returns the number of chunks in the partition.
func (g *Group) NumChunks() int64 { return g.numChunks }

// Done reports whether every chunk of this group has finished executing.
func (g *Group) Done() bool { return g.done.Load() }

// Claim hands out the next unclaimed chunk in ascending flattened-index
// order, or nil once every chunk has been claimed. Each chunk is returned to
// exactly one caller; the claimed chunk must subsequently be executed.
func (g *Group) Claim() *Chunk {
	if g.numChunks == 0 {
		return nil
	}
	n := g.cursor.Add(1) - 1
	if n >= g.numChunks {
		return nil
	}
	return g.chunkAt(n)
}

// Chunks materialises the full partition without claiming it. It is intended
// for inspection; executing an unclaimed chunk corrupts the group's
// completion accounting.
func (g *Group) Chunks() []*Chunk {
	out := make([]*Chunk, 0, g.numChunks)
	for n := int64(0); n < g.numChunks; n++ {
		out = append(out, g.chunkAt(n))
	}
	return out
}

func (g *Group) chunkAt(n int64) *Chunk {
	start := n * g.chunkSize
	end := start + g.chunkSize
	if total := g.extent.Total(); end > total {
		end = total
	}
	return &Chunk{group: g, start: start, end: end}
}
