package task

// Chunk is a contiguous sub-range of a group's flattened index space, the
// unit of dispatch. It holds no state beyond the range and a back-reference
// to its group.
type Chunk struct {
	group      *Group
	start, end int64
}

// Group returns the owning task group.
func (c *Chunk) Group() *Group { return c.group }

// Range returns the half-open [start, end) flattened index range.
func (c *Chunk) Range() (int64, int64) { return c.start, c.end }

// Len returns the number of task indices in this chunk.
func (c *Chunk) Len() int64 { return c.end - c.start }

// Execute invokes the task body once per flattened index in the chunk's
// range, recovering each task's 3D coordinates from the group extent. It
// returns true when this chunk was the last one outstanding, i.e. the call
// that completed the whole group. Only claimed chunks may be executed.
func (c *Chunk) Execute(threadIndex, threadCount int32) bool {
	g := c.group
	total := g.extent.Total()
	for i := c.start; i < c.end; i++ {
		i0, i1, i2 := g.extent.Coordinates(i)
		g.fn(g.data, threadIndex, threadCount,
			int32(i), int32(total),
			i0, i1, i2,
			g.extent.N0, g.extent.N1, g.extent.N2)
	}
	if g.completed.Add(1) == g.numChunks {
		g.done.Store(true)
		return true
	}
	return false
}
