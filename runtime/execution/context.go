// Package execution defines the per-call execution context: one node of the
// launch tree owning an arena and the ordered groups launched through it.
package execution

import (
	"sync"
	"unsafe"

	"github.com/parspace/taskhost/model/task"
	"github.com/parspace/taskhost/service/allocator"
)

// Context aggregates the scratch arena and the ordered sequence of task
// groups launched from one root allocation call. A context is created on the
// first allocation presenting a null handle, mutated only by calls
// presenting its handle, and removed from the registry exactly once by the
// sync call that resolves it.
//
// The group sequence is guarded by mu because the sync engine's borrowing
// step lets other call trees claim chunks from this context concurrently
// with the owner appending new launches.
type Context struct {
	id    uint64
	arena *allocator.Arena

	mu     sync.RWMutex
	groups []*task.Group
}

// New returns an empty context with the given process-unique id.
func New(id uint64) *Context {
	return &Context{id: id, arena: allocator.New()}
}

// ID returns the process-unique context identity.
func (c *Context) ID() uint64 { return c.id }

// Allocate carves a task-local block out of the context's arena.
func (c *Context) Allocate(size int64, align int) (unsafe.Pointer, error) {
	return c.arena.Allocate(size, align)
}

// ArenaSize returns the bytes handed out by the context's arena so far.
func (c *Context) ArenaSize() int64 { return c.arena.Size() }

// Launch appends a task group over the given extent. No execution happens
// here: groups stay pending until a sync drains them, preserving launch
// order.
func (c *Context) Launch(fn task.Func, data unsafe.Pointer, extent task.Extent, chunkSize int) *task.Group {
	group := task.NewGroup(fn, data, extent, chunkSize)
	c.mu.Lock()
	c.groups = append(c.groups, group)
	c.mu.Unlock()
	return group
}

// Groups returns a snapshot of the launched groups in launch order.
func (c *Context) Groups() []*task.Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*task.Group(nil), c.groups...)
}

// Claim returns the next unclaimed chunk in launch order, or nil when every
// chunk of every group has been claimed. A nil result does not imply the
// context is resolved: claimed chunks may still be executing elsewhere.
func (c *Context) Claim() *task.Chunk {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, g := range c.groups {
		if g.Done() {
			continue
		}
		if chunk := g.Claim(); chunk != nil {
			return chunk
		}
	}
	return nil
}

// Resolved reports whether every launched group has completed. A context
// with no groups is resolved.
func (c *Context) Resolved() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, g := range c.groups {
		if !g.Done() {
			return false
		}
	}
	return true
}
