package taskhost

import (
	"context"
	"unsafe"

	"github.com/parspace/taskhost/model/task"
	"github.com/parspace/taskhost/service/compiler"
	"github.com/parspace/taskhost/service/event"
	"github.com/parspace/taskhost/service/processor"
	"github.com/parspace/taskhost/service/registry"
)

// Runtime executes compiled kernels: it owns per-call-tree contexts, their
// arenas and launched task groups, and drains them on Sync.
type Runtime struct {
	registry  *registry.Service
	processor *processor.Service
	events    *event.Service
	compiler  *compiler.Service
}

// EnsureContext resolves handle to a live context handle, allocating a fresh
// context when the null handle is supplied.
func (r *Runtime) EnsureContext(ctx context.Context, handle registry.Handle) registry.Handle {
	if handle != 0 {
		return handle
	}
	created, _ := r.registry.Create()
	r.events.Publish(event.NewEvent(event.KindContextCreated, uint64(created), 0))
	return created
}

// Alloc returns a block of task-local memory from the context named by
// handle. The null handle allocates a fresh context first; the handle under
// which it was registered is returned alongside the block so subsequent
// calls can reuse it. The block lives until the context is resolved by Sync.
func (r *Runtime) Alloc(ctx context.Context, handle registry.Handle, size int64, align int) (unsafe.Pointer, registry.Handle, error) {
	handle = r.EnsureContext(ctx, handle)
	node, err := r.registry.Find(handle)
	if err != nil {
		return nil, 0, err
	}
	block, err := node.Allocate(size, align)
	if err != nil {
		return nil, handle, err
	}
	return block, handle, nil
}

// Launch records a task group on the context named by handle. Execution is
// deferred until that context is synced.
func (r *Runtime) Launch(ctx context.Context, handle registry.Handle, fn task.Func, data unsafe.Pointer, extent task.Extent) error {
	return r.processor.Launch(ctx, handle, fn, data, extent)
}

// Sync drives the context named by handle to resolution, executing its
// groups in launch order, and removes it from the registry. The handle is
// dead afterwards.
func (r *Runtime) Sync(ctx context.Context, handle registry.Handle) error {
	return r.processor.Sync(ctx, handle)
}

// Compile builds kernel sources into a static library and a combined header
// through the configured kernel compiler.
func (r *Runtime) Compile(ctx context.Context, name string, files ...string) (*compiler.Build, bool, error) {
	return r.compiler.Compile(ctx, name, files...)
}

// Contexts reports how many contexts are currently live.
func (r *Runtime) Contexts() int {
	return r.registry.Len()
}

// Start starts the event delivery loop and, when configured with workers,
// the sync engine pool.
func (r *Runtime) Start(ctx context.Context) error {
	r.events.Start(ctx)
	r.processor.Start(ctx)
	return nil
}

// Shutdown stops the worker pool and drains the event stream.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.processor.Shutdown()
	r.events.Shutdown()
	return nil
}
