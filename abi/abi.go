// Package abi exports the three C entry points compiled kernels link
// against: Alloc, Launch and Sync. Handles cross the boundary as
// pointer-sized context ids written back through the kernel's handle slot;
// the registry remains the only mapping from a handle to its context.
//
// Build with -buildmode=c-archive or -buildmode=c-shared to obtain the
// library a kernel object links against.
package abi

/*
#include "taskhost.h"
*/
import "C"

import (
	"context"
	"log"
	"unsafe"

	"github.com/parspace/taskhost/model/task"
	"github.com/parspace/taskhost/service/registry"
)

// bridge wraps a foreign task function pointer as a task.Func invoked
// through the C trampoline.
func bridge(f unsafe.Pointer) task.Func {
	return func(data unsafe.Pointer, threadIndex, threadCount, taskIndex, taskCount, idx0, idx1, idx2, cnt0, cnt1, cnt2 int32) {
		C.taskhost_invoke(f, data,
			C.int32_t(threadIndex), C.int32_t(threadCount),
			C.int32_t(taskIndex), C.int32_t(taskCount),
			C.int32_t(idx0), C.int32_t(idx1), C.int32_t(idx2),
			C.int32_t(cnt0), C.int32_t(cnt1), C.int32_t(cnt2))
	}
}

// handleSlot views the kernel's opaque handle cell as the context id it
// stores. Ids are never dereferenced as pointers.
func handleSlot(handlePtr *unsafe.Pointer) *uintptr {
	return (*uintptr)(unsafe.Pointer(handlePtr))
}

//export Alloc
func Alloc(handlePtr *unsafe.Pointer, size C.int64_t, align C.int32_t) unsafe.Pointer {
	rt := Default().Runtime()
	slot := handleSlot(handlePtr)
	block, handle, err := rt.Alloc(context.Background(), registry.Handle(*slot), int64(size), int(align))
	if err == nil {
		*slot = uintptr(handle)
		return block
	}
	if handle == 0 {
		log.Fatalf("taskhost: Alloc: %v", err)
	}
	*slot = uintptr(handle)
	return nil
}

//export Launch
func Launch(handlePtr *unsafe.Pointer, f, data unsafe.Pointer, count0, count1, count2 C.int) {
	rt := Default().Runtime()
	slot := handleSlot(handlePtr)
	ctx := context.Background()
	handle := rt.EnsureContext(ctx, registry.Handle(*slot))
	*slot = uintptr(handle)
	extent := task.Extent{N0: int32(count0), N1: int32(count1), N2: int32(count2)}
	if err := rt.Launch(ctx, handle, bridge(f), data, extent); err != nil {
		log.Fatalf("taskhost: Launch on dead handle %#x: %v", *slot, err)
	}
}

//export Sync
func Sync(handle unsafe.Pointer) {
	id := uintptr(handle)
	if id == 0 {
		return
	}
	if err := Default().Runtime().Sync(context.Background(), registry.Handle(id)); err != nil {
		log.Fatalf("taskhost: Sync on dead handle %#x: %v", id, err)
	}
}
