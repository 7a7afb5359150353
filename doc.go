// Package taskhost provides the host-side runtime backing compiled
// data-parallel kernels.
//
// Kernels interact with the host through three operations: allocating
// task-local memory (which lazily creates an execution context), launching a
// group of tasks over a one-, two- or three-dimensional index space, and
// syncing the context, which runs every launched group to completion and
// releases the context's memory in one step. Launches are deferred: nothing
// executes until the owning context is synced, and a syncing caller that
// cannot make progress on its own groups helps drain any other live context
// rather than idle.
//
// Taskhost is designed to be embedded. Go hosts interact with the engine via
// the Service facade exposed by the root package:
//
//	srv, _ := taskhost.New(taskhost.WithWorkerCount(4))
//	rt := srv.Runtime()
//	_ = rt.Start(ctx)
//	data, handle, _ := rt.Alloc(ctx, 0, 1024, 64)
//	_ = rt.Launch(ctx, handle, body, data, task.Extent{N0: 64, N1: 1, N2: 1})
//	_ = rt.Sync(ctx, handle)
//
// Compiled kernels reach the same runtime through the exported C symbols in
// the abi package. For more details see the README and individual
// sub-packages.
package taskhost
