package processor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parspace/taskhost/model/task"
	"github.com/parspace/taskhost/progress"
	"github.com/parspace/taskhost/service/registry"
)

// recorder counts task invocations per flattened index, across goroutines.
type recorder struct {
	mu   sync.Mutex
	runs map[int32]int
}

func newRecorder() *recorder { return &recorder{runs: map[int32]int{}} }

func (r *recorder) fn(_ unsafe.Pointer, _, _, taskIndex, _, _, _, _, _, _, _ int32) {
	r.mu.Lock()
	r.runs[taskIndex]++
	r.mu.Unlock()
}

func (r *recorder) assertEachOnce(t *testing.T, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	assert.EqualValues(t, total, len(r.runs))
	for index, count := range r.runs {
		assert.EqualValues(t, 1, count, "task %d ran %d times", index, count)
	}
}

func newEngine(t *testing.T, options ...Option) (*Service, *registry.Service) {
	reg := registry.New()
	svc, err := New(append([]Option{WithRegistry(reg)}, options...)...)
	require.NoError(t, err)
	return svc, reg
}

// TestSyncExecutesEveryTaskOnce covers the flat case: after Sync returns,
// every task index of every launched group has run exactly once and the
// context is gone from the registry.
func TestSyncExecutesEveryTaskOnce(t *testing.T) {
	svc, reg := newEngine(t)
	ctx := context.Background()

	handle, _ := reg.Create()
	rec := newRecorder()
	require.NoError(t, svc.Launch(ctx, handle, rec.fn, nil, task.Extent{N0: 5, N1: 1, N2: 1}))
	require.NoError(t, svc.Launch(ctx, handle, rec.fn, nil, task.Extent{N0: 0, N1: 3, N2: 3}))

	require.NoError(t, svc.Sync(ctx, handle))

	rec.assertEachOnce(t, 5)
	assert.Zero(t, reg.Len(), "resolved context must be removed")
}

// TestSyncStaleHandle verifies a second use of a resolved handle fails with
// ErrUnknownHandle instead of silently succeeding.
func TestSyncStaleHandle(t *testing.T) {
	svc, reg := newEngine(t)
	ctx := context.Background()

	handle, _ := reg.Create()
	require.NoError(t, svc.Sync(ctx, handle))

	err := svc.Launch(ctx, handle, newRecorder().fn, nil, task.Extent{N0: 1, N1: 1, N2: 1})
	assert.True(t, errors.Is(err, registry.ErrUnknownHandle))
	assert.True(t, errors.Is(svc.Sync(ctx, handle), registry.ErrUnknownHandle))
}

// TestSyncNestedLaunches drives three levels of nesting: every task body of
// the outer group creates its own context, launches into it and syncs it
// before returning. The run must terminate with all levels fully executed.
func TestSyncNestedLaunches(t *testing.T) {
	svc, reg := newEngine(t)
	ctx := context.Background()

	leaf := newRecorder()
	mid := newRecorder()
	root := newRecorder()

	var leafTotal, midTotal int
	var mu sync.Mutex

	leafBody := func(data unsafe.Pointer, ti, tc, taskIndex, taskCount, i0, i1, i2, c0, c1, c2 int32) {
		leaf.fn(data, ti, tc, taskIndex, taskCount, i0, i1, i2, c0, c1, c2)
	}
	midBody := func(data unsafe.Pointer, ti, tc, taskIndex, taskCount, i0, i1, i2, c0, c1, c2 int32) {
		mid.fn(data, ti, tc, taskIndex, taskCount, i0, i1, i2, c0, c1, c2)
		h, _ := reg.Create()
		require.NoError(t, svc.Launch(ctx, h, leafBody, nil, task.Extent{N0: 2, N1: 1, N2: 1}))
		require.NoError(t, svc.Sync(ctx, h))
		mu.Lock()
		leafTotal += 2
		mu.Unlock()
	}
	rootBody := func(data unsafe.Pointer, ti, tc, taskIndex, taskCount, i0, i1, i2, c0, c1, c2 int32) {
		root.fn(data, ti, tc, taskIndex, taskCount, i0, i1, i2, c0, c1, c2)
		h, _ := reg.Create()
		require.NoError(t, svc.Launch(ctx, h, midBody, nil, task.Extent{N0: 3, N1: 1, N2: 1}))
		require.NoError(t, svc.Sync(ctx, h))
		mu.Lock()
		midTotal += 3
		mu.Unlock()
	}

	handle, _ := reg.Create()
	require.NoError(t, svc.Launch(ctx, handle, rootBody, nil, task.Extent{N0: 4, N1: 1, N2: 1}))
	require.NoError(t, svc.Sync(ctx, handle))

	root.assertEachOnce(t, 4)
	assert.EqualValues(t, 12, midTotal)
	assert.EqualValues(t, 24, leafTotal)
	assert.Zero(t, reg.Len(), "every nested context must be resolved and removed")
}

// TestSyncConcurrentContexts runs several independent call trees from
// separate goroutines against one shared registry, covering concurrent
// structural mutation and cross-context borrowing.
func TestSyncConcurrentContexts(t *testing.T) {
	svc, reg := newEngine(t)
	ctx := context.Background()

	const trees = 8
	var wg sync.WaitGroup
	recorders := make([]*recorder, trees)
	for i := 0; i < trees; i++ {
		recorders[i] = newRecorder()
		wg.Add(1)
		go func(rec *recorder) {
			defer wg.Done()
			handle, _ := reg.Create()
			assert.NoError(t, svc.Launch(ctx, handle, rec.fn, nil, task.Extent{N0: 16, N1: 2, N2: 1}))
			assert.NoError(t, svc.Sync(ctx, handle))
		}(recorders[i])
	}
	wg.Wait()

	for _, rec := range recorders {
		rec.assertEachOnce(t, 32)
	}
	assert.Zero(t, reg.Len())
}

// TestSyncWithWorkerPool verifies the pooled variant: chunks are spread over
// workers, thread indices stay within bounds, every task still runs exactly
// once, and nested sync calls on worker goroutines do not deadlock.
func TestSyncWithWorkerPool(t *testing.T) {
	svc, reg := newEngine(t, WithWorkers(3))
	ctx := context.Background()
	svc.Start(ctx)
	defer svc.Shutdown()

	var mu sync.Mutex
	threads := map[int32]bool{}
	rec := newRecorder()
	body := func(data unsafe.Pointer, threadIndex, threadCount, taskIndex, taskCount, i0, i1, i2, c0, c1, c2 int32) {
		mu.Lock()
		threads[threadIndex] = true
		mu.Unlock()
		assert.EqualValues(t, 4, threadCount)
		assert.True(t, threadIndex >= 0 && threadIndex < threadCount)
		rec.fn(data, threadIndex, threadCount, taskIndex, taskCount, i0, i1, i2, c0, c1, c2)
	}

	handle, _ := reg.Create()
	require.NoError(t, svc.Launch(ctx, handle, body, nil, task.Extent{N0: 40, N1: 2, N2: 1}))
	require.NoError(t, svc.Sync(ctx, handle))

	rec.assertEachOnce(t, 80)
	assert.Zero(t, reg.Len())
}

// TestSyncPooledNested combines the pool with nested launch/sync: task
// bodies executing on workers spawn and sync child contexts while the
// syncing thread helps out, exercising the borrow path.
func TestSyncPooledNested(t *testing.T) {
	svc, reg := newEngine(t, WithWorkers(2))
	ctx := context.Background()
	svc.Start(ctx)
	defer svc.Shutdown()

	child := newRecorder()
	childBody := child.fn
	parentBody := func(_ unsafe.Pointer, _, _, _, _, _, _, _, _, _, _ int32) {
		h, _ := reg.Create()
		assert.NoError(t, svc.Launch(ctx, h, childBody, nil, task.Extent{N0: 8, N1: 1, N2: 1}))
		assert.NoError(t, svc.Sync(ctx, h))
	}

	handle, _ := reg.Create()
	require.NoError(t, svc.Launch(ctx, handle, parentBody, nil, task.Extent{N0: 6, N1: 1, N2: 1}))
	require.NoError(t, svc.Sync(ctx, handle))

	child.mu.Lock()
	childRuns := 0
	for _, c := range child.runs {
		childRuns += c
	}
	child.mu.Unlock()
	assert.EqualValues(t, 48, childRuns)
	assert.Zero(t, reg.Len())
}

// TestSyncReportsProgress verifies the context-attached tracker observes
// launched groups, executed chunks and the resolution.
func TestSyncReportsProgress(t *testing.T) {
	svc, reg := newEngine(t)
	tracker := progress.New()
	ctx := progress.WithProgress(context.Background(), tracker)

	handle, _ := reg.Create()
	require.NoError(t, svc.Launch(ctx, handle, newRecorder().fn, nil, task.Extent{N0: 10, N1: 1, N2: 1}))
	require.NoError(t, svc.Sync(ctx, handle))

	got := tracker.Snapshot()
	assert.EqualValues(t, 1, got.GroupsLaunched)
	assert.EqualValues(t, 3, got.ChunksExecuted)
	assert.EqualValues(t, 10, got.TasksExecuted)
	assert.EqualValues(t, 1, got.ContextsResolved)
}
