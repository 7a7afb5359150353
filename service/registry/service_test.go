package registry

import (
	"errors"
	"sync"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/parspace/taskhost/model/task"
	"github.com/parspace/taskhost/runtime/execution"
)

func nopTask(_ unsafe.Pointer, _, _, _, _, _, _, _, _, _, _ int32) {}

// TestCreateFindRemove exercises the basic lifecycle: a created context is
// findable under its handle, gone after removal, and a stale handle fails
// with ErrUnknownHandle afterwards.
func TestCreateFindRemove(t *testing.T) {
	svc := New()

	handle, node := svc.Create()
	assert.NotZero(t, handle, "the null handle must never be issued")

	found, err := svc.Find(handle)
	assert.NoError(t, err)
	assert.Same(t, node, found)

	assert.NoError(t, svc.Remove(handle))
	assert.Zero(t, svc.Len())

	_, err = svc.Find(handle)
	assert.True(t, errors.Is(err, ErrUnknownHandle))

	err = svc.Remove(handle)
	assert.True(t, errors.Is(err, ErrUnknownHandle), "double removal must surface")
}

// TestCreateConcurrentUniqueIDs verifies context ids stay unique for all
// interleavings of concurrent creation.
func TestCreateConcurrentUniqueIDs(t *testing.T) {
	svc := New()
	const n = 200

	var mu sync.Mutex
	ids := map[uint64]bool{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < n; j++ {
				_, node := svc.Create()
				mu.Lock()
				assert.False(t, ids[node.ID()], "duplicate context id %d", node.ID())
				ids[node.ID()] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 8*n, svc.Len())
}

// TestForEachIncomplete verifies iteration only visits contexts that still
// hold unfinished groups and honours early termination.
func TestForEachIncomplete(t *testing.T) {
	svc := New()

	_, resolved := svc.Create()
	_ = resolved // no groups: resolved, must be skipped

	_, pending1 := svc.Create()
	pending1.Launch(nopTask, nil, task.Extent{N0: 4, N1: 1, N2: 1}, 4)
	_, pending2 := svc.Create()
	pending2.Launch(nopTask, nil, task.Extent{N0: 4, N1: 1, N2: 1}, 4)

	var visited []*execution.Context
	svc.ForEachIncomplete(func(c *execution.Context) bool {
		visited = append(visited, c)
		return true
	})
	assert.EqualValues(t, 2, len(visited))
	for _, c := range visited {
		assert.False(t, c.Resolved())
	}

	// Early termination stops after the first visit.
	count := 0
	svc.ForEachIncomplete(func(c *execution.Context) bool {
		count++
		return false
	})
	assert.EqualValues(t, 1, count)
}
