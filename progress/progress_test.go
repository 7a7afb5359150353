package progress

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestUpdateAggregates verifies concurrent deltas accumulate without loss.
func TestUpdateAggregates(t *testing.T) {
	p := New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.Update(Delta{Chunks: 1, Tasks: 4})
			}
		}()
	}
	wg.Wait()

	got := p.Snapshot()
	assert.EqualValues(t, 1000, got.ChunksExecuted)
	assert.EqualValues(t, 4000, got.TasksExecuted)
}

// TestNilTrackerIsNoop verifies components can update unconditionally.
func TestNilTrackerIsNoop(t *testing.T) {
	var p *Progress
	p.Update(Delta{Groups: 1})
	assert.EqualValues(t, Snapshot{}, p.Snapshot())
}

// TestContextRoundTrip verifies attachment and retrieval via context.
func TestContextRoundTrip(t *testing.T) {
	p := New()
	ctx := WithProgress(context.Background(), p)
	assert.Same(t, p, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

// TestOnChangeObservesSnapshots verifies the callback sees each applied
// delta.
func TestOnChangeObservesSnapshots(t *testing.T) {
	p := New()
	var seen []int
	p.OnChange(func(s Snapshot) { seen = append(seen, s.ChunksExecuted) })

	p.Update(Delta{Chunks: 1})
	p.Update(Delta{Chunks: 2})
	assert.EqualValues(t, []int{1, 3}, seen)
}
