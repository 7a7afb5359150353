package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestPublishConsumeOrder verifies FIFO delivery.
func TestPublishConsumeOrder(t *testing.T) {
	q := NewQueue[int](Config{Buffer: 8})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		v := i
		assert.NoError(t, q.Publish(ctx, &v))
	}
	for i := 0; i < 5; i++ {
		item, err := q.Consume(ctx)
		assert.NoError(t, err)
		assert.EqualValues(t, i, *item)
	}
}

// TestTryPublishFullBuffer verifies TryPublish reports back-pressure instead
// of blocking.
func TestTryPublishFullBuffer(t *testing.T) {
	q := NewQueue[int](Config{Buffer: 1})
	one, two := 1, 2
	assert.True(t, q.TryPublish(&one))
	assert.False(t, q.TryPublish(&two), "full buffer must not accept items")
	assert.EqualValues(t, 1, q.Len())
}

// TestTryConsume verifies non-blocking retrieval reports emptiness instead
// of waiting.
func TestTryConsume(t *testing.T) {
	q := NewQueue[int](Config{Buffer: 2})
	_, ok := q.TryConsume()
	assert.False(t, ok)

	v := 7
	assert.True(t, q.TryPublish(&v))
	item, ok := q.TryConsume()
	assert.True(t, ok)
	assert.EqualValues(t, 7, *item)
}

// TestConsumeCancellation verifies a blocked consumer unblocks on context
// cancellation.
func TestConsumeCancellation(t *testing.T) {
	q := NewQueue[int](DefaultConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Consume(ctx)
	assert.Error(t, err)
}

// TestCloseDrains verifies buffered items stay consumable after Close and
// that publishing to a closed queue fails.
func TestCloseDrains(t *testing.T) {
	q := NewQueue[int](Config{Buffer: 4})
	v := 42
	assert.True(t, q.TryPublish(&v))
	q.Close()

	assert.False(t, q.TryPublish(&v))
	assert.Error(t, q.Publish(context.Background(), &v))

	item, err := q.Consume(context.Background())
	assert.NoError(t, err)
	assert.EqualValues(t, 42, *item)

	item, err = q.Consume(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, item, "drained closed queue returns nil")
}
