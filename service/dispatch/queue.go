// Package dispatch provides the in-memory queue that hands claimed chunks to
// pooled workers.  Unlike a message bus there is no ack/retry surface: a
// chunk is claimed by exactly one executor before it is published, runs to
// completion and is never redelivered.
package dispatch

import (
	"context"
	"fmt"
	"sync"
)

// Config for the in-memory dispatch queue.
type Config struct {
	// Buffer is the number of items the queue absorbs before publishers
	// fall back to executing inline.
	Buffer int `json:"buffer" yaml:"buffer"`
}

// DefaultConfig returns a standard configuration.
func DefaultConfig() Config {
	return Config{Buffer: 128}
}

// Queue is a generic bounded FIFO safe for concurrent use.
type Queue[T any] struct {
	config Config
	items  chan *T

	mu     sync.Mutex
	closed bool
}

// NewQueue creates an empty queue.
func NewQueue[T any](config Config) *Queue[T] {
	if config.Buffer < 1 {
		config.Buffer = DefaultConfig().Buffer
	}
	return &Queue[T]{config: config, items: make(chan *T, config.Buffer)}
}

// Publish adds an item, blocking while the buffer is full.
func (q *Queue[T]) Publish(ctx context.Context, item *T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.Unlock()
	select {
	case q.items <- item:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPublish adds an item without blocking. It reports false when the buffer
// is full or the queue is closed, letting the caller run the item inline
// instead of stalling.
func (q *Queue[T]) TryPublish(item *T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.mu.Unlock()
	select {
	case q.items <- item:
		return true
	default:
		return false
	}
}

// Consume retrieves the next item, blocking until one is available, the
// context is cancelled, or the queue is closed and drained (nil item).
func (q *Queue[T]) Consume(ctx context.Context) (*T, error) {
	select {
	case item, ok := <-q.items:
		if !ok {
			return nil, nil
		}
		return item, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryConsume retrieves a buffered item without blocking. It reports false
// when the buffer is empty, letting a blocked publisher-side goroutine make
// progress on buffered work itself instead of waiting on a consumer.
func (q *Queue[T]) TryConsume() (*T, bool) {
	select {
	case item, ok := <-q.items:
		if !ok {
			return nil, false
		}
		return item, true
	default:
		return nil, false
	}
}

// Close stops the queue. Items already buffered remain consumable.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.items)
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int { return len(q.items) }
