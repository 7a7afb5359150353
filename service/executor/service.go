// Package executor runs individual chunks.  It is the only place where task
// bodies are actually invoked, so the observability hooks (listener,
// progress counters) live here rather than in the sync engine.
package executor

import (
	"context"

	"github.com/parspace/taskhost/model/task"
	"github.com/parspace/taskhost/progress"
)

// Listener is invoked after every executed chunk. Implementations can log,
// collect metrics or perform other side-effects.
//
// For convenience the listener is a function type rather than an interface;
// callers pass a plain function literal when customising the executor.
type Listener func(chunk *task.Chunk, threadIndex int32, finishedGroup bool)

// Service executes claimed chunks.
type Service interface {
	// Execute runs every task in the chunk on the calling goroutine and
	// reports whether this chunk completed its group. Task body failures are
	// the kernel code's responsibility, so Execute has no error path.
	Execute(ctx context.Context, chunk *task.Chunk, threadIndex, threadCount int32) bool
}

// Option customises the executor instance.
type Option func(*service)

// WithListener sets the listener invoked after every executed chunk. Passing
// nil disables the callback.
func WithListener(l Listener) Option {
	return func(s *service) { s.listener = l }
}

type service struct {
	listener Listener
}

// New creates an executor.
func New(opts ...Option) Service {
	ret := &service{}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (s *service) Execute(ctx context.Context, chunk *task.Chunk, threadIndex, threadCount int32) bool {
	finished := chunk.Execute(threadIndex, threadCount)
	progress.FromContext(ctx).Update(progress.Delta{
		Chunks: 1,
		Tasks:  int(chunk.Len()),
	})
	if s.listener != nil {
		s.listener(chunk, threadIndex, finished)
	}
	return finished
}
