package processor

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/parspace/taskhost/model/task"
	"github.com/parspace/taskhost/policy"
	"github.com/parspace/taskhost/progress"
	"github.com/parspace/taskhost/runtime/execution"
	"github.com/parspace/taskhost/service/dispatch"
	"github.com/parspace/taskhost/service/event"
	"github.com/parspace/taskhost/service/executor"
	"github.com/parspace/taskhost/service/registry"
	"github.com/parspace/taskhost/tracing"
)

// Config represents sync engine configuration.
type Config struct {
	// WorkerCount is the number of pooled workers chunks may be handed to.
	// Zero keeps the serial baseline: every chunk runs on the syncing
	// goroutine.
	WorkerCount int `json:"workers" yaml:"workers"`

	// ChunkSize is the default dispatch granularity for launched groups.
	ChunkSize int `json:"chunkSize" yaml:"chunkSize"`

	// QueueBuffer bounds the pool dispatch queue; when full, the syncing
	// goroutine executes chunks inline instead of blocking.
	QueueBuffer int `json:"queueBuffer" yaml:"queueBuffer"`
}

// DefaultConfig returns the default sync engine configuration.
func DefaultConfig() Config {
	return Config{
		WorkerCount: 0,
		ChunkSize:   task.DefaultChunkSize,
		QueueBuffer: 128,
	}
}

// idlePause is how long a sync call sleeps when every outstanding chunk is
// already claimed by some other executor and only completion is awaited.
const idlePause = 100 * time.Microsecond

// Service runs launches and syncs against the registry.
type Service struct {
	config   Config
	registry *registry.Service
	executor executor.Service
	events   *event.Service

	queue   *dispatch.Queue[task.Chunk]
	running atomic.Bool

	workerWg   sync.WaitGroup
	cancelFn   context.CancelFunc
	startOnce  sync.Once
	stopOnce   sync.Once
}

type worker struct {
	id      int
	service *Service
}

// New creates a sync engine. A registry is required; the executor defaults
// to the plain chunk executor.
func New(options ...Option) (*Service, error) {
	ret := &Service{config: DefaultConfig()}
	for _, option := range options {
		option(ret)
	}
	if ret.registry == nil {
		return nil, fmt.Errorf("processor requires a registry")
	}
	if ret.executor == nil {
		ret.executor = executor.New()
	}
	if ret.config.ChunkSize < 1 {
		ret.config.ChunkSize = task.DefaultChunkSize
	}
	ret.queue = dispatch.NewQueue[task.Chunk](dispatch.Config{Buffer: ret.config.QueueBuffer})
	return ret, nil
}

// Start launches the worker pool when one is configured. Until Start is
// called every sync runs serially, so the engine stays correct for callers
// that never start it.
func (s *Service) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		if s.config.WorkerCount < 1 {
			return
		}
		ctx, s.cancelFn = context.WithCancel(ctx)
		for i := 0; i < s.config.WorkerCount; i++ {
			w := &worker{id: i, service: s}
			s.workerWg.Add(1)
			go w.run(ctx)
		}
		s.running.Store(true)
	})
}

// Shutdown stops the worker pool. Buffered chunks are drained before the
// workers exit; sync calls in flight keep making progress on their own
// goroutines regardless.
func (s *Service) Shutdown() {
	s.stopOnce.Do(func() {
		s.running.Store(false)
		s.queue.Close()
		s.workerWg.Wait()
		if s.cancelFn != nil {
			s.cancelFn()
		}
	})
}

// Launch appends a task group to the context resolved from the handle. No
// execution happens here; groups stay pending until a sync drains them.
func (s *Service) Launch(ctx context.Context, handle registry.Handle, fn task.Func, data unsafe.Pointer, extent task.Extent) error {
	node, err := s.registry.Find(handle)
	if err != nil {
		return err
	}
	chunkSize := policy.FromContext(ctx).EffectiveChunkSize(s.config.ChunkSize)
	group := node.Launch(fn, data, extent, chunkSize)
	progress.FromContext(ctx).Update(progress.Delta{Groups: 1})
	s.events.Publish(event.NewEvent(event.KindGroupLaunched, node.ID(), group.Extent().Total()))
	return nil
}

// Sync drains the context named by the handle to resolution and removes it
// from the registry. It blocks until every launched group completed, but
// keeps executing work while blocked: first the context's own chunks in
// launch order, then chunks borrowed from any other live context, so a tree
// of nested sync calls always makes global progress.
func (s *Service) Sync(ctx context.Context, handle registry.Handle) error {
	node, err := s.registry.Find(handle)
	if err != nil {
		return err
	}
	spanCtx, span := tracing.StartSpan(ctx, "taskhost.sync", "INTERNAL")
	span.WithAttributes(map[string]string{"context.id": strconv.FormatUint(node.ID(), 10)})
	err = s.sync(spanCtx, handle, node)
	tracing.EndSpan(span, err)
	return err
}

func (s *Service) sync(ctx context.Context, handle registry.Handle, node *execution.Context) error {
	pooled := s.pooled(ctx)
	threadCount := s.threadCount(pooled)

	// Drain our own groups in launch order. With a pool running, chunks are
	// offered to the workers; back-pressure falls back to inline execution
	// so enqueue order is preserved and the syncing thread never idles.
	for {
		chunk := node.Claim()
		if chunk == nil {
			break
		}
		if pooled && s.queue.TryPublish(chunk) {
			continue
		}
		s.run(ctx, chunk, 0, threadCount)
	}

	// Unfinished groups at this point mean chunks are still in flight
	// elsewhere, or nested launch/sync calls deeper in the call tree keep
	// other contexts incomplete. Helping any live context guarantees the
	// work we transitively wait on is eventually executed by someone.
	for !node.Resolved() {
		if chunk := node.Claim(); chunk != nil {
			s.run(ctx, chunk, 0, threadCount)
			continue
		}
		// Drain the pool queue too: with every worker blocked in a nested
		// sync, published chunks would otherwise be stranded.
		if chunk, ok := s.queue.TryConsume(); ok {
			s.run(ctx, chunk, 0, threadCount)
			continue
		}
		if chunk := s.borrow(node); chunk != nil {
			progress.FromContext(ctx).Update(progress.Delta{Borrowed: 1})
			s.run(ctx, chunk, 0, threadCount)
			continue
		}
		time.Sleep(idlePause)
	}

	progress.FromContext(ctx).Update(progress.Delta{Resolved: 1})
	s.events.Publish(event.NewEvent(event.KindContextResolved, node.ID(), 0))
	return s.registry.Remove(handle)
}

// borrow claims one chunk from any incomplete context other than own.
// Victim selection is simply the first incomplete context with claimable
// work; fairness is irrelevant for progress, only that someone runs every
// outstanding chunk.
func (s *Service) borrow(own *execution.Context) *task.Chunk {
	var borrowed *task.Chunk
	s.registry.ForEachIncomplete(func(other *execution.Context) bool {
		if other == own {
			return true
		}
		if chunk := other.Claim(); chunk != nil {
			borrowed = chunk
			return false
		}
		return true
	})
	return borrowed
}

// run executes a chunk and publishes the group completion event when this
// chunk was the group's last.
func (s *Service) run(ctx context.Context, chunk *task.Chunk, threadIndex, threadCount int32) {
	if s.executor.Execute(ctx, chunk, threadIndex, threadCount) {
		group := chunk.Group()
		s.events.Publish(event.NewEvent(event.KindGroupDone, 0, group.Extent().Total()))
	}
}

func (s *Service) pooled(ctx context.Context) bool {
	if !s.running.Load() {
		return false
	}
	if p := policy.FromContext(ctx); p != nil && p.Serial {
		return false
	}
	return true
}

func (s *Service) threadCount(pooled bool) int32 {
	if !pooled {
		return 1
	}
	return int32(s.config.WorkerCount) + 1
}

func (w *worker) run(ctx context.Context) {
	defer w.service.workerWg.Done()
	threadIndex := int32(w.id) + 1
	threadCount := int32(w.service.config.WorkerCount) + 1
	for {
		chunk, err := w.service.queue.Consume(ctx)
		if err != nil || chunk == nil {
			return
		}
		w.service.run(ctx, chunk, threadIndex, threadCount)
	}
}
