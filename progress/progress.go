// Package progress provides a lightweight tracker that keeps aggregated
// execution counters (groups launched, chunks and tasks executed, contexts
// resolved) for one call tree.  The tracker instance lives in the Go context
// so every component receiving the context can update the counters via the
// Delta helper without a global registry.
package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the sync engine
// or executor. Fields are signed so they can decrement as well.
type Delta struct {
	Groups   int
	Chunks   int
	Tasks    int
	Resolved int
	Borrowed int
}

// Snapshot is a copyable view of the counters.
type Snapshot struct {
	StartedAt time.Time

	GroupsLaunched   int
	ChunksExecuted   int
	TasksExecuted    int
	ContextsResolved int
	ChunksBorrowed   int
}

// Progress keeps aggregated counters for one root sync invocation and every
// nested launch under it. It is safe for concurrent use.
type Progress struct {
	mu       sync.Mutex
	counters Snapshot
	onChange func(Snapshot)
}

// New returns a zeroed tracker stamped with the current time.
func New() *Progress {
	return &Progress{counters: Snapshot{StartedAt: time.Now()}}
}

// OnChange registers a callback invoked with a snapshot after every update,
// outside the critical section so the callback can do slow work (encoding,
// IO) without blocking engine internals.
func (p *Progress) OnChange(fn func(Snapshot)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

// Update applies the supplied delta. Safe to call from multiple goroutines;
// a nil receiver is a no-op so callers never need to guard.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.counters.GroupsLaunched += d.Groups
	p.counters.ChunksExecuted += d.Chunks
	p.counters.TasksExecuted += d.Tasks
	p.counters.ContextsResolved += d.Resolved
	p.counters.ChunksBorrowed += d.Borrowed
	snapshot := p.counters
	fn := p.onChange
	p.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}

// Snapshot returns a copy of the current counters.
func (p *Progress) Snapshot() Snapshot {
	if p == nil {
		return Snapshot{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

type progressKey struct{}

// WithProgress attaches a tracker to the context.
func WithProgress(ctx context.Context, p *Progress) context.Context {
	return context.WithValue(ctx, progressKey{}, p)
}

// FromContext returns the attached tracker or nil.
func FromContext(ctx context.Context) *Progress {
	if ctx == nil {
		return nil
	}
	p, _ := ctx.Value(progressKey{}).(*Progress)
	return p
}
