// Package registry keeps the process-wide collection of live execution
// contexts.  It is the single authoritative mapping from the opaque handle
// value exchanged across the foreign boundary back to a context; typed
// references are never reconstructed from raw bytes outside it.
package registry

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/parspace/taskhost/runtime/execution"
)

// ErrUnknownHandle indicates a handle that names no live context. It is a
// caller/ABI contract violation (a dangling or corrupted handle), not a
// condition to retry.
var ErrUnknownHandle = errors.New("unknown context handle")

// Handle is the opaque pointer-sized identity exchanged across the foreign
// boundary. Zero is never issued, so the null handle keeps its conventional
// meaning of "no context yet".
type Handle uintptr

// Service is the concurrency-safe store of live contexts. Structural
// mutation (insert/erase) is serialised by the write lock; lookups by
// distinct callers proceed concurrently under the read lock.
type Service struct {
	mu       sync.RWMutex
	contexts map[Handle]*execution.Context
	nextID   atomic.Uint64
}

// New returns an empty registry.
func New() *Service {
	return &Service{contexts: map[Handle]*execution.Context{}}
}

// Create allocates a context with a fresh monotone id, inserts it and
// returns both the handle and the context. Safe under concurrent creation.
func (s *Service) Create() (Handle, *execution.Context) {
	id := s.nextID.Add(1)
	node := execution.New(id)
	handle := Handle(id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.contexts[handle]; exists {
		// Monotone assignment makes duplicates structurally impossible;
		// observing one means the mapping is corrupted.
		panic(fmt.Sprintf("registry: duplicate context id %d", id))
	}
	s.contexts[handle] = node
	return handle, node
}

// Find resolves a handle back to its live context or fails with
// ErrUnknownHandle.
func (s *Service) Find(handle Handle) (*execution.Context, error) {
	s.mu.RLock()
	node, ok := s.contexts[handle]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("handle %#x: %w", uintptr(handle), ErrUnknownHandle)
	}
	return node, nil
}

// Remove erases the context. Removing a handle that names no live context
// returns ErrUnknownHandle rather than being a silent no-op, so double
// removal is always surfaced.
func (s *Service) Remove(handle Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contexts[handle]; !ok {
		return fmt.Errorf("remove handle %#x: %w", uintptr(handle), ErrUnknownHandle)
	}
	delete(s.contexts, handle)
	return nil
}

// ForEachIncomplete visits every live context that still has at least one
// unfinished group, until the visitor returns false. Visits run outside the
// registry lock so a visitor may claim and execute chunks, or re-enter the
// registry, without deadlocking structural mutation.
func (s *Service) ForEachIncomplete(visit func(*execution.Context) bool) {
	s.mu.RLock()
	live := make([]*execution.Context, 0, len(s.contexts))
	for _, node := range s.contexts {
		live = append(live, node)
	}
	s.mu.RUnlock()

	for _, node := range live {
		if node.Resolved() {
			continue
		}
		if !visit(node) {
			return
		}
	}
}

// Len returns the number of live contexts.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contexts)
}
