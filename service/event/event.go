// Package event publishes context-lifecycle notifications: context creation
// and resolution, group launches and group completion.  Consumers such as
// the progress tracker subscribe with handlers; publishing never blocks the
// runtime hot path beyond a buffered enqueue.
package event

import (
	"time"

	"github.com/parspace/taskhost/internal/clock"
	"github.com/parspace/taskhost/internal/idgen"
)

// Kind identifies a lifecycle transition.
type Kind string

const (
	KindContextCreated  Kind = "context.created"
	KindContextResolved Kind = "context.resolved"
	KindGroupLaunched   Kind = "group.launched"
	KindGroupDone       Kind = "group.done"
)

// Event describes one lifecycle transition of a context or one of its
// groups.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Handle    uint64    `json:"handle"`
	TaskCount int64     `json:"taskCount,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewEvent returns an event stamped with a fresh id and the current time.
func NewEvent(kind Kind, handle uint64, taskCount int64) *Event {
	return &Event{
		ID:        idgen.New(),
		Kind:      kind,
		Handle:    handle,
		TaskCount: taskCount,
		CreatedAt: clock.Now(),
	}
}
