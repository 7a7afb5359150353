package event

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/parspace/taskhost/service/dispatch"
)

// Handler consumes published events.
type Handler func(*Event)

// Service fans published events out to subscribed handlers through an
// in-memory queue so publishers never wait on slow consumers.
type Service struct {
	queue *dispatch.Queue[Event]

	mu       sync.RWMutex
	handlers []Handler

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	cancel    context.CancelFunc
	drained   chan struct{}
}

// New creates an event service with the given queue buffer.
func New(config dispatch.Config) *Service {
	return &Service{
		queue:   dispatch.NewQueue[Event](config),
		drained: make(chan struct{}),
	}
}

// Subscribe registers a handler for all subsequently delivered events.
func (s *Service) Subscribe(handler Handler) {
	if handler == nil {
		return
	}
	s.mu.Lock()
	s.handlers = append(s.handlers, handler)
	s.mu.Unlock()
}

// Publish enqueues an event. Events published while the buffer is full are
// dropped rather than stalling the runtime; completeness of the notification
// stream is best-effort by contract.
func (s *Service) Publish(e *Event) {
	if s == nil || e == nil {
		return
	}
	s.queue.TryPublish(e)
}

// Start launches the delivery loop. Idempotent.
func (s *Service) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		s.started.Store(true)
		go s.deliver(ctx)
	})
}

// Shutdown stops delivery after draining buffered events. Without a started
// delivery loop there is nothing to drain and no loop to wait on.
func (s *Service) Shutdown() {
	s.stopOnce.Do(func() {
		s.queue.Close()
		if s.started.Load() {
			<-s.drained
		}
		if s.cancel != nil {
			s.cancel()
		}
	})
}

func (s *Service) deliver(ctx context.Context) {
	defer close(s.drained)
	for {
		e, err := s.queue.Consume(ctx)
		if err != nil || e == nil {
			return
		}
		s.mu.RLock()
		handlers := append([]Handler(nil), s.handlers...)
		s.mu.RUnlock()
		for _, handler := range handlers {
			handler(e)
		}
	}
}
