package processor

import (
	"github.com/parspace/taskhost/service/event"
	"github.com/parspace/taskhost/service/executor"
	"github.com/parspace/taskhost/service/registry"
)

// Option customises the sync engine.
type Option func(*Service)

// WithConfig sets the engine configuration.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithRegistry sets the context registry (required).
func WithRegistry(reg *registry.Service) Option {
	return func(s *Service) { s.registry = reg }
}

// WithExecutor sets the chunk executor.
func WithExecutor(exec executor.Service) Option {
	return func(s *Service) { s.executor = exec }
}

// WithEventService sets the lifecycle event publisher.
func WithEventService(events *event.Service) Option {
	return func(s *Service) { s.events = events }
}

// WithWorkers sets the pooled worker count.
func WithWorkers(count int) Option {
	return func(s *Service) { s.config.WorkerCount = count }
}
