package taskhost

import (
	"github.com/parspace/taskhost/service/compiler"
	"github.com/parspace/taskhost/service/dispatch"
	"github.com/parspace/taskhost/service/event"
	"github.com/parspace/taskhost/service/executor"
	"github.com/parspace/taskhost/service/processor"
	"github.com/parspace/taskhost/service/registry"
)

// Service is the high-level facade wiring the context registry, the sync
// engine, the kernel compiler and the event stream together.
type Service struct {
	config          *Config
	runtime         *Runtime
	registry        *registry.Service
	executor        executor.Service
	executorOptions []executor.Option
	events          *event.Service
	compiler        *compiler.Service
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	engine, err := processor.New(
		processor.WithConfig(s.config.Processor),
		processor.WithRegistry(s.registry),
		processor.WithExecutor(s.executor),
		processor.WithEventService(s.events))
	if err != nil {
		return err
	}
	s.runtime = &Runtime{
		registry:  s.registry,
		processor: engine,
		events:    s.events,
		compiler:  s.compiler,
	}
	return nil
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.registry == nil {
		s.registry = registry.New()
	}
	if s.executor == nil {
		s.executor = executor.New(s.executorOptions...)
	}
	if s.events == nil {
		s.events = event.New(dispatch.DefaultConfig())
	}
	if s.compiler == nil {
		s.compiler = compiler.New(s.config.Compiler)
	}
}

// Runtime returns the runtime backing this service.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// New creates a host service with the supplied options.
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}
