package taskhost

import (
	"github.com/parspace/taskhost/service/compiler"
	"github.com/parspace/taskhost/service/event"
	"github.com/parspace/taskhost/service/executor"
	"github.com/parspace/taskhost/service/registry"
	"github.com/parspace/taskhost/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the host service.
type Option func(s *Service)

// WithConfig sets the full configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithWorkerCount sets the sync engine worker pool size. Zero keeps the
// serial baseline.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		s.ensureConfig()
		s.config.Processor.WorkerCount = count
	}
}

// WithChunkSize sets the default dispatch granularity for launched groups.
func WithChunkSize(size int) Option {
	return func(s *Service) {
		s.ensureConfig()
		s.config.Processor.ChunkSize = size
	}
}

// WithRegistry sets the context registry.
func WithRegistry(reg *registry.Service) Option {
	return func(s *Service) { s.registry = reg }
}

// WithEventService sets the event service.
func WithEventService(service *event.Service) Option {
	return func(s *Service) { s.events = service }
}

// WithExecutor sets the chunk executor.
func WithExecutor(exec executor.Service) Option {
	return func(s *Service) { s.executor = exec }
}

// WithExecutorOptions lets the caller supply additional options passed to
// executor.New (e.g. attaching a chunk listener).
func WithExecutorOptions(opts ...executor.Option) Option {
	return func(s *Service) {
		s.executorOptions = append(s.executorOptions, opts...)
	}
}

// WithCompiler sets the kernel compiler service.
func WithCompiler(service *compiler.Service) Option {
	return func(s *Service) { s.compiler = service }
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile
// is empty the stdout exporter is used; otherwise traces are written to the
// supplied file path. Safe to call multiple times; the first successful
// initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom
// SpanExporter, enabling integrations beyond the built-in stdout exporter.
// Safe to call multiple times; the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}

func (s *Service) ensureConfig() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
}
