package taskhost

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/parspace/taskhost/service/compiler"
	"github.com/parspace/taskhost/service/processor"
)

// Config is a serialisable representation of the host configuration. It can
// be populated from JSON, YAML, environment variables, etc. The zero-value is
// useful: all nested fields inherit their package defaults.
type Config struct {
	Processor processor.Config `json:"processor" yaml:"processor"`
	Compiler  compiler.Config  `json:"compiler" yaml:"compiler"`
}

// DefaultConfig returns a Config populated with the package defaults.
// Callers may modify the returned struct before passing it to New via
// WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Processor: processor.DefaultConfig(),
		Compiler:  compiler.DefaultConfig(),
	}
}

// ParseConfig decodes YAML configuration bytes.
func ParseConfig(data []byte) (*Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Processor.WorkerCount < 0 {
		return fmt.Errorf("processor.workers must be >= 0")
	}
	if c.Processor.ChunkSize < 0 {
		return fmt.Errorf("processor.chunkSize must be >= 0")
	}
	if c.Processor.QueueBuffer < 0 {
		return fmt.Errorf("processor.queueBuffer must be >= 0")
	}
	return nil
}
