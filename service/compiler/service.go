// Package compiler drives the external parallel-kernel compiler: it turns a
// set of kernel source files into one static library plus a combined C
// header suitable for downstream binding generation.  The runtime core never
// depends on this package; it only needs to be called by the binary the
// build produces.
package compiler

import (
	"context"
	"fmt"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"

	"github.com/parspace/taskhost/internal/idgen"
	"github.com/parspace/taskhost/tracing"
)

// Config controls the external compiler invocation.
type Config struct {
	// Binary is the kernel compiler executable. There is no hard-coded
	// default; it comes from configuration or the KERNEL_COMPILER
	// environment variable.
	Binary string `json:"binary" yaml:"binary"`

	// OutputDir receives objects, headers and the archived library.
	OutputDir string `json:"outputDir" yaml:"outputDir"`

	// OptLevel is the optimisation level 0..3.
	OptLevel int `json:"optLevel" yaml:"optLevel"`

	// Debug emits debug symbols.
	Debug bool `json:"debug" yaml:"debug"`

	// Target overrides the target triple.
	Target string `json:"target,omitempty" yaml:"target,omitempty"`

	// IncludeDirs are extra include search paths.
	IncludeDirs []string `json:"includeDirs,omitempty" yaml:"includeDirs,omitempty"`

	// TimeoutMs bounds each compiler command.
	TimeoutMs int `json:"timeoutMs" yaml:"timeoutMs"`
}

// DefaultConfig returns a configuration populated from the environment.
func DefaultConfig() Config {
	return Config{
		Binary:    os.Getenv("KERNEL_COMPILER"),
		OutputDir: os.TempDir(),
		OptLevel:  2,
		TimeoutMs: 300_000,
	}
}

// Args builds the compiler argument list for the configured target, debug
// and optimisation settings. Position independent code is requested on every
// platform that links the archive into a shared object.
func (c *Config) Args() []string {
	var args []string
	if c.Debug {
		args = append(args, "-g")
	}
	if c.OptLevel >= 0 && c.OptLevel <= 3 {
		args = append(args, fmt.Sprintf("-O%d", c.OptLevel))
	}
	if runtime.GOOS != "windows" {
		args = append(args, "--pic")
	}
	if c.Target != "" {
		args = append(args, "--target="+c.Target)
	}
	for _, dir := range c.IncludeDirs {
		args = append(args, "-I", dir)
	}
	return args
}

// Build describes the artifacts of one successful compilation.
type Build struct {
	SessionID      string
	Library        string
	Objects        []string
	Headers        []string
	CombinedHeader string
}

// Service compiles kernel source files through a local shell session.
type Service struct {
	config Config
	fs     afs.Service

	mux     sync.Mutex
	session *gosh.Service
}

// Option customises the compiler service.
type Option func(*Service)

// WithFileSystem overrides the file system used for header assembly (tests
// use mem://).
func WithFileSystem(fs afs.Service) Option {
	return func(s *Service) { s.fs = fs }
}

// New creates a compiler service.
func New(config Config, options ...Option) *Service {
	ret := &Service{config: config}
	for _, option := range options {
		option(ret)
	}
	if ret.fs == nil {
		ret.fs = afs.New()
	}
	return ret
}

// Compile builds the given kernel source files into lib<name>.a plus a
// combined header in the output directory. The boolean reports compiler
// success; compiler diagnostics pass through on stderr, so a false result
// carries no duplicate error detail. A non-nil error means the build could
// not be attempted at all.
func (s *Service) Compile(ctx context.Context, name string, files ...string) (*Build, bool, error) {
	if s.config.Binary == "" {
		return nil, false, fmt.Errorf("kernel compiler binary not configured")
	}
	if len(files) == 0 {
		return nil, false, fmt.Errorf("no kernel source files supplied")
	}

	spanCtx, span := tracing.StartSpan(ctx, "taskhost.compile", "CLIENT")
	span.WithAttributes(map[string]string{"library": name})
	build, ok, err := s.compile(spanCtx, name, files)
	tracing.EndSpan(span, err)
	return build, ok, err
}

func (s *Service) compile(ctx context.Context, name string, files []string) (*Build, bool, error) {
	session, err := s.getSession(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open compiler session: %w", err)
	}

	build := &Build{SessionID: idgen.New()}
	args := strings.Join(s.config.Args(), " ")
	outDir := s.config.OutputDir

	for _, src := range files {
		stem := strings.TrimSuffix(path.Base(src), path.Ext(src))
		object := path.Join(outDir, stem+"_kernel.o")
		header := path.Join(outDir, stem+"_kernel.h")

		command := fmt.Sprintf("%s %s %s -o %s -h %s", s.config.Binary, args, src, object, header)
		if ok := s.run(ctx, session, command); !ok {
			return build, false, nil
		}
		build.Objects = append(build.Objects, object)
		build.Headers = append(build.Headers, header)
	}

	build.Library = path.Join(outDir, "lib"+name+".a")
	archive := fmt.Sprintf("ar crus %s %s", build.Library, strings.Join(build.Objects, " "))
	if ok := s.run(ctx, session, archive); !ok {
		return build, false, nil
	}

	combined := url.Join(outDir, "_"+name+"_bindings.h")
	if err := WriteCombinedHeader(ctx, s.fs, combined, build.Headers); err != nil {
		return build, false, err
	}
	build.CombinedHeader = combined
	return build, true, nil
}

// run executes one command, forwarding output to stderr on failure.
func (s *Service) run(ctx context.Context, session *gosh.Service, command string) bool {
	output, status, err := session.Run(ctx, command, runner.WithTimeout(s.config.TimeoutMs))
	if err != nil || status != 0 {
		if output == "" && err != nil {
			output = err.Error()
		}
		fmt.Fprintln(os.Stderr, output)
		return false
	}
	return true
}

func (s *Service) getSession(ctx context.Context) (*gosh.Service, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.session != nil {
		return s.session, nil
	}
	session, err := gosh.New(ctx, local.New())
	if err != nil {
		return nil, err
	}
	s.session = session
	return session, nil
}

// WriteCombinedHeader assembles one header including every per-file header,
// the input binding generation consumes.
func WriteCombinedHeader(ctx context.Context, fs afs.Service, URL string, headers []string) error {
	var builder strings.Builder
	for _, header := range headers {
		builder.WriteString(fmt.Sprintf("#include %q\n", header))
	}
	return fs.Upload(ctx, URL, file.DefaultFileOsMode, strings.NewReader(builder.String()))
}
