package abi

import (
	"context"
	"log"
	"os"
	"runtime"
	"strconv"
	"sync"

	"github.com/parspace/taskhost"
)

var (
	defaultMu   sync.Mutex
	defaultHost *taskhost.Service
)

// Default returns the process-wide host service the exported symbols route
// through, creating and starting it on first use. The worker pool size
// defaults to one worker per spare CPU and can be overridden with the
// TASKHOST_WORKERS environment variable (0 forces the serial baseline).
func Default() *taskhost.Service {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultHost == nil {
		host, err := taskhost.New(taskhost.WithWorkerCount(defaultWorkers()))
		if err != nil {
			log.Fatalf("taskhost: failed to initialise host: %v", err)
		}
		if err := host.Runtime().Start(context.Background()); err != nil {
			log.Fatalf("taskhost: failed to start host: %v", err)
		}
		defaultHost = host
	}
	return defaultHost
}

// SetDefault installs a caller-configured host for the exported symbols.
// Call before the first kernel entry; a host installed later is ignored by
// contexts already routed through the previous one.
func SetDefault(host *taskhost.Service) {
	defaultMu.Lock()
	defaultHost = host
	defaultMu.Unlock()
}

func defaultWorkers() int {
	if raw := os.Getenv("TASKHOST_WORKERS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			return n
		}
	}
	if n := runtime.NumCPU() - 1; n > 0 {
		return n
	}
	return 0
}
