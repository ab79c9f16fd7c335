// Package debug provides conditional debug logging for tl.
//
// Debug logging is enabled by setting the TL_DEBUG environment variable:
//
//	TL_DEBUG=1 tl ./notes.yaml
//
// A terminal UI owns stdout and stderr while it runs, so TL_DEBUG_FILE may
// name a file that receives the log instead of stderr. When disabled (the
// default) every function is a no-op.
//
// Usage:
//
//	import "github.com/vanderheijden86/treelist/pkg/debug"
//
//	func reload() {
//	    defer debug.LogEnterExit("reload")()
//	    debug.Log("reloading %d nodes", count)
//	}
package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"
)

const prefix = "[TL_DEBUG] "

var (
	// enabled is true when TL_DEBUG is set
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("TL_DEBUG") == "" {
		return
	}
	enabled = true
	var out io.Writer = os.Stderr
	if path := os.Getenv("TL_DEBUG_FILE"); path != "" {
		if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			out = f
		}
	}
	logger = log.New(out, prefix, log.Ltime|log.Lmicroseconds)
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, prefix, log.Ltime|log.Lmicroseconds)
	}
}

// SetOutput redirects debug output, mainly for tests.
func SetOutput(w io.Writer) {
	logger = log.New(w, prefix, log.Ltime|log.Lmicroseconds)
}

// Log writes a printf-style debug message if debug logging is enabled.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !enabled || !cond {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %v", name, d)
}

// LogEnterExit logs function entry and exit with timing.
//
//	defer debug.LogEnterExit("reload")()
func LogEnterExit(name string) func() {
	if !enabled {
		return func() {}
	}
	logger.Printf("-> %s", name)
	start := time.Now()
	return func() {
		logger.Printf("<- %s (%v)", name, time.Since(start))
	}
}

// Assert logs a message and panics if the condition is false.
// Only active when debug is enabled.
func Assert(cond bool, msg string) {
	if !enabled || cond {
		return
	}
	logger.Printf("ASSERTION FAILED: %s", msg)
	panic(fmt.Sprintf("debug assertion failed: %s", msg))
}
