// Package logger provides verbose logging for the taxonomist CLI.
// When verbose mode is enabled via the --verbose flag, debug and info
// messages are printed to stderr to follow each pipeline stage, stamped
// with the time elapsed since the process started. Warnings are always
// printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	now               = time.Now
	started           = time.Now()
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	printf(false, "DEBUG", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	printf(false, "INFO", format, args...)
}

// Warn prints a warning. Warnings are shown even without --verbose.
func Warn(format string, args ...any) {
	printf(true, "WARN", format, args...)
}

// Section prints a stage header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

func printf(always bool, level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose && !always {
		return
	}
	if !verbose {
		fmt.Fprintf(output, "Warning: "+format+"\n", args...)
		return
	}
	elapsed := now().Sub(started).Round(time.Millisecond)
	fmt.Fprintf(output, "[%s +%s] "+format+"\n", append([]any{level, elapsed}, args...)...)
}
