// Package logging holds the process-wide logger. Packages dot-import it and
// call the L_* helpers; only main configures it.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// LogOptions configures the process logger.
type LogOptions struct {
	Level      string // debug, info, warn, error
	TimeFormat string
	ShowCaller bool
	Output     io.Writer // stderr when nil
}

var (
	logger *log.Logger
	mu     sync.Mutex
)

// DefaultLogOptions logs at info level to stderr.
func DefaultLogOptions() *LogOptions {
	return &LogOptions{
		Level:      "info",
		TimeFormat: "15:04:05",
	}
}

// Setup replaces the process logger. It may be called more than once.
func Setup(opts *LogOptions) {
	if opts == nil {
		opts = DefaultLogOptions()
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	l := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      opts.TimeFormat,
		ReportCaller:    opts.ShowCaller,
		CallerOffset:    1, // emit is called from an L_* helper
	})
	l.SetLevel(parseLevel(opts.Level))

	mu.Lock()
	logger = l
	mu.Unlock()
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error", "fatal":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func current() *log.Logger {
	mu.Lock()
	l := logger
	mu.Unlock()
	if l == nil {
		Setup(nil)
		return current()
	}
	return l
}

// printfStyle reports whether msg holds a formatting directive, which
// makes the remaining args Sprintf operands instead of key/value pairs.
func printfStyle(msg string) bool {
	for i := 0; i+1 < len(msg); i++ {
		if msg[i] != '%' {
			continue
		}
		if msg[i+1] == '%' {
			i++
			continue
		}
		if strings.IndexByte("vsdtfgeopqxXbcUT+#", msg[i+1]) >= 0 {
			return true
		}
	}
	return false
}

func emit(level log.Level, msg string, args []any) {
	var keyvals []any
	switch {
	case len(args) == 0:
	case printfStyle(msg):
		msg = fmt.Sprintf(msg, args...)
	default:
		keyvals = args
	}

	current().Log(level, msg, keyvals...)
	if level == log.FatalLevel {
		os.Exit(1)
	}
}

// L_debug accepts a plain message, a format string with operands, or a
// message followed by key/value pairs. The other helpers work the same way.
func L_debug(msg string, args ...any) { emit(log.DebugLevel, msg, args) }

func L_info(msg string, args ...any) { emit(log.InfoLevel, msg, args) }

func L_warn(msg string, args ...any) { emit(log.WarnLevel, msg, args) }

func L_error(msg string, args ...any) { emit(log.ErrorLevel, msg, args) }

// L_fatal logs and exits the process with status 1.
func L_fatal(msg string, args ...any) { emit(log.FatalLevel, msg, args) }
