// Package logging centralises daemon-wide output the way the teacher's
// terminal_output.go centralises CPU/peripheral diagnostics into one
// sink instead of having every component write to stdout directly.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// Level mirrors the settings.log_level domain from spec.md §6
// (Off..Trace) onto charmbracelet/log's level scale.
type Level int

const (
	LevelOff Level = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

// ParseLevel converts the lower-case config document spelling
// ("off", "error", "warn", "info", "debug", "trace") into a Level.
func ParseLevel(s string) Level {
	switch s {
	case "error":
		return LevelError
	case "warn", "warning":
		return LevelWarn
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	case "trace":
		return LevelTrace
	default:
		return LevelOff
	}
}

var root = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// SetLevel adjusts the global sink's verbosity; LevelOff raises the
// threshold above Fatal, so nothing is printed at all.
func SetLevel(l Level) {
	switch l {
	case LevelOff:
		root.SetLevel(log.FatalLevel + 1)
	case LevelError:
		root.SetLevel(log.ErrorLevel)
	case LevelWarn:
		root.SetLevel(log.WarnLevel)
	case LevelInfo:
		root.SetLevel(log.InfoLevel)
	case LevelDebug:
		root.SetLevel(log.DebugLevel)
	case LevelTrace:
		root.SetLevel(log.DebugLevel)
	}
}

// For returns a named child logger, one per subsystem, following the
// teacher's pattern of prefixing log lines with the emitting component.
func For(component string) *log.Logger {
	return root.WithPrefix(component)
}

// Root exposes the top-level logger for callers (such as the script
// sandbox's LOG facade) that do not want a fixed prefix.
func Root() *log.Logger { return root }

// String renders the lower-case config-document spelling, the inverse
// of ParseLevel; used when a level must cross the RPC boundary (the
// plugin log stream's log_level_filter response).
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelTrace:
		return "trace"
	default:
		return "off"
	}
}

// At logs msg on logger at the given Level, used by callers (the RPC
// log stream handler) that receive a Level value rather than calling
// Debug/Info/Warn/Error directly.
func At(logger *log.Logger, l Level, msg string) {
	switch l {
	case LevelError:
		logger.Error(msg)
	case LevelWarn:
		logger.Warn(msg)
	case LevelInfo:
		logger.Info(msg)
	case LevelDebug, LevelTrace:
		logger.Debug(msg)
	}
}
