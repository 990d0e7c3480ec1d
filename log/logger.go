package log

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Level is a logging severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	// LevelNone disables output.
	LevelNone
)

// String returns the level name understood by golog.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelNone:
		return "disable"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a configuration string into a Level. The empty string
// is info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "none", "off", "disable":
		return LevelNone, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger is the printf-style logging contract used by the pipeline, stores and server.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (NoOpLogger) Debug(format string, v ...any) {}
func (NoOpLogger) Info(format string, v ...any)  {}
func (NoOpLogger) Warn(format string, v ...any)  {}
func (NoOpLogger) Error(format string, v ...any) {}

// Named returns a logger that tags every line with component. Loggers with
// their own Named method, such as GologLogger, handle the tagging themselves.
func Named(l Logger, component string) Logger {
	switch v := l.(type) {
	case nil:
		return NoOpLogger{}
	case NoOpLogger:
		return v
	case interface{ Named(string) Logger }:
		return v.Named(component)
	}
	return &tagged{next: l, tag: "[" + component + "] "}
}

type tagged struct {
	next Logger
	tag  string
}

func (t *tagged) Debug(format string, v ...any) { t.next.Debug(t.tag+format, v...) }
func (t *tagged) Info(format string, v ...any)  { t.next.Info(t.tag+format, v...) }
func (t *tagged) Warn(format string, v ...any)  { t.next.Warn(t.tag+format, v...) }
func (t *tagged) Error(format string, v ...any) { t.next.Error(t.tag+format, v...) }

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger = New(os.Stderr, LevelInfo)
)

// SetDefaultLogger replaces the package-level logger. A nil logger discards.
func SetDefaultLogger(logger Logger) {
	if logger == nil {
		logger = NoOpLogger{}
	}
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
}

// GetDefaultLogger returns the package-level logger. Components fall back to
// it when no logger is configured.
func GetDefaultLogger() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

func Debug(format string, v ...any) { GetDefaultLogger().Debug(format, v...) }
func Info(format string, v ...any)  { GetDefaultLogger().Info(format, v...) }
func Warn(format string, v ...any)  { GetDefaultLogger().Warn(format, v...) }
func Error(format string, v ...any) { GetDefaultLogger().Error(format, v...) }
