package log

import (
	"io"

	"github.com/kataras/golog"
)

const (
	defaultPrefix = "[researchdeck] "
	timeFormat    = "2006-01-02 15:04:05"
)

// GologLogger is a Logger backed by a kataras/golog logger. Level filtering
// is done by golog.
type GologLogger struct {
	logger *golog.Logger
	tag    string
}

var _ Logger = (*GologLogger)(nil)

// New returns a GologLogger writing to out at level. A nil out keeps golog's
// default of stdout.
func New(out io.Writer, level Level) *GologLogger {
	g := golog.New()
	g.SetPrefix(defaultPrefix)
	g.SetTimeFormat(timeFormat)
	if out != nil {
		g.SetOutput(out)
	}
	l := Wrap(g)
	l.SetLevel(level)
	return l
}

// Wrap adapts an existing golog logger.
func Wrap(g *golog.Logger) *GologLogger {
	return &GologLogger{logger: g}
}

// Named returns a logger sharing the same golog logger whose lines are tagged
// with component.
func (l *GologLogger) Named(component string) Logger {
	return &GologLogger{logger: l.logger, tag: l.tag + "[" + component + "] "}
}

// SetLevel changes the level of the underlying golog logger, and so of every
// logger derived from it with Named.
func (l *GologLogger) SetLevel(level Level) {
	l.logger.SetLevel(level.String())
}

func (l *GologLogger) Debug(format string, v ...any) { l.logger.Debugf(l.tag+format, v...) }
func (l *GologLogger) Info(format string, v ...any)  { l.logger.Infof(l.tag+format, v...) }
func (l *GologLogger) Warn(format string, v ...any)  { l.logger.Warnf(l.tag+format, v...) }
func (l *GologLogger) Error(format string, v ...any) { l.logger.Errorf(l.tag+format, v...) }
