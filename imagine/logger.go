// ABOUTME: Leveled diagnostics for the engine, written to stderr through std log with lipgloss-styled level tags.
// ABOUTME: The level is fixed at construction and threaded explicitly to every handler.
package imagine

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Level is a diagnostic verbosity level. Higher is chattier.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelVerbose
	LevelDebug
)

// DefaultLevel matches the level the filter runs at when nothing is configured.
const DefaultLevel = LevelInfo

var levelNames = map[Level]string{
	LevelError:   "error",
	LevelWarn:    "warn",
	LevelInfo:    "info",
	LevelVerbose: "verbose",
	LevelDebug:   "debug",
}

var levelColors = map[Level]lipgloss.Color{
	LevelError:   lipgloss.Color("196"),
	LevelWarn:    lipgloss.Color("214"),
	LevelInfo:    lipgloss.Color("75"),
	LevelVerbose: lipgloss.Color("245"),
	LevelDebug:   lipgloss.Color("241"),
}

// String returns the lowercase level name.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level%d", int(l))
}

// Logger writes "Imagine:<component>:<message>" lines at or below its level.
// A Logger is immutable; Named returns a copy.
type Logger struct {
	out   *log.Logger
	level Level
	name  string
	tags  map[Level]string
}

// NewLogger creates a Logger writing to w. Styling is applied only when w is
// a terminal that supports color.
func NewLogger(w io.Writer, level Level) *Logger {
	renderer := lipgloss.NewRenderer(w)
	tags := make(map[Level]string, len(levelNames))
	for lvl, name := range levelNames {
		tags[lvl] = renderer.NewStyle().Foreground(levelColors[lvl]).Render(name)
	}
	return &Logger{
		out:   log.New(w, "", 0),
		level: level,
		name:  "Handler",
		tags:  tags,
	}
}

// DiscardLogger returns a Logger that drops everything.
func DiscardLogger() *Logger {
	return NewLogger(io.Discard, LevelError)
}

// Named returns a copy of l that reports under the given component name.
func (l *Logger) Named(name string) *Logger {
	cp := *l
	cp.name = name
	return &cp
}

// Level returns the configured verbosity.
func (l *Logger) Level() Level {
	return l.level
}

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool {
	return level <= l.level
}

// Logf writes a message at the given level.
func (l *Logger) Logf(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	tag, ok := l.tags[level]
	if !ok {
		tag = level.String()
	}
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	l.out.Printf("%s Imagine:%s:%s", tag, l.name, msg)
}

func (l *Logger) Errorf(format string, args ...any)   { l.Logf(LevelError, format, args...) }
func (l *Logger) Warnf(format string, args ...any)    { l.Logf(LevelWarn, format, args...) }
func (l *Logger) Infof(format string, args ...any)    { l.Logf(LevelInfo, format, args...) }
func (l *Logger) Verbosef(format string, args ...any) { l.Logf(LevelVerbose, format, args...) }
func (l *Logger) Debugf(format string, args ...any)   { l.Logf(LevelDebug, format, args...) }
