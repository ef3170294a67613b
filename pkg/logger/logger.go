package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level represents the severity of a log message
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// Palette used for levels, prefixes and decorations
var (
	colorTime   = color.New(color.FgHiBlack)
	colorDebug  = color.New(color.FgHiBlack)
	colorInfo   = color.New(color.FgGreen)
	colorWarn   = color.New(color.FgYellow)
	colorError  = color.New(color.FgRed)
	colorPrefix = color.New(color.FgCyan)
	colorFields = color.New(color.FgHiBlack)
	colorTitle  = color.New(color.FgCyan, color.Bold)
	colorAccent = color.New(color.FgCyan)
)

// Logger is the main logger interface
type Logger interface {
	Debug(args ...interface{})
	Debugf(format string, args ...interface{})
	Info(args ...interface{})
	Infof(format string, args ...interface{})
	Warn(args ...interface{})
	Warnf(format string, args ...interface{})
	Error(args ...interface{})
	Errorf(format string, args ...interface{})
	WithField(key string, value interface{}) Logger
	WithFields(fields map[string]interface{}) Logger
	WithPrefix(prefix string) Logger
}

// logger implements the Logger interface
type logger struct {
	mu       *sync.Mutex
	level    *Level
	writer   io.Writer
	fields   map[string]interface{}
	prefix   string
	noColor  *bool
	showTime bool
}

// Default logger instance
var defaultLogger = New()

// Config holds logger configuration
type Config struct {
	Level    Level
	Writer   io.Writer
	NoColor  bool
	ShowTime bool
}

// New creates a new logger with default configuration
func New() Logger {
	return NewWithConfig(Config{
		Level:    InfoLevel,
		Writer:   os.Stdout,
		NoColor:  false,
		ShowTime: true,
	})
}

// NewWithConfig creates a new logger with custom configuration
func NewWithConfig(cfg Config) Logger {
	level := cfg.Level
	noColor := cfg.NoColor
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}
	return &logger{
		mu:       &sync.Mutex{},
		level:    &level,
		writer:   writer,
		fields:   make(map[string]interface{}),
		noColor:  &noColor,
		showTime: cfg.ShowTime,
	}
}

// SetLevel sets the global log level
func SetLevel(level Level) {
	if l, ok := defaultLogger.(*logger); ok {
		l.mu.Lock()
		*l.level = level
		l.mu.Unlock()
	}
}

// SetNoColor disables color output
func SetNoColor(noColor bool) {
	if l, ok := defaultLogger.(*logger); ok {
		l.mu.Lock()
		*l.noColor = noColor
		l.mu.Unlock()
	}
}

// SetOutput redirects the default logger
func SetOutput(w io.Writer) {
	if l, ok := defaultLogger.(*logger); ok {
		l.mu.Lock()
		l.writer = w
		l.mu.Unlock()
	}
}

// Output returns the default logger's writer
func Output() io.Writer {
	if l, ok := defaultLogger.(*logger); ok {
		l.mu.Lock()
		defer l.mu.Unlock()
		return l.writer
	}
	return os.Stdout
}

// Enabled reports whether the default logger emits messages at level
func Enabled(level Level) bool {
	if l, ok := defaultLogger.(*logger); ok {
		l.mu.Lock()
		defer l.mu.Unlock()
		return level >= *l.level
	}
	return true
}

// Helper methods for the default logger
func Debug(args ...interface{})                       { defaultLogger.Debug(args...) }
func Debugf(format string, args ...interface{})       { defaultLogger.Debugf(format, args...) }
func Info(args ...interface{})                        { defaultLogger.Info(args...) }
func Infof(format string, args ...interface{})        { defaultLogger.Infof(format, args...) }
func Warn(args ...interface{})                        { defaultLogger.Warn(args...) }
func Warnf(format string, args ...interface{})        { defaultLogger.Warnf(format, args...) }
func Error(args ...interface{})                       { defaultLogger.Error(args...) }
func Errorf(format string, args ...interface{})       { defaultLogger.Errorf(format, args...) }
func WithField(key string, value interface{}) Logger  { return defaultLogger.WithField(key, value) }
func WithFields(fields map[string]interface{}) Logger { return defaultLogger.WithFields(fields) }
func WithPrefix(prefix string) Logger                 { return defaultLogger.WithPrefix(prefix) }

func (l *logger) paint(c *color.Color, s string) string {
	if *l.noColor {
		return s
	}
	return c.Sprint(s)
}

func (l *logger) log(level Level, args ...interface{}) {
	l.mu.Lock()

	if level < *l.level {
		l.mu.Unlock()
		return
	}

	var parts []string

	if l.showTime {
		parts = append(parts, l.paint(colorTime, time.Now().Format("15:04:05")))
	}

	levelStr, levelColor := getLevelString(level)
	parts = append(parts, l.paint(levelColor, levelStr))

	if l.prefix != "" {
		parts = append(parts, l.paint(colorPrefix, "["+l.prefix+"]"))
	}

	// Sorted so repeated runs print fields identically
	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fieldParts := make([]string, 0, len(keys))
		for _, k := range keys {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", k, l.fields[k]))
		}
		parts = append(parts, l.paint(colorFields, strings.Join(fieldParts, " ")))
	}

	parts = append(parts, fmt.Sprint(args...))

	_, _ = fmt.Fprintln(l.writer, strings.Join(parts, " "))

	l.mu.Unlock()
}

func (l *logger) logf(level Level, format string, args ...interface{}) {
	l.log(level, fmt.Sprintf(format, args...))
}

func getLevelString(level Level) (string, *color.Color) {
	switch level {
	case DebugLevel:
		return "DEBUG", colorDebug
	case InfoLevel:
		return "INFO ", colorInfo
	case WarnLevel:
		return "WARN ", colorWarn
	case ErrorLevel:
		return "ERROR", colorError
	default:
		return "UNKNOWN", colorDebug
	}
}

func (l *logger) Debug(args ...interface{}) { l.log(DebugLevel, args...) }

func (l *logger) Debugf(format string, args ...interface{}) { l.logf(DebugLevel, format, args...) }

func (l *logger) Info(args ...interface{}) { l.log(InfoLevel, args...) }

func (l *logger) Infof(format string, args ...interface{}) { l.logf(InfoLevel, format, args...) }

func (l *logger) Warn(args ...interface{}) { l.log(WarnLevel, args...) }

func (l *logger) Warnf(format string, args ...interface{}) { l.logf(WarnLevel, format, args...) }

func (l *logger) Error(args ...interface{}) { l.log(ErrorLevel, args...) }

func (l *logger) Errorf(format string, args ...interface{}) { l.logf(ErrorLevel, format, args...) }

// derive copies the logger; level, color switch and mutex stay shared with
// the parent so SetLevel affects derived loggers too
func (l *logger) derive(prefix string, extra map[string]interface{}) *logger {
	fields := make(map[string]interface{}, len(l.fields)+len(extra))
	for k, v := range l.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	return &logger{
		mu:       l.mu,
		level:    l.level,
		writer:   l.writer,
		fields:   fields,
		prefix:   prefix,
		noColor:  l.noColor,
		showTime: l.showTime,
	}
}

func (l *logger) WithField(key string, value interface{}) Logger {
	return l.derive(l.prefix, map[string]interface{}{key: value})
}

func (l *logger) WithFields(fields map[string]interface{}) Logger {
	return l.derive(l.prefix, fields)
}

func (l *logger) WithPrefix(prefix string) Logger {
	return l.derive(prefix, nil)
}

// ParseLevel parses a string log level
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}
