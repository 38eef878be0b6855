// Package tuilog provides file-based logging for the chat client.
// Stdout belongs to the terminal UI while it runs, so everything is written
// to a file chosen at startup. It is a separate package to avoid import
// cycles between the tui, chat and feed packages.
package tuilog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level is a log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps a config/flag value to a Level. Unknown values map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// sink is the file shared by a logger and all of its children.
type sink struct {
	mu      sync.Mutex
	w       io.Writer
	closer  io.Closer
	enabled bool
	level   Level
}

// Logger writes leveled key=value lines. The zero value discards everything.
type Logger struct {
	sink   *sink
	fields []any
}

var (
	// Log is the process logger. Components take a *Logger in their options
	// and fall back to this one.
	Log     = &Logger{sink: &sink{level: LevelInfo}}
	logOnce sync.Once
)

// Init opens path for appending and enables Log. An empty path leaves
// logging disabled.
func Init(path string) error {
	if path == "" {
		return nil
	}

	var initErr error
	logOnce.Do(func() {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			initErr = err
			return
		}
		Log.sink.mu.Lock()
		Log.sink.w = f
		Log.sink.closer = f
		Log.sink.enabled = true
		Log.sink.mu.Unlock()
		Log.Info("Logger initialized", "path", path)
	})
	return initErr
}

// New returns a logger writing to w at the given minimum level. Tests use it
// with a bytes.Buffer.
func New(w io.Writer, level Level) *Logger {
	return &Logger{sink: &sink{w: w, enabled: w != nil, level: level}}
}

// SetLevel changes the minimum level for this logger and every logger
// sharing its sink.
func (l *Logger) SetLevel(level Level) {
	if l == nil || l.sink == nil {
		return
	}
	l.sink.mu.Lock()
	l.sink.level = level
	l.sink.mu.Unlock()
}

// With returns a child logger that prefixes keyvals to every line.
func (l *Logger) With(keyvals ...any) *Logger {
	if l == nil {
		return nil
	}
	fields := make([]any, 0, len(l.fields)+len(keyvals))
	fields = append(fields, l.fields...)
	fields = append(fields, keyvals...)
	return &Logger{sink: l.sink, fields: fields}
}

// Close closes the log file.
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.enabled = false
	if l.sink.closer != nil {
		return l.sink.closer.Close()
	}
	return nil
}

// Enabled returns whether logging is active.
func (l *Logger) Enabled() bool {
	if l == nil || l.sink == nil {
		return false
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return l.sink.enabled
}

// Writer returns the underlying io.Writer for use with other logging
// libraries, or io.Discard when logging is off.
func (l *Logger) Writer() io.Writer {
	if l == nil || l.sink == nil {
		return io.Discard
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if !l.sink.enabled || l.sink.w == nil {
		return io.Discard
	}
	return l.sink.w
}

func (l *Logger) log(level Level, msg string, keyvals ...any) {
	if l == nil || l.sink == nil {
		return
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if !l.sink.enabled || l.sink.w == nil || level < l.sink.level {
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", time.Now().Format("15:04:05.000"), level, msg)
	writeFields(&b, l.fields)
	writeFields(&b, keyvals)
	b.WriteByte('\n')

	io.WriteString(l.sink.w, b.String())
	if f, ok := l.sink.w.(*os.File); ok {
		f.Sync()
	}
}

func writeFields(b *strings.Builder, keyvals []any) {
	for i := 0; i < len(keyvals)-1; i += 2 {
		fmt.Fprintf(b, " %v=%v", keyvals[i], keyvals[i+1])
	}
}

// Debug logs a debug message with optional key-value pairs.
func (l *Logger) Debug(msg string, keyvals ...any) {
	l.log(LevelDebug, msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func (l *Logger) Info(msg string, keyvals ...any) {
	l.log(LevelInfo, msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func (l *Logger) Warn(msg string, keyvals ...any) {
	l.log(LevelWarn, msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func (l *Logger) Error(msg string, keyvals ...any) {
	l.log(LevelError, msg, keyvals...)
}

// Timed logs the duration of an operation. Usage:
//
//	defer tuilog.Log.Timed("fetch page")()
func (l *Logger) Timed(operation string) func() {
	if !l.Enabled() {
		return func() {}
	}
	start := time.Now()
	l.Debug(operation, "status", "started")
	return func() {
		l.Debug(operation, "status", "completed", "duration", time.Since(start))
	}
}
