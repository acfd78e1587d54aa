package logger

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"slices"
	"sync"
	"time"
)

const (
	// traceLevelValue is slog.Level for TRACE level (below Debug which is -4)
	traceLevelValue = slog.Level(-8)

	// floatPrecisionRatio rounds floats to 3 decimal places in log output
	floatPrecisionRatio = 1000.0

	defaultAttrCapacity = 8

	moduleKey = "module"
)

// Format selects the slog handler used for output
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// loggerContextKey is a typed key for context values
type loggerContextKey struct{ name string }

// TraceIDKey is the context key for trace IDs. Use WithTraceID() to set values.
var TraceIDKey = loggerContextKey{"trace_id"}

// WithTraceID returns a new context with the trace ID set
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// attrPool provides reusable slices for slog.Attr to reduce allocations in hot paths.
var attrPool = sync.Pool{
	New: func() any {
		s := make([]slog.Attr, 0, defaultAttrCapacity)
		return &s
	},
}

func getAttrs() *[]slog.Attr {
	ptr, ok := attrPool.Get().(*[]slog.Attr)
	if !ok {
		s := make([]slog.Attr, 0, defaultAttrCapacity)
		return &s
	}
	return ptr
}

func putAttrs(attrs *[]slog.Attr) {
	*attrs = (*attrs)[:0]
	attrPool.Put(attrs)
}

// SlogLogger implements Logger interface using Go's standard log/slog
type SlogLogger struct {
	handler  slog.Handler
	level    slog.Level
	module   string
	timezone *time.Location
	fields   []Field
}

// NewSlogLogger creates a new slog-based logger with JSON output
func NewSlogLogger(writer io.Writer, level LogLevel, timezone *time.Location) *SlogLogger {
	return NewSlogLoggerWithFormat(writer, FormatJSON, level, timezone)
}

// NewSlogLoggerWithFormat creates a new slog-based logger with the given output format
func NewSlogLoggerWithFormat(writer io.Writer, format Format, level LogLevel, timezone *time.Location) *SlogLogger {
	if writer == nil {
		writer = os.Stderr
	}
	if timezone == nil {
		timezone = time.UTC
	}

	slogLevel := ParseLevel(string(level))
	opts := &slog.HandlerOptions{
		Level:       slogLevel,
		ReplaceAttr: replaceAttr(timezone),
	}

	var handler slog.Handler
	if format == FormatText {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}

	return &SlogLogger{
		handler:  handler,
		level:    slogLevel,
		timezone: timezone,
	}
}

// NewConsoleLogger creates a console logger with human-readable text format.
// Use this for bootstrap/fallback scenarios before settings are loaded.
func NewConsoleLogger(module string, level LogLevel) *SlogLogger {
	l := NewSlogLoggerWithFormat(os.Stderr, FormatText, level, time.Local)
	l.module = module
	return l
}

// replaceAttr renders timestamps in the configured timezone and names the trace level
func replaceAttr(tz *time.Location) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) > 0 {
			return a
		}
		switch a.Key {
		case slog.TimeKey:
			if t, ok := a.Value.Any().(time.Time); ok {
				a.Value = slog.TimeValue(t.In(tz))
			}
		case slog.LevelKey:
			if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= traceLevelValue {
				a.Value = slog.StringValue("TRACE")
			}
		}
		return a
	}
}

// Module returns a logger scoped to a specific module
func (l *SlogLogger) Module(name string) Logger {
	if l == nil {
		return nil
	}

	moduleName := name
	if l.module != "" {
		moduleName = l.module + "." + name
	}

	return &SlogLogger{
		handler:  l.handler,
		level:    l.level,
		module:   moduleName,
		timezone: l.timezone,
		fields:   slices.Clone(l.fields),
	}
}

// Trace logs a trace message (most verbose level)
func (l *SlogLogger) Trace(msg string, fields ...Field) {
	if l == nil || l.level > traceLevelValue {
		return
	}
	l.log(traceLevelValue, msg, fields...)
}

// Debug logs a debug message
func (l *SlogLogger) Debug(msg string, fields ...Field) {
	if l == nil || l.level > slog.LevelDebug {
		return
	}
	l.log(slog.LevelDebug, msg, fields...)
}

// Info logs an info message
func (l *SlogLogger) Info(msg string, fields ...Field) {
	if l == nil || l.level > slog.LevelInfo {
		return
	}
	l.log(slog.LevelInfo, msg, fields...)
}

// Warn logs a warning message
func (l *SlogLogger) Warn(msg string, fields ...Field) {
	if l == nil || l.level > slog.LevelWarn {
		return
	}
	l.log(slog.LevelWarn, msg, fields...)
}

// Error logs an error message
func (l *SlogLogger) Error(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.log(slog.LevelError, msg, fields...)
}

// Log logs a message with explicit level
func (l *SlogLogger) Log(level LogLevel, msg string, fields ...Field) {
	if l == nil {
		return
	}
	slogLevel := ParseLevel(string(level))
	if l.level > slogLevel {
		return
	}
	l.log(slogLevel, msg, fields...)
}

// With returns a new logger with accumulated fields
func (l *SlogLogger) With(fields ...Field) Logger {
	if l == nil {
		return nil
	}

	return &SlogLogger{
		handler:  l.handler,
		level:    l.level,
		module:   l.module,
		timezone: l.timezone,
		fields:   slices.Concat(l.fields, fields),
	}
}

// WithContext returns a logger carrying the trace ID found in ctx, if any
func (l *SlogLogger) WithContext(ctx context.Context) Logger {
	if l == nil {
		return nil
	}
	if ctx == nil {
		return l
	}

	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok || traceID == "" {
		return l
	}

	return l.With(String("trace_id", traceID))
}

// Flush is a no-op; slog handlers write synchronously
func (l *SlogLogger) Flush() error {
	return nil
}

func (l *SlogLogger) log(level slog.Level, msg string, fields ...Field) {
	attrsPtr := getAttrs()
	attrs := *attrsPtr

	if l.module != "" {
		attrs = append(attrs, slog.String(moduleKey, l.module))
	}

	for i := range l.fields {
		attrs = append(attrs, fieldToAttr(l.fields[i]))
	}

	for i := range fields {
		attrs = append(attrs, fieldToAttr(fields[i]))
	}

	slog.New(l.handler).LogAttrs(context.Background(), level, msg, attrs...)

	*attrsPtr = attrs
	putAttrs(attrsPtr)
}

// roundFloat rounds a float64 to 3 decimal places
func roundFloat(val float64) float64 {
	return math.Round(val*floatPrecisionRatio) / floatPrecisionRatio
}

// fieldToAttr converts Field to slog.Attr
func fieldToAttr(f Field) slog.Attr {
	switch v := f.Value.(type) {
	case string:
		return slog.String(f.Key, v)
	case int:
		return slog.Int(f.Key, v)
	case int64:
		return slog.Int64(f.Key, v)
	case float64:
		return slog.Float64(f.Key, roundFloat(v))
	case bool:
		return slog.Bool(f.Key, v)
	case time.Time:
		return slog.Time(f.Key, v)
	case time.Duration:
		// slog.Duration outputs nanoseconds in JSON
		return slog.String(f.Key, v.Round(time.Millisecond).String())
	default:
		return slog.Any(f.Key, v)
	}
}

// ParseLevel converts a level name to slog.Level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch LogLevel(level) {
	case LogLevelTrace:
		return traceLevelValue
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
