package log

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"
)

// Logger is an immutable, concurrency-safe leveled logger.
//
// The zero value is valid and discards every message, so components can
// hold a Logger field without checking whether one was configured.
type Logger struct {
	*slog.Logger
	config
}

// Make creates a new [Logger] that writes to w.
// The default configuration is [DefaultFormat], [DefaultLevel],
// [DefaultTimeLayout], [DefaultPretty], and caller info disabled.
func Make(w io.Writer, opts ...Option) Logger {
	cfg := makeConfig(w, opts...)

	return Logger{Logger: slog.New(cfg.handler()), config: cfg}
}

// Wrap returns a new [Logger] using the receiver's configuration as the base,
// overridden by opts. Attributes added with [Logger.With] are not carried
// over.
func (l Logger) Wrap(opts ...Option) Logger {
	cfg := l.config
	if l.Logger == nil {
		cfg = makeConfig(nil)
	}

	cfg = apply(cfg, opts...)

	return Logger{Logger: slog.New(cfg.handler()), config: cfg}
}

// With returns a new [Logger] that includes attrs in each message.
func (l Logger) With(attrs ...slog.Attr) Logger {
	if l.Logger == nil || len(attrs) == 0 {
		return l
	}

	return Logger{
		Logger: slog.New(l.Handler().WithAttrs(attrs)),
		config: l.config,
	}
}

// WithGroup returns a new [Logger] that qualifies subsequent attributes with
// the given group name.
func (l Logger) WithGroup(name string) Logger {
	if l.Logger == nil || name == "" {
		return l
	}

	return Logger{
		Logger: slog.New(l.Handler().WithGroup(name)),
		config: l.config,
	}
}

// Level returns the minimum log level.
func (l Logger) Level() Level {
	if l.Logger == nil {
		return DefaultLevel
	}

	return l.level
}

// Format returns the output format.
func (l Logger) Format() Format {
	if l.Logger == nil {
		return DefaultFormat
	}

	return l.format
}

// Enabled reports whether a message at level would be written.
func (l Logger) Enabled(ctx context.Context, level Level) bool {
	return l.Logger != nil && l.Logger.Enabled(ctx, slog.Level(level))
}

// TraceContext logs a message at Trace level with the provided context.
func (l Logger) TraceContext(
	ctx context.Context,
	msg string,
	attrs ...slog.Attr,
) {
	l.log(ctx, LevelTrace, msg, attrs...)
}

// Trace logs a message at Trace level.
func (l Logger) Trace(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelTrace, msg, attrs...)
}

// DebugContext logs a message at Debug level with the provided context.
func (l Logger) DebugContext(
	ctx context.Context,
	msg string,
	attrs ...slog.Attr,
) {
	l.log(ctx, LevelDebug, msg, attrs...)
}

// Debug logs a message at Debug level.
func (l Logger) Debug(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelDebug, msg, attrs...)
}

// InfoContext logs a message at Info level with the provided context.
func (l Logger) InfoContext(
	ctx context.Context,
	msg string,
	attrs ...slog.Attr,
) {
	l.log(ctx, LevelInfo, msg, attrs...)
}

// Info logs a message at Info level.
func (l Logger) Info(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelInfo, msg, attrs...)
}

// WarnContext logs a message at Warn level with the provided context.
func (l Logger) WarnContext(
	ctx context.Context,
	msg string,
	attrs ...slog.Attr,
) {
	l.log(ctx, LevelWarn, msg, attrs...)
}

// Warn logs a message at Warn level.
func (l Logger) Warn(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelWarn, msg, attrs...)
}

// ErrorContext logs a message at Error level with the provided context.
func (l Logger) ErrorContext(
	ctx context.Context,
	msg string,
	attrs ...slog.Attr,
) {
	l.log(ctx, LevelError, msg, attrs...)
}

// Error logs a message at Error level.
func (l Logger) Error(msg string, attrs ...slog.Attr) {
	l.log(DefaultContextProvider(), LevelError, msg, attrs...)
}

// callerSkip is the number of frames between runtime.Callers and the user's
// call site: Callers itself, log, and the exported entry point.
const callerSkip = 3

func (l Logger) log(
	ctx context.Context,
	level Level,
	msg string,
	attrs ...slog.Attr,
) {
	if l.Logger == nil {
		return
	}

	if ctx == nil {
		ctx = DefaultContextProvider()
	}

	if !l.Logger.Enabled(ctx, slog.Level(level)) {
		return
	}

	var pc uintptr

	if l.caller {
		var pcs [1]uintptr

		runtime.Callers(callerSkip, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), slog.Level(level), msg, pc)
	r.AddAttrs(attrs...)
	_ = l.Handler().Handle(ctx, r)
}
