package log

import (
	"fmt"
	"iter"
	"log/slog"
	"strings"
)

// Level represents the severity of a log message.
type Level slog.Level

const (
	LevelTrace Level = Level(slog.LevelDebug - 4)
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

// DefaultLevel is the default log level.
const DefaultLevel = LevelWarn

var levelName = map[Level]string{
	LevelTrace: "trace",
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

// String returns the lowercase name of the level. Levels between the named
// ones are rendered as an offset from the nearest lower named level, e.g.
// "info+2".
func (l Level) String() string {
	if s, ok := levelName[l]; ok {
		return s
	}

	if l < LevelDebug {
		return fmt.Sprintf("trace%+d", int(l-LevelTrace))
	}

	return strings.ToLower(slog.Level(l).String())
}

// Levels returns an iterator over all named log levels in ascending order.
func Levels() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, level := range []Level{
			LevelTrace,
			LevelDebug,
			LevelInfo,
			LevelWarn,
			LevelError,
		} {
			if !yield(level.String()) {
				return
			}
		}
	}
}

// ParseLevel parses a string representation of a log level.
// Valid level strings are "trace", "debug", "info", "warn", and "error"
// (case-insensitive), optionally followed by a "+" or "-" and an integer
// offset. Unrecognized input yields [DefaultLevel].
func ParseLevel(s string) Level {
	var l Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return l
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (l *Level) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))

	if len(s) >= 5 && strings.EqualFold(s[:5], "trace") {
		var sl slog.Level
		if err := sl.UnmarshalText([]byte("debug" + s[5:])); err != nil {
			return err
		}

		*l = Level(sl) + (LevelTrace - LevelDebug)

		return nil
	}

	var sl slog.Level
	if err := sl.UnmarshalText([]byte(s)); err != nil {
		return err
	}

	*l = Level(sl)

	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// Format represents the output format for log messages.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// DefaultFormat is the default log message format.
const DefaultFormat = FormatText

// String returns the lowercase name of the format.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Formats returns an iterator over all defined log formats.
func Formats() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, format := range []Format{FormatText, FormatJSON} {
			if !yield(format.String()) {
				return
			}
		}
	}
}

// ParseFormat parses a string representation of a log format.
// Valid format strings are "json" and "text". Unrecognized input yields
// [DefaultFormat].
func ParseFormat(s string) Format {
	var f Format
	if err := f.UnmarshalText([]byte(s)); err != nil {
		return DefaultFormat
	}

	return f
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (f *Format) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "text":
		*f = FormatText
	case "json":
		*f = FormatJSON
	default:
		return fmt.Errorf("unknown log format %q", text)
	}

	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (f Format) MarshalText() ([]byte, error) { return []byte(f.String()), nil }
