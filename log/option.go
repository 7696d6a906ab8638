package log

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// Option applies a configuration option to config.
type Option func(config) config

// apply applies multiple options to a config.
func apply(cfg config, opts ...Option) config {
	for _, opt := range opts {
		if opt != nil {
			cfg = opt(cfg)
		}
	}

	return cfg
}

// FormatTime defines a function that formats a time.Time value as a string.
// An empty result omits the timestamp.
type FormatTime func(time.Time) string

// DefaultTimeLayout is the default used when no valid time layout is provided.
const DefaultTimeLayout = time.RFC3339

// DefaultCaller is the default setting for including caller information
// in log output.
const DefaultCaller = false

// DefaultPretty is the default setting for pretty printing log output.
const DefaultPretty = true

// config is an immutable snapshot of a Logger's settings. Options return
// modified copies.
type config struct {
	output     io.Writer
	formatTime FormatTime
	level      Level
	format     Format
	caller     bool
	pretty     bool
}

func makeConfig(w io.Writer, opts ...Option) config {
	return apply(config{}, append([]Option{WithDefaults(w)}, opts...)...)
}

// handler creates a slog.Handler from the configuration.
func (c config) handler() slog.Handler {
	output := c.output
	if output == nil {
		output = io.Discard
	}

	formatTime := c.formatTime
	if formatTime == nil {
		formatTime = makeFormatTimeFunc(DefaultTimeLayout)
	}

	opts := &slog.HandlerOptions{
		AddSource: c.caller,
		Level:     slog.Level(c.level),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				if t, ok := a.Value.Any().(time.Time); ok {
					formatted := formatTime(t)
					if formatted == "" {
						return slog.Attr{}
					}

					a.Value = slog.StringValue(formatted)
				}

			case slog.LevelKey:
				// Render "TRACE" instead of slog's "DEBUG-4".
				if level, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(strings.ToUpper(Level(level).String()))
				}
			}

			return a
		},
	}

	switch {
	case c.pretty && c.format == FormatJSON:
		return newPrettyJSONHandler(output, opts)
	case c.pretty:
		return newPrettyTextHandler(output, opts)
	case c.format == FormatJSON:
		return slog.NewJSONHandler(output, opts)
	default:
		return slog.NewTextHandler(output, opts)
	}
}

// WithDefaults returns a functional option that resets every setting to its
// default and writes to w.
func WithDefaults(w io.Writer) Option {
	return func(config) config {
		if w == nil {
			w = io.Discard
		}

		return config{
			output:     w,
			formatTime: makeFormatTimeFunc(DefaultTimeLayout),
			level:      DefaultLevel,
			format:     DefaultFormat,
			caller:     DefaultCaller,
			pretty:     DefaultPretty,
		}
	}
}

// WithOutput returns a functional option that sets the output [io.Writer]
// for log messages.
// If a nil writer is provided, [io.Discard] is used instead.
func WithOutput(w io.Writer) Option {
	return func(c config) config {
		if w == nil {
			w = io.Discard
		}

		c.output = w

		return c
	}
}

// WithLevel returns a functional option that sets the minimum log level.
func WithLevel(level Level) Option {
	return func(c config) config {
		c.level = level

		return c
	}
}

// WithFormat returns a functional option that sets the output format.
func WithFormat(format Format) Option {
	return func(c config) config {
		c.format = format

		return c
	}
}

// WithTimeLayout returns a functional option that sets the layout used to
// format log timestamps.
//
// The layout may name one of the layouts in the [time] package
// ("RFC3339", "Kitchen", "StampMilli", ...) or be a custom layout passed
// verbatim to [time.Time.Format]. An empty layout or "none" disables
// timestamps.
func WithTimeLayout(layout string) Option {
	return func(c config) config {
		c.formatTime = makeFormatTimeFunc(layout)

		return c
	}
}

// WithCaller returns a functional option that controls whether the source
// location of the logging call is included in output.
func WithCaller(enable bool) Option {
	return func(c config) config {
		c.caller = enable

		return c
	}
}

// WithPretty returns a functional option that controls whether output is
// styled for a terminal.
func WithPretty(enable bool) Option {
	return func(c config) config {
		c.pretty = enable

		return c
	}
}

var timeLayout = map[string]string{
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"ansic":       time.ANSIC,
	"unixdate":    time.UnixDate,
	"rfc822":      time.RFC822,
	"kitchen":     time.Kitchen,
	"datetime":    time.DateTime,
	"timeonly":    time.TimeOnly,
	"none":        "",

	"stamp":      time.Stamp,
	"stampmilli": time.StampMilli,
	"ms":         time.StampMilli,
	"stampmicro": time.StampMicro,
	"us":         time.StampMicro,
	"stampnano":  time.StampNano,
	"ns":         time.StampNano,
}

func makeFormatTimeFunc(layout string) FormatTime {
	// Normalize only for lookup; custom layouts are used verbatim.
	key := strings.Map(
		func(r rune) rune {
			if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
				return r
			}

			return -1
		},
		strings.ToLower(layout),
	)

	if std, ok := timeLayout[key]; ok {
		layout = std
	}

	if strings.TrimSpace(layout) == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}
