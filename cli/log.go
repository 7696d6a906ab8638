package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nova/log"
)

// logLevel configures the default logger as a side effect of parsing, so
// that messages emitted while kong is still parsing use the requested level.
type logLevel string

// UnmarshalText implements [encoding.TextUnmarshaler].
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

// logFormat configures the default logger as a side effect of parsing.
type logFormat string

// UnmarshalText implements [encoding.TextUnmarshaler].
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"${logLevelDefault}"  enum:"${logLevelEnum}"  help:"Set log level."`
	Format     logFormat `default:"${logFormatDefault}" enum:"${logFormatEnum}" help:"Set log format."`
	TimeLayout string    `default:"RFC3339"                                     help:"Set timestamp format (Go layout, a time package constant name, or none)."`
	Caller     bool      `default:"false"                                       help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                                        help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	return kong.Vars{
		"logLevelEnum":     strings.Join(slices.Collect(log.Levels()), ","),
		"logLevelDefault":  log.DefaultLevel.String(),
		"logFormatEnum":    strings.Join(slices.Collect(log.Formats()), ","),
		"logFormatDefault": log.DefaultFormat.String(),
	}
}

func (*logConfig) group() kong.Group {
	return kong.Group{Key: "log", Title: "Logging options"}
}

// options returns the logger options selected by the parsed flags.
func (f *logConfig) options() []log.Option {
	return []log.Option{
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	}
}

// start applies the final logger configuration, including the flags that
// have no early side effect, and returns a func that logs shutdown.
func (f *logConfig) start(ctx context.Context) (stop func()) {
	log.Config(f.options()...)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)

	return func() { log.TraceContext(ctx, "logger stopped") }
}

// scan applies logger flags found in args before kong parses them, so the
// logger is configured regardless of where the flags appear. Boolean flags
// have no [encoding.TextUnmarshaler] hook and are only applied here and in
// [logConfig.start].
func (f *logConfig) scan(args []string) {
	boolFlag := func(dst *bool, opt func(bool) log.Option, value string, assigned, negated bool) {
		v := true

		if assigned {
			b, err := strconv.ParseBool(value)
			if err != nil {
				return
			}

			v = b
		}

		if negated {
			v = !v
		}

		*dst = v
		log.Config(opt(v))
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return
		}

		name, value, assigned := strings.Cut(arg, "=")

		// Value flags may take their argument from the next element.
		next := func() string {
			if !assigned && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				i++

				return args[i]
			}

			return value
		}

		switch name {
		case "--log-level":
			_ = f.Level.UnmarshalText([]byte(next()))
		case "--log-format":
			_ = f.Format.UnmarshalText([]byte(next()))
		case "--log-pretty", "--no-log-pretty":
			boolFlag(&f.Pretty, log.WithPretty, value, assigned, name == "--no-log-pretty")
		case "--log-caller", "--no-log-caller":
			boolFlag(&f.Caller, log.WithCaller, value, assigned, name == "--no-log-caller")
		}
	}
}
