package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kong"

	"github.com/ardnew/nova/lang"
	"github.com/ardnew/nova/log"
)

// configMaxSteps bounds evaluation of the Nova configuration file.
const configMaxSteps = 1_000_000

// resolve returns a [kong.ConfigurationLoader] for configuration files
// written in Nova.
//
// The file is evaluated as a program. Each top-level binding whose value is
// an integer, float, boolean, or string becomes the value of the flag with
// the same name, where underscores in the binding name match hyphens in the
// flag name. Function bindings and the program's result are ignored, so a
// configuration may compute its values:
//
//	let log_level = "debug";
//	let max_steps = 1_000 * 1_000;
//	fn pick(tty) { if tty { "text" } else { "json" } }
//	let log_format = pick(true);
//
// Command-line flags override configuration values. A file that fails to
// evaluate is logged and ignored.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		src, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}

		sess := lang.NewSession(
			lang.WithMaxSteps(configMaxSteps),
			lang.WithLogger(log.Default()),
		)

		if _, err := sess.Run(ctx, string(src)); err != nil {
			log.WarnContext(ctx, "ignoring configuration",
				slog.String("format", "nova"),
				slog.Any("error", err),
			)

			return config{}, nil
		}

		return scopeToConfig(sess.Globals()), nil
	}
}

// resolveTOML is a [kong.ConfigurationLoader] for TOML configuration files.
// Keys of nested tables are joined to their table name with a hyphen, so
// that
//
//	[log]
//	level = "debug"
//
// sets --log-level.
func resolveTOML(r io.Reader) (kong.Resolver, error) {
	var doc map[string]any

	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}

	cfg := config{}
	cfg.flatten("", doc)

	return cfg, nil
}

// config implements [kong.Resolver] over a flat map of flag values.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	return nil, nil
}

func (r config) flatten(prefix string, m map[string]any) {
	for key, value := range m {
		if prefix != "" {
			key = prefix + "-" + key
		}

		switch v := value.(type) {
		case map[string]any:
			r.flatten(key, v)
		case int64:
			r[key] = strconv.FormatInt(v, 10)
		case float64:
			r[key] = strconv.FormatFloat(v, 'g', -1, 64)
		default:
			r[key] = v
		}
	}
}

// scopeToConfig converts the bindings of scope into flag values. Kong parses
// numbers from strings, so numeric values are formatted.
func scopeToConfig(scope *lang.Scope) config {
	cfg := config{}

	for name, b := range scope.All() {
		switch v := b.Value.(type) {
		case lang.Integer, lang.Float, lang.String:
			cfg[name] = v.String()
		case lang.Boolean:
			cfg[name] = bool(v)
		}
	}

	return cfg
}
