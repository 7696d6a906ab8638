package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nova/lang"
	"github.com/ardnew/nova/log"
	"github.com/ardnew/nova/profile"
)

// Init writes a configuration file holding the current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	if _, err := os.Stat(confPath); err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath), slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	file, err := os.Create(confPath)
	if err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}
	defer file.Close()

	prog := configProgram(ktx)

	if err := lang.Format(file, prog); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath),
		slog.Int("bindings", len(prog.Stmts)),
	)

	return nil
}

// ignoreFlags are flag name prefixes never written to the configuration.
var ignoreFlags = []string{"help", "version", "source", profile.Tag}

// configProgram builds a program binding each configurable flag to its
// current value. Flag names become identifiers with underscores in place
// of hyphens.
func configProgram(ktx *kong.Context) *lang.Program {
	prog := new(lang.Program)

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignoreFlags, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		val := flagValue(ktx.FlagValue(flag))
		if val == nil {
			continue
		}

		prog.Stmts = append(prog.Stmts, &lang.Let{
			Name:  &lang.Ident{Name: strings.ReplaceAll(flag.Name, "-", "_")},
			Value: val,
		})
	}

	return prog
}

// flagValue returns the literal for a flag value, or nil if it is unset or
// has no literal form.
func flagValue(val any) lang.Expr {
	switch v := val.(type) {
	case nil:
		return nil
	case bool:
		return &lang.BoolLit{Value: v}
	case string:
		if v == "" {
			return nil
		}

		return &lang.StringLit{Value: v}
	case int:
		return &lang.IntLit{Value: int64(v)}
	case int64:
		return &lang.IntLit{Value: v}
	case float64:
		return &lang.FloatLit{Value: v}
	case fmt.Stringer:
		return &lang.StringLit{Value: v.String()}
	default:
		s := fmt.Sprint(v)
		if s == "" {
			return nil
		}

		return &lang.StringLit{Value: s}
	}
}
