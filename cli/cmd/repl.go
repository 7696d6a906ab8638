package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ardnew/nova/cli/cmd/repl"
	"github.com/ardnew/nova/lang"
	"github.com/ardnew/nova/log"
)

// Repl starts an interactive session.
type Repl struct {
	Files []string `arg:"" help:"Programs to run before the first prompt." optional:"" type:"existingfile"`
	Lines bool     `help:"Read one line at a time without the terminal interface." short:"l"`
}

// Run executes the repl command. The terminal interface is used when stdin
// is a terminal and --lines is not given.
func (r *Repl) Run(ctx context.Context, limits *Limits) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	interactive := !r.Lines &&
		(isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()))

	// The terminal interface owns stdout, so program output is collected
	// and shown between prompts.
	var (
		printed = new(bytes.Buffer)
		out     io.Writer = os.Stdout
	)

	if interactive {
		out = printed
	}

	sess, err := newSession(ctx, limits, out, os.Stderr)
	if err != nil {
		return err
	}

	if err := preload(ctx, sess, r.Files, os.Stderr); err != nil {
		return err
	}

	log.DebugContext(ctx, "repl",
		slog.Bool("interactive", interactive),
		slog.Int("globals", sess.Globals().Len()),
	)

	if !interactive {
		err := repl.RunLines(ctx, sess, os.Stdin, os.Stdout, os.Stderr, log.Default())

		// Diagnostics were already written to stderr.
		var langErr *lang.Error
		if errors.As(err, &langErr) {
			return ErrProgram.Wrap(err)
		}

		return err
	}

	return repl.Run(ctx, sess, printed, cacheDirFrom(ctx), log.Default(),
		append(limits.Options(), lang.WithLogger(log.Default()))...)
}

// preload runs each file in sess in order, stopping at the first failure.
func preload(ctx context.Context, sess *lang.Session, files []string, stderr io.Writer) error {
	for _, path := range files {
		src, err := readSource(path)
		if err != nil {
			return err
		}

		if _, err := sess.Run(ctx, src); err != nil {
			return report(stderr, path, src, err)
		}

		log.DebugContext(ctx, "preloaded", slog.String("file", path))
	}

	return nil
}

// cacheDirFrom returns the cache directory of the invocation, or "" if it
// is unknown.
func cacheDirFrom(ctx context.Context) string {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ""
	}

	return ktx.Model.Vars()[CacheIdentifier]
}
