package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/nova/log"
)

// Run evaluates a Nova program and prints its value.
type Run struct {
	Source string `arg:"" default:"-" help:"Program file or '-' for stdin." name:"source"`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context, limits *Limits) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, err := readSource(r.Source)
	if err != nil {
		return err
	}

	sess, err := newSession(ctx, limits, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}

	log.DebugContext(ctx, "run", slog.String("source", r.Source), slog.Int("bytes", len(src)))

	return runProgram(ctx, sess, r.Source, src, os.Stdout, os.Stderr)
}

// Eval evaluates Nova source given on the command line.
type Eval struct {
	Source string `arg:"" help:"Program text." name:"program"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context, limits *Limits) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	sess, err := newSession(ctx, limits, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}

	return runProgram(ctx, sess, "eval", e.Source, os.Stdout, os.Stderr)
}
