package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ardnew/nova/lang"
	"github.com/ardnew/nova/log"
)

// RunLines reads programs from in one line at a time and runs each in sess,
// writing results to out and diagnostics to errOut. A line that leaves the
// program incomplete is joined with the lines that follow it. Failed inputs
// are reported and reading continues; the return value is the first such
// failure, [ErrIncomplete] if in ends inside an input, or a read error.
func RunLines(
	ctx context.Context,
	sess *lang.Session,
	in io.Reader,
	out, errOut io.Writer,
	logger log.Logger,
) error {
	var (
		pending []string
		first   error
	)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<24)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()
		if len(pending) == 0 && strings.TrimSpace(line) == "" {
			continue
		}

		src := strings.Join(append(pending, line), "\n")

		v, err := sess.Run(ctx, src)
		if lang.IsIncomplete(err) {
			pending = append(pending, line)

			continue
		}

		pending = nil

		logger.TraceContext(ctx, "repl eval",
			slog.Int("bytes", len(src)),
			slog.Bool("success", err == nil),
		)

		switch {
		case err != nil:
			d := lang.Diagnose(err)
			fmt.Fprintln(errOut, d.String())
			fmt.Fprint(errOut, d.Snippet(src))

			if first == nil {
				first = err
			}

		case v != nil && v.Type() != lang.TypeUnit:
			fmt.Fprintln(out, lang.Repr(v))
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	if len(pending) > 0 {
		return ErrIncomplete
	}

	return first
}
