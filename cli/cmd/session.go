package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/ardnew/nova/lang"
	"github.com/ardnew/nova/log"
)

// stdinSource names standard input wherever a source path is expected.
const stdinSource = "-"

// Limits bounds parsing and evaluation. It is bound by the CLI so that every
// command that runs Nova code receives it.
type Limits struct {
	MaxDepth   int `default:"${maxDepth}"   help:"Maximum depth of nested function calls (0 disables the call limit)."`
	MaxSteps   int `default:"${maxSteps}"   help:"Maximum evaluation steps per program (0 is unlimited)."`
	MaxNesting int `default:"${maxNesting}" help:"Maximum syntactic nesting depth."`
}

// Vars returns the kong variables holding the limit defaults.
func (Limits) Vars() kong.Vars {
	return kong.Vars{
		"maxDepth":   strconv.Itoa(lang.DefaultMaxDepth),
		"maxSteps":   strconv.Itoa(lang.DefaultMaxSteps),
		"maxNesting": strconv.Itoa(lang.DefaultMaxNesting),
	}
}

// Group returns the help group of the limit flags.
func (Limits) Group() kong.Group {
	return kong.Group{Key: "limits", Title: "Evaluation limits"}
}

// Options converts l into interpreter options. A nil Limits yields the
// interpreter defaults.
func (l *Limits) Options() []lang.Option {
	if l == nil {
		return nil
	}

	return []lang.Option{
		lang.WithMaxDepth(l.MaxDepth),
		lang.WithMaxSteps(l.MaxSteps),
		lang.WithMaxNesting(l.MaxNesting),
	}
}

// readSource returns the contents of the file at path, or of stdin if path
// is "-".
func readSource(path string) (string, error) {
	var (
		data []byte
		err  error
	)

	if path == stdinSource {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return "", ErrReadSource.With(slog.String("source", path)).Wrap(err)
	}

	return string(data), nil
}

// newSession returns a session printing to out, with the sources of the
// --source flag already evaluated in it.
func newSession(
	ctx context.Context,
	limits *Limits,
	out io.Writer,
	stderr io.Writer,
) (*lang.Session, error) {
	opts := append(limits.Options(),
		lang.WithOutput(out),
		lang.WithLogger(log.Default()),
	)

	sess := lang.NewSession(opts...)

	src := sourceFilesFrom(ctx)
	if src == nil || src.IsZero() {
		return sess, nil
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, ErrReadSource.With(slog.String("source", "--source")).Wrap(err)
	}

	if _, err := sess.Run(ctx, string(data)); err != nil {
		return nil, report(stderr, "--source", string(data), err)
	}

	log.DebugContext(ctx, "evaluated sources",
		slog.Int("bytes", len(data)),
		slog.Int("globals", sess.Globals().Len()),
	)

	return sess, nil
}

// runProgram evaluates src in sess and prints its value to out unless it is
// unit. Failures are reported to stderr.
func runProgram(
	ctx context.Context,
	sess *lang.Session,
	name, src string,
	out, stderr io.Writer,
) error {
	v, err := sess.Run(ctx, src)
	if err != nil {
		return report(stderr, name, src, err)
	}

	if v.Type() == lang.TypeUnit {
		return nil
	}

	if _, err := fmt.Fprintln(out, lang.Repr(v)); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

var (
	diagnosticStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	locationStyle   = lipgloss.NewStyle().Bold(true)
	snippetStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })

	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// report writes the diagnostic for err, with a snippet of src, to w and
// returns [ErrProgram] wrapping err.
func report(w io.Writer, name, src string, err error) error {
	d := lang.Diagnose(err)

	styled := isTerminal(w)
	paint := func(s lipgloss.Style, text string) string {
		if styled {
			return s.Render(text)
		}

		return text
	}

	fmt.Fprintf(w, "%s: %s\n", paint(locationStyle, name), paint(diagnosticStyle, d.String()))

	if snippet := d.Snippet(src); snippet != "" {
		fmt.Fprint(w, paint(snippetStyle, snippet))
	}

	attrs := []slog.Attr{
		slog.String("source", name),
		slog.String("stage", d.Stage.String()),
		slog.String("kind", d.Kind.String()),
	}

	return ErrProgram.With(attrs...).Wrap(err)
}
