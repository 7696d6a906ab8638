package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/nova/lang"
	"github.com/ardnew/nova/log"
)

const defaultEditor = "vi"

// editProgramCommand implements [tea.ExecCommand] for the edit-parse-retry
// loop. It writes the session transcript to a temp file, opens the user's
// editor, and parses the result. On a syntax error the user is asked to
// re-edit; declining ends the REPL.
type editProgramCommand struct {
	source  string
	ctxFunc func() context.Context
	opts    []lang.Option
	prog    *lang.Program
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editProgramCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editProgramCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editProgramCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. An emptied file cancels the edit and leaves
// prog nil. If the user declines to re-edit, it returns [ErrEditDeclined].
func (c *editProgramCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp("", "nova-repl-*.nova")
	if err != nil {
		return err
	}

	path := f.Name()

	defer os.Remove(path)

	if err := f.Close(); err != nil {
		return err
	}

	content := c.source

	for {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path); err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		content = string(data)
		if strings.TrimSpace(content) == "" {
			return nil
		}

		prog, parseErr := lang.Parse(ctx, content, c.opts...)

		c.logger.TraceContext(ctx, "editor parse attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", parseErr == nil),
		)

		if parseErr == nil {
			c.prog = prog

			return nil
		}

		d := lang.Diagnose(parseErr)

		fmt.Fprintf(c.stderr, "\n%s\n%s", d, d.Snippet(content))
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// runEditor runs $EDITOR, or vi, on path and waits for it to exit.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	args := strings.Fields(os.Getenv("EDITOR"))
	if len(args) == 0 {
		args = []string{defaultEditor}
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
