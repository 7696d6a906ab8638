package cmd

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/nova/lang"
	"github.com/ardnew/nova/log"
)

// Fmt parses a program and writes it back in the chosen representation.
type Fmt struct {
	Native Native `cmd:"" default:"withargs" help:"Pretty-print as Nova source (default)."`
	JSON   JSON   `cmd:""                    help:"Export the syntax tree as JSON."`
	YAML   YAML   `cmd:""                    help:"Export the syntax tree as YAML."`
	CBOR   CBOR   `cmd:""                    help:"Export the syntax tree as CBOR."`
	AST    AST    `cmd:""                    help:"Print the indented syntax tree."`
	Tokens Tokens `cmd:""                    help:"Print the token stream."`
}

// Input is the source argument shared by the fmt subcommands.
type Input struct {
	Source string `arg:"" default:"-" help:"Source file or '-' for stdin." name:"source"`
}

// parse reads and parses the source. Syntax errors are reported to stderr.
func (in Input) parse(ctx context.Context, limits *Limits, format string) (*lang.Program, error) {
	src, err := readSource(in.Source)
	if err != nil {
		return nil, err
	}

	opts := append(limits.Options(), lang.WithLogger(log.Default()))

	prog, err := lang.Parse(ctx, src, opts...)
	if err != nil {
		return nil, report(os.Stderr, in.Source, src, err)
	}

	log.DebugContext(ctx, "parsed",
		slog.String("source", in.Source),
		slog.String("format", format),
		slog.Int("statements", len(prog.Stmts)),
	)

	return prog, nil
}

// Native pretty-prints a program as Nova source.
type Native struct {
	Input `embed:""`
}

// Run executes the native command.
func (n *Native) Run(ctx context.Context, limits *Limits) error {
	prog, err := n.parse(ctx, limits, "native")
	if err != nil {
		return err
	}

	if err := lang.Format(os.Stdout, prog); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// JSON exports the syntax tree as JSON.
type JSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Input `embed:""`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context, limits *Limits) error {
	prog, err := j.parse(ctx, limits, "json")
	if err != nil {
		return err
	}

	return writeJSON(os.Stdout, lang.ToMap(prog), j.Indent)
}

func writeJSON(w io.Writer, v any, indent int) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", strings.Repeat(" ", max(indent, 0)))

	if err := enc.Encode(v); err != nil {
		return ErrJSONMarshal.Wrap(err)
	}

	return nil
}

// YAML exports the syntax tree as YAML.
type YAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Input `embed:""`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context, limits *Limits) error {
	prog, err := y.parse(ctx, limits, "yaml")
	if err != nil {
		return err
	}

	return writeYAML(os.Stdout, lang.ToMap(prog), y.Indent)
}

func writeYAML(w io.Writer, v any, indent int) error {
	data, err := yaml.MarshalWithOptions(v,
		yaml.Indent(max(indent, 1)),
		yaml.IndentSequence(true),
	)
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	if _, err := w.Write(data); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// CBOR exports the syntax tree as deterministic CBOR. Output to a terminal
// is hex dumped unless --raw is given.
type CBOR struct {
	Raw bool `help:"Write binary CBOR even to a terminal."`

	Input `embed:""`
}

// Run executes the cbor command.
func (c *CBOR) Run(ctx context.Context, limits *Limits) error {
	prog, err := c.parse(ctx, limits, "cbor")
	if err != nil {
		return err
	}

	return writeCBOR(os.Stdout, lang.ToMap(prog), !c.Raw && isTerminal(os.Stdout))
}

func writeCBOR(w io.Writer, v any, dump bool) error {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		return ErrCBORMarshal.Wrap(err)
	}

	data, err := em.Marshal(v)
	if err != nil {
		return ErrCBORMarshal.Wrap(err)
	}

	if dump {
		_, err = io.WriteString(w, hex.Dump(data))
	} else {
		_, err = w.Write(data)
	}

	if err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// AST prints the syntax tree one node per line.
type AST struct {
	Input `embed:""`
}

// Run executes the ast command.
func (a *AST) Run(ctx context.Context, limits *Limits) error {
	prog, err := a.parse(ctx, limits, "ast")
	if err != nil {
		return err
	}

	if err := lang.Dump(os.Stdout, prog); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// Tokens prints the token stream one token per line.
type Tokens struct {
	Input `embed:""`
}

// Run executes the tokens command.
func (t *Tokens) Run() error {
	src, err := readSource(t.Source)
	if err != nil {
		return err
	}

	return writeTokens(os.Stdout, os.Stderr, t.Source, src)
}

func writeTokens(w, stderr io.Writer, name, src string) error {
	for tok, err := range lang.Tokens(src) {
		if err != nil {
			return report(stderr, name, src, err)
		}

		if _, err := fmt.Fprintf(w, "%s\t%s\n", tok.Pos, tok); err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	return nil
}
