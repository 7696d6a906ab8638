package cmd

import (
	"log/slog"
	"strings"
)

// Error represents a CLI command error with structured logging support.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

func NewError(msg string) *Error {
	return &Error{msg: msg}
}

func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error with the same message, so that
// errors derived with With or Wrap match the sentinel they came from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg == e.msg
}

func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.Any("cause", e.err))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	newAttrs = append(newAttrs, e.attrs...)
	newAttrs = append(newAttrs, attrs...)

	return &Error{msg: e.msg, err: e.err, attrs: newAttrs}
}

var (
	// ErrProgram reports a Nova program that failed to lex, parse, or
	// evaluate. Its diagnostic has already been written to stderr.
	ErrProgram = NewError("program failed")

	ErrReadSource  = NewError("read source")
	ErrJSONMarshal = NewError("marshal JSON")
	ErrYAMLMarshal = NewError("marshal YAML")
	ErrCBORMarshal = NewError("marshal CBOR")
	ErrWriteOutput = NewError("write output")
	ErrWriteConfig = NewError("write configuration file")
	ErrFileExists  = NewError("file exists (use --force to overwrite)")
)
