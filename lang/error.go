package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/nova/lang/token"
)

// Stage identifies the pipeline stage that produced an error.
type Stage int

const (
	StageUnknown Stage = iota
	StageLex
	StageParse
	StageRuntime
)

func (s Stage) String() string {
	switch s {
	case StageLex:
		return "LexError"
	case StageParse:
		return "ParseError"
	case StageRuntime:
		return "RuntimeError"
	default:
		return "Error"
	}
}

// Kind classifies an [Error].
type Kind int

const (
	KindUnknown Kind = iota

	// Lexical.
	UnterminatedString
	UnterminatedComment
	InvalidCharacter
	InvalidNumericLiteral

	// Syntactic.
	UnexpectedToken
	UnexpectedEndOfInput
	NestingTooDeep

	// Runtime.
	UnboundName
	DuplicateBinding
	ImmutableAssignment
	TypeMismatch
	DivisionByZero
	NotCallable
	ArityMismatch
	RecursionLimit
	StepLimit
	BuiltinFailure
	Canceled
)

var kindName = [...]string{
	KindUnknown:           "Unknown",
	UnterminatedString:    "UnterminatedString",
	UnterminatedComment:   "UnterminatedComment",
	InvalidCharacter:      "InvalidCharacter",
	InvalidNumericLiteral: "InvalidNumericLiteral",
	UnexpectedToken:       "UnexpectedToken",
	UnexpectedEndOfInput:  "UnexpectedEndOfInput",
	NestingTooDeep:        "NestingTooDeep",
	UnboundName:           "UnboundNameError",
	DuplicateBinding:      "DuplicateBindingError",
	ImmutableAssignment:   "ImmutableAssignmentError",
	TypeMismatch:          "TypeMismatchError",
	DivisionByZero:        "DivisionByZeroError",
	NotCallable:           "NotCallableError",
	ArityMismatch:         "ArityMismatchError",
	RecursionLimit:        "RecursionLimitError",
	StepLimit:             "StepLimitError",
	BuiltinFailure:        "BuiltinError",
	Canceled:              "Canceled",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindName) {
		return kindName[k]
	}

	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Stage returns the pipeline stage that reports errors of kind k.
func (k Kind) Stage() Stage {
	switch {
	case k >= UnterminatedString && k <= InvalidNumericLiteral:
		return StageLex
	case k >= UnexpectedToken && k <= NestingTooDeep:
		return StageParse
	case k >= UnboundName && k <= Canceled:
		return StageRuntime
	default:
		return StageUnknown
	}
}

// Predefined errors (sentinel values). Compare with [errors.Is]; derived
// errors match their sentinel by kind.
var (
	ErrUnterminatedString    = newError(UnterminatedString, "unterminated string literal")
	ErrUnterminatedComment   = newError(UnterminatedComment, "unterminated block comment")
	ErrInvalidCharacter      = newError(InvalidCharacter, "invalid character")
	ErrInvalidNumericLiteral = newError(InvalidNumericLiteral, "invalid numeric literal")

	ErrUnexpectedToken      = newError(UnexpectedToken, "unexpected token")
	ErrUnexpectedEndOfInput = newError(UnexpectedEndOfInput, "unexpected end of input")
	ErrNestingTooDeep       = newError(NestingTooDeep, "nesting too deep")

	ErrUnboundName         = newError(UnboundName, "unbound name")
	ErrDuplicateBinding    = newError(DuplicateBinding, "duplicate binding")
	ErrImmutableAssignment = newError(ImmutableAssignment, "assignment to immutable binding")
	ErrTypeMismatch        = newError(TypeMismatch, "type mismatch")
	ErrDivisionByZero      = newError(DivisionByZero, "division by zero")
	ErrNotCallable         = newError(NotCallable, "value is not callable")
	ErrArityMismatch       = newError(ArityMismatch, "wrong number of arguments")
	ErrRecursionLimit      = newError(RecursionLimit, "recursion limit exceeded")
	ErrStepLimit           = newError(StepLimit, "step limit exceeded")
	ErrBuiltin             = newError(BuiltinFailure, "builtin failed")
	ErrCanceled            = newError(Canceled, "evaluation canceled")

	errUnsupportedNode = newError(KindUnknown, "unsupported syntax node")
)

// Error is the single error type reported by the lexer, parser, and
// evaluator. Values are immutable; the builder methods return copies.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	kind   Kind
	msg    string
	detail string
	pos    token.Position
	err    error
	attrs  []slog.Attr
}

func newError(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Error formats as "line:col: msg: detail: cause", omitting empty parts.
func (e *Error) Error() string {
	var b strings.Builder

	if e.pos.IsValid() {
		b.WriteString(e.pos.String())
		b.WriteString(": ")
	}

	b.WriteString(e.Message())

	return b.String()
}

// Message is the error text without the source position.
func (e *Error) Message() string {
	part := make([]string, 0, 3)

	for _, s := range []string{e.msg, e.detail} {
		if s != "" {
			part = append(part, s)
		}
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// Pos returns the source position, which is invalid if unknown.
func (e *Error) Pos() token.Position { return e.pos }

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}

	return t.kind == e.kind
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	attrs = append(attrs,
		slog.String("stage", e.kind.Stage().String()),
		slog.String("kind", e.kind.String()),
		slog.String("error", e.Message()),
	)

	if e.pos.IsValid() {
		attrs = append(attrs, slog.String("pos", e.pos.String()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// At returns a copy of e located at pos.
func (e *Error) At(pos token.Position) *Error {
	c := *e
	c.pos = pos

	return &c
}

// Detail returns a copy of e with a formatted detail appended to its
// message.
func (e *Error) Detail(format string, args ...any) *Error {
	c := *e
	c.detail = fmt.Sprintf(format, args...)

	return &c
}

// Wrap returns a copy of e wrapping err.
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.err = err

	return &c
}

// With returns a copy of e with additional structured attributes.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := *e
	c.attrs = make([]slog.Attr, 0, len(e.attrs)+len(attrs))
	c.attrs = append(append(c.attrs, e.attrs...), attrs...)

	return &c
}

// IsIncomplete reports whether err was caused by input ending too early,
// so that more input could make it valid. Interactive front ends use it to
// keep reading lines.
func IsIncomplete(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.kind {
	case UnexpectedEndOfInput, UnterminatedString, UnterminatedComment:
		return true
	default:
		return false
	}
}

// Diagnostic is the description of a failed run handed to front ends.
type Diagnostic struct {
	Stage   Stage
	Kind    Kind
	Message string
	Pos     token.Position
}

// HasPos reports whether the diagnostic carries a source position.
func (d Diagnostic) HasPos() bool { return d.Pos.IsValid() }

func (d Diagnostic) String() string {
	var b strings.Builder

	b.WriteString(d.Stage.String())

	if d.Kind != KindUnknown {
		b.WriteByte('(')
		b.WriteString(d.Kind.String())
		b.WriteByte(')')
	}

	if d.HasPos() {
		b.WriteString(" at ")
		b.WriteString(d.Pos.String())
	}

	b.WriteString(": ")
	b.WriteString(d.Message)

	return b.String()
}

// Diagnose converts err into a [Diagnostic]. Errors not produced by this
// package are reported with [KindUnknown].
func Diagnose(err error) Diagnostic {
	var e *Error
	if errors.As(err, &e) {
		return Diagnostic{
			Stage:   e.kind.Stage(),
			Kind:    e.kind,
			Message: e.Message(),
			Pos:     e.pos,
		}
	}

	var msg string
	if err != nil {
		msg = err.Error()
	}

	return Diagnostic{Message: msg}
}

// Snippet renders the source line containing the diagnostic's position with
// a caret under the offending column. It returns "" if the position is
// unknown or outside source.
func (d Diagnostic) Snippet(source string) string {
	if !d.HasPos() {
		return ""
	}

	lines := strings.Split(source, "\n")
	if d.Pos.Line > len(lines) {
		return ""
	}

	line := strings.TrimRight(lines[d.Pos.Line-1], "\r")
	num := strconv.Itoa(d.Pos.Line)

	var b strings.Builder

	b.WriteString(" ")
	b.WriteString(num)
	b.WriteString(" | ")
	b.WriteString(strings.ReplaceAll(line, "\t", " "))
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", len(num)+4))

	if d.Pos.Column > 1 {
		b.WriteString(strings.Repeat(" ", d.Pos.Column-1))
	}

	b.WriteString("^\n")

	return b.String()
}

// positioned attaches pos to err if it is an *Error without a position.
func positioned(err error, pos token.Position) error {
	var e *Error
	if errors.As(err, &e) && !e.pos.IsValid() && e == err {
		return e.At(pos)
	}

	return err
}
