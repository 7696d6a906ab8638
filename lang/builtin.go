package lang

import (
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// standardBuiltins is the read-only prelude shared by every session.
var standardBuiltins = []*Builtin{
	NewBuiltin("print", -1, printValues("")),
	NewBuiltin("println", -1, printValues("\n")),
	NewBuiltin("len", 1, builtinLen),
	NewBuiltin("str", 1, builtinStr),
	NewBuiltin("type", 1, builtinType),
	NewBuiltin("int", 1, builtinInt),
	NewBuiltin("float", 1, builtinFloat),
}

// BuiltinNames returns the names of the standard builtins.
func BuiltinNames() []string {
	names := make([]string, len(standardBuiltins))
	for i, b := range standardBuiltins {
		names[i] = b.name
	}

	return names
}

// newPrelude returns a scope holding the standard builtins, with extra
// replacing or extending them.
func newPrelude(extra []*Builtin) *Scope {
	prelude := NewScope(nil)

	all := make([]*Builtin, 0, len(standardBuiltins)+len(extra))
	all = append(all, standardBuiltins...)
	all = append(all, extra...)

	for _, b := range all {
		if binding, ok := prelude.vars[b.name]; ok {
			binding.Value = b

			continue
		}

		// Names are unique at this point.
		_ = prelude.Define(b.name, b, false)
	}

	return prelude
}

// printValues writes its arguments separated by spaces, followed by end.
func printValues(end string) BuiltinFunc {
	return func(w io.Writer, args []Value) (Value, error) {
		var b strings.Builder

		for i, a := range args {
			if i > 0 {
				b.WriteByte(' ')
			}

			b.WriteString(a.String())
		}

		b.WriteString(end)

		if _, err := io.WriteString(w, b.String()); err != nil {
			return nil, ErrBuiltin.Detail("print").Wrap(err)
		}

		return Unit{}, nil
	}
}

// builtinLen returns the number of characters (runes) in a string.
func builtinLen(_ io.Writer, args []Value) (Value, error) {
	s, ok := args[0].(String)
	if !ok {
		return nil, argMismatch("len", "string", args[0])
	}

	return Integer(utf8.RuneCountInString(string(s))), nil
}

func builtinStr(_ io.Writer, args []Value) (Value, error) {
	return String(args[0].String()), nil
}

func builtinType(_ io.Writer, args []Value) (Value, error) {
	return String(args[0].Type().String()), nil
}

// builtinInt converts to an integer. Floats truncate toward zero and must
// be finite and in range; strings must hold a decimal integer.
func builtinInt(_ io.Writer, args []Value) (Value, error) {
	switch v := args[0].(type) {
	case Integer:
		return v, nil

	case Float:
		f := math.Trunc(float64(v))
		if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return nil, ErrTypeMismatch.Detail("int(%s): out of range", v)
		}

		return Integer(f), nil

	case String:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		if err != nil {
			return nil, ErrTypeMismatch.Detail("int(%s): not an integer", Repr(v))
		}

		return Integer(n), nil

	default:
		return nil, argMismatch("int", "int, float, or string", v)
	}
}

// builtinFloat converts to a float.
func builtinFloat(_ io.Writer, args []Value) (Value, error) {
	switch v := args[0].(type) {
	case Float:
		return v, nil

	case Integer:
		return Float(v), nil

	case String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return nil, ErrTypeMismatch.Detail("float(%s): not a number", Repr(v))
		}

		return Float(f), nil

	default:
		return nil, argMismatch("float", "int, float, or string", v)
	}
}

func argMismatch(fn, want string, got Value) *Error {
	return ErrTypeMismatch.
		Detail("%s expects %s, found %s", fn, want, got.Type()).
		With(slog.String("builtin", fn), slog.String("found", got.Type().String()))
}
