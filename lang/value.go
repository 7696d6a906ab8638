package lang

import (
	"fmt"
	"io"
	"strconv"
)

// Type is the dynamic type of a [Value].
type Type int

const (
	TypeUnit Type = iota
	TypeInteger
	TypeFloat
	TypeBoolean
	TypeString
	TypeFunction
)

func (t Type) String() string {
	switch t {
	case TypeUnit:
		return "unit"
	case TypeInteger:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBoolean:
		return "bool"
	case TypeString:
		return "string"
	case TypeFunction:
		return "fn"
	default:
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
}

// Value is a runtime value. The concrete types are [Unit], [Integer],
// [Float], [Boolean], [String], [*Closure], and [*Builtin].
type Value interface {
	Type() Type
	// String renders the value for display; strings appear unquoted.
	String() string
}

type (
	// Unit is the value of expressions that produce nothing.
	Unit struct{}
	// Integer is a 64-bit signed integer with wrapping arithmetic.
	Integer int64
	// Float is an IEEE-754 double.
	Float float64
	// Boolean is true or false.
	Boolean bool
	// String is an immutable UTF-8 string.
	String string
)

func (Unit) Type() Type    { return TypeUnit }
func (Integer) Type() Type { return TypeInteger }
func (Float) Type() Type   { return TypeFloat }
func (Boolean) Type() Type { return TypeBoolean }
func (String) Type() Type  { return TypeString }

func (Unit) String() string      { return "()" }
func (v Integer) String() string { return strconv.FormatInt(int64(v), 10) }
func (v Float) String() string   { return formatFloat(float64(v)) }
func (v Boolean) String() string { return strconv.FormatBool(bool(v)) }
func (v String) String() string  { return string(v) }

// Function is a callable value.
type Function interface {
	Value
	// Name returns the declared name, or "" for anonymous functions.
	Name() string
	// Arity returns the number of parameters, or -1 if variadic.
	Arity() int
}

// Closure is a function literal paired with the scope that was current
// when it was evaluated. The scope stays alive for as long as the closure
// is reachable.
type Closure struct {
	name   string
	params []*Param
	body   *Block
	env    *Scope
}

func (*Closure) Type() Type     { return TypeFunction }
func (c *Closure) Name() string { return c.name }
func (c *Closure) Arity() int   { return len(c.params) }

// Params returns the parameter names, with "mut " before mutable ones.
func (c *Closure) Params() []string {
	names := make([]string, len(c.params))
	for i, p := range c.params {
		names[i] = p.String()
	}

	return names
}

// Env returns the captured scope.
func (c *Closure) Env() *Scope { return c.env }

func (c *Closure) String() string {
	if c.name == "" {
		return fmt.Sprintf("<fn/%d>", len(c.params))
	}

	return fmt.Sprintf("<fn %s/%d>", c.name, len(c.params))
}

// BuiltinFunc implements a host function. Output written by the function
// goes to w.
type BuiltinFunc func(w io.Writer, args []Value) (Value, error)

// Builtin is a function provided by the host.
type Builtin struct {
	name  string
	arity int
	fn    BuiltinFunc
}

// NewBuiltin returns a host function value. An arity of -1 accepts any
// number of arguments.
func NewBuiltin(name string, arity int, fn BuiltinFunc) *Builtin {
	return &Builtin{name: name, arity: arity, fn: fn}
}

func (*Builtin) Type() Type       { return TypeFunction }
func (b *Builtin) Name() string   { return b.name }
func (b *Builtin) Arity() int     { return b.arity }
func (b *Builtin) String() string { return "<builtin " + b.name + ">" }

// Equal reports whether a and b are the same value. Values of different
// types are never equal, and functions are equal only to themselves.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}

	if a.Type() != b.Type() {
		return false
	}

	switch a := a.(type) {
	case *Closure:
		b, ok := b.(*Closure)

		return ok && a == b
	case *Builtin:
		b, ok := b.(*Builtin)

		return ok && a == b
	default:
		return a == b
	}
}

// Repr renders v as it would be written in source where possible: strings
// are quoted.
func Repr(v Value) string {
	if s, ok := v.(String); ok {
		return quote(string(s))
	}

	if v == nil {
		return "()"
	}

	return v.String()
}

// truthy extracts a boolean condition.
func truthy(v Value) (bool, bool) {
	b, ok := v.(Boolean)

	return bool(b), ok
}
