package lang

import (
	"strconv"
	"strings"

	"github.com/ardnew/nova/lang/token"
)

// Node is an element of the syntax tree. Every node owns its children
// exclusively.
//
// String renders the node in a canonical, fully parenthesized form that is
// independent of the original spelling and layout. Two trees are
// structurally equal exactly when their String results are equal.
type Node interface {
	Pos() token.Position
	String() string
}

// Expr is a node that produces a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a node that appears in a statement list.
type Stmt interface {
	Node
	stmtNode()
}

type (
	// IntLit is an integer literal.
	IntLit struct {
		At    token.Position
		Value int64
	}

	// FloatLit is a float literal.
	FloatLit struct {
		At    token.Position
		Value float64
	}

	// StringLit is a string literal holding its decoded value.
	StringLit struct {
		At    token.Position
		Value string
	}

	// BoolLit is true or false.
	BoolLit struct {
		At    token.Position
		Value bool
	}

	// UnitLit is ().
	UnitLit struct {
		At token.Position
	}

	// Ident is a reference to a binding.
	Ident struct {
		At   token.Position
		Name string
	}

	// Unary is a prefix operation: -X or !X.
	Unary struct {
		At token.Position
		Op token.Kind
		X  Expr
	}

	// Binary is an infix operation, including the short-circuit && and ||.
	// At is the position of the operator.
	Binary struct {
		At token.Position
		Op token.Kind
		X  Expr
		Y  Expr
	}

	// Assign stores Value into the binding named by Target.
	Assign struct {
		At     token.Position
		Target *Ident
		Value  Expr
	}

	// Call applies Callee to Args. At is the position of the open paren.
	Call struct {
		At     token.Position
		Callee Expr
		Args   []Expr
	}

	// FuncLit is an anonymous function.
	FuncLit struct {
		At     token.Position
		Params []*Param
		Body   *Block
	}

	// If selects one branch. Else is nil, a *Block, or an *If.
	If struct {
		At   token.Position
		Cond Expr
		Then *Block
		Else Expr
	}

	// While repeats Body while Cond is true. Its value is unit.
	While struct {
		At   token.Position
		Cond Expr
		Body *Block
	}

	// Block is a braced statement list with an optional tail expression
	// that supplies its value.
	Block struct {
		At    token.Position
		Stmts []Stmt
		Tail  Expr
	}
)

// Param is a function parameter.
type Param struct {
	At      token.Position
	Name    string
	Mutable bool
}

type (
	// Let declares a binding in the current scope.
	Let struct {
		At      token.Position
		Name    *Ident
		Mutable bool
		Value   Expr
	}

	// FnDecl declares an immutable binding to a named function.
	FnDecl struct {
		At   token.Position
		Name *Ident
		Func *FuncLit
	}

	// Return leaves the enclosing function. Value may be nil.
	Return struct {
		At    token.Position
		Value Expr
	}

	// ExprStmt evaluates X and discards its value.
	ExprStmt struct {
		X Expr
	}
)

// Program is the root of a parsed source text. It is evaluated like a block
// that shares the caller's scope.
type Program struct {
	Stmts []Stmt
	Tail  Expr
}

func (n *IntLit) Pos() token.Position    { return n.At }
func (n *FloatLit) Pos() token.Position  { return n.At }
func (n *StringLit) Pos() token.Position { return n.At }
func (n *BoolLit) Pos() token.Position   { return n.At }
func (n *UnitLit) Pos() token.Position   { return n.At }
func (n *Ident) Pos() token.Position     { return n.At }
func (n *Unary) Pos() token.Position     { return n.At }
func (n *Binary) Pos() token.Position    { return n.At }
func (n *Assign) Pos() token.Position    { return n.At }
func (n *Call) Pos() token.Position      { return n.At }
func (n *FuncLit) Pos() token.Position   { return n.At }
func (n *If) Pos() token.Position        { return n.At }
func (n *While) Pos() token.Position     { return n.At }
func (n *Block) Pos() token.Position     { return n.At }
func (n *Param) Pos() token.Position     { return n.At }
func (n *Let) Pos() token.Position       { return n.At }
func (n *FnDecl) Pos() token.Position    { return n.At }
func (n *Return) Pos() token.Position    { return n.At }
func (n *ExprStmt) Pos() token.Position  { return n.X.Pos() }

// Pos returns the position of the first statement.
func (n *Program) Pos() token.Position {
	switch {
	case len(n.Stmts) > 0:
		return n.Stmts[0].Pos()
	case n.Tail != nil:
		return n.Tail.Pos()
	default:
		return token.Position{}
	}
}

func (*IntLit) exprNode()    {}
func (*FloatLit) exprNode()  {}
func (*StringLit) exprNode() {}
func (*BoolLit) exprNode()   {}
func (*UnitLit) exprNode()   {}
func (*Ident) exprNode()     {}
func (*Unary) exprNode()     {}
func (*Binary) exprNode()    {}
func (*Assign) exprNode()    {}
func (*Call) exprNode()      {}
func (*FuncLit) exprNode()   {}
func (*If) exprNode()        {}
func (*While) exprNode()     {}
func (*Block) exprNode()     {}

func (*Let) stmtNode()      {}
func (*FnDecl) stmtNode()   {}
func (*Return) stmtNode()   {}
func (*ExprStmt) stmtNode() {}

func (n *IntLit) String() string    { return strconv.FormatInt(n.Value, 10) }
func (n *FloatLit) String() string  { return formatFloat(n.Value) }
func (n *StringLit) String() string { return quote(n.Value) }
func (n *BoolLit) String() string   { return strconv.FormatBool(n.Value) }
func (*UnitLit) String() string     { return "()" }
func (n *Ident) String() string     { return n.Name }

func (n *Unary) String() string {
	return "(" + n.Op.String() + n.X.String() + ")"
}

func (n *Binary) String() string {
	return "(" + n.X.String() + " " + n.Op.String() + " " + n.Y.String() + ")"
}

func (n *Assign) String() string {
	return "(" + n.Target.Name + " = " + n.Value.String() + ")"
}

func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}

	return n.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}

func (n *FuncLit) String() string {
	return "fn" + paramList(n.Params) + " " + n.Body.String()
}

func (n *If) String() string {
	s := "if " + n.Cond.String() + " " + n.Then.String()
	if n.Else != nil {
		s += " else " + n.Else.String()
	}

	return s
}

func (n *While) String() string {
	return "while " + n.Cond.String() + " " + n.Body.String()
}

func (n *Block) String() string {
	return "{" + stmtList(n.Stmts, n.Tail) + "}"
}

func (n *Param) String() string {
	if n.Mutable {
		return "mut " + n.Name
	}

	return n.Name
}

func (n *Let) String() string {
	s := "let "
	if n.Mutable {
		s += "mut "
	}

	return s + n.Name.Name + " = " + n.Value.String() + ";"
}

func (n *FnDecl) String() string {
	return "fn " + n.Name.Name + paramList(n.Func.Params) + " " + n.Func.Body.String()
}

func (n *Return) String() string {
	if n.Value == nil {
		return "return;"
	}

	return "return " + n.Value.String() + ";"
}

func (n *ExprStmt) String() string { return n.X.String() + ";" }

func (n *Program) String() string { return strings.TrimSpace(stmtList(n.Stmts, n.Tail)) }

func paramList(params []*Param) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.String()
	}

	return "(" + strings.Join(names, ", ") + ")"
}

func stmtList(stmts []Stmt, tail Expr) string {
	var b strings.Builder

	for _, s := range stmts {
		b.WriteByte(' ')
		b.WriteString(s.String())
	}

	if tail != nil {
		b.WriteByte(' ')
		b.WriteString(tail.String())
	}

	if b.Len() > 0 {
		b.WriteByte(' ')
	}

	return b.String()
}

// formatFloat renders f so that it reads back as a float literal.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}

	return s + ".0"
}

// quote renders s as a string literal using only the escapes the lexer
// accepts.
func quote(s string) string {
	var b strings.Builder

	b.Grow(len(s) + 2)
	b.WriteByte('"')

	for _, r := range s {
		switch r {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\0`)
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}

	b.WriteByte('"')

	return b.String()
}

// Inspect traverses the tree rooted at n in depth-first order, calling f
// for each node. If f returns false the node's children are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}

	switch n := n.(type) {
	case *Unary:
		Inspect(n.X, f)
	case *Binary:
		Inspect(n.X, f)
		Inspect(n.Y, f)
	case *Assign:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *Call:
		Inspect(n.Callee, f)

		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *FuncLit:
		for _, p := range n.Params {
			Inspect(p, f)
		}

		Inspect(n.Body, f)
	case *If:
		Inspect(n.Cond, f)
		Inspect(n.Then, f)

		if n.Else != nil {
			Inspect(n.Else, f)
		}
	case *While:
		Inspect(n.Cond, f)
		Inspect(n.Body, f)
	case *Block:
		inspectList(n.Stmts, n.Tail, f)
	case *Program:
		inspectList(n.Stmts, n.Tail, f)
	case *Let:
		Inspect(n.Name, f)
		Inspect(n.Value, f)
	case *FnDecl:
		Inspect(n.Name, f)
		Inspect(n.Func, f)
	case *Return:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *ExprStmt:
		Inspect(n.X, f)
	}
}

func inspectList(stmts []Stmt, tail Expr, f func(Node) bool) {
	for _, s := range stmts {
		Inspect(s, f)
	}

	if tail != nil {
		Inspect(tail, f)
	}
}
