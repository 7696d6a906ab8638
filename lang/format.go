package lang

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
)

const indentUnit = "    "

// Format writes n as Nova source text in canonical layout. Re-parsing the
// output yields a structurally equal tree.
func Format(w io.Writer, n Node) error {
	_, err := io.WriteString(w, FormatString(n))

	return err
}

// FormatString returns n as Nova source text in canonical layout.
func FormatString(n Node) string {
	var p printer

	switch n := n.(type) {
	case *Program:
		for i, item := range listItems(n.Stmts, n.Tail) {
			if i > 0 {
				p.WriteByte('\n')
			}

			p.item(item, n.Tail)
		}

		if len(n.Stmts) > 0 || n.Tail != nil {
			p.WriteByte('\n')
		}

	case Stmt:
		p.stmt(n)

	case Expr:
		p.expr(n, precNone)

	case *Param:
		p.WriteString(n.String())
	}

	return p.String()
}

type printer struct {
	strings.Builder
	depth int
}

func listItems(stmts []Stmt, tail Expr) []Node {
	items := make([]Node, 0, len(stmts)+1)
	for _, s := range stmts {
		items = append(items, s)
	}

	if tail != nil {
		items = append(items, tail)
	}

	return items
}

func (p *printer) newline() {
	p.WriteByte('\n')
	p.WriteString(strings.Repeat(indentUnit, p.depth))
}

func (p *printer) item(n Node, tail Expr) {
	if st, ok := n.(Stmt); ok {
		p.stmt(st)

		return
	}

	p.stmtExpr(tail)
}

func (p *printer) stmt(st Stmt) {
	switch n := st.(type) {
	case *Let:
		p.WriteString("let ")

		if n.Mutable {
			p.WriteString("mut ")
		}

		p.WriteString(n.Name.Name)
		p.WriteString(" = ")
		p.expr(n.Value, precNone)
		p.WriteByte(';')

	case *FnDecl:
		p.WriteString("fn ")
		p.WriteString(n.Name.Name)
		p.WriteString(paramList(n.Func.Params))
		p.WriteByte(' ')
		p.block(n.Func.Body)

	case *Return:
		p.WriteString("return")

		if n.Value != nil {
			p.WriteByte(' ')
			p.expr(n.Value, precNone)
		}

		p.WriteByte(';')

	case *ExprStmt:
		p.stmtExpr(n.X)
		p.WriteByte(';')
	}
}

// stmtExpr prints an expression at the start of a statement. A block-like
// expression there would end the statement, so one that is only the
// leftmost operand of a larger expression is parenthesized.
func (p *printer) stmtExpr(x Expr) {
	if !isBlockLike(x) && startsBlockLike(x) {
		p.WriteByte('(')
		p.expr(x, precNone)
		p.WriteByte(')')

		return
	}

	p.expr(x, precNone)
}

func isBlockLike(x Expr) bool {
	switch x.(type) {
	case *Block, *If, *While:
		return true
	default:
		return false
	}
}

func startsBlockLike(x Expr) bool {
	switch n := x.(type) {
	case *Binary:
		return startsBlockLike(n.X)
	case *Call:
		return startsBlockLike(n.Callee)
	default:
		return isBlockLike(x)
	}
}

func precOf(x Expr) int {
	switch n := x.(type) {
	case *Assign:
		return precAssign
	case *Binary:
		return binaryPrec[n.Op]
	case *Unary:
		return precUnary
	case *Call:
		return precCall
	default:
		return precPrimary
	}
}

// expr prints x, parenthesized if it binds more loosely than minPrec.
func (p *printer) expr(x Expr, minPrec int) {
	if precOf(x) < minPrec {
		p.WriteByte('(')
		defer p.WriteByte(')')
	}

	switch n := x.(type) {
	case *IntLit:
		p.WriteString(strconv.FormatInt(n.Value, 10))

	case *FloatLit:
		p.WriteString(formatFloat(n.Value))

	case *StringLit:
		p.WriteString(quote(n.Value))

	case *BoolLit:
		p.WriteString(strconv.FormatBool(n.Value))

	case *UnitLit:
		p.WriteString("()")

	case *Ident:
		p.WriteString(n.Name)

	case *Unary:
		p.WriteString(n.Op.String())
		p.expr(n.X, precUnary)

	case *Binary:
		prec := binaryPrec[n.Op]
		p.expr(n.X, prec)
		p.WriteByte(' ')
		p.WriteString(n.Op.String())
		p.WriteByte(' ')
		p.expr(n.Y, prec+1)

	case *Assign:
		p.WriteString(n.Target.Name)
		p.WriteString(" = ")
		p.expr(n.Value, precAssign)

	case *Call:
		p.expr(n.Callee, precCall)
		p.WriteByte('(')

		for i, a := range n.Args {
			if i > 0 {
				p.WriteString(", ")
			}

			p.expr(a, precNone)
		}

		p.WriteByte(')')

	case *FuncLit:
		p.WriteString("fn")
		p.WriteString(paramList(n.Params))
		p.WriteByte(' ')
		p.block(n.Body)

	case *If:
		p.WriteString("if ")
		p.expr(n.Cond, precNone)
		p.WriteByte(' ')
		p.block(n.Then)

		if n.Else != nil {
			p.WriteString(" else ")
			p.expr(n.Else, precNone)
		}

	case *While:
		p.WriteString("while ")
		p.expr(n.Cond, precNone)
		p.WriteByte(' ')
		p.block(n.Body)

	case *Block:
		p.block(n)
	}
}

func (p *printer) block(b *Block) {
	if len(b.Stmts) == 0 && b.Tail == nil {
		p.WriteString("{}")

		return
	}

	p.WriteByte('{')
	p.depth++

	for _, item := range listItems(b.Stmts, b.Tail) {
		p.newline()
		p.item(item, b.Tail)
	}

	p.depth--
	p.newline()
	p.WriteByte('}')
}

// ToMap converts the tree rooted at n into nested maps and slices suitable
// for JSON, YAML, or CBOR encoding. Every node map has a "node" key naming
// its type, plus "line" and "column" when the position is known.
func ToMap(n Node) map[string]any {
	if n == nil {
		return nil
	}

	m := map[string]any{"node": nodeName(n)}

	if pos := n.Pos(); pos.IsValid() {
		m["line"] = pos.Line
		m["column"] = pos.Column
	}

	exprs := func(xs []Expr) []any {
		out := make([]any, len(xs))
		for i, x := range xs {
			out[i] = ToMap(x)
		}

		return out
	}

	stmts := func(ss []Stmt) []any {
		out := make([]any, len(ss))
		for i, s := range ss {
			out[i] = ToMap(s)
		}

		return out
	}

	params := func(ps []*Param) []any {
		out := make([]any, len(ps))
		for i, p := range ps {
			out[i] = ToMap(p)
		}

		return out
	}

	optional := func(key string, x Expr) {
		if x != nil {
			m[key] = ToMap(x)
		}
	}

	switch n := n.(type) {
	case *IntLit:
		m["value"] = n.Value
	case *FloatLit:
		m["value"] = n.Value
	case *StringLit:
		m["value"] = n.Value
	case *BoolLit:
		m["value"] = n.Value
	case *UnitLit:
	case *Ident:
		m["name"] = n.Name
	case *Param:
		m["name"] = n.Name
		m["mutable"] = n.Mutable
	case *Unary:
		m["op"] = n.Op.String()
		m["operand"] = ToMap(n.X)
	case *Binary:
		m["op"] = n.Op.String()
		m["left"] = ToMap(n.X)
		m["right"] = ToMap(n.Y)
	case *Assign:
		m["target"] = n.Target.Name
		m["value"] = ToMap(n.Value)
	case *Call:
		m["callee"] = ToMap(n.Callee)
		m["args"] = exprs(n.Args)
	case *FuncLit:
		m["params"] = params(n.Params)
		m["body"] = ToMap(n.Body)
	case *If:
		m["cond"] = ToMap(n.Cond)
		m["then"] = ToMap(n.Then)
		optional("else", n.Else)
	case *While:
		m["cond"] = ToMap(n.Cond)
		m["body"] = ToMap(n.Body)
	case *Block:
		m["stmts"] = stmts(n.Stmts)
		optional("tail", n.Tail)
	case *Program:
		m["stmts"] = stmts(n.Stmts)
		optional("tail", n.Tail)
	case *Let:
		m["name"] = n.Name.Name
		m["mutable"] = n.Mutable
		m["value"] = ToMap(n.Value)
	case *FnDecl:
		m["name"] = n.Name.Name
		m["params"] = params(n.Func.Params)
		m["body"] = ToMap(n.Func.Body)
	case *Return:
		optional("value", n.Value)
	case *ExprStmt:
		m["expr"] = ToMap(n.X)
	}

	return m
}

func nodeName(n Node) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", n), "*lang.")
}

// childOrder lists the keys of ToMap that hold child nodes, in the order
// Dump prints them.
var childOrder = []string{
	"callee", "cond", "left", "right", "operand", "value",
	"params", "args", "then", "else", "body", "stmts", "tail", "expr",
}

// Dump writes an indented outline of the tree rooted at n, one node per
// line.
func Dump(w io.Writer, n Node) error {
	var b strings.Builder

	dumpMap(&b, ToMap(n), 0)

	_, err := io.WriteString(w, b.String())

	return err
}

func dumpMap(b *strings.Builder, m map[string]any, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(m["node"].(string))

	for _, k := range slices.Sorted(maps.Keys(m)) {
		switch k {
		case "node", "line", "column":
			continue
		}

		switch v := m[k].(type) {
		case map[string]any, []any:
		case string:
			fmt.Fprintf(b, " %s=%s", k, strconv.Quote(v))
		default:
			fmt.Fprintf(b, " %s=%v", k, v)
		}
	}

	if line, ok := m["line"].(int); ok {
		fmt.Fprintf(b, " @%d:%d", line, m["column"])
	}

	b.WriteByte('\n')

	for _, k := range childOrder {
		switch v := m[k].(type) {
		case map[string]any:
			dumpMap(b, v, depth+1)
		case []any:
			for _, c := range v {
				if cm, ok := c.(map[string]any); ok {
					dumpMap(b, cm, depth+1)
				}
			}
		}
	}
}
