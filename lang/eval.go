package lang

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/ardnew/nova/lang/token"
	"github.com/ardnew/nova/log"
)

// Evaluate evaluates node in scope and returns its value.
//
// A [*Program] is evaluated directly in scope, so its top-level bindings
// remain visible to later calls with the same scope. If scope is nil, a
// fresh scope enclosed by the standard prelude is used.
func Evaluate(ctx context.Context, node Node, scope *Scope, opts ...Option) (Value, error) {
	cfg := makeConfig(opts...)

	if scope == nil {
		scope = newPrelude(cfg.builtins).Child()
	}

	return evaluate(ctx, node, scope, &cfg)
}

func evaluate(ctx context.Context, node Node, scope *Scope, cfg *config) (Value, error) {
	e := &evaluator{
		ctx:    ctx,
		cfg:    cfg,
		logger: cfg.logger,
		trace:  cfg.logger.Enabled(ctx, log.LevelTrace),
	}

	if err := ctx.Err(); err != nil {
		return nil, ErrCanceled.At(node.Pos()).Wrap(err)
	}

	v, err := e.run(node, scope)

	var ret *returnSignal
	if errors.As(err, &ret) {
		v, err = ret.value, nil
	}

	if e.trace {
		attrs := []slog.Attr{slog.Int("steps", e.steps)}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
		} else {
			attrs = append(attrs, slog.String("type", v.Type().String()))
		}

		e.logger.TraceContext(ctx, "evaluate complete", attrs...)
	}

	if err != nil {
		return nil, err
	}

	return v, nil
}

// returnSignal unwinds the Go stack from a return statement to the
// function call, or program, that encloses it.
type returnSignal struct {
	value Value
}

func (*returnSignal) Error() string { return "return outside of function" }

type evaluator struct {
	ctx    context.Context
	cfg    *config
	logger log.Logger
	trace  bool
	depth  int
	nest   int
	steps  int
}

func (e *evaluator) run(node Node, s *Scope) (Value, error) {
	switch n := node.(type) {
	case *Program:
		return e.evalList(n.Stmts, n.Tail, s)
	case Expr:
		return e.eval(n, s)
	case Stmt:
		return Unit{}, e.exec(n, s)
	default:
		return nil, errUnsupportedNode.Detail("%T", node)
	}
}

// step counts one unit of work and enforces the step limit and context
// cancellation.
func (e *evaluator) step(pos token.Position) error {
	e.steps++

	if limit := e.cfg.maxSteps; limit > 0 && e.steps > limit {
		return ErrStepLimit.At(pos).
			Detail("more than %d steps", limit).
			With(slog.Int("max_steps", limit))
	}

	if e.steps%cancelCheckInterval == 0 {
		if err := e.ctx.Err(); err != nil {
			return ErrCanceled.At(pos).Wrap(err)
		}
	}

	return nil
}

func (e *evaluator) evalList(stmts []Stmt, tail Expr, s *Scope) (Value, error) {
	for _, st := range stmts {
		if err := e.exec(st, s); err != nil {
			return nil, err
		}
	}

	if tail == nil {
		return Unit{}, nil
	}

	return e.eval(tail, s)
}

func (e *evaluator) exec(st Stmt, s *Scope) error {
	if err := e.step(st.Pos()); err != nil {
		return err
	}

	switch n := st.(type) {
	case *ExprStmt:
		_, err := e.eval(n.X, s)

		return err

	case *Let:
		v, err := e.eval(n.Value, s)
		if err != nil {
			return err
		}

		if c, ok := v.(*Closure); ok && c.name == "" {
			if _, lit := n.Value.(*FuncLit); lit {
				c.name = n.Name.Name
			}
		}

		return positioned(s.Define(n.Name.Name, v, n.Mutable), n.Name.At)

	case *FnDecl:
		c := &Closure{
			name:   n.Name.Name,
			params: n.Func.Params,
			body:   n.Func.Body,
			env:    s,
		}

		return positioned(s.Define(n.Name.Name, c, false), n.Name.At)

	case *Return:
		var v Value = Unit{}

		if n.Value != nil {
			var err error
			if v, err = e.eval(n.Value, s); err != nil {
				return err
			}
		}

		return &returnSignal{value: v}

	default:
		return errUnsupportedNode.At(st.Pos()).Detail("%T", st)
	}
}

func (e *evaluator) eval(x Expr, s *Scope) (Value, error) {
	if err := e.step(x.Pos()); err != nil {
		return nil, err
	}

	e.nest++
	defer func() { e.nest-- }()

	if e.nest > maxEvalNesting {
		return nil, ErrRecursionLimit.At(x.Pos()).
			Detail("expression nesting exceeds %d", maxEvalNesting).
			With(slog.Int("max_nesting", maxEvalNesting))
	}

	switch n := x.(type) {
	case *IntLit:
		return Integer(n.Value), nil

	case *FloatLit:
		return Float(n.Value), nil

	case *StringLit:
		return String(n.Value), nil

	case *BoolLit:
		return Boolean(n.Value), nil

	case *UnitLit:
		return Unit{}, nil

	case *Ident:
		v, err := s.Get(n.Name)

		return v, positioned(err, n.At)

	case *Unary:
		return e.evalUnary(n, s)

	case *Binary:
		return e.evalBinary(n, s)

	case *Assign:
		v, err := e.eval(n.Value, s)
		if err != nil {
			return nil, err
		}

		if err := s.Assign(n.Target.Name, v); err != nil {
			return nil, positioned(err, n.Target.At)
		}

		return v, nil

	case *Call:
		return e.evalCall(n, s)

	case *FuncLit:
		return &Closure{params: n.Params, body: n.Body, env: s}, nil

	case *If:
		return e.evalIf(n, s)

	case *While:
		return e.evalWhile(n, s)

	case *Block:
		return e.evalList(n.Stmts, n.Tail, s.Child())

	default:
		return nil, errUnsupportedNode.At(x.Pos()).Detail("%T", x)
	}
}

func (e *evaluator) condition(x Expr, s *Scope, what string) (bool, error) {
	v, err := e.eval(x, s)
	if err != nil {
		return false, err
	}

	b, ok := truthy(v)
	if !ok {
		return false, ErrTypeMismatch.At(x.Pos()).
			Detail("%s must be bool, found %s", what, v.Type()).
			With(slog.String("found", v.Type().String()))
	}

	return b, nil
}

func (e *evaluator) evalIf(n *If, s *Scope) (Value, error) {
	cond, err := e.condition(n.Cond, s, "if condition")
	if err != nil {
		return nil, err
	}

	switch {
	case cond:
		return e.eval(n.Then, s)
	case n.Else != nil:
		return e.eval(n.Else, s)
	default:
		return Unit{}, nil
	}
}

func (e *evaluator) evalWhile(n *While, s *Scope) (Value, error) {
	for {
		cond, err := e.condition(n.Cond, s, "while condition")
		if err != nil {
			return nil, err
		}

		if !cond {
			return Unit{}, nil
		}

		if _, err := e.eval(n.Body, s); err != nil {
			return nil, err
		}
	}
}

func (e *evaluator) evalUnary(n *Unary, s *Scope) (Value, error) {
	v, err := e.eval(n.X, s)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case token.Minus:
		switch v := v.(type) {
		case Integer:
			return -v, nil
		case Float:
			return -v, nil
		}

	case token.Bang:
		if b, ok := v.(Boolean); ok {
			return !b, nil
		}
	}

	return nil, ErrTypeMismatch.At(n.At).
		Detail("cannot apply %s to %s", n.Op, v.Type()).
		With(slog.String("op", n.Op.String()), slog.String("operand", v.Type().String()))
}

func (e *evaluator) evalBinary(n *Binary, s *Scope) (Value, error) {
	x, err := e.eval(n.X, s)
	if err != nil {
		return nil, err
	}

	if n.Op == token.AndAnd || n.Op == token.OrOr {
		what := "operand of " + n.Op.String()

		l, ok := truthy(x)
		if !ok {
			return nil, ErrTypeMismatch.At(n.X.Pos()).
				Detail("%s must be bool, found %s", what, x.Type())
		}

		// The right operand is not evaluated once the left decides.
		if l == (n.Op == token.OrOr) {
			return Boolean(l), nil
		}

		r, err := e.condition(n.Y, s, what)
		if err != nil {
			return nil, err
		}

		return Boolean(r), nil
	}

	y, err := e.eval(n.Y, s)
	if err != nil {
		return nil, err
	}

	v, err := binaryOp(n.Op, x, y)
	if err != nil {
		return nil, positioned(err, n.At)
	}

	return v, nil
}

func (e *evaluator) evalCall(n *Call, s *Scope) (Value, error) {
	callee, err := e.eval(n.Callee, s)
	if err != nil {
		return nil, err
	}

	fn, ok := callee.(Function)
	if !ok {
		return nil, ErrNotCallable.At(n.At).
			Detail("cannot call a value of type %s", callee.Type()).
			With(slog.String("type", callee.Type().String()))
	}

	args := make([]Value, len(n.Args))

	for i, a := range n.Args {
		if args[i], err = e.eval(a, s); err != nil {
			return nil, err
		}
	}

	if arity := fn.Arity(); arity >= 0 && arity != len(args) {
		return nil, ErrArityMismatch.At(n.At).
			Detail("%s expects %d %s, got %d", describe(fn), arity, plural(arity, "argument"), len(args)).
			With(slog.Int("want", arity), slog.Int("got", len(args)))
	}

	switch fn := fn.(type) {
	case *Builtin:
		return e.callBuiltin(fn, args, n.At)
	case *Closure:
		return e.callClosure(fn, args, n.At)
	default:
		return nil, ErrNotCallable.At(n.At).Detail("%T", fn)
	}
}

func (e *evaluator) callBuiltin(b *Builtin, args []Value, at token.Position) (Value, error) {
	v, err := b.fn(e.cfg.output, args)
	if err == nil {
		return v, nil
	}

	var le *Error
	if !errors.As(err, &le) {
		err = ErrBuiltin.Detail("%s", b.name).Wrap(err)
	}

	return nil, positioned(err, at)
}

func (e *evaluator) callClosure(c *Closure, args []Value, at token.Position) (Value, error) {
	e.depth++
	defer func() { e.depth-- }()

	if limit := e.cfg.maxDepth; limit > 0 && e.depth > limit {
		return nil, ErrRecursionLimit.At(at).
			Detail("call depth exceeds %d", limit).
			With(slog.Int("max_depth", limit))
	}

	if e.trace {
		e.logger.TraceContext(e.ctx, "call",
			slog.String("fn", c.String()),
			slog.Int("depth", e.depth),
			slog.String("pos", at.String()))
	}

	frame := c.env.Child()

	for i, p := range c.params {
		if err := frame.Define(p.Name, args[i], p.Mutable); err != nil {
			return nil, positioned(err, p.At)
		}
	}

	v, err := e.eval(c.body, frame)

	var ret *returnSignal
	if errors.As(err, &ret) {
		return ret.value, nil
	}

	return v, err
}

// binaryOp applies a non-short-circuit operator.
func binaryOp(op token.Kind, x, y Value) (Value, error) {
	switch op {
	case token.Eq:
		return Boolean(Equal(x, y)), nil
	case token.NotEq:
		return Boolean(!Equal(x, y)), nil
	}

	switch x := x.(type) {
	case Integer:
		if y, ok := y.(Integer); ok {
			return intOp(op, x, y)
		}
	case Float:
		if y, ok := y.(Float); ok {
			return floatOp(op, x, y)
		}
	case String:
		if y, ok := y.(String); ok {
			return stringOp(op, x, y)
		}
	}

	return nil, mismatch(op, x, y)
}

// intOp wraps on overflow.
func intOp(op token.Kind, x, y Integer) (Value, error) {
	switch op {
	case token.Plus:
		return x + y, nil
	case token.Minus:
		return x - y, nil
	case token.Star:
		return x * y, nil
	case token.Slash, token.Percent:
		if y == 0 {
			return nil, ErrDivisionByZero.Detail("%d %s 0", x, op)
		}

		if op == token.Slash {
			return x / y, nil
		}

		return x % y, nil
	}

	if v, ok := compare(op, x, y); ok {
		return v, nil
	}

	return nil, mismatch(op, x, y)
}

func floatOp(op token.Kind, x, y Float) (Value, error) {
	switch op {
	case token.Plus:
		return x + y, nil
	case token.Minus:
		return x - y, nil
	case token.Star:
		return x * y, nil
	case token.Slash:
		return x / y, nil
	case token.Percent:
		return Float(math.Mod(float64(x), float64(y))), nil
	}

	if v, ok := compare(op, x, y); ok {
		return v, nil
	}

	return nil, mismatch(op, x, y)
}

func stringOp(op token.Kind, x, y String) (Value, error) {
	if op == token.Plus {
		return x + y, nil
	}

	if v, ok := compare(op, x, y); ok {
		return v, nil
	}

	return nil, mismatch(op, x, y)
}

func compare[T Integer | Float | String](op token.Kind, x, y T) (Value, bool) {
	switch op {
	case token.Less:
		return Boolean(x < y), true
	case token.LessEq:
		return Boolean(x <= y), true
	case token.Greater:
		return Boolean(x > y), true
	case token.GreatEq:
		return Boolean(x >= y), true
	default:
		return nil, false
	}
}

func mismatch(op token.Kind, x, y Value) *Error {
	return ErrTypeMismatch.
		Detail("cannot apply %s to %s and %s", op, x.Type(), y.Type()).
		With(
			slog.String("op", op.String()),
			slog.String("left", x.Type().String()),
			slog.String("right", y.Type().String()),
		)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}

	return word + "s"
}

// describe names a function value for messages.
func describe(fn Function) string {
	if name := fn.Name(); name != "" {
		return name
	}

	return strings.TrimSuffix(strings.TrimPrefix(fn.String(), "<"), ">")
}
