package lang

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/nova/lang/token"
	"github.com/ardnew/nova/log"
)

// Binding powers for binary operators, low to high. Prefix operators bind
// at precUnary and calls at precCall.
const (
	precNone = iota
	precAssign
	precOr
	precAnd
	precEquality
	precRelational
	precAdditive
	precMultiplicative
	precUnary
	precCall
	precPrimary
)

// binaryPrec is the read-only precedence table for infix operators.
var binaryPrec = map[token.Kind]int{
	token.OrOr:    precOr,
	token.AndAnd:  precAnd,
	token.Eq:      precEquality,
	token.NotEq:   precEquality,
	token.Less:    precRelational,
	token.LessEq:  precRelational,
	token.Greater: precRelational,
	token.GreatEq: precRelational,
	token.Plus:    precAdditive,
	token.Minus:   precAdditive,
	token.Star:    precMultiplicative,
	token.Slash:   precMultiplicative,
	token.Percent: precMultiplicative,
}

// ParseReader parses a program read from r.
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return Parse(ctx, string(data), opts...)
}

// Parse parses src into a [Program]. It stops at the first lexical or
// syntax error.
func Parse(ctx context.Context, src string, opts ...Option) (*Program, error) {
	cfg := makeConfig(opts...)

	return parse(ctx, src, &cfg)
}

func parse(ctx context.Context, src string, cfg *config) (*Program, error) {
	p := &parser{
		ctx:      ctx,
		lex:      NewLexer(src),
		maxDepth: cfg.maxNesting,
		logger:   cfg.logger,
	}

	// Prime the current and lookahead tokens.
	p.advance()
	p.advance()

	prog, err := p.parseProgram()
	if err != nil {
		p.logger.TraceContext(ctx, "parse failed", slog.Any("error", err))

		return nil, err
	}

	p.logger.TraceContext(ctx, "parse complete",
		slog.Int("statements", len(prog.Stmts)),
		slog.Bool("tail", prog.Tail != nil))

	return prog, nil
}

// parser holds the parser state.
type parser struct {
	ctx    context.Context
	lex    *Lexer
	tok    token.Token // current
	next   token.Token // lookahead
	lexErr error

	depth    int
	maxDepth int
	logger   log.Logger
}

// advance shifts the lookahead into the current token. A lexical error is
// recorded and surfaces as an Invalid token, which no production accepts.
func (p *parser) advance() {
	p.tok = p.next

	if p.lexErr != nil {
		p.next = token.Token{Kind: token.Invalid, Pos: p.tok.Pos}

		return
	}

	tok, err := p.lex.Next()
	if err != nil {
		p.lexErr = err
		tok = token.Token{Kind: token.Invalid}
	}

	p.next = tok
}

func (p *parser) at(k token.Kind) bool { return p.tok.Kind == k }

// accept consumes the current token if it has kind k.
func (p *parser) accept(k token.Kind) bool {
	if p.tok.Kind != k {
		return false
	}

	p.advance()

	return true
}

func (p *parser) expect(k token.Kind, what string) (token.Token, error) {
	tok := p.tok
	if tok.Kind != k {
		return tok, p.unexpected(what)
	}

	p.advance()

	return tok, nil
}

// unexpected reports the current token as a syntax error, or the pending
// lexical error that stopped tokenization.
func (p *parser) unexpected(expected string) error {
	if p.tok.Kind == token.Invalid && p.lexErr != nil {
		return p.lexErr
	}

	if p.tok.Kind == token.EOF {
		return ErrUnexpectedEndOfInput.At(p.tok.Pos).
			Detail("expected %s", expected).
			With(slog.String("expected", expected))
	}

	if p.tok.Kind == token.Unsafe || p.tok.Kind == token.Zone || p.tok.Kind == token.Arrow {
		return ErrUnexpectedToken.At(p.tok.Pos).
			Detail("%s is reserved", p.tok).
			With(slog.String("expected", expected), slog.String("found", p.tok.Lexeme))
	}

	return ErrUnexpectedToken.At(p.tok.Pos).
		Detail("expected %s, found %s", expected, p.tok).
		With(slog.String("expected", expected), slog.String("found", p.tok.Lexeme))
}

// enter tracks syntactic nesting so that pathological input cannot exhaust
// the stack of the recursive descent or of the evaluator.
func (p *parser) enter() error {
	p.depth++
	if p.maxDepth > 0 && p.depth > p.maxDepth {
		return ErrNestingTooDeep.At(p.tok.Pos).
			Detail("more than %d levels", p.maxDepth).
			With(slog.Int("max_nesting", p.maxDepth))
	}

	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) parseProgram() (*Program, error) {
	stmts, tail, err := p.parseStmtList(token.EOF)
	if err != nil {
		return nil, err
	}

	if !p.at(token.EOF) {
		return nil, p.unexpected("end of input")
	}

	return &Program{Stmts: stmts, Tail: tail}, nil
}

// parseStmtList parses statements up to, but not including, the closing
// token. An expression not followed by ";" directly before the closing
// token becomes the tail.
func (p *parser) parseStmtList(closing token.Kind) ([]Stmt, Expr, error) {
	var stmts []Stmt

	for {
		for p.accept(token.Semicolon) {
		}

		if p.at(closing) || p.at(token.EOF) {
			return stmts, nil, nil
		}

		if err := p.ctx.Err(); err != nil {
			return nil, nil, ErrCanceled.At(p.tok.Pos).Wrap(err)
		}

		switch {
		case p.at(token.Let):
			s, err := p.parseLet(closing)
			if err != nil {
				return nil, nil, err
			}

			stmts = append(stmts, s)

		case p.at(token.Return):
			s, err := p.parseReturn(closing)
			if err != nil {
				return nil, nil, err
			}

			stmts = append(stmts, s)

		case p.at(token.Fn) && p.next.Kind == token.Ident:
			s, err := p.parseFnDecl()
			if err != nil {
				return nil, nil, err
			}

			stmts = append(stmts, s)

		default:
			blockLike := p.at(token.LBrace) || p.at(token.If) || p.at(token.While)

			var (
				x   Expr
				err error
			)

			// A statement that starts with a block-like expression ends
			// with it, so "{ a } -b" is two statements.
			if blockLike {
				x, err = p.parsePrimary()
			} else {
				x, err = p.parseExpr()
			}

			if err != nil {
				return nil, nil, err
			}

			switch {
			case p.accept(token.Semicolon):
				stmts = append(stmts, &ExprStmt{X: x})
			case p.at(closing) || p.at(token.EOF):
				return stmts, x, nil
			case blockLike:
				stmts = append(stmts, &ExprStmt{X: x})
			default:
				return nil, nil, p.unexpected(`";"`)
			}
		}
	}
}

// terminate consumes the ";" ending a statement. It may be omitted before
// the closing token of the enclosing list.
func (p *parser) terminate(closing token.Kind) error {
	if p.accept(token.Semicolon) || p.at(closing) || p.at(token.EOF) {
		return nil
	}

	return p.unexpected(`";"`)
}

// parseLet parses: 'let' 'mut'? Ident '=' Expr.
func (p *parser) parseLet(closing token.Kind) (*Let, error) {
	at := p.tok.Pos
	p.advance()

	mutable := p.accept(token.Mut)

	name, err := p.expect(token.Ident, "binding name")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.Assign, `"=" and an initializer`); err != nil {
		return nil, err
	}

	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if err := p.terminate(closing); err != nil {
		return nil, err
	}

	return &Let{
		At:      at,
		Name:    &Ident{At: name.Pos, Name: name.Lexeme},
		Mutable: mutable,
		Value:   value,
	}, nil
}

// parseReturn parses: 'return' Expr?.
func (p *parser) parseReturn(closing token.Kind) (*Return, error) {
	ret := &Return{At: p.tok.Pos}
	p.advance()

	if !p.at(token.Semicolon) && !p.at(closing) && !p.at(token.EOF) {
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		ret.Value = value
	}

	if err := p.terminate(closing); err != nil {
		return nil, err
	}

	return ret, nil
}

// parseFnDecl parses: 'fn' Ident Params Block.
func (p *parser) parseFnDecl() (*FnDecl, error) {
	at := p.tok.Pos
	p.advance()

	name := &Ident{At: p.tok.Pos, Name: p.tok.Lexeme}
	p.advance()

	fn, err := p.parseFuncRest(at)
	if err != nil {
		return nil, err
	}

	return &FnDecl{At: at, Name: name, Func: fn}, nil
}

func (p *parser) parseExpr() (Expr, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	return p.parseAssign()
}

// parseAssign parses right-associative assignment above logical-or.
func (p *parser) parseAssign() (Expr, error) {
	lhs, err := p.parseBinary(precOr)
	if err != nil {
		return nil, err
	}

	if !p.at(token.Assign) {
		return lhs, nil
	}

	target, ok := lhs.(*Ident)
	if !ok {
		return nil, ErrUnexpectedToken.At(p.tok.Pos).
			Detail("cannot assign to %s", lhs).
			With(slog.String("expected", "identifier"))
	}

	at := p.tok.Pos
	p.advance()

	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	return &Assign{At: at, Target: target, Value: value}, nil
}

// parseBinary implements precedence climbing for left-associative infix
// operators binding at least as tightly as minPrec.
func (p *parser) parseBinary(minPrec int) (Expr, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	// Each operator deepens the left spine of the tree.
	entered := 0
	defer func() { p.depth -= entered }()

	for {
		prec, ok := binaryPrec[p.tok.Kind]
		if !ok || prec < minPrec {
			return x, nil
		}

		op := p.tok
		p.advance()

		entered++
		if err := p.enter(); err != nil {
			return nil, err
		}

		y, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}

		x = &Binary{At: op.Pos, Op: op.Kind, X: x, Y: y}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	if !p.at(token.Minus) && !p.at(token.Bang) {
		return p.parseCall()
	}

	op := p.tok
	p.advance()

	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	return &Unary{At: op.Pos, Op: op.Kind, X: x}, nil
}

// parseCall parses a primary expression followed by any number of argument
// lists.
func (p *parser) parseCall() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	entered := 0
	defer func() { p.depth -= entered }()

	for p.at(token.LParen) {
		entered++
		if err := p.enter(); err != nil {
			return nil, err
		}

		call := &Call{At: p.tok.Pos, Callee: x}
		p.advance()

		for !p.at(token.RParen) {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			call.Args = append(call.Args, arg)

			if !p.accept(token.Comma) {
				break
			}
		}

		if _, err := p.expect(token.RParen, `")" or ","`); err != nil {
			return nil, err
		}

		x = call
	}

	return x, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.tok

	switch tok.Kind {
	case token.Int:
		v, err := parseInt(tok.Lexeme)
		if err != nil {
			return nil, ErrInvalidNumericLiteral.At(tok.Pos).Detail("%q", tok.Lexeme).Wrap(err)
		}

		p.advance()

		return &IntLit{At: tok.Pos, Value: v}, nil

	case token.Float:
		v, err := parseFloat(tok.Lexeme)
		if err != nil {
			return nil, ErrInvalidNumericLiteral.At(tok.Pos).Detail("%q", tok.Lexeme).Wrap(err)
		}

		p.advance()

		return &FloatLit{At: tok.Pos, Value: v}, nil

	case token.String:
		p.advance()

		return &StringLit{At: tok.Pos, Value: tok.Lexeme}, nil

	case token.True, token.False:
		p.advance()

		return &BoolLit{At: tok.Pos, Value: tok.Kind == token.True}, nil

	case token.Ident:
		p.advance()

		return &Ident{At: tok.Pos, Name: tok.Lexeme}, nil

	case token.LParen:
		p.advance()

		if p.accept(token.RParen) {
			return &UnitLit{At: tok.Pos}, nil
		}

		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if _, err := p.expect(token.RParen, `")"`); err != nil {
			return nil, err
		}

		return x, nil

	case token.LBrace:
		return p.parseBlock()

	case token.If:
		return p.parseIf()

	case token.While:
		return p.parseWhile()

	case token.Fn:
		p.advance()

		return p.parseFuncRest(tok.Pos)

	default:
		return nil, p.unexpected("expression")
	}
}

// parseBlock parses: '{' Stmt* Expr? '}'.
func (p *parser) parseBlock() (*Block, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	lbrace, err := p.expect(token.LBrace, `"{"`)
	if err != nil {
		return nil, err
	}

	stmts, tail, err := p.parseStmtList(token.RBrace)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.RBrace, `"}"`); err != nil {
		return nil, err
	}

	return &Block{At: lbrace.Pos, Stmts: stmts, Tail: tail}, nil
}

// parseIf parses: 'if' Expr Block ('else' (If | Block))?.
func (p *parser) parseIf() (*If, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()

	n := &If{At: p.tok.Pos}
	p.advance()

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	n.Cond = cond

	if n.Then, err = p.parseBlock(); err != nil {
		return nil, err
	}

	if !p.accept(token.Else) {
		return n, nil
	}

	if p.at(token.If) {
		n.Else, err = p.parseIf()
	} else {
		n.Else, err = p.parseBlock()
	}

	if err != nil {
		return nil, err
	}

	return n, nil
}

// parseWhile parses: 'while' Expr Block.
func (p *parser) parseWhile() (*While, error) {
	n := &While{At: p.tok.Pos}
	p.advance()

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	n.Cond = cond

	if n.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}

	return n, nil
}

// parseFuncRest parses the parameter list and body following 'fn' or
// 'fn' Ident.
func (p *parser) parseFuncRest(at token.Position) (*FuncLit, error) {
	if _, err := p.expect(token.LParen, `"(" to begin parameters`); err != nil {
		return nil, err
	}

	fn := &FuncLit{At: at}
	seen := make(map[string]bool)

	for !p.at(token.RParen) {
		param := &Param{At: p.tok.Pos, Mutable: p.accept(token.Mut)}

		name, err := p.expect(token.Ident, "parameter name")
		if err != nil {
			return nil, err
		}

		if seen[name.Lexeme] {
			return nil, ErrUnexpectedToken.At(name.Pos).
				Detail("duplicate parameter %q", name.Lexeme).
				With(slog.String("found", name.Lexeme))
		}

		seen[name.Lexeme] = true
		param.Name = name.Lexeme
		fn.Params = append(fn.Params, param)

		if !p.accept(token.Comma) {
			break
		}
	}

	if _, err := p.expect(token.RParen, `")" or ","`); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	fn.Body = body

	return fn, nil
}
