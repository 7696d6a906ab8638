package lang

import (
	"iter"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ardnew/nova/lang/token"
)

// Lexer converts source text into tokens on demand. A Lexer holds only its
// read position; two Lexers over the same text produce identical tokens.
type Lexer struct {
	src  string
	off  int
	line int
	col  int
	err  error
	done bool
}

// NewLexer returns a Lexer positioned at the start of src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Tokens returns a lazy sequence of the tokens in src, ending with
// [token.EOF]. Lexing stops at the first error, which is yielded with a
// zero Token. Each range over the sequence starts again from the beginning.
func Tokens(src string) iter.Seq2[token.Token, error] {
	return func(yield func(token.Token, error) bool) {
		lx := NewLexer(src)

		for {
			tok, err := lx.Next()
			if err != nil {
				yield(token.Token{}, err)

				return
			}

			if !yield(tok, nil) || tok.Kind == token.EOF {
				return
			}
		}
	}
}

// Tokenize returns all tokens in src including the final [token.EOF].
func Tokenize(src string) ([]token.Token, error) {
	var toks []token.Token

	for tok, err := range Tokens(src) {
		if err != nil {
			return nil, err
		}

		toks = append(toks, tok)
	}

	return toks, nil
}

// Next returns the next token. After the end of input it keeps returning
// [token.EOF]; after an error it keeps returning that error.
func (lx *Lexer) Next() (token.Token, error) {
	if lx.err != nil {
		return token.Token{}, lx.err
	}

	tok, err := lx.scan()
	if err != nil {
		lx.err = err

		return token.Token{}, err
	}

	return tok, nil
}

func (lx *Lexer) pos() token.Position {
	return token.Position{Offset: lx.off, Line: lx.line, Column: lx.col}
}

// peek returns the rune at the read position without consuming it, or -1 at
// end of input.
func (lx *Lexer) peek() rune {
	return lx.peekAt(0)
}

// peekAt returns the rune n bytes past the read position. It is only used
// to look at ASCII lookahead.
func (lx *Lexer) peekAt(n int) rune {
	if lx.off+n >= len(lx.src) {
		return -1
	}

	r, _ := utf8.DecodeRuneInString(lx.src[lx.off+n:])

	return r
}

func (lx *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(lx.src[lx.off:])
	lx.off += size

	if r == '\n' {
		lx.line++
		lx.col = 1
	} else {
		lx.col++
	}

	return r
}

func (lx *Lexer) scan() (token.Token, error) {
	if err := lx.skipSpaceAndComments(); err != nil {
		return token.Token{}, err
	}

	start := lx.pos()

	r := lx.peek()

	switch {
	case r < 0:
		return token.Token{Kind: token.EOF, Pos: start}, nil

	case r == utf8.RuneError && lx.invalidUTF8():
		return token.Token{}, ErrInvalidCharacter.At(start).
			Detail("invalid UTF-8 encoding").
			With(slog.Int("byte", int(lx.src[lx.off])))

	case isLetter(r):
		for isLetter(lx.peek()) || isDigit(lx.peek()) {
			lx.advance()
		}

		lexeme := lx.src[start.Offset:lx.off]

		return token.Token{Kind: token.Lookup(lexeme), Lexeme: lexeme, Pos: start}, nil

	case isDigit(r):
		return lx.scanNumber(start)

	case r == '"':
		return lx.scanString(start)
	}

	lx.advance()

	kind := token.Invalid

	switch r {
	case '+':
		kind = token.Plus
	case '*':
		kind = token.Star
	case '/':
		kind = token.Slash
	case '%':
		kind = token.Percent
	case ',':
		kind = token.Comma
	case ';':
		kind = token.Semicolon
	case '(':
		kind = token.LParen
	case ')':
		kind = token.RParen
	case '{':
		kind = token.LBrace
	case '}':
		kind = token.RBrace
	case '-':
		kind = lx.either('>', token.Arrow, token.Minus)
	case '!':
		kind = lx.either('=', token.NotEq, token.Bang)
	case '=':
		kind = lx.either('=', token.Eq, token.Assign)
	case '<':
		kind = lx.either('=', token.LessEq, token.Less)
	case '>':
		kind = lx.either('=', token.GreatEq, token.Greater)
	case '&':
		kind = lx.either('&', token.AndAnd, token.Invalid)
	case '|':
		kind = lx.either('|', token.OrOr, token.Invalid)
	}

	if kind == token.Invalid {
		return token.Token{}, ErrInvalidCharacter.At(start).
			Detail("%q", lx.src[start.Offset:lx.off])
	}

	return token.Token{
		Kind:   kind,
		Lexeme: lx.src[start.Offset:lx.off],
		Pos:    start,
	}, nil
}

// either consumes next and returns yes if it follows, otherwise no.
func (lx *Lexer) either(next rune, yes, no token.Kind) token.Kind {
	if lx.peek() == next {
		lx.advance()

		return yes
	}

	return no
}

func (lx *Lexer) invalidUTF8() bool {
	_, size := utf8.DecodeRuneInString(lx.src[lx.off:])

	return size <= 1
}

func (lx *Lexer) skipSpaceAndComments() error {
	for {
		r := lx.peek()

		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' ||
			(r > utf8.RuneSelf && unicode.IsSpace(r)):
			lx.advance()

		case r == '/' && lx.peekAt(1) == '/':
			for r := lx.peek(); r >= 0 && r != '\n'; r = lx.peek() {
				lx.advance()
			}

		case r == '/' && lx.peekAt(1) == '*':
			start := lx.pos()

			lx.advance()
			lx.advance()

			for {
				if lx.peek() < 0 {
					return ErrUnterminatedComment.At(start)
				}

				if lx.peek() == '*' && lx.peekAt(1) == '/' {
					lx.advance()
					lx.advance()

					break
				}

				lx.advance()
			}

		default:
			return nil
		}
	}
}

func (lx *Lexer) scanNumber(start token.Position) (token.Token, error) {
	kind := token.Int
	base := 10

	if lx.peek() == '0' {
		switch lx.peekAt(1) {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
	}

	if base != 10 {
		lx.advance()
		lx.advance()
	}

	lx.digits(base == 16)

	if base == 10 {
		if lx.peek() == '.' && isDigit(lx.peekAt(1)) {
			kind = token.Float

			lx.advance()
			lx.digits(false)
		}

		if e := lx.peek(); e == 'e' || e == 'E' {
			sign := lx.peekAt(1)
			if isDigit(sign) || ((sign == '+' || sign == '-') && isDigit(lx.peekAt(2))) {
				kind = token.Float

				lx.advance()

				if !isDigit(sign) {
					lx.advance()
				}

				lx.digits(false)
			}
		}
	}

	// Reject trailing letters such as "12abc" or "0x1g".
	if isLetter(lx.peek()) || isDigit(lx.peek()) {
		for isLetter(lx.peek()) || isDigit(lx.peek()) {
			lx.advance()
		}

		return token.Token{}, ErrInvalidNumericLiteral.At(start).
			Detail("%q", lx.src[start.Offset:lx.off])
	}

	lexeme := lx.src[start.Offset:lx.off]

	var err error
	if kind == token.Int {
		_, err = parseInt(lexeme)
	} else {
		_, err = parseFloat(lexeme)
	}

	if err != nil {
		return token.Token{}, ErrInvalidNumericLiteral.At(start).
			Detail("%q", lexeme).Wrap(err)
	}

	return token.Token{Kind: kind, Lexeme: lexeme, Pos: start}, nil
}

// digits consumes a run of digits and underscores; separators are
// validated when the literal is converted.
func (lx *Lexer) digits(hex bool) {
	for r := lx.peek(); isDigit(r) || r == '_' || (hex && isHexLetter(r)); r = lx.peek() {
		lx.advance()
	}
}

func (lx *Lexer) scanString(start token.Position) (token.Token, error) {
	lx.advance() // opening quote

	var b strings.Builder

	for {
		r := lx.peek()

		switch {
		case r < 0:
			return token.Token{}, ErrUnterminatedString.At(start)

		case r == '"':
			lx.advance()

			return token.Token{Kind: token.String, Lexeme: b.String(), Pos: start}, nil

		case r == utf8.RuneError && lx.invalidUTF8():
			return token.Token{}, ErrInvalidCharacter.At(lx.pos()).
				Detail("invalid UTF-8 encoding in string literal")

		case r == '\\':
			at := lx.pos()

			lx.advance()

			esc := lx.peek()
			if esc < 0 {
				return token.Token{}, ErrUnterminatedString.At(start)
			}

			lx.advance()

			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '0':
				b.WriteByte(0)
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			default:
				return token.Token{}, ErrInvalidCharacter.At(at).
					Detail("unknown escape sequence \\%c", esc)
			}

		default:
			b.WriteRune(lx.advance())
		}
	}
}

func isLetter(r rune) bool {
	return r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') ||
		(r >= utf8.RuneSelf && unicode.IsLetter(r))
}

func isDigit(r rune) bool { return '0' <= r && r <= '9' }

func isHexLetter(r rune) bool {
	return ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

// parseInt converts an integer literal, which may carry a 0x, 0o, or 0b
// prefix and single underscores between digits. Decimal literals with
// leading zeros are decimal.
func parseInt(lexeme string) (int64, error) {
	base := 10
	digits := lexeme

	if len(lexeme) > 1 && lexeme[0] == '0' {
		switch lexeme[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}

		if base != 10 {
			digits = strings.TrimPrefix(lexeme[2:], "_")
		}
	}

	clean, err := stripUnderscores(digits, base == 16)
	if err != nil {
		return 0, err
	}

	u, err := strconv.ParseUint(clean, base, 64)
	if err != nil {
		return 0, err
	}

	if u > math.MaxInt64 {
		return 0, strconv.ErrRange
	}

	return int64(u), nil
}

func parseFloat(lexeme string) (float64, error) {
	clean, err := stripUnderscores(lexeme, false)
	if err != nil {
		return 0, err
	}

	return strconv.ParseFloat(clean, 64)
}

// stripUnderscores removes digit separators, which must each sit between
// two digits.
func stripUnderscores(s string, hex bool) (string, error) {
	if !strings.Contains(s, "_") {
		return s, nil
	}

	for i := range len(s) {
		if s[i] != '_' {
			continue
		}

		if i == 0 || i == len(s)-1 || !isDigitByte(s[i-1], hex) || !isDigitByte(s[i+1], hex) {
			return "", strconv.ErrSyntax
		}
	}

	return strings.ReplaceAll(s, "_", ""), nil
}

func isDigitByte(c byte, hex bool) bool {
	return isDigit(rune(c)) || (hex && isHexLetter(rune(c)))
}
