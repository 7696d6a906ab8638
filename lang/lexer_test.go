package lang

import (
	"errors"
	"slices"
	"testing"

	"github.com/ardnew/nova/lang/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}

	return out
}

func TestTokenize_Kinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{"empty", "", []token.Kind{token.EOF}},
		{"whitespace only", " \t\r\n ", []token.Kind{token.EOF}},
		{
			"let binding",
			"let mut x = 0x1F_FF;",
			[]token.Kind{token.Let, token.Mut, token.Ident, token.Assign, token.Int, token.Semicolon, token.EOF},
		},
		{
			"greedy operators",
			"a==b!=c<=d>=e&&f||g->h",
			[]token.Kind{
				token.Ident, token.Eq, token.Ident, token.NotEq, token.Ident,
				token.LessEq, token.Ident, token.GreatEq, token.Ident, token.AndAnd,
				token.Ident, token.OrOr, token.Ident, token.Arrow, token.Ident, token.EOF,
			},
		},
		{
			"single char operators",
			"+-*/%!=<>",
			[]token.Kind{
				token.Plus, token.Minus, token.Star, token.Slash, token.Percent,
				token.NotEq, token.Less, token.Greater, token.EOF,
			},
		},
		{
			"comments skipped",
			"a /* block\ncomment */ b // line\n c",
			[]token.Kind{token.Ident, token.Ident, token.Ident, token.EOF},
		},
		{
			"keywords",
			"fn if else while return true false unsafe zone",
			[]token.Kind{
				token.Fn, token.If, token.Else, token.While, token.Return,
				token.True, token.False, token.Unsafe, token.Zone, token.EOF,
			},
		},
		{
			"punctuation",
			"f(a, b) { }",
			[]token.Kind{
				token.Ident, token.LParen, token.Ident, token.Comma, token.Ident,
				token.RParen, token.LBrace, token.RBrace, token.EOF,
			},
		},
		{
			"numbers",
			"1 1.5 1e3 1.5e-3 2E+10 0o17 0b1010 007",
			[]token.Kind{
				token.Int, token.Float, token.Float, token.Float, token.Float,
				token.Int, token.Int, token.Int, token.EOF,
			},
		},
		{"unicode identifier", "größe", []token.Kind{token.Ident, token.EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(tt.src)
			if err != nil {
				t.Fatalf("Tokenize(%q): %v", tt.src, err)
			}

			if got := kinds(toks); !slices.Equal(got, tt.want) {
				t.Errorf("Tokenize(%q) kinds = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestTokenize_Positions(t *testing.T) {
	toks, err := Tokenize("a\n  bc\n\tgrüße d")
	if err != nil {
		t.Fatal(err)
	}

	want := []token.Position{
		{Offset: 0, Line: 1, Column: 1},
		{Offset: 4, Line: 2, Column: 3},
		{Offset: 8, Line: 3, Column: 2},
		{Offset: 16, Line: 3, Column: 8},
		{Offset: 17, Line: 3, Column: 9},
	}

	for i, w := range want {
		if toks[i].Pos != w {
			t.Errorf("token %d (%v) at %+v, want %+v", i, toks[i], toks[i].Pos, w)
		}
	}
}

func TestTokenize_StringEscapes(t *testing.T) {
	toks, err := Tokenize(`"a\n\t\r\0\\\"b" "multi
line"`)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := toks[0].Lexeme, "a\n\t\r\x00\\\"b"; got != want {
		t.Errorf("decoded = %q, want %q", got, want)
	}

	if got, want := toks[1].Lexeme, "multi\nline"; got != want {
		t.Errorf("decoded = %q, want %q", got, want)
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		lexeme string
		want   int64
	}{
		{"0", 0},
		{"007", 7},
		{"1_000_000", 1000000},
		{"0x1F_FF", 8191},
		{"0XfF", 255},
		{"0o17", 15},
		{"0b1010", 10},
		{"0x_1", 1},
		{"9223372036854775807", 9223372036854775807},
	}

	for _, tt := range tests {
		got, err := parseInt(tt.lexeme)
		if err != nil || got != tt.want {
			t.Errorf("parseInt(%q) = %d, %v; want %d", tt.lexeme, got, err, tt.want)
		}
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind Kind
		pos  token.Position
	}{
		{"unterminated string", `x = "abc`, UnterminatedString, token.Position{Offset: 4, Line: 1, Column: 5}},
		{"unterminated escape", `"abc\`, UnterminatedString, token.Position{Offset: 0, Line: 1, Column: 1}},
		{"invalid escape", `"a\qb"`, InvalidCharacter, token.Position{Offset: 2, Line: 1, Column: 3}},
		{"invalid character", "a $ b", InvalidCharacter, token.Position{Offset: 2, Line: 1, Column: 3}},
		{"lone ampersand", "a & b", InvalidCharacter, token.Position{Offset: 2, Line: 1, Column: 3}},
		{"lone pipe", "a | b", InvalidCharacter, token.Position{Offset: 2, Line: 1, Column: 3}},
		{"dot", "1.", InvalidCharacter, token.Position{Offset: 1, Line: 1, Column: 2}},
		{"invalid utf8", "a \xff", InvalidCharacter, token.Position{Offset: 2, Line: 1, Column: 3}},
		{"trailing letters", "12abc", InvalidNumericLiteral, token.Position{Offset: 0, Line: 1, Column: 1}},
		{"bad hex digit", "0x1g", InvalidNumericLiteral, token.Position{Offset: 0, Line: 1, Column: 1}},
		{"empty hex", "0x", InvalidNumericLiteral, token.Position{Offset: 0, Line: 1, Column: 1}},
		{"bad binary digit", "0b102", InvalidNumericLiteral, token.Position{Offset: 0, Line: 1, Column: 1}},
		{"double underscore", "1__0", InvalidNumericLiteral, token.Position{Offset: 0, Line: 1, Column: 1}},
		{"trailing underscore", "\n 10_", InvalidNumericLiteral, token.Position{Offset: 2, Line: 2, Column: 2}},
		{"int overflow", "9223372036854775808", InvalidNumericLiteral, token.Position{Offset: 0, Line: 1, Column: 1}},
		{"float overflow", "1e999", InvalidNumericLiteral, token.Position{Offset: 0, Line: 1, Column: 1}},
		{"unterminated comment", "a /* b", UnterminatedComment, token.Position{Offset: 2, Line: 1, Column: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.src)

			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("Tokenize(%q) error = %v, want *Error", tt.src, err)
			}

			if e.Kind() != tt.kind || e.Kind().Stage() != StageLex {
				t.Errorf("kind = %v (%v), want %v", e.Kind(), e.Kind().Stage(), tt.kind)
			}

			if e.Pos() != tt.pos {
				t.Errorf("pos = %+v, want %+v", e.Pos(), tt.pos)
			}
		})
	}
}

func TestTokens_IdempotentAndRestartable(t *testing.T) {
	src := "fn f(x) { x * 2 } // double\nf(21)"

	first, err := Tokenize(src)
	if err != nil {
		t.Fatal(err)
	}

	second, err := Tokenize(src)
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(first, second) {
		t.Error("lexing the same source twice produced different tokens")
	}

	seq := Tokens(src)

	for range 2 {
		var got []token.Token

		for tok, err := range seq {
			if err != nil {
				t.Fatal(err)
			}

			got = append(got, tok)
		}

		if !slices.Equal(got, first) {
			t.Errorf("ranging over Tokens again produced %v, want %v", got, first)
		}
	}
}

func TestTokens_StopsEarly(t *testing.T) {
	n := 0

	for range Tokens("a b c d") {
		n++
		if n == 2 {
			break
		}
	}

	if n != 2 {
		t.Errorf("iterated %d tokens, want 2", n)
	}
}

func TestLexer_StickyError(t *testing.T) {
	lx := NewLexer("a $")

	if tok, err := lx.Next(); err != nil || tok.Kind != token.Ident {
		t.Fatalf("first token = %v, %v", tok, err)
	}

	_, err1 := lx.Next()
	_, err2 := lx.Next()

	if err1 == nil || err1 != err2 {
		t.Errorf("expected the same error twice, got %v and %v", err1, err2)
	}
}

func TestLexer_EOFRepeats(t *testing.T) {
	lx := NewLexer("x")
	_, _ = lx.Next()

	for range 3 {
		tok, err := lx.Next()
		if err != nil || tok.Kind != token.EOF {
			t.Fatalf("Next after end = %v, %v", tok, err)
		}
	}
}

func BenchmarkTokenize(b *testing.B) {
	src := "fn fib(n) { if n < 2 { n } else { fib(n - 1) + fib(n - 2) } }\nfib(20)\n"

	for b.Loop() {
		if _, err := Tokenize(src); err != nil {
			b.Fatal(err)
		}
	}
}
