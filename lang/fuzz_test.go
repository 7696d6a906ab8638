package lang

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ardnew/nova/lang/token"
)

// FuzzTokens checks that lexing never panics and that lexing the same
// source twice yields identical tokens and errors.
func FuzzTokens(f *testing.F) {
	f.Add("foo")
	f.Add("123")
	f.Add("0x1F + 0b1010 + 0o17 + 1_000")
	f.Add("1.5e-3")
	f.Add(`"escaped \"quote\" \t \\ \0"`)
	f.Add("// comment\n1")
	f.Add("a && b || !c")
	f.Add("== != <= >= = < >")
	f.Add("unsafe zone ->")
	f.Add(`"unterminated`)
	f.Add("@")

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		defer func() {
			if r := recover(); r != nil {
				t.Errorf("lexer panicked on input %q: %v", input, r)
			}
		}()

		first, err1 := Tokenize(input)
		second, err2 := Tokenize(input)

		if !slices.Equal(first, second) {
			t.Errorf("lexing %q twice produced different tokens", input)
		}

		if (err1 == nil) != (err2 == nil) || (err1 != nil && err1.Error() != err2.Error()) {
			t.Errorf("lexing %q twice produced different errors: %v, %v", input, err1, err2)
		}

		if err1 == nil && (len(first) == 0 || first[len(first)-1].Kind != token.EOF) {
			t.Errorf("tokens of %q do not end with EOF", input)
		}

		var streamed []token.Token

		for tok, err := range Tokens(input) {
			if err != nil {
				break
			}

			streamed = append(streamed, tok)
		}

		if err1 == nil && !slices.Equal(streamed, first) {
			t.Errorf("Tokens(%q) disagrees with Tokenize", input)
		}
	})
}

// FuzzFormatRoundTrip checks that formatting any parsed program yields
// source that parses back to the same tree.
func FuzzFormatRoundTrip(f *testing.F) {
	for _, src := range roundTripCorpus {
		f.Add(src)
	}

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		prog, err := Parse(t.Context(), input)
		if err != nil {
			return
		}

		formatted := FormatString(prog)

		again, err := Parse(t.Context(), formatted)
		if errors.Is(err, ErrNestingTooDeep) {
			t.Skip("formatted source exceeds the nesting limit")
		}

		if err != nil {
			t.Fatalf("Parse(FormatString(%q)) = %v\nformatted:\n%s", input, err, formatted)
		}

		if got, want := again.String(), prog.String(); got != want {
			t.Errorf("round trip of %q changed the tree\n got: %s\nwant: %s", input, got, want)
		}
	})
}

// FuzzRun checks that evaluating arbitrary input either succeeds or fails
// with a diagnosable error, and never panics or overflows the stack.
func FuzzRun(f *testing.F) {
	f.Add("1 + 2 * 3")
	f.Add("let mut i = 0; while i < 10 { i = i + 1; } i")
	f.Add("fn fib(n) { if n < 2 { n } else { fib(n - 1) + fib(n - 2) } } fib(10)")
	f.Add("fn down(n) { down(n + 1) } down(0)")
	f.Add("fn f(n) { 1 + (1 + (1 + f(n - 1))) } f(0)")
	f.Add("1 / 0")
	f.Add(`"a" + 1`)
	f.Add("let x = 1; x = 2;")
	f.Add("len(str(int(2.5)))")
	f.Add("return 1; 2")
	f.Add(strings.Repeat("(", 50) + "1" + strings.Repeat(")", 50))

	f.Fuzz(func(t *testing.T, input string) {
		if !utf8.ValidString(input) {
			t.Skip("invalid UTF-8")
		}

		defer func() {
			if r := recover(); r != nil {
				t.Errorf("Run panicked on input %q: %v", input, r)
			}
		}()

		// A small step budget keeps repeated string doubling from
		// exhausting memory.
		_, err := Run(t.Context(), input, WithMaxSteps(64))
		if err == nil {
			return
		}

		var le *Error
		if !errors.As(err, &le) {
			t.Fatalf("Run(%q) returned %T %v, want *Error", input, err, err)
		}

		if Diagnose(err).String() == "" {
			t.Errorf("Run(%q) error has an empty diagnostic", input)
		}
	})
}

// FuzzNesting checks that nesting of any shape either parses or fails with
// NestingTooDeep, and that everything which parses can be evaluated.
func FuzzNesting(f *testing.F) {
	f.Add(uint8(0), uint16(5))
	f.Add(uint8(1), uint16(100))
	f.Add(uint8(2), uint16(1000))
	f.Add(uint8(3), uint16(5000))
	f.Add(uint8(4), uint16(70))

	shapes := []func(n int) string{
		func(n int) string { return strings.Repeat("(", n) + "1" + strings.Repeat(")", n) },
		func(n int) string { return "1" + strings.Repeat(" + 1", n) },
		func(n int) string { return "fn f() { f } f" + strings.Repeat("()", n) },
		func(n int) string { return strings.Repeat("{ ", n) + "1" + strings.Repeat(" }", n) },
		func(n int) string { return strings.Repeat("-", n) + "1" },
	}

	f.Fuzz(func(t *testing.T, shape uint8, depth uint16) {
		src := shapes[int(shape)%len(shapes)](int(depth))

		prog, err := Parse(t.Context(), src, WithMaxNesting(64))
		if err != nil {
			if !errors.Is(err, ErrNestingTooDeep) {
				t.Fatalf("Parse of depth %d: %v, want nil or NestingTooDeep", depth, err)
			}

			return
		}

		_ = prog.String()
		_ = FormatString(prog)

		if _, err := Evaluate(t.Context(), prog, nil); err != nil {
			t.Errorf("Evaluate of depth %d: %v", depth, err)
		}
	})
}
