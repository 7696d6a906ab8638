// Package lang implements the Nova language: a lexer, a recursive-descent
// parser, and a tree-walking evaluator with lexically scoped closures.
//
// # Pipeline
//
// Source text flows through [Tokens] (or a [Lexer]) into [Parse], which
// produces a [*Program]. [Evaluate] walks the tree against a [*Scope].
// [Run] performs the whole pipeline in a fresh [Session]; a Session keeps
// its global bindings between runs.
//
//	v, err := lang.Run(ctx, "let x = 2; x * 21")
//	if err != nil {
//		d := lang.Diagnose(err)
//		fmt.Print(d, "\n", d.Snippet(src))
//	}
//
// # Language
//
// Everything is an expression. Blocks, if, and while produce values, and
// the last expression of a block that is not followed by ";" is the
// block's value.
//
//	fn fib(n) {
//	    if n < 2 { n } else { fib(n - 1) + fib(n - 2) }
//	}
//	let mut total = 0;
//	let mut i = 0;
//	while i < 10 { total = total + fib(i); i = i + 1; }
//	total
//
// Bindings are immutable unless declared mut, and parameters likewise.
// Integers are 64-bit and wrap; floats are IEEE-754 doubles; the two never
// mix without an explicit int() or float() conversion.
//
// Operators, loosest first:
//
//	=                  right-associative, target must be a name
//	||
//	&&
//	==  !=
//	<  <=  >  >=
//	+  -
//	*  /  %
//	-x  !x             prefix
//	f(x)               call
//
// # Errors
//
// Every failure is an [*Error] classified by a [Kind], whose [Kind.Stage]
// reports whether it arose while lexing, parsing, or evaluating. Errors
// match their sentinel with [errors.Is], for example
// errors.Is(err, lang.ErrDivisionByZero).
package lang
