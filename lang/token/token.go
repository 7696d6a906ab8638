// Package token defines the lexical tokens of the Nova language.
package token

import (
	"fmt"
	"log/slog"
)

// Kind enumerates token kinds.
type Kind int

const (
	Invalid Kind = iota
	EOF

	literalBegin
	Ident
	Int
	Float
	String
	literalEnd

	operatorBegin
	Plus     // +
	Minus    // -
	Star     // *
	Slash    // /
	Percent  // %
	Bang     // !
	Assign   // =
	Eq       // ==
	NotEq    // !=
	Less     // <
	LessEq   // <=
	Greater  // >
	GreatEq  // >=
	AndAnd   // &&
	OrOr     // ||
	Arrow    // ->
	operatorEnd

	punctBegin
	Comma     // ,
	Semicolon // ;
	LParen    // (
	RParen    // )
	LBrace    // {
	RBrace    // }
	punctEnd

	keywordBegin
	Let
	Mut
	Fn
	If
	Else
	While
	Return
	True
	False
	Unsafe
	Zone
	keywordEnd
)

var kindText = [...]string{
	Invalid: "invalid",
	EOF:     "end of input",

	Ident:  "identifier",
	Int:    "integer",
	Float:  "float",
	String: "string",

	Plus:    "+",
	Minus:   "-",
	Star:    "*",
	Slash:   "/",
	Percent: "%",
	Bang:    "!",
	Assign:  "=",
	Eq:      "==",
	NotEq:   "!=",
	Less:    "<",
	LessEq:  "<=",
	Greater: ">",
	GreatEq: ">=",
	AndAnd:  "&&",
	OrOr:    "||",
	Arrow:   "->",

	Comma:     ",",
	Semicolon: ";",
	LParen:    "(",
	RParen:    ")",
	LBrace:    "{",
	RBrace:    "}",

	Let:    "let",
	Mut:    "mut",
	Fn:     "fn",
	If:     "if",
	Else:   "else",
	While:  "while",
	Return: "return",
	True:   "true",
	False:  "false",
	Unsafe: "unsafe",
	Zone:   "zone",
}

// String returns the source spelling of operators, punctuation, and
// keywords, and a descriptive name for every other kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindText) && kindText[k] != "" {
		return kindText[k]
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// Class groups token kinds into the broad categories used in diagnostics.
type Class int

const (
	ClassInvalid Class = iota
	ClassIdentifier
	ClassKeyword
	ClassInteger
	ClassFloat
	ClassString
	ClassOperator
	ClassPunctuation
	ClassEOF
)

func (c Class) String() string {
	switch c {
	case ClassIdentifier:
		return "identifier"
	case ClassKeyword:
		return "keyword"
	case ClassInteger:
		return "integer literal"
	case ClassFloat:
		return "float literal"
	case ClassString:
		return "string literal"
	case ClassOperator:
		return "operator"
	case ClassPunctuation:
		return "punctuation"
	case ClassEOF:
		return "end of input"
	default:
		return "invalid"
	}
}

// Class returns the category of k.
func (k Kind) Class() Class {
	switch {
	case k == Ident:
		return ClassIdentifier
	case k == Int:
		return ClassInteger
	case k == Float:
		return ClassFloat
	case k == String:
		return ClassString
	case k == EOF:
		return ClassEOF
	case k.IsOperator():
		return ClassOperator
	case k > punctBegin && k < punctEnd:
		return ClassPunctuation
	case k.IsKeyword():
		return ClassKeyword
	default:
		return ClassInvalid
	}
}

// IsLiteral reports whether k is an identifier or literal kind.
func (k Kind) IsLiteral() bool { return k > literalBegin && k < literalEnd }

// IsOperator reports whether k is an operator.
func (k Kind) IsOperator() bool { return k > operatorBegin && k < operatorEnd }

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool { return k > keywordBegin && k < keywordEnd }

// keywords is built once and never modified.
var keywords = func() map[string]Kind {
	m := make(map[string]Kind, keywordEnd-keywordBegin)
	for k := keywordBegin + 1; k < keywordEnd; k++ {
		m[kindText[k]] = k
	}

	return m
}()

// Lookup maps an identifier to its keyword kind, or [Ident] if it is not
// reserved.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}

	return Ident
}

// Keywords returns the reserved words in declaration order.
func Keywords() []string {
	words := make([]string, 0, keywordEnd-keywordBegin-1)
	for k := keywordBegin + 1; k < keywordEnd; k++ {
		words = append(words, kindText[k])
	}

	return words
}

// Position is a location in source text. Line and Column are 1-based;
// Column counts runes. The zero Position is invalid.
type Position struct {
	Offset int
	Line   int
	Column int
}

// IsValid reports whether p refers to a real location.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}

	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// LogValue implements [slog.LogValuer].
func (p Position) LogValue() slog.Value {
	return slog.GroupValue(slog.Int("line", p.Line), slog.Int("column", p.Column))
}

// Token is a lexical unit. Lexeme holds the exact source text, except for
// string literals where it holds the decoded value.
type Token struct {
	Kind   Kind
	Lexeme string
	Pos    Position
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return t.Kind.String()
	case Ident, Int, Float:
		return fmt.Sprintf("%s %s", t.Kind, t.Lexeme)
	case String:
		return fmt.Sprintf("%s %q", t.Kind, t.Lexeme)
	default:
		return fmt.Sprintf("%q", t.Kind.String())
	}
}
