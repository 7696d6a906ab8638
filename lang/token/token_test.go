package token

import (
	"slices"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		ident string
		want  Kind
	}{
		{"let", Let},
		{"mut", Mut},
		{"fn", Fn},
		{"if", If},
		{"else", Else},
		{"while", While},
		{"return", Return},
		{"true", True},
		{"false", False},
		{"unsafe", Unsafe},
		{"zone", Zone},
		{"Let", Ident},
		{"letter", Ident},
		{"x", Ident},
	}

	for _, tt := range tests {
		if got := Lookup(tt.ident); got != tt.want {
			t.Errorf("Lookup(%q) = %v, want %v", tt.ident, got, tt.want)
		}
	}
}

func TestKind_Class(t *testing.T) {
	tests := []struct {
		kind Kind
		want Class
	}{
		{Ident, ClassIdentifier},
		{Int, ClassInteger},
		{Float, ClassFloat},
		{String, ClassString},
		{Plus, ClassOperator},
		{Arrow, ClassOperator},
		{OrOr, ClassOperator},
		{Comma, ClassPunctuation},
		{RBrace, ClassPunctuation},
		{Let, ClassKeyword},
		{Zone, ClassKeyword},
		{EOF, ClassEOF},
		{Invalid, ClassInvalid},
	}

	for _, tt := range tests {
		if got := tt.kind.Class(); got != tt.want {
			t.Errorf("%v.Class() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestKeywords_MatchLookup(t *testing.T) {
	words := Keywords()
	if !slices.Contains(words, "fn") || !slices.Contains(words, "zone") {
		t.Fatalf("Keywords() missing entries: %v", words)
	}

	for _, w := range words {
		if k := Lookup(w); !k.IsKeyword() || k.String() != w {
			t.Errorf("Lookup(%q) = %v", w, k)
		}
	}
}

func TestPosition_String(t *testing.T) {
	if got := (Position{}).String(); got != "-" {
		t.Errorf("zero Position = %q", got)
	}

	if got := (Position{Offset: 9, Line: 2, Column: 4}).String(); got != "2:4" {
		t.Errorf("Position = %q", got)
	}
}
