package repl

import (
	"bytes"
	"slices"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/nova/lang"
	"github.com/ardnew/nova/log"
)

// testModel returns a model over a fresh session with an in-memory history.
func testModel(t *testing.T, preload string) model {
	t.Helper()

	printed := new(bytes.Buffer)
	sess := lang.NewSession(lang.WithOutput(printed))

	if preload != "" {
		if _, err := sess.Run(t.Context(), preload); err != nil {
			t.Fatalf("preload: %v", err)
		}
	}

	return newModel(t.Context(), sess, printed, NewHistory(""), log.Logger{})
}

// typeText sends s to m as typed runes.
func typeText(m model, s string) model {
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})

	return m
}

func matchNames(m model) []string {
	names := make([]string, len(m.matches))
	for i, match := range m.matches {
		names[i] = match.Str
	}

	return names
}

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_paren", "double(fo", 9, "fo", 7, 9},
		{"after_comma", "add(a, fo", 9, "fo", 7, 9},
		{"after_comparison", "a >= fo", 7, "fo", 5, 7},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		{"underscore", "let my_var", 10, "my_var", 4, 10},
		{"digits", "x1 + y2", 7, "y2", 5, 7},
		{"hyphen_splits", "a-b", 3, "b", 2, 3},
		{"unicode", "let café", 9, "café", 4, 9},
		{"cursor_past_end", "foo", 10, "foo", 0, 3},
		{"cursor_negative", "foo", -1, "foo", 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestInString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		offset int
		want   bool
	}{
		{"outside", `let x = 1`, 4, false},
		{"inside", `print("hel`, 7, true},
		{"after_close", `"a" + b`, 6, false},
		{"escaped_quote", `"a\"b`, 4, true},
		{"escaped_backslash", `"a\\" + b`, 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inString(tt.input, tt.offset); got != tt.want {
				t.Errorf("inString(%q, %d) = %v, want %v",
					tt.input, tt.offset, got, tt.want)
			}
		})
	}
}

func TestCandidateNames(t *testing.T) {
	m := testModel(t, "let total = 1; fn twice(x) { x * 2 }")

	names := candidateNames(m.session.Globals())

	for _, want := range []string{"total", "twice", "println", "let", "while"} {
		if !slices.Contains(names, want) {
			t.Errorf("candidateNames() missing %q in %v", want, names)
		}
	}

	// Globals come before builtins.
	if i, j := slices.Index(names, "total"), slices.Index(names, "print"); i > j {
		t.Errorf("candidateNames() = %v, want globals before builtins", names)
	}
}

func TestComputeMatches(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ctrl  bool
		want  []string
	}{
		{"builtins", "pri", false, []string{"print", "println"}},
		{"global", "let y = tota", false, []string{"total"}},
		{"empty_word", "total + ", false, nil},
		{"number", "12", false, nil},
		{"in_string", `"tot`, false, nil},
		{"ctrl", "re", true, []string{"reset"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel(t, "let total = 1;")
			if tt.ctrl {
				m, _ = m.toggleMode()
			}

			m.input.SetValue(tt.input)
			m.input.CursorEnd()

			m.matches, _, _, _ = m.computeMatches()

			got := matchNames(m)
			for _, want := range tt.want {
				if !slices.Contains(got, want) {
					t.Errorf("computeMatches(%q) = %v, want %q", tt.input, got, want)
				}
			}

			if tt.want == nil && len(got) != 0 {
				t.Errorf("computeMatches(%q) = %v, want none", tt.input, got)
			}
		})
	}
}

func TestIsFunction(t *testing.T) {
	m := testModel(t, "let n = 1; fn f() { 1 }")

	tests := []struct {
		name string
		want bool
	}{
		{"f", true},
		{"len", true},
		{"n", false},
		{"missing", false},
	}

	for _, tt := range tests {
		if got := m.isFunction(tt.name); got != tt.want {
			t.Errorf("isFunction(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFormatPreview(t *testing.T) {
	m := testModel(t, `
let s = "hi";
let mut count = 3;
fn add(a, mut b) { a + b }
let long = "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz";
`)

	tests := []struct {
		name string
		want string
	}{
		{"s", `"hi"`},
		{"count", "mut 3"},
		{"add", "fn(a, mut b)"},
		{"long", `"abcdefghijklmnopqrstuvwxyzabcdefghij...`},
		{"len", "<builtin len>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := m.session.Globals().Lookup(tt.name)
			if !ok {
				t.Fatalf("Lookup(%q) failed", tt.name)
			}

			if got := formatPreview(b); got != tt.want {
				t.Errorf("formatPreview(%s) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestRenderCandidateBar(t *testing.T) {
	m := testModel(t, "")
	m = typeText(m, "pri")

	if len(m.matches) == 0 {
		t.Fatal("no matches for \"pri\"")
	}

	if got := m.renderCandidateBar(m.matches, -1, false, 80); got == "" {
		t.Error("renderCandidateBar() = \"\", want candidates")
	}

	if got := m.renderCandidateBar(m.matches, -1, false, 0); got != "" {
		t.Errorf("renderCandidateBar(width 0) = %q, want \"\"", got)
	}
}
