package repl

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/nova/lang"
	"github.com/ardnew/nova/lang/token"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "edit", "reset", "clear", "quit"}

// isWordBoundary reports whether r ends an identifier for completion
// purposes: anything that is not a letter, digit, or underscore.
func isWordBoundary(r rune) bool {
	return r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// wordBounds returns the identifier around the cursor and its byte
// boundaries within input. The word is empty when the cursor sits on a
// boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// inString reports whether offset lies inside a string literal, counting
// unescaped quotes before it.
func inString(input string, offset int) bool {
	open := false

	for i := 0; i < offset && i < len(input); i++ {
		switch input[i] {
		case '\\':
			if open {
				i++
			}
		case '"':
			open = !open
		}
	}

	return open
}

// candidateNames returns every name that completes an identifier in eval
// mode: bindings visible from scope, innermost first, then keywords.
func candidateNames(scope *lang.Scope) []string {
	var names []string

	for name := range scope.All() {
		names = append(names, name)
	}

	for _, kw := range token.Keywords() {
		if !slices.Contains(names, kw) {
			names = append(names, kw)
		}
	}

	return names
}

// computeMatches calculates the fuzzy matches for the word at the cursor,
// ranked best first, together with the candidate list and the word
// boundaries. An empty word yields no matches.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	word, wordStart, wordEnd := wordBounds(input, cursor)
	if word == "" {
		return nil, nil, wordStart, wordEnd
	}

	if m.mode == modeCtrl {
		candidates = ctrlCommands
	} else {
		// Digits start numbers, not names.
		if r, _ := utf8.DecodeRuneInString(word); unicode.IsDigit(r) || inString(input, wordStart) {
			return nil, nil, wordStart, wordEnd
		}

		candidates = candidateNames(m.session.Globals())
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. The selected candidate (when tabbing) uses
// the selected style.
func (m model) renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := m.renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if i > 0 && used+entryWidth+ellipsisWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Functions are displayed with a "()" suffix.
func (m model) renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	if m.mode == modeEval && m.isFunction(match.Str) {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}

// isFunction reports whether name is bound to a function.
func (m model) isFunction(name string) bool {
	b, ok := m.session.Globals().Lookup(name)

	return ok && b.Value != nil && b.Value.Type() == lang.TypeFunction
}

// previewLimit bounds the rendered width of a value preview.
const previewLimit = 40

// formatPreview renders a short description of a binding for the list
// command.
func formatPreview(b *lang.Binding) string {
	var s string

	switch v := b.Value.(type) {
	case *lang.Closure:
		s = "fn(" + strings.Join(v.Params(), ", ") + ")"
	case nil:
		s = "()"
	default:
		s = lang.Repr(v)
	}

	if utf8.RuneCountInString(s) > previewLimit {
		s = string([]rune(s)[:previewLimit-3]) + "..."
	}

	if b.Mutable {
		s = "mut " + s
	}

	return s
}
