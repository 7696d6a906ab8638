package repl

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/nova/lang"
)

// builtinParams names the parameters of the standard builtins, which carry
// only an arity. A leading "..." marks a variadic parameter.
var builtinParams = map[string][]string{
	"print":   {"...values"},
	"println": {"...values"},
	"len":     {"s"},
	"str":     {"v"},
	"type":    {"v"},
	"int":     {"v"},
	"float":   {"v"},
}

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall describes the call whose argument list holds the cursor.
type functionCall struct {
	name     string
	argIndex int  // 0-based
	inCall   bool // false if the cursor is not inside an argument list
}

// detectFunctionCall finds the innermost unclosed "name(" before cursor and
// counts the top-level commas between it and the cursor.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))

	depth := 0
	open := -1

scan:
	for i := cursor - 1; i >= 0; i-- {
		switch input[i] {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i

				break scan
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	name, _, _ := wordBounds(input, open)
	if r, _ := utf8.DecodeRuneInString(name); name == "" || unicode.IsDigit(r) {
		return functionCall{}
	}

	argIndex := 0
	depth = 0

	for i := open + 1; i < cursor; i++ {
		switch input[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				argIndex++
			}
		}
	}

	return functionCall{name: name, argIndex: argIndex, inCall: true}
}

// signature returns the parameter names of the function bound to name in
// scope, or ok == false if name is not bound to a function.
func signature(scope *lang.Scope, name string) (params []string, ok bool) {
	b, found := scope.Lookup(name)
	if !found {
		return nil, false
	}

	switch fn := b.Value.(type) {
	case *lang.Closure:
		return fn.Params(), true

	case *lang.Builtin:
		if params, ok := builtinParams[fn.Name()]; ok {
			return params, true
		}

		if fn.Arity() < 0 {
			return []string{"...args"}, true
		}

		params := make([]string, fn.Arity())
		for i := range params {
			params[i] = "arg" + strconv.Itoa(i+1)
		}

		return params, true
	}

	return nil, false
}

// renderSignatureHint renders name(params) with the parameter at argIndex
// highlighted. A variadic parameter stays highlighted for every later
// argument.
func renderSignatureHint(name string, params []string, argIndex int) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(", "))
		}

		variadic := strings.HasPrefix(param, "...")
		if argIndex == i || (variadic && argIndex > i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}
