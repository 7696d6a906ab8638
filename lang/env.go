package lang

import (
	"iter"
	"log/slog"
)

// Binding is a name's storage slot in a [Scope].
type Binding struct {
	Value   Value
	Mutable bool
}

// Scope is one level of the lexical environment chain. Scopes are shared
// by reference: a closure keeps its defining scope, and every scope its
// parent, alive.
//
// Scopes are not safe for concurrent use.
type Scope struct {
	parent *Scope
	vars   map[string]*Binding
	order  []string
}

// NewScope returns an empty scope enclosed by parent, which may be nil.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[string]*Binding)}
}

// Child returns a new scope enclosed by s.
func (s *Scope) Child() *Scope { return NewScope(s) }

// Parent returns the enclosing scope, or nil for the outermost one.
func (s *Scope) Parent() *Scope { return s.parent }

// Define creates a binding in s. It fails with [DuplicateBinding] if s
// already binds name; bindings in enclosing scopes may be shadowed.
func (s *Scope) Define(name string, v Value, mutable bool) error {
	if _, ok := s.vars[name]; ok {
		return ErrDuplicateBinding.Detail("%s is already defined in this scope", name).
			With(slog.String("name", name))
	}

	s.vars[name] = &Binding{Value: v, Mutable: mutable}
	s.order = append(s.order, name)

	return nil
}

// Lookup returns the innermost binding of name visible from s.
func (s *Scope) Lookup(name string) (*Binding, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if b, ok := sc.vars[name]; ok {
			return b, true
		}
	}

	return nil, false
}

// Get returns the value bound to name, searching outward from s. It fails
// with [UnboundName] if no scope binds it.
func (s *Scope) Get(name string) (Value, error) {
	b, ok := s.Lookup(name)
	if !ok {
		return nil, ErrUnboundName.Detail("%s", name).With(slog.String("name", name))
	}

	return b.Value, nil
}

// Assign replaces the value of the innermost binding of name. It fails
// with [UnboundName] if there is none, or [ImmutableAssignment] if that
// binding was not declared mutable.
func (s *Scope) Assign(name string, v Value) error {
	b, ok := s.Lookup(name)
	if !ok {
		return ErrUnboundName.Detail("%s", name).With(slog.String("name", name))
	}

	if !b.Mutable {
		return ErrImmutableAssignment.
			Detail("%s is not declared mut", name).
			With(slog.String("name", name))
	}

	b.Value = v

	return nil
}

// Names returns the names defined directly in s, in definition order.
func (s *Scope) Names() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of bindings defined directly in s.
func (s *Scope) Len() int { return len(s.order) }

// All yields every binding visible from s, innermost first. Shadowed
// bindings are skipped.
func (s *Scope) All() iter.Seq2[string, *Binding] {
	return func(yield func(string, *Binding) bool) {
		seen := make(map[string]bool)

		for sc := s; sc != nil; sc = sc.parent {
			for _, name := range sc.order {
				if seen[name] {
					continue
				}

				seen[name] = true

				if !yield(name, sc.vars[name]) {
					return
				}
			}
		}
	}
}
