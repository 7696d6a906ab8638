package lang

import (
	"context"
	"log/slog"
)

// Run parses and evaluates source in a fresh session and returns the value
// of the program: its tail expression, the operand of a top-level return,
// or unit.
//
// Every failure is an [*Error]; pass it to [Diagnose] for a [Diagnostic].
// Run never writes to any output except through the print builtins.
func Run(ctx context.Context, source string, opts ...Option) (Value, error) {
	return NewSession(opts...).Run(ctx, source)
}

// Session evaluates successive programs against one persistent global
// scope, as an interactive front end does.
//
// A Session is not safe for concurrent use.
type Session struct {
	cfg     config
	prelude *Scope
	globals *Scope
	runs    int
}

// NewSession returns a Session with empty globals.
func NewSession(opts ...Option) *Session {
	s := &Session{cfg: makeConfig(opts...)}
	s.Reset()

	return s
}

// Reset discards every global binding.
func (s *Session) Reset() {
	s.prelude = newPrelude(s.cfg.builtins)
	s.globals = s.prelude.Child()
}

// Globals returns the scope holding top-level bindings. Its parent holds
// the builtins.
func (s *Session) Globals() *Scope { return s.globals }

// Run parses and evaluates source in the session's global scope.
// Bindings made before a failure are kept.
func (s *Session) Run(ctx context.Context, source string) (Value, error) {
	s.runs++

	logger := s.cfg.logger.With(slog.Int("run", s.runs))
	logger.TraceContext(ctx, "run", slog.Int("bytes", len(source)))

	cfg := s.cfg
	cfg.logger = logger

	prog, err := parse(ctx, source, &cfg)
	if err != nil {
		return nil, err
	}

	return evaluate(ctx, prog, s.globals, &cfg)
}

// Eval evaluates an already parsed program in the session's global scope.
func (s *Session) Eval(ctx context.Context, prog *Program) (Value, error) {
	return evaluate(ctx, prog, s.globals, &s.cfg)
}
