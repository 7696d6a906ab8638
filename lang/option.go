package lang

import (
	"io"

	"github.com/ardnew/nova/log"
)

const (
	// DefaultMaxDepth bounds nested function calls during evaluation.
	DefaultMaxDepth = 10000
	// DefaultMaxNesting bounds syntactic nesting during parsing.
	DefaultMaxNesting = 1000
	// DefaultMaxSteps is zero, meaning evaluation steps are not limited.
	DefaultMaxSteps = 0
)

// maxEvalNesting bounds the nesting of expressions under evaluation,
// counted across function calls. It holds regardless of [WithMaxDepth] and
// keeps the host goroutine well inside its stack limit.
const maxEvalNesting = 100_000

// cancelCheckInterval is how many evaluation steps pass between checks of
// the context.
const cancelCheckInterval = 1024

// Option configures parsing and evaluation.
type Option func(*config)

type config struct {
	maxDepth   int
	maxSteps   int
	maxNesting int
	output     io.Writer
	logger     log.Logger
	builtins   []*Builtin
}

func makeConfig(opts ...Option) config {
	cfg := config{
		maxDepth:   DefaultMaxDepth,
		maxSteps:   DefaultMaxSteps,
		maxNesting: DefaultMaxNesting,
		output:     io.Discard,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// WithMaxDepth bounds the depth of nested function calls. Exceeding it
// fails with [RecursionLimit]. Zero or negative disables the call limit,
// but expression nesting stays bounded.
func WithMaxDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

// WithMaxSteps bounds the number of nodes evaluated by one run. Exceeding
// it fails with [StepLimit]. Zero or negative means unlimited.
func WithMaxSteps(n int) Option {
	return func(c *config) { c.maxSteps = n }
}

// WithMaxNesting bounds syntactic nesting accepted by the parser. Exceeding
// it fails with [NestingTooDeep]. Zero or negative disables the limit.
func WithMaxNesting(n int) Option {
	return func(c *config) { c.maxNesting = n }
}

// WithOutput sets the writer used by the print builtins. The default
// discards output.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w == nil {
			w = io.Discard
		}

		c.output = w
	}
}

// WithLogger sets the logger for trace-level diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithBuiltins adds host functions to the prelude, replacing standard
// builtins of the same name.
func WithBuiltins(builtins ...*Builtin) Option {
	return func(c *config) { c.builtins = append(c.builtins, builtins...) }
}
