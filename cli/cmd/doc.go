// Package cmd implements the nova subcommands: run, eval, fmt, init, and
// repl.
//
// Commands receive the [context.Context] of the invocation and the
// evaluation [Limits] through kong bindings. Program failures are written to
// stderr as diagnostics with a source snippet, and the command returns an
// error matching [ErrProgram].
package cmd

const (
	// CacheIdentifier is the kong variable holding the path to the cache
	// directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable holding the path to the Nova
	// configuration file.
	ConfigIdentifier = "config"
)
