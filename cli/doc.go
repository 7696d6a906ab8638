// Package cli contains the command line interface for nova.
//
// # Usage
//
//	nova [flags] [run] <file>        run a program, or '-' for stdin
//	nova eval <program>              run program text given as an argument
//	nova repl [files...]             start an interactive session
//	nova fmt [json|yaml|cbor|ast|tokens] <file>
//	nova init [--force]              write the current flags to the config file
//
// Files named with --source are evaluated, in order, in the same session
// before the program, so they can provide shared functions.
//
// # Configuration
//
// Flag defaults are read from the user configuration directory, trying
// config.json, config.toml, and finally config, which is a Nova program:
//
//	let log_level = "debug";
//	let max_steps = 1_000 * 1_000;
//
// Each top-level binding sets the flag of the same name with underscores in
// place of hyphens. Command-line flags take precedence. See [resolve].
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// # Evaluation Limits
//
//   - --max-depth: Maximum depth of nested function calls
//   - --max-steps: Maximum evaluation steps per program
//   - --max-nesting: Maximum syntactic nesting depth
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o nova .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/nova/pprof)
package cli
