// Package log provides a concurrency-safe leveled logger built on
// [log/slog].
//
// A [Logger] is an immutable value. Settings are applied at creation time
// with functional options, and [Logger.Wrap] derives a reconfigured copy:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("RFC3339Nano"))
//
// The zero Logger discards everything. Library code such as the lang
// package holds a Logger field and logs unconditionally.
//
// # Levels
//
// In addition to slog's four levels the package defines [LevelTrace] for
// per-node interpreter tracing. [Level] and [Format] implement
// [encoding.TextUnmarshaler], so they can be used directly as CLI flags or
// configuration values.
//
// # Package logger
//
// The package-level functions ([Info], [DebugContext], ...) write through a
// default logger that the CLI reconfigures with [Config]. Context-unaware
// variants use [DefaultContextProvider], which returns [context.TODO].
//
// # Pretty output
//
// When [WithPretty] is enabled, records are styled with lipgloss. Styling
// is dropped automatically if the output is not a terminal.
package log
