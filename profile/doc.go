// Package profile provides optional runtime profiling of the nova
// interpreter.
//
// Profiling is compiled in only with the "pprof" build tag, in which case
// [github.com/pkg/profile] backs every mode. Without the tag, [Modes] is
// empty and [Profiler.Start] returns a no-op [Stopper].
//
//	p := profile.Profiler{Mode: "cpu", Dir: "/tmp/nova"}
//	defer p.Start().Stop()
//
// Supported modes: allocs, block, clock, cpu, goroutine, heap, mem, mutex,
// thread, and trace. Profiles are written to Dir with names matching the
// mode (cpu.pprof, mem.pprof, ...) and can be inspected with
// "go tool pprof".
//
// The CLI exposes profiling through the --pprof-mode and --pprof-dir flags
// when built with the tag:
//
//	go build -tags pprof .
//	./nova --pprof-mode cpu fib.nova
package profile
