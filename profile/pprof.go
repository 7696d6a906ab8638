//go:build pprof

package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"
)

// Enabled reports whether profiling is compiled in.
const Enabled = true

// Modes returns the sorted list of supported profiling modes.
var Modes = sync.OnceValue(func() []string {
	return slices.Sorted(maps.Keys(mode))
})

var mode = map[string]func(*profile.Profile){
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"clock":     profile.ClockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"heap":      profile.MemProfileHeap,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

func start(p Profiler) Stopper {
	opts := []func(*profile.Profile){
		mode[p.Mode],
		// The CLI owns signal handling.
		profile.NoShutdownHook,
	}

	if p.Dir != "" {
		opts = append(opts, profile.ProfilePath(p.Dir))
	}

	if p.Quiet {
		opts = append(opts, profile.Quiet)
	}

	return profile.Start(opts...)
}
