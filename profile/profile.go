package profile

// Tag is the build tag that enables profiling. It also names the default
// subdirectory for profile output.
const Tag = "pprof"

// Stopper stops a running profiler and flushes its output.
type Stopper interface{ Stop() }

// Profiler describes a profiling session.
type Profiler struct {
	// Mode selects what is profiled. An empty Mode disables profiling.
	Mode string
	// Dir is the output directory. Empty uses the current directory.
	Dir string
	// Quiet suppresses the profiler's own start and stop messages.
	Quiet bool
}

// Start begins profiling and returns a [Stopper] that must be called to
// flush the profile. Start and Stop are always safe to call; if profiling
// is not compiled in or Mode is empty or unknown, both are no-ops.
func (p Profiler) Start() Stopper {
	if p.Mode == "" || !Supported(p.Mode) {
		return ignore{}
	}

	return start(p)
}

// Supported reports whether mode names a profiling mode available in this
// build.
func Supported(mode string) bool {
	for _, m := range Modes() {
		if m == mode {
			return true
		}
	}

	return false
}

type ignore struct{}

func (ignore) Stop() {}
