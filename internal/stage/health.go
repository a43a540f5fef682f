package stage

// Health reports whether a pipeline stage can do useful work right
// now: provider credentials present, required binaries on PATH,
// directories writable. The workflow manager collects one record per
// registered stage for the status surface.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy marks the named stage ready.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy marks the named stage not ready, with a short reason an
// operator can act on.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
