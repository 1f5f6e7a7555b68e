package overlay

// Fragment is a named fragment shader source reserved for per-tool effects.
// Fragments are stored but not compiled.
type Fragment struct {
	Name   string
	Source string
}
