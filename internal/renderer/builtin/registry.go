package builtin

import (
	"sort"

	"github.com/chromad/chromad/internal/compositor"
	"github.com/chromad/chromad/internal/renderer"
)

// Factory constructs a fresh renderer instance, given an input source for
// the renderers that declare a key-input dependency (nil otherwise).
type Factory func(source renderer.InputSource) compositor.Renderer

// registry is the closed, statically registered built-in renderer set, per
// the "dynamic loading" redesign guidance in spec §9: no plugin loading, a
// fixed table populated at init time.
var registry = map[string]Factory{
	"static":   func(renderer.InputSource) compositor.Renderer { return NewStatic() },
	"breathe":  func(renderer.InputSource) compositor.Renderer { return NewBreathe() },
	"wave":     func(renderer.InputSource) compositor.Renderer { return NewWave() },
	"plasma":   func(renderer.InputSource) compositor.Renderer { return NewPlasma() },
	"spectrum": func(renderer.InputSource) compositor.Renderer { return NewSpectrum() },
	"reactive": func(source renderer.InputSource) compositor.Renderer { return NewReactive(source) },
	"ripple":   func(source renderer.InputSource) compositor.Renderer { return NewRipple(source) },
}

// Names returns every registered renderer name in sorted order, for
// "list_available_renderers".
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New constructs a renderer instance by name.
func New(name string, source renderer.InputSource) (compositor.Renderer, bool) {
	factory, ok := registry[name]
	if !ok {
		return nil, false
	}
	return factory(source), true
}
