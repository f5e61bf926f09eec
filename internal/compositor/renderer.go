package compositor

import (
	"time"

	"github.com/chromad/chromad/internal/renderer"
)

// Renderer is the C9 contract: an independent cooperative task that fills a
// Layer on each tick of its own clamped frame rate. The compositor owns
// instances through this interface only — never a concrete builtin type —
// so built-in renderers live in their own package without an import cycle
// back into the compositor.
type Renderer interface {
	Meta() renderer.Meta
	Traits() *renderer.Set
	NeedsKeyInput() bool

	// Init prepares internal state from the frame's dimensions; false
	// aborts activation and the renderer is not added.
	Init(frame *Frame) bool
	// Draw produces one frame into layer; true submits it to active_q,
	// false returns the buffer to avail_q unused.
	Draw(layer *Layer, now time.Time) bool
	// Finish releases resources; always called, including on error paths.
	Finish(frame *Frame)

	// FPS returns the renderer's desired frame rate, clamped by the
	// compositor to [1, 30] per spec §4.9.
	FPS() int
}
