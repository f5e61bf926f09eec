package builtin

import (
	"context"
	"time"

	"github.com/chromad/chromad/internal/compositor"
	"github.com/chromad/chromad/internal/input"
	"github.com/chromad/chromad/internal/renderer"
)

// Reactive flashes a color at each struck key's matrix coordinates, fading
// out over a configurable lifetime. It declares the key-input dependency
// from spec §4.9.
type Reactive struct {
	renderer.Base
	source  renderer.InputSource
	flashes map[[2]int]time.Time
}

// NewReactive builds a Reactive renderer reading from source.
func NewReactive(source renderer.InputSource) *Reactive {
	r := &Reactive{
		Base:    renderer.NewBase(renderer.Meta{Name: "reactive", Description: "Per-key flash on keypress", Author: "chromad", Version: "1.0.0"}, true),
		source:  source,
		flashes: make(map[[2]int]time.Time),
	}
	r.Traits().Define("color", renderer.Spec{Kind: renderer.KindColor}, renderer.Color{R: 0, G: 200, B: 255})
	r.Traits().Define("lifetime_ms", renderer.Spec{Kind: renderer.KindBoundedInt, Min: 50, Max: 5000}, 400)
	return r
}

func (r *Reactive) FPS() int { return 30 }

func (r *Reactive) Init(frame *compositor.Frame) bool { return true }

func (r *Reactive) Draw(layer *compositor.Layer, now time.Time) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	events, err := r.source.PopEvents(ctx)
	if err == nil {
		for _, ev := range events {
			if ev.State != input.KeyDown {
				continue
			}
			for _, pt := range ev.Coords {
				r.flashes[[2]int{pt.Row, pt.Col}] = now
			}
		}
	}

	lifetime := time.Duration(r.Traits().Get("lifetime_ms").(int)) * time.Millisecond
	c := r.Traits().Get("color").(renderer.Color)
	base := compositor.RGBA{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}

	for key, at := range r.flashes {
		age := now.Sub(at)
		if age > lifetime {
			delete(r.flashes, key)
			continue
		}
		fade := 1 - float64(age)/float64(lifetime)
		layer.Put(key[0], key[1], compositor.RGBA{R: base.R, G: base.G, B: base.B, A: fade})
	}
	return true
}

func (r *Reactive) Finish(frame *compositor.Frame) {}
