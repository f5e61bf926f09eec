package builtin

import (
	"context"
	"math"
	"time"

	"github.com/chromad/chromad/internal/compositor"
	"github.com/chromad/chromad/internal/input"
	"github.com/chromad/chromad/internal/renderer"
)

// ripple is one expanding ring of light originating from a keypress.
type ripple struct {
	row, col  int
	startedAt time.Time
}

// Ripple expands rings of color from each keypress location. It is
// key-input dependent, and is the renderer named in the ripple end-to-end
// scenario.
type Ripple struct {
	renderer.Base
	source  renderer.InputSource
	ripples []ripple
}

// NewRipple builds a Ripple renderer reading from source.
func NewRipple(source renderer.InputSource) *Ripple {
	r := &Ripple{
		Base:   renderer.NewBase(renderer.Meta{Name: "ripple", Description: "Expanding rings from each keypress", Author: "chromad", Version: "1.0.0"}, true),
		source: source,
	}
	r.Traits().Define("color", renderer.Spec{Kind: renderer.KindColor}, renderer.Color{R: 255, G: 255, B: 255})
	r.Traits().Define("speed", renderer.Spec{Kind: renderer.KindBoundedFloat, Min: 1, Max: 30}, 8.0)
	r.Traits().Define("lifetime_ms", renderer.Spec{Kind: renderer.KindBoundedInt, Min: 100, Max: 5000}, 800)
	return r
}

func (r *Ripple) FPS() int { return 30 }

func (r *Ripple) Init(frame *compositor.Frame) bool { return true }

func (r *Ripple) Draw(layer *compositor.Layer, now time.Time) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	events, err := r.source.PopEvents(ctx)
	if err == nil {
		for _, ev := range events {
			if ev.State != input.KeyDown {
				continue
			}
			for _, pt := range ev.Coords {
				r.ripples = append(r.ripples, ripple{row: pt.Row, col: pt.Col, startedAt: now})
			}
		}
	}

	lifetime := time.Duration(r.Traits().Get("lifetime_ms").(int)) * time.Millisecond
	speed := r.Traits().Get("speed").(float64)
	c := r.Traits().Get("color").(renderer.Color)
	base := compositor.RGBA{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}

	live := r.ripples[:0]
	for _, rp := range r.ripples {
		age := now.Sub(rp.startedAt)
		if age > lifetime {
			continue
		}
		live = append(live, rp)

		radius := age.Seconds() * speed
		fade := 1 - age.Seconds()/lifetime.Seconds()
		for row := 0; row < layer.Rows; row++ {
			for col := 0; col < layer.Cols; col++ {
				dist := math.Hypot(float64(row-rp.row), float64(col-rp.col))
				edge := math.Abs(dist - radius)
				if edge > 1 {
					continue
				}
				alpha := (1 - edge) * fade
				bg := layer.Get(row, col)
				layer.Put(row, col, compositor.Blend(bg, compositor.RGBA{R: base.R, G: base.G, B: base.B, A: 1}, compositor.BlendNormal, alpha))
			}
		}
	}
	r.ripples = live
	return true
}

func (r *Ripple) Finish(frame *compositor.Frame) {}
