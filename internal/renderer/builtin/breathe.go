package builtin

import (
	"math"
	"time"

	"github.com/chromad/chromad/internal/compositor"
	"github.com/chromad/chromad/internal/renderer"
)

// Breathe pulses brightness between a list of colors on a sine ease.
type Breathe struct {
	renderer.Base
	start time.Time
}

func NewBreathe() *Breathe {
	r := &Breathe{Base: renderer.NewBase(renderer.Meta{
		Name:        "breathe",
		Description: "Sine-eased brightness pulse between colors",
		Author:      "chromad",
		Version:     "1.0.0",
	}, false)}
	r.Traits().Define("speed", renderer.Spec{Kind: renderer.KindBoundedFloat, Min: 0.1, Max: 5}, 1.0)
	r.Traits().Define("colors", renderer.Spec{Kind: renderer.KindColorList, MinColors: 1},
		[]renderer.Color{{R: 255, G: 0, B: 0}, {R: 0, G: 0, B: 255}})
	return r
}

func (r *Breathe) FPS() int { return 30 }

func (r *Breathe) Init(frame *compositor.Frame) bool {
	r.start = time.Now()
	return true
}

func (r *Breathe) Draw(layer *compositor.Layer, now time.Time) bool {
	speed := r.Traits().Get("speed").(float64)
	colors := r.Traits().Get("colors").([]renderer.Color)

	elapsed := now.Sub(r.start).Seconds() * speed
	phase := math.Mod(elapsed, float64(len(colors)))
	idx := int(phase)
	next := (idx + 1) % len(colors)
	frac := phase - float64(idx)

	ease := (1 - math.Cos(frac*math.Pi)) / 2
	a, b := colors[idx], colors[next]
	mix := func(x, y uint8) float64 {
		return (float64(x)*(1-ease) + float64(y)*ease) / 255
	}
	rgba := compositor.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 1}

	for row := 0; row < layer.Rows; row++ {
		for col := 0; col < layer.Cols; col++ {
			layer.Put(row, col, rgba)
		}
	}
	return true
}

func (r *Breathe) Finish(frame *compositor.Frame) {}
