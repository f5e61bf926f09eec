package builtin

import (
	"time"

	"github.com/chromad/chromad/internal/compositor"
	"github.com/chromad/chromad/internal/renderer"
)

// Spectrum cycles the entire matrix through the full hue wheel.
type Spectrum struct {
	renderer.Base
	start time.Time
}

func NewSpectrum() *Spectrum {
	r := &Spectrum{Base: renderer.NewBase(renderer.Meta{
		Name:        "spectrum",
		Description: "Full-spectrum hue cycle",
		Author:      "chromad",
		Version:     "1.0.0",
	}, false)}
	r.Traits().Define("speed", renderer.Spec{Kind: renderer.KindBoundedFloat, Min: 0.1, Max: 5}, 1.0)
	return r
}

func (r *Spectrum) FPS() int { return 30 }

func (r *Spectrum) Init(frame *compositor.Frame) bool { r.start = time.Now(); return true }

func (r *Spectrum) Draw(layer *compositor.Layer, now time.Time) bool {
	speed := r.Traits().Get("speed").(float64)
	hue := now.Sub(r.start).Seconds() * speed * 0.15
	color := hsvToRGBA(hue, 1, 1)
	for row := 0; row < layer.Rows; row++ {
		for col := 0; col < layer.Cols; col++ {
			layer.Put(row, col, color)
		}
	}
	return true
}

func (r *Spectrum) Finish(frame *compositor.Frame) {}
