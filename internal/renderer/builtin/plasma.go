package builtin

import (
	"math"
	"time"

	"github.com/chromad/chromad/internal/compositor"
	"github.com/chromad/chromad/internal/renderer"
)

// Plasma is the classic sum-of-sines plasma field.
type Plasma struct {
	renderer.Base
	start time.Time
}

func NewPlasma() *Plasma {
	r := &Plasma{Base: renderer.NewBase(renderer.Meta{
		Name:        "plasma",
		Description: "Sum-of-sines plasma field",
		Author:      "chromad",
		Version:     "1.0.0",
	}, false)}
	r.Traits().Define("speed", renderer.Spec{Kind: renderer.KindBoundedFloat, Min: 0.1, Max: 5}, 1.0)
	r.Traits().Define("scale", renderer.Spec{Kind: renderer.KindBoundedFloat, Min: 0.1, Max: 10}, 1.0)
	return r
}

func (r *Plasma) FPS() int { return 30 }

func (r *Plasma) Init(frame *compositor.Frame) bool { r.start = time.Now(); return true }

func (r *Plasma) Draw(layer *compositor.Layer, now time.Time) bool {
	speed := r.Traits().Get("speed").(float64)
	scale := r.Traits().Get("scale").(float64)
	t := now.Sub(r.start).Seconds() * speed

	for row := 0; row < layer.Rows; row++ {
		for col := 0; col < layer.Cols; col++ {
			x, y := float64(col)*scale, float64(row)*scale
			v := math.Sin(x+t) + math.Sin(y*0.8-t) + math.Sin((x+y)*0.5+t*1.3) + math.Sin(math.Hypot(x, y)*0.6-t)
			v = v/4 + 0.5
			hue := math.Mod(v+t*0.1, 1)
			layer.Put(row, col, hsvToRGBA(hue, 1, 1))
		}
	}
	return true
}

func (r *Plasma) Finish(frame *compositor.Frame) {}

// hsvToRGBA converts an HSV color (h wrapped into [0,1), s and v in [0,1])
// to opaque RGBA.
func hsvToRGBA(h, s, v float64) compositor.RGBA {
	h = math.Mod(h, 1)
	if h < 0 {
		h += 1
	}
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)
	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	case 5:
		r, g, b = v, p, q
	}
	return compositor.RGBA{R: r, G: g, B: b, A: 1}
}
