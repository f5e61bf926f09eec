package builtin

import (
	"math"
	"time"

	"github.com/chromad/chromad/internal/compositor"
	"github.com/chromad/chromad/internal/renderer"
)

var wavePresets = map[string][]renderer.Color{
	"rainbow": {
		{R: 255, G: 0, B: 0}, {R: 255, G: 255, B: 0}, {R: 0, G: 255, B: 0},
		{R: 0, G: 255, B: 255}, {R: 0, G: 0, B: 255}, {R: 255, G: 0, B: 255},
	},
	"fire": {{R: 255, G: 0, B: 0}, {R: 255, G: 128, B: 0}, {R: 255, G: 220, B: 0}},
	"ocean": {{R: 0, G: 40, B: 120}, {R: 0, G: 120, B: 200}, {R: 0, G: 220, B: 220}},
}

// Wave travels a hue gradient across the matrix's columns.
type Wave struct {
	renderer.Base
	start time.Time
}

func NewWave() *Wave {
	r := &Wave{Base: renderer.NewBase(renderer.Meta{
		Name:        "wave",
		Description: "Travelling color wave across columns",
		Author:      "chromad",
		Version:     "1.0.0",
	}, false)}
	r.Traits().Define("speed", renderer.Spec{Kind: renderer.KindBoundedFloat, Min: 0.1, Max: 5}, 1.0)
	r.Traits().Define("gradient", renderer.Spec{Kind: renderer.KindPreset, Choices: []string{"rainbow", "fire", "ocean"}, Presets: wavePresets}, "rainbow")
	return r
}

func (r *Wave) FPS() int { return 30 }

func (r *Wave) Init(frame *compositor.Frame) bool { r.start = time.Now(); return true }

func gradientColor(colors []renderer.Color, t float64) compositor.RGBA {
	t = math.Mod(t, 1)
	if t < 0 {
		t += 1
	}
	n := len(colors)
	scaled := t * float64(n)
	idx := int(scaled) % n
	next := (idx + 1) % n
	frac := scaled - math.Floor(scaled)
	a, b := colors[idx], colors[next]
	mix := func(x, y uint8) float64 {
		return (float64(x)*(1-frac) + float64(y)*frac) / 255
	}
	return compositor.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 1}
}

func (r *Wave) Draw(layer *compositor.Layer, now time.Time) bool {
	speed := r.Traits().Get("speed").(float64)
	preset := r.Traits().Get("gradient").(string)
	colors := wavePresets[preset]

	elapsed := now.Sub(r.start).Seconds() * speed
	cols := layer.Cols
	if cols == 0 {
		cols = 1
	}
	for col := 0; col < layer.Cols; col++ {
		t := elapsed*0.3 + float64(col)/float64(cols)
		color := gradientColor(colors, t)
		for row := 0; row < layer.Rows; row++ {
			layer.Put(row, col, color)
		}
	}
	return true
}

func (r *Wave) Finish(frame *compositor.Frame) {}
