// Package builtin implements the closed built-in renderer registry from
// spec §4.9's [SUPPLEMENT]: static, breathe, wave, plasma, spectrum,
// reactive, and ripple, registered at init time per the "dynamic loading"
// redesign guidance in spec §9.
package builtin

import (
	"time"

	"github.com/chromad/chromad/internal/compositor"
	"github.com/chromad/chromad/internal/renderer"
)

// Static fills every cell with a single solid color. It exercises the base
// renderer contract with zero tunable traits beyond color.
type Static struct {
	renderer.Base
}

// NewStatic builds a Static renderer defaulting to white.
func NewStatic() *Static {
	r := &Static{Base: renderer.NewBase(renderer.Meta{
		Name:        "static",
		Description: "Single solid color fill",
		Author:      "chromad",
		Version:     "1.0.0",
	}, false)}
	r.Traits().Define("color", renderer.Spec{Kind: renderer.KindColor}, renderer.Color{R: 255, G: 255, B: 255})
	return r
}

func (r *Static) FPS() int { return 1 }

func (r *Static) Init(frame *compositor.Frame) bool { return true }

func (r *Static) Draw(layer *compositor.Layer, now time.Time) bool {
	c := r.Traits().Get("color").(renderer.Color)
	rgba := compositor.RGBA{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255, A: 1}
	for row := 0; row < layer.Rows; row++ {
		for col := 0; col < layer.Cols; col++ {
			layer.Put(row, col, rgba)
		}
	}
	return true
}

func (r *Static) Finish(frame *compositor.Frame) {}
