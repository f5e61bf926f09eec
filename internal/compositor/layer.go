package compositor

import "math"

// Surface is a rectangular grid of linear RGBA pixels.
type Surface struct {
	Rows, Cols int
	pixels     []RGBA
}

// NewSurface allocates a cleared rows x cols surface.
func NewSurface(rows, cols int) *Surface {
	return &Surface{Rows: rows, Cols: cols, pixels: make([]RGBA, rows*cols)}
}

func (s *Surface) index(row, col int) (int, bool) {
	if row < 0 || row >= s.Rows || col < 0 || col >= s.Cols {
		return 0, false
	}
	return row*s.Cols + col, true
}

// Put sets the pixel at (row, col); out-of-bounds writes are silently
// dropped, matching a drawing-primitive surface rather than a strict API.
func (s *Surface) Put(row, col int, c RGBA) {
	if i, ok := s.index(row, col); ok {
		s.pixels[i] = c
	}
}

// Get returns the pixel at (row, col), or the zero value if out of bounds.
func (s *Surface) Get(row, col int) RGBA {
	if i, ok := s.index(row, col); ok {
		return s.pixels[i]
	}
	return RGBA{}
}

// PutAll overwrites every pixel from a row-major matrix sized exactly
// Rows x Cols.
func (s *Surface) PutAll(matrix [][]RGBA) {
	for r := 0; r < s.Rows && r < len(matrix); r++ {
		row := matrix[r]
		for c := 0; c < s.Cols && c < len(row); c++ {
			s.pixels[r*s.Cols+c] = row[c]
		}
	}
}

// Clear resets every pixel to transparent black.
func (s *Surface) Clear() {
	for i := range s.pixels {
		s.pixels[i] = RGBA{}
	}
}

// Line draws an anti-aliased Wu-style line from (r1,c1) to (r2,c2).
func (s *Surface) Line(r1, c1, r2, c2 int, color RGBA, alpha float64) {
	x0, y0, x1, y1 := float64(c1), float64(r1), float64(c2), float64(r2)
	steep := math.Abs(y1-y0) > math.Abs(x1-x0)
	if steep {
		x0, y0 = y0, x0
		x1, y1 = y1, x1
	}
	if x0 > x1 {
		x0, x1 = x1, x0
		y0, y1 = y1, y0
	}
	dx := x1 - x0
	dy := y1 - y0
	gradient := 1.0
	if dx != 0 {
		gradient = dy / dx
	}

	plot := func(x, y int, cover float64) {
		a := alpha * cover
		if a <= 0 {
			return
		}
		px, py := x, y
		if steep {
			px, py = y, x
		}
		bg := s.Get(py, px)
		s.Put(py, px, Blend(bg, RGBA{color.R, color.G, color.B, color.A}, BlendNormal, a))
	}

	y := y0
	for x := int(math.Round(x0)); x <= int(math.Round(x1)); x++ {
		yFloor := math.Floor(y)
		frac := y - yFloor
		plot(x, int(yFloor), 1-frac)
		plot(x, int(yFloor)+1, frac)
		y += gradient
	}
}

// Circle draws a midpoint-circle outline, or a scan-converted filled disc
// when fill is true, with an anti-aliased edge.
func (s *Surface) Circle(r, c, radius int, color RGBA, fill bool, alpha float64) {
	rad := float64(radius)
	for dr := -radius - 1; dr <= radius+1; dr++ {
		for dc := -radius - 1; dc <= radius+1; dc++ {
			dist := math.Hypot(float64(dr), float64(dc))
			var cover float64
			if fill {
				if dist <= rad-0.5 {
					cover = 1
				} else if dist <= rad+0.5 {
					cover = rad + 0.5 - dist
				}
			} else {
				edge := math.Abs(dist - rad)
				if edge <= 0.5 {
					cover = 1 - edge
				}
			}
			if cover <= 0 {
				continue
			}
			row, col := r+dr, c+dc
			bg := s.Get(row, col)
			s.Put(row, col, Blend(bg, RGBA{color.R, color.G, color.B, color.A}, BlendNormal, alpha*cover))
		}
	}
}

// Ellipse draws a parametric ellipse outline, or filled when fill is true,
// with an anti-aliased edge.
func (s *Surface) Ellipse(r, c, rr, rc int, color RGBA, fill bool, alpha float64) {
	if rr <= 0 || rc <= 0 {
		return
	}
	a, b := float64(rr), float64(rc)
	for dr := -rr - 1; dr <= rr+1; dr++ {
		for dc := -rc - 1; dc <= rc+1; dc++ {
			norm := math.Hypot(float64(dr)/a, float64(dc)/b)
			var cover float64
			if fill {
				if norm <= 1 {
					cover = 1
				}
			} else {
				edge := math.Abs(norm - 1)
				if edge <= 0.08 {
					cover = 1 - edge/0.08
				}
			}
			if cover <= 0 {
				continue
			}
			row, col := r+dr, c+dc
			bg := s.Get(row, col)
			s.Put(row, col, Blend(bg, RGBA{color.R, color.G, color.B, color.A}, BlendNormal, alpha*cover))
		}
	}
}

// Layer is a renderer-owned drawable surface handed to the compositor while
// locked, returned to the renderer after composition, per spec §3.
type Layer struct {
	*Surface
	BlendMode  BlendMode
	Opacity    float64
	Background RGBA
	Locked     bool
}

// NewLayer allocates a layer sized to (rows, cols) with the default blend
// mode and full opacity.
func NewLayer(rows, cols int) *Layer {
	return &Layer{
		Surface:   NewSurface(rows, cols),
		BlendMode: DefaultBlendMode,
		Opacity:   1,
	}
}

// Reset clears the layer and reapplies its composition parameters ahead of
// the next draw call, per the renderer execution loop in spec §4.9.
func (l *Layer) Reset(background RGBA, blend BlendMode, opacity float64) {
	l.Clear()
	l.Background = background
	l.BlendMode = blend
	l.Opacity = opacity
}
