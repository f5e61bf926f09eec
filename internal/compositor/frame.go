package compositor

import (
	"github.com/chromad/chromad/internal/descriptor"
)

// driver is the subset of a device driver the Frame buffer needs to commit a
// composited result to hardware (satisfied by *device.Device).
type driver interface {
	CommitMatrix(rows [][]byte) error
}

// Frame is the C7 frame buffer: the per-device canvas every locked renderer
// layer is alpha-blended into, in z-order, before being pushed to hardware.
type Frame struct {
	Rows, Cols int
	surface    *Surface
	drv        driver
}

// NewFrame allocates a frame sized to the descriptor's LED matrix.
func NewFrame(d *descriptor.Descriptor, drv driver) *Frame {
	rows, cols := 1, 1
	if d.Dimensions != nil {
		rows, cols = d.Dimensions.Rows, d.Dimensions.Cols
	}
	return &Frame{Rows: rows, Cols: cols, surface: NewSurface(rows, cols), drv: drv}
}

// Clear resets the frame to transparent black ahead of a composition pass.
func (f *Frame) Clear() {
	f.surface.Clear()
}

// Blit composites layer onto the frame using the layer's own blend mode and
// opacity, per spec §4.7.
func (f *Frame) Blit(layer *Layer) {
	for r := 0; r < f.Rows; r++ {
		for c := 0; c < f.Cols; c++ {
			bg := f.surface.Get(r, c)
			fg := layer.Get(r, c)
			f.surface.Put(r, c, Blend(bg, fg, layer.BlendMode, layer.Opacity))
		}
	}
}

// Bytes converts the frame to the row-major [R,G,B] byte rows CommitMatrix
// expects, applying gamut-clamp + premultiply-alpha + round-to-nearest.
func (f *Frame) Bytes() [][]byte {
	rows := make([][]byte, f.Rows)
	for r := 0; r < f.Rows; r++ {
		row := make([]byte, 0, f.Cols*3)
		for c := 0; c < f.Cols; c++ {
			px := f.surface.Get(r, c)
			row = append(row,
				ToByte(px.R*px.A),
				ToByte(px.G*px.A),
				ToByte(px.B*px.A),
			)
		}
		rows[r] = row
	}
	return rows
}

// Commit pushes the composited frame to the device driver.
func (f *Frame) Commit() error {
	return f.drv.CommitMatrix(f.Bytes())
}

// Snapshot returns a row-major copy of the frame's current composited
// pixels, for "get_current_frame".
func (f *Frame) Snapshot() [][]RGBA {
	rows := make([][]RGBA, f.Rows)
	for r := 0; r < f.Rows; r++ {
		row := make([]RGBA, f.Cols)
		for c := 0; c < f.Cols; c++ {
			row[c] = f.surface.Get(r, c)
		}
		rows[r] = row
	}
	return rows
}
