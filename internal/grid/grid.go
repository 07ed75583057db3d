// Package grid provides a bounds-checked 2-D view over a flat slice of
// 16-bit samples, with support for cropped sub-views sharing the same
// backing storage.
package grid

import (
	"errors"
	"fmt"
)

// ErrBounds is returned when a requested view does not fit its parent.
var ErrBounds = errors.New("grid: view out of bounds")

// Grid2D is a non-owning width x height view into a flat uint16 slice
// with a row pitch that may exceed the width.
type Grid2D struct {
	data   []uint16
	width  int
	height int
	pitch  int
}

// New creates a view of data with the given geometry.
func New(data []uint16, width, height, pitch int) (Grid2D, error) {
	if width < 0 || height < 0 || pitch < width {
		return Grid2D{}, fmt.Errorf("%w: %dx%d pitch %d", ErrBounds, width, height, pitch)
	}
	if height > 0 && (height-1)*pitch+width > len(data) {
		return Grid2D{}, fmt.Errorf("%w: %dx%d pitch %d over %d samples",
			ErrBounds, width, height, pitch, len(data))
	}
	return Grid2D{data: data, width: width, height: height, pitch: pitch}, nil
}

// Width returns the view width in samples.
func (g Grid2D) Width() int { return g.width }

// Height returns the view height in rows.
func (g Grid2D) Height() int { return g.height }

// Pitch returns the row stride in samples.
func (g Grid2D) Pitch() int { return g.pitch }

// Row returns row y of the view as a slice of exactly Width samples.
func (g Grid2D) Row(y int) []uint16 {
	off := y * g.pitch
	return g.data[off : off+g.width : off+g.width]
}

// At returns the sample at (row y, column x).
func (g Grid2D) At(y, x int) uint16 {
	return g.Row(y)[x]
}

// Set stores v at (row y, column x).
func (g Grid2D) Set(y, x int, v uint16) {
	g.Row(y)[x] = v
}

// Crop returns the (x, y, width, height) sub-view sharing this view's
// backing storage and pitch.
func (g Grid2D) Crop(x, y, width, height int) (Grid2D, error) {
	if x < 0 || y < 0 || width < 0 || height < 0 ||
		x+width > g.width || y+height > g.height {
		return Grid2D{}, fmt.Errorf("%w: crop (%d,%d) %dx%d of %dx%d",
			ErrBounds, x, y, width, height, g.width, g.height)
	}
	off := y*g.pitch + x
	return Grid2D{data: g.data[off:], width: width, height: height, pitch: g.pitch}, nil
}
