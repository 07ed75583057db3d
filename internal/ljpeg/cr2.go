package ljpeg

import (
	"fmt"

	"github.com/deepteams/rawcodec/internal/grid"
	"github.com/deepteams/rawcodec/internal/prefixcode"
)

// CR2Format is the Canon CR2 pixel-group format: component count and
// the horizontal/vertical chroma subsampling factors.
type CR2Format struct {
	NComp int
	XSF   int
	YSF   int
}

// The four formats Canon produces.
var cr2Formats = []CR2Format{
	{3, 2, 2}, // sRaw1/mRaw
	{3, 2, 1}, // sRaw2/sRaw
	{2, 1, 1},
	{4, 1, 1},
}

// CR2Slicing describes the vertical slice widths of the output image:
// all slices are SliceWidth wide except the last. The slice count and
// widths come from the caller (they are stored out-of-band, not in the
// JPEG stream).
type CR2Slicing struct {
	NumSlices      int
	SliceWidth     int
	LastSliceWidth int
}

func (s CR2Slicing) widthOfSlice(i int) int {
	if i+1 < s.NumSlices {
		return s.SliceWidth
	}
	return s.LastSliceWidth
}

// cr2Dsc derives the per-group geometry from a format. The inner
// decode loop handles one group of samples at a time:
//   - for <N,1,1>: N = one sample per component (full raw)
//   - for <3,2,1>: 4 = 2*1 luma + 2 chroma
//   - for <3,2,2>: 6 = 2*2 luma + 2 chroma
//
// and advances one group column at a time.
type cr2Dsc struct {
	nComp          int
	xSF, ySF       int
	subSampled     bool
	sliceColStep   int
	pixelsPerGroup int
	groupSize      int
}

func newCr2Dsc(f CR2Format) cr2Dsc {
	d := cr2Dsc{
		nComp:          f.NComp,
		xSF:            f.XSF,
		ySF:            f.YSF,
		subSampled:     f.XSF != 1 || f.YSF != 1,
		sliceColStep:   f.NComp * f.XSF,
		pixelsPerGroup: f.XSF * f.YSF,
	}
	if d.subSampled {
		d.groupSize = 2 + d.pixelsPerGroup
	} else {
		d.groupSize = d.nComp
	}
	return d
}

// iPoint is a 2-D integer point or size.
type iPoint struct{ x, y int }

// iRect is an axis-aligned rectangle: position plus size.
type iRect struct {
	pos iPoint
	dim iPoint
}

func (r iRect) top() int    { return r.pos.y }
func (r iRect) bottom() int { return r.pos.y + r.dim.y }
func (r iRect) left() int   { return r.pos.x }
func (r iRect) right() int  { return r.pos.x + r.dim.x }
func (r iRect) bottomRight() iPoint {
	return iPoint{r.right(), r.bottom()}
}

// tileSequenceStatus classifies how two consecutive output tiles relate.
type tileSequenceStatus int

const (
	tileContinuesColumn tileSequenceStatus = iota
	tileBeginsNewColumn
	tileInvalid
)

// evaluateConsecutiveTiles checks whether next continues the current
// vertical column or starts the next one at the prior column's right
// edge. Anything else is invalid tiling.
func evaluateConsecutiveTiles(cur, next iRect) tileSequenceStatus {
	if cur.left() == next.left() && cur.right() == next.right() &&
		cur.bottom() == next.top() {
		return tileContinuesColumn
	}
	if next.top() == 0 && next.left() == cur.right() {
		return tileBeginsNewColumn
	}
	return tileInvalid
}

// cr2Decompressor decodes the sliced Canon layout. All geometry below
// is held in *group* units horizontally (columns of groupSize samples)
// and frame-subsampled rows vertically.
type cr2Decompressor struct {
	d       *Decoder
	dsc     cr2Dsc
	dim     iPoint // output image, x in groups
	frame   iPoint // LJPEG frame, subsampling divided out
	slicing CR2Slicing
	recHT   []*prefixcode.LUTDecoder
	recPred []uint16
	out     grid.Grid2D
}

func newCr2Decompressor(d *Decoder, format CR2Format, slicing CR2Slicing, out grid.Grid2D) (*cr2Decompressor, error) {
	known := false
	for _, f := range cr2Formats {
		if f == format {
			known = true
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: unknown format <%d,%d,%d>",
			ErrBadImageParams, format.NComp, format.XSF, format.YSF)
	}

	dsc := newCr2Dsc(format)

	dim := iPoint{out.Width(), out.Height()}
	if dim.x == 0 || dim.y == 0 || dim.x%dsc.groupSize != 0 {
		return nil, fmt.Errorf("%w: unexpected image dimension multiplicity",
			ErrBadImageParams)
	}
	dim.x /= dsc.groupSize

	frame := iPoint{d.frame.width, d.frame.height}
	if frame.x == 0 || frame.y == 0 ||
		frame.x%dsc.xSF != 0 || frame.y%dsc.ySF != 0 {
		return nil, fmt.Errorf("%w: unexpected LJPEG frame dimension multiplicity",
			ErrBadImageParams)
	}
	frame.x /= dsc.xSF
	frame.y /= dsc.ySF

	if slicing.NumSlices < 1 {
		return nil, fmt.Errorf("%w: no slices are provided", ErrBadTiling)
	}
	for i := 0; i < slicing.NumSlices; i++ {
		if slicing.widthOfSlice(i) <= 0 {
			return nil, fmt.Errorf("%w: bad slice width %d",
				ErrBadTiling, slicing.widthOfSlice(i))
		}
	}
	for _, w := range []int{slicing.SliceWidth, slicing.LastSliceWidth} {
		if w%dsc.sliceColStep != 0 {
			return nil, fmt.Errorf("%w: slice width %d should be a multiple of the pixel group size %d",
				ErrBadImageParams, w, dsc.sliceColStep)
		}
	}
	slicing.SliceWidth /= dsc.sliceColStep
	slicing.LastSliceWidth /= dsc.sliceColStep

	if len(d.frame.components) != dsc.nComp {
		return nil, fmt.Errorf("%w: component count does not match the format",
			ErrBadImageParams)
	}

	if frame.x*frame.y < dim.x*dim.y {
		return nil, fmt.Errorf("%w: frame area smaller than the image area",
			ErrBadImageParams)
	}

	c := &cr2Decompressor{
		d:       d,
		dsc:     dsc,
		dim:     dim,
		frame:   frame,
		slicing: slicing,
		out:     out,
	}

	c.recHT = make([]*prefixcode.LUTDecoder, dsc.nComp)
	c.recPred = make([]uint16, dsc.nComp)
	for i, comp := range d.frame.components {
		c.recHT[i] = d.huff[comp.DCTableIndex]
		c.recPred[i] = d.initialPredictor()
	}

	if err := c.validateTiling(); err != nil {
		return nil, err
	}
	return c, nil
}

// allOutputTiles lays the slice tiles out over the image: tiles of one
// slice stack vertically; at the image's bottom edge a tile's height is
// clamped to the rows remaining; a finished column continues at the top
// of the next one.
func (c *cr2Decompressor) allOutputTiles() []iRect {
	var tiles []iRect
	out := iPoint{0, 0}
	for i := 0; i < c.slicing.NumSlices; i++ {
		sliceWidth := c.slicing.widthOfSlice(i)
		for sliceRow := 0; sliceRow < c.frame.y; {
			h := min(c.dim.y-out.y, c.frame.y-sliceRow)
			if h <= 0 {
				// The image is full; the remaining slice rows cannot
				// land anywhere.
				break
			}
			tile := iRect{pos: out, dim: iPoint{sliceWidth, h}}
			tiles = append(tiles, tile)
			sliceRow += h
			out.y += h
			if out.y == c.dim.y {
				out.y = 0
				out.x += sliceWidth
			}
		}
	}
	return tiles
}

// outputTiles returns the prefix of allOutputTiles that covers the
// image, validating the tile sequence on the way.
func (c *cr2Decompressor) outputTiles() ([]iRect, error) {
	all := c.allOutputTiles()

	var covering []iRect
	var last *iRect
	for i := range all {
		cur := all[i]
		if last != nil && evaluateConsecutiveTiles(*last, cur) == tileInvalid {
			return nil, fmt.Errorf("%w: slice width change mid-output row", ErrBadTiling)
		}
		br := cur.bottomRight()
		if br.x <= c.dim.x && br.y <= c.dim.y {
			covering = append(covering, cur)
			all[i] = cur
			last = &all[i]
			continue
		}
		if cur.pos.x < c.dim.x && cur.pos.y < c.dim.y {
			return nil, fmt.Errorf("%w: output tile partially outside of image", ErrBadTiling)
		}
		break // the rest of the tiles do not contribute to the image
	}
	if last == nil {
		return nil, fmt.Errorf("%w: no tiles are provided", ErrBadTiling)
	}
	if br := last.bottomRight(); br != (iPoint{c.dim.x, c.dim.y}) {
		return nil, fmt.Errorf("%w: tiles do not cover the entire image area", ErrBadTiling)
	}
	return covering, nil
}

func (c *cr2Decompressor) validateTiling() error {
	_, err := c.outputTiles()
	return err
}

// verticalOutputStrips coalesces contiguous same-column tiles into
// single vertical strips.
func (c *cr2Decompressor) verticalOutputStrips() ([]iRect, error) {
	tiles, err := c.outputTiles()
	if err != nil {
		return nil, err
	}
	var strips []iRect
	for i := 0; i < len(tiles); {
		strip := tiles[i]
		i++
		for i < len(tiles) &&
			evaluateConsecutiveTiles(strip, tiles[i]) == tileContinuesColumn {
			strip.dim.y += tiles[i].dim.y
			i++
		}
		strips = append(strips, strip)
	}
	return strips, nil
}

// decode runs the sliced scan decode and returns the number of input
// bytes consumed.
//
// For the CR2 slice handling and sampling factor behavior, see
// https://github.com/lclevy/libcraw2/blob/master/docs/cr2_lossless.pdf
func (c *cr2Decompressor) decode(scan []byte) (int, error) {
	dsc := c.dsc
	bs, err := newJPEGReaderPadded(scan)
	if err != nil {
		return 0, err
	}

	strips, err := c.verticalOutputStrips()
	if err != nil {
		return 0, err
	}

	pred := make([]uint16, dsc.nComp)
	copy(pred, c.recPred)
	predNext := c.out.Row(0)[:dsc.groupSize]

	globalFrameCol := 0
	globalFrameRow := 0

	for _, strip := range strips {
		for row := strip.top(); row < strip.bottom(); row++ {
			for col := strip.left(); col < strip.right(); {
				// One full frame row's worth of pixels decoded?
				if c.frame.x-globalFrameCol == 0 {
					// If so, reload the predictor by going back exactly
					// one frame row, no matter where we are right now.
					// Makes no sense from an image compression point of
					// view; ask Canon.
					for comp := 0; comp < dsc.nComp; comp++ {
						idx := dsc.groupSize - (dsc.nComp - comp)
						if comp == 0 {
							idx = 0
						}
						pred[comp] = predNext[idx]
					}
					off := dsc.groupSize * col
					predNext = c.out.Row(row)[off : off+dsc.groupSize]
					globalFrameRow++
					globalFrameCol = 0
					if globalFrameRow >= c.frame.y {
						return 0, fmt.Errorf("%w: run out of frame", ErrBadImageParams)
					}
				}

				// Decode until the end of either the frame row (i.e.
				// predictor change time) or the current strip row.
				colFrameEnd := min(strip.right(), col+c.frame.x-globalFrameCol)
				for ; col < colFrameEnd; col, globalFrameCol = col+1, globalFrameCol+1 {
					outRow := c.out.Row(row)
					for p := 0; p < dsc.groupSize; p++ {
						comp := 0
						if p >= dsc.pixelsPerGroup {
							comp = p - dsc.pixelsPerGroup + 1
						}
						diff, err := c.recHT[comp].DecodeDifference(bs)
						if err != nil {
							return 0, err
						}
						pred[comp] = uint16(int32(pred[comp]) + diff)
						outRow[dsc.groupSize*col+p] = pred[comp]
					}
				}
			}
		}
	}
	pos := bs.StreamPosition()
	if pos > len(scan) {
		pos = len(scan)
	}
	return pos, nil
}

// DecodeCR2 decodes a Canon CR2 lossless JPEG with the sliced output
// layout starting at the SOI marker in data into out. Slice geometry is
// supplied by the caller; it is stored outside of the JPEG stream.
func DecodeCR2(data []byte, out grid.Grid2D, format CR2Format, slicing CR2Slicing, opts Options) error {
	opts.CPP = 1
	opts.SubsampX = format.XSF
	opts.SubsampY = format.YSF
	d, err := newDecoder(data, out, opts)
	if err != nil {
		return err
	}
	d.decodeScan = func(scan []byte) (int, error) {
		if d.predictorMode != 1 {
			return 0, fmt.Errorf("%w: unsupported predictor mode %d",
				ErrBadImageParams, d.predictorMode)
		}
		c, err := newCr2Decompressor(d, format, slicing, out)
		if err != nil {
			return 0, err
		}
		return c.decode(scan)
	}
	return d.decodeSOI()
}
