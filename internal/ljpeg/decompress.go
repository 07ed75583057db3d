package ljpeg

import (
	"fmt"

	"github.com/deepteams/rawcodec/internal/bitio"
	"github.com/deepteams/rawcodec/internal/grid"
	"github.com/deepteams/rawcodec/internal/prefixcode"
)

// DecodeTile decodes a plain (non-sliced) lossless JPEG starting at the
// SOI marker in data into out. Every frame component must use 1x1
// sampling; each MCU contributes one sample per component, stored
// interleaved along the row. Restart intervals are honored.
//
// The frame may be wider or taller than the tile; trailing columns are
// decoded and discarded, trailing rows are not decoded at all.
func DecodeTile(data []byte, out grid.Grid2D, opts Options) error {
	d, err := newDecoder(data, out, opts)
	if err != nil {
		return err
	}
	d.decodeScan = d.decodeScanTile
	return d.decodeSOI()
}

func (d *Decoder) decodeScanTile(scan []byte) (int, error) {
	if d.predictorMode != 1 {
		return 0, fmt.Errorf("%w: unsupported predictor mode %d",
			ErrBadImageParams, d.predictorMode)
	}
	for _, c := range d.frame.components {
		if c.SuperH != 1 || c.SuperV != 1 {
			return 0, fmt.Errorf("%w: unsupported subsampling %dx%d",
				ErrBadImageParams, c.SuperH, c.SuperV)
		}
	}

	nComp := len(d.frame.components)
	rows := d.out.Height()
	if d.frame.width*nComp < d.out.Width() {
		return 0, fmt.Errorf("%w: frame narrower than the tile (%d vs %d samples)",
			ErrBadImageParams, d.frame.width*nComp, d.out.Width())
	}
	if d.frame.height < rows {
		return 0, fmt.Errorf("%w: frame shorter than the tile (%d vs %d rows)",
			ErrBadImageParams, d.frame.height, rows)
	}

	ht := make([]*prefixcode.LUTDecoder, nComp)
	for i, c := range d.frame.components {
		ht[i] = d.huff[c.DCTableIndex]
	}

	mcusPerLine := d.frame.width
	mcusToDecode := mcusPerLine * rows
	groupLen := d.restartInterval // in MCUs
	if groupLen == 0 {
		groupLen = mcusToDecode
	}

	pred := make([]uint16, nComp)
	off := 0 // byte offset of the current restart interval in scan
	mcu := 0
	restartIdx := 0

	for mcu < mcusToDecode {
		bs, err := newJPEGReaderPadded(scan[off:])
		if err != nil {
			return 0, err
		}

		// All DC predictors reset at the start of the scan and of
		// every restart interval.
		for c := range pred {
			pred[c] = d.initialPredictor()
		}

		groupStart := mcu
		for end := min(groupStart+groupLen, mcusToDecode); mcu < end; mcu++ {
			row := mcu / mcusPerLine
			col := mcu % mcusPerLine
			if mcu != groupStart && col == 0 {
				// Row start: predict from the sample directly above.
				for c := range pred {
					pred[c] = d.out.At(row-1, c)
				}
			}
			for c := 0; c < nComp; c++ {
				diff, err := ht[c].DecodeDifference(bs)
				if err != nil {
					return 0, err
				}
				pred[c] = uint16(int32(pred[c]) + diff)
				if sampleCol := col*nComp + c; sampleCol < d.out.Width() {
					d.out.Set(row, sampleCol, pred[c])
				}
			}
		}

		off += bs.StreamPosition()
		if off > len(scan) {
			// The tail interval was decoded through zero padding.
			off = len(scan)
		}

		if mcu < mcusToDecode {
			// Between restart intervals the stream re-aligns to a byte
			// boundary and the next RSTn marker, with n cycling mod 8,
			// must follow.
			if off+2 > len(scan) || !isMarkerPair(scan[off], scan[off+1]) {
				return 0, fmt.Errorf("%w: missing restart marker", ErrBadMarker)
			}
			if n := restartMarkerNumber(scan[off+1]); n != restartIdx%8 {
				return 0, fmt.Errorf("%w: out-of-sequence restart marker %#x",
					ErrBadMarker, scan[off+1])
			}
			off += 2
			restartIdx++
		}
	}

	return off, nil
}

// newJPEGReaderPadded creates a JPEG bit reader over data, zero-padding
// short tails so that the final restart interval of a scan can be
// shorter than the reader's chunk size.
func newJPEGReaderPadded(data []byte) (*bitio.JPEGReader, error) {
	if len(data) < 8 {
		padded := make([]byte, 8)
		copy(padded, data)
		data = padded
	}
	return bitio.NewJPEGReader(data)
}
