// Package ljpeg implements a lossless-JPEG (SOF3) decompressor: a JPEG
// marker state machine that parses SOI/DHT/SOF3/SOS/DRI/EOI, builds
// prefix-code decoders from DHT tables, and drives the JPEG-order bit
// streamer to decode predicted pixel residuals into a 2-D tile of
// 16-bit samples. Canon CR2-style sliced layouts with chroma
// subsampling are supported through a dedicated decode path.
package ljpeg

import (
	"errors"
	"fmt"
)

// Errors returned by the LJPEG layer.
var (
	// ErrBadMarker reports an unexpected, missing or out-of-sequence
	// JPEG marker.
	ErrBadMarker = errors.New("ljpeg: bad marker")
	// ErrBadImageParams reports SOF/SOS parameters out of range or
	// incompatible with the target image.
	ErrBadImageParams = errors.New("ljpeg: bad image parameters")
	// ErrBadTiling reports a CR2 output-tile sequence that violates
	// continuity or coverage invariants.
	ErrBadTiling = errors.New("ljpeg: bad tiling")
)

// JPEG marker codes (the byte following 0xFF).
const (
	markerSOF3 = 0xc3 // lossless (sequential)
	markerDHT  = 0xc4 // define Huffman tables
	markerRST0 = 0xd0 // restart 0..7
	markerRST7 = 0xd7
	markerSOI  = 0xd8 // start of image
	markerEOI  = 0xd9 // end of image
	markerSOS  = 0xda // start of scan
	markerDQT  = 0xdb // define quantization tables
	markerDRI  = 0xdd // define restart interval
)

// isMarkerPair reports whether c0, c1 form a marker. FF 00 is a stuffed
// data byte and FF FF is fill padding; neither is a marker.
func isMarkerPair(c0, c1 byte) bool {
	return c0 == 0xFF && c1 != 0x00 && c1 != 0xFF
}

// restartMarkerNumber returns the index (0..7) of a restart marker, or
// -1 when m is not one.
func restartMarkerNumber(m byte) int {
	if m < markerRST0 || m > markerRST7 {
		return -1
	}
	return int(m - markerRST0)
}

// nextMarker scans the decoder input for the next marker pair and
// consumes it. When allowSkip is set, leading non-marker padding bytes
// are skipped one at a time; otherwise the marker must be immediate.
func (d *Decoder) nextMarker(allowSkip bool) (byte, error) {
	for d.input.Remaining() >= 2 {
		c0, _ := d.input.PeekU8(0)
		c1, _ := d.input.PeekU8(1)
		if isMarkerPair(c0, c1) {
			if err := d.input.SkipBytes(2); err != nil {
				return 0, err
			}
			return c1, nil
		}
		if !allowSkip {
			break
		}
		if err := d.input.SkipBytes(1); err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("%w: expected marker not found, probably corrupt file",
		ErrBadMarker)
}
