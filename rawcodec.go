package rawcodec

import (
	"fmt"

	"github.com/deepteams/rawcodec/internal/bitio"
	"github.com/deepteams/rawcodec/internal/grid"
	"github.com/deepteams/rawcodec/internal/ljpeg"
	"github.com/deepteams/rawcodec/internal/memio"
	"github.com/deepteams/rawcodec/internal/prefixcode"
)

// Errors surfaced by the decoders. Errors wrap these sentinels; match
// with errors.Is.
var (
	// ErrOutOfBounds reports a read past the end of an input buffer.
	ErrOutOfBounds = memio.ErrOutOfBounds
	// ErrOverread reports a bit streamer that ran off its input.
	ErrOverread = bitio.ErrOverread
	// ErrCorruptCode reports a structurally invalid Huffman table.
	ErrCorruptCode = prefixcode.ErrCorruptCode
	// ErrBadCode reports an undecodable code in the bitstream.
	ErrBadCode = prefixcode.ErrBadCode
	// ErrBadMarker reports an unexpected or missing JPEG marker.
	ErrBadMarker = ljpeg.ErrBadMarker
	// ErrBadImageParams reports frame parameters out of range or
	// incompatible with the target image.
	ErrBadImageParams = ljpeg.ErrBadImageParams
	// ErrBadTiling reports an invalid CR2 slice layout.
	ErrBadTiling = ljpeg.ErrBadTiling
)

// LJpegOptions configures DecodeLJpeg.
type LJpegOptions struct {
	// OffsetX, OffsetY, Width, Height select the destination tile in
	// pixels. Zero Width/Height means the remainder of the image.
	OffsetX, OffsetY int
	Width, Height    int
	// FixDNGBug16 selects the DNG bug handling for difference length
	// 16 codes.
	FixDNGBug16 bool
	// ImplicitEOIAfterFirstScan tolerates old Hasselblad files that
	// omit the EOI marker after the first complete scan.
	ImplicitEOIAfterFirstScan bool
}

// DecodeLJpeg decodes a lossless JPEG, starting at the SOI marker in
// data, into the selected tile of img. The frame's components must all
// use 1x1 sampling; restart intervals are honored.
//
// On error the tile contents are unspecified.
func DecodeLJpeg(data []byte, img *Image16, o *LJpegOptions) error {
	var opts LJpegOptions
	if o != nil {
		opts = *o
	}
	if err := img.validate(); err != nil {
		return err
	}

	width, height := opts.Width, opts.Height
	if width == 0 {
		width = img.Width - opts.OffsetX
	}
	if height == 0 {
		height = img.Height - opts.OffsetY
	}
	if opts.OffsetX < 0 || opts.OffsetY < 0 ||
		opts.OffsetX >= img.Width || opts.OffsetY >= img.Height {
		return fmt.Errorf("%w: tile offset outside of image", ErrBadImageParams)
	}
	if opts.OffsetX+width > img.Width || opts.OffsetY+height > img.Height {
		return fmt.Errorf("%w: tile overflows image", ErrBadImageParams)
	}

	full, err := grid.New(img.Pix, img.Width*img.CPP, img.Height, img.Stride)
	if err != nil {
		return fmt.Errorf("rawcodec: %w", err)
	}
	tile, err := full.Crop(opts.OffsetX*img.CPP, opts.OffsetY, width*img.CPP, height)
	if err != nil {
		return fmt.Errorf("rawcodec: %w", err)
	}

	err = ljpeg.DecodeTile(data, tile, ljpeg.Options{
		CPP:                       img.CPP,
		FixDNGBug16:               opts.FixDNGBug16,
		ImplicitEOIAfterFirstScan: opts.ImplicitEOIAfterFirstScan,
	})
	if err != nil {
		return fmt.Errorf("rawcodec: ljpeg decode: %w", err)
	}
	return nil
}

// CR2Options configures DecodeCR2.
type CR2Options struct {
	// Components is the frame component count (2..4); SubsampX and
	// SubsampY are the chroma subsampling factors. The supported
	// combinations are (2,1,1), (4,1,1), (3,2,1) and (3,2,2).
	Components         int
	SubsampX, SubsampY int
	// SliceCount, SliceWidth and LastSliceWidth give the vertical
	// slice layout of the output; Canon stores them outside of the
	// JPEG stream.
	SliceCount     int
	SliceWidth     int
	LastSliceWidth int
	// FixDNGBug16 selects the DNG bug handling for difference length
	// 16 codes.
	FixDNGBug16 bool
}

// DecodeCR2 decodes a Canon CR2 lossless JPEG with the sliced output
// layout, starting at the SOI marker in data, into img. The image must
// be single-sample (CPP 1); for the subsampled formats the luma and
// chroma samples land interleaved in pixel groups.
//
// On error the image contents are unspecified.
func DecodeCR2(data []byte, img *Image16, o *CR2Options) error {
	if o == nil {
		return fmt.Errorf("%w: CR2 slice layout is required", ErrBadTiling)
	}
	if err := img.validate(); err != nil {
		return err
	}
	if img.CPP != 1 {
		return fmt.Errorf("%w: unexpected cpp %d", ErrBadImageParams, img.CPP)
	}

	full, err := grid.New(img.Pix, img.Width, img.Height, img.Stride)
	if err != nil {
		return fmt.Errorf("rawcodec: %w", err)
	}

	subsampX, subsampY := o.SubsampX, o.SubsampY
	if subsampX == 0 {
		subsampX = 1
	}
	if subsampY == 0 {
		subsampY = 1
	}

	err = ljpeg.DecodeCR2(data, full,
		ljpeg.CR2Format{NComp: o.Components, XSF: subsampX, YSF: subsampY},
		ljpeg.CR2Slicing{
			NumSlices:      o.SliceCount,
			SliceWidth:     o.SliceWidth,
			LastSliceWidth: o.LastSliceWidth,
		},
		ljpeg.Options{FixDNGBug16: o.FixDNGBug16})
	if err != nil {
		return fmt.Errorf("rawcodec: cr2 decode: %w", err)
	}
	return nil
}
