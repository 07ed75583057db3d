package ljpeg

import (
	"fmt"

	"github.com/deepteams/rawcodec/internal/grid"
	"github.com/deepteams/rawcodec/internal/memio"
	"github.com/deepteams/rawcodec/internal/prefixcode"
)

// maxDHTSlots is the number of Huffman table destination ids.
const maxDHTSlots = 4

// maxDHTCodes is the largest tolerated code count in one DHT table.
// The JPEG spec allows 16, but Hasselblad files carry 17.
const maxDHTCodes = 17

// Component describes one SOF3 frame component.
type Component struct {
	ID           int
	SuperH       int // horizontal sampling factor, 1..4
	SuperV       int // vertical sampling factor, 1..4
	DCTableIndex int // selected by SOS
}

// frameInfo is the parsed SOF3 header.
type frameInfo struct {
	precision   int // sample precision P, 2..16
	width       int // samples per line, per component
	height      int // lines
	components  []Component
	initialized bool
}

// Options configures a decode.
type Options struct {
	// CPP is the sample count per pixel of the target image (1..3).
	// Zero means 1.
	CPP int
	// SubsampX, SubsampY declare the image's chroma subsampling; the
	// first frame component's sampling factors must match. Zero means 1.
	SubsampX, SubsampY int
	// FixDNGBug16 selects the DNG bug handling for difference length
	// 16: consume 16 padding bits instead of treating it as the
	// -32768 sentinel.
	FixDNGBug16 bool
	// ImplicitEOIAfterFirstScan tolerates the old Hasselblad erratum
	// of files that omit EOI after the first complete scan.
	ImplicitEOIAfterFirstScan bool
}

func (o Options) normalized() Options {
	if o.CPP == 0 {
		o.CPP = 1
	}
	if o.SubsampX == 0 {
		o.SubsampX = 1
	}
	if o.SubsampY == 0 {
		o.SubsampY = 1
	}
	return o
}

// Decoder is the JPEG marker state machine driving a lossless scan
// decode into a caller-provided tile. It is single use: one Decoder
// runs one decode pass.
type Decoder struct {
	input *memio.ByteStream
	out   grid.Grid2D
	opts  Options

	frame           frameInfo
	predictorMode   int
	restartInterval int

	// huff maps DHT destination ids to ready decoders. Identical
	// tables are de-duplicated across appearances via huffCodes.
	huff      [maxDHTSlots]*prefixcode.LUTDecoder
	huffCodes []*prefixcode.HuffmanCode
	huffStore []*prefixcode.LUTDecoder

	// decodeScan consumes the entropy-coded bytes following an SOS
	// header and returns how many input bytes the scan occupied.
	decodeScan func(scan []byte) (int, error)
}

// newDecoder validates the target and creates a decoder over data.
func newDecoder(data []byte, out grid.Grid2D, opts Options) (*Decoder, error) {
	opts = opts.normalized()
	if out.Width() == 0 || out.Height() == 0 {
		return nil, fmt.Errorf("%w: image has zero size", ErrBadImageParams)
	}
	if opts.CPP < 1 || opts.CPP > 3 {
		return nil, fmt.Errorf("%w: unexpected component count %d",
			ErrBadImageParams, opts.CPP)
	}
	return &Decoder{
		input: memio.NewByteStream(data, memio.BigEndian),
		out:   out,
		opts:  opts,
	}, nil
}

// decodeSOI runs the marker state machine: SOI first, then DHT/SOF3/
// SOS/DRI in any admissible order, until EOI.
func (d *Decoder) decodeSOI() error {
	m, err := d.nextMarker(false)
	if err != nil {
		return err
	}
	if m != markerSOI {
		return fmt.Errorf("%w: image did not start with SOI, probably not an LJPEG",
			ErrBadMarker)
	}

	var found struct {
		DRI, DHT, SOF, SOS bool
	}

	for {
		m, err = d.nextMarker(true)
		if err != nil {
			return err
		}
		if m == markerEOI {
			break
		}

		headerLength, err := d.input.PeekU16(0)
		if err != nil {
			return err
		}
		data, err := d.input.Stream(int(headerLength))
		if err != nil {
			return err
		}
		if err := data.SkipBytes(2); err != nil {
			return err
		}

		switch m {
		case markerDHT:
			if found.SOS {
				return fmt.Errorf("%w: found second DHT marker after SOS", ErrBadMarker)
			}
			// There can be more than one DHT marker.
			if err := d.parseDHT(data); err != nil {
				return err
			}
			found.DHT = true
		case markerSOF3:
			if found.SOS {
				return fmt.Errorf("%w: found second SOF marker after SOS", ErrBadMarker)
			}
			if found.SOF {
				return fmt.Errorf("%w: found second SOF marker", ErrBadMarker)
			}
			// SOF is not required to be after DHT.
			if err := d.parseSOF(data); err != nil {
				return err
			}
			found.SOF = true
		case markerSOS:
			if found.SOS {
				return fmt.Errorf("%w: found second SOS marker", ErrBadMarker)
			}
			if !found.DHT {
				return fmt.Errorf("%w: did not find DHT marker before SOS", ErrBadMarker)
			}
			if !found.SOF {
				return fmt.Errorf("%w: did not find SOF marker before SOS", ErrBadMarker)
			}
			if err := d.parseSOS(data); err != nil {
				return err
			}
			found.SOS = true
			if d.opts.ImplicitEOIAfterFirstScan {
				return nil
			}
		case markerDQT:
			return fmt.Errorf("%w: DQT found, not a valid RAW file", ErrBadMarker)
		case markerDRI:
			if found.DRI {
				return fmt.Errorf("%w: found second DRI marker", ErrBadMarker)
			}
			if err := d.parseDRI(data); err != nil {
				return err
			}
			found.DRI = true
		default:
			// Skip to the next marker.
		}
	}

	if !found.SOS {
		return fmt.Errorf("%w: did not find SOS marker", ErrBadMarker)
	}
	return nil
}

func (d *Decoder) parseSOF(sof *memio.ByteStream) error {
	prec, err := d8(sof.GetU8())
	if err != nil {
		return err
	}
	h, err := d16(sof.GetU16())
	if err != nil {
		return err
	}
	w, err := d16(sof.GetU16())
	if err != nil {
		return err
	}
	cps, err := d8(sof.GetU8())
	if err != nil {
		return err
	}

	if prec < 2 || prec > 16 {
		return fmt.Errorf("%w: invalid precision %d", ErrBadImageParams, prec)
	}
	if h == 0 || w == 0 {
		return fmt.Errorf("%w: frame width or height set to zero", ErrBadImageParams)
	}
	if cps < 1 || cps > 4 {
		return fmt.Errorf("%w: only 1 to 4 components are supported, got %d",
			ErrBadImageParams, cps)
	}
	if cps < d.opts.CPP {
		return fmt.Errorf("%w: component count %d below sample count %d",
			ErrBadImageParams, cps, d.opts.CPP)
	}
	if pixWidth := d.out.Width() / d.opts.CPP; cps > pixWidth {
		return fmt.Errorf("%w: component count %d exceeds row length %d",
			ErrBadImageParams, cps, pixWidth)
	}
	if sof.Remaining() != 3*cps {
		return fmt.Errorf("%w: SOF header size mismatch", ErrBadImageParams)
	}

	d.frame = frameInfo{
		precision:  prec,
		width:      w,
		height:     h,
		components: make([]Component, cps),
	}
	for i := range d.frame.components {
		c := &d.frame.components[i]
		id, err := d8(sof.GetU8())
		if err != nil {
			return err
		}
		c.ID = id

		subs, err := d8(sof.GetU8())
		if err != nil {
			return err
		}
		c.SuperH = subs >> 4
		c.SuperV = subs & 0xF
		if c.SuperH < 1 || c.SuperH > 4 {
			return fmt.Errorf("%w: horizontal sampling factor %d is invalid",
				ErrBadImageParams, c.SuperH)
		}
		if c.SuperV < 1 || c.SuperV > 4 {
			return fmt.Errorf("%w: vertical sampling factor %d is invalid",
				ErrBadImageParams, c.SuperV)
		}

		tq, err := d8(sof.GetU8())
		if err != nil {
			return err
		}
		if tq != 0 {
			return fmt.Errorf("%w: quantized components not supported", ErrBadImageParams)
		}
	}

	if d.frame.components[0].SuperH != d.opts.SubsampX ||
		d.frame.components[0].SuperV != d.opts.SubsampY {
		return fmt.Errorf("%w: frame subsampling %dx%d does not match image's %dx%d",
			ErrBadImageParams,
			d.frame.components[0].SuperH, d.frame.components[0].SuperV,
			d.opts.SubsampX, d.opts.SubsampY)
	}

	d.frame.initialized = true
	return nil
}

func (d *Decoder) parseSOS(sos *memio.ByteStream) error {
	if !d.frame.initialized {
		return fmt.Errorf("%w: SOS before SOF", ErrBadMarker)
	}
	cps := len(d.frame.components)
	if sos.Remaining() != 1+2*cps+3 {
		return fmt.Errorf("%w: invalid SOS header length", ErrBadImageParams)
	}

	sosCps, err := d8(sos.GetU8())
	if err != nil {
		return err
	}
	if sosCps != cps {
		return fmt.Errorf("%w: component number mismatch (%d vs %d)",
			ErrBadImageParams, sosCps, cps)
	}

	for i := 0; i < cps; i++ {
		cs, err := d8(sos.GetU8())
		if err != nil {
			return err
		}
		tdta, err := d8(sos.GetU8())
		if err != nil {
			return err
		}
		td := tdta >> 4
		if td >= maxDHTSlots || d.huff[td] == nil {
			return fmt.Errorf("%w: invalid Huffman table selection %d",
				ErrBadImageParams, td)
		}

		ci := -1
		for j := range d.frame.components {
			if d.frame.components[j].ID == cs {
				ci = j
			}
		}
		if ci == -1 {
			return fmt.Errorf("%w: invalid component selector %d", ErrBadImageParams, cs)
		}
		d.frame.components[ci].DCTableIndex = td
	}

	// Predictor selection, table H.1 of the JPEG spec. The spec says
	// 0..7, but Hasselblad uses 8.
	pred, err := d8(sos.GetU8())
	if err != nil {
		return err
	}
	if pred > 8 {
		return fmt.Errorf("%w: invalid predictor mode %d", ErrBadImageParams, pred)
	}
	d.predictorMode = pred

	// Se and Ah are unused in LJPEG.
	seAh, err := d8(sos.GetU8())
	if err != nil {
		return err
	}
	if seAh != 0 {
		return fmt.Errorf("%w: Se/Ah not zero", ErrBadImageParams)
	}

	pt, err := d8(sos.GetU8())
	if err != nil {
		return err
	}
	if pt > 15 {
		return fmt.Errorf("%w: invalid point transform %d", ErrBadImageParams, pt)
	}
	if pt != 0 {
		return fmt.Errorf("%w: point transform not supported", ErrBadImageParams)
	}

	scan, err := d.input.PeekBytes(d.input.Remaining())
	if err != nil {
		return err
	}
	consumed, err := d.decodeScan(scan)
	if err != nil {
		return err
	}
	return d.input.SkipBytes(consumed)
}

func (d *Decoder) parseDHT(dht *memio.ByteStream) error {
	for dht.Remaining() > 0 {
		b, err := d8(dht.GetU8())
		if err != nil {
			return err
		}
		if class := b >> 4; class != 0 {
			return fmt.Errorf("%w: unsupported DHT table class %d", ErrBadMarker, class)
		}
		idx := b & 0xF
		if idx >= maxDHTSlots {
			return fmt.Errorf("%w: invalid Huffman table destination id %d",
				ErrBadMarker, idx)
		}
		if d.huff[idx] != nil {
			return fmt.Errorf("%w: duplicate Huffman table definition %d",
				ErrBadMarker, idx)
		}

		counts, err := dht.GetBytes(prefixcode.Baseline.MaxCodeLengthBits)
		if err != nil {
			return err
		}
		hc := prefixcode.NewHuffmanCode(prefixcode.Baseline)
		nCodes, err := hc.SetNCodesPerLength(counts)
		if err != nil {
			return err
		}
		if nCodes > maxDHTCodes {
			return fmt.Errorf("%w: invalid DHT table with %d codes",
				prefixcode.ErrCorruptCode, nCodes)
		}

		valueBytes, err := dht.GetBytes(nCodes)
		if err != nil {
			return err
		}
		values := make([]uint32, nCodes)
		for i, v := range valueBytes {
			values[i] = uint32(v)
		}
		if err := hc.SetCodeValues(values); err != nil {
			return err
		}

		// Reuse a previously built decoder for a structurally
		// identical table.
		for i, stored := range d.huffCodes {
			if stored.Equal(hc) {
				d.huff[idx] = d.huffStore[i]
			}
		}
		if d.huff[idx] == nil {
			code, err := hc.Code()
			if err != nil {
				return err
			}
			dec := prefixcode.NewLUTDecoder(prefixcode.NewLookupDecoder(code))
			if err := dec.Setup(true, d.opts.FixDNGBug16); err != nil {
				return err
			}
			d.huffCodes = append(d.huffCodes, hc)
			d.huffStore = append(d.huffStore, dec)
			d.huff[idx] = dec
		}
	}
	return nil
}

func (d *Decoder) parseDRI(dri *memio.ByteStream) error {
	if dri.Remaining() != 2 {
		return fmt.Errorf("%w: invalid DRI header length", ErrBadImageParams)
	}
	ri, err := d16(dri.GetU16())
	if err != nil {
		return err
	}
	d.restartInterval = ri
	return nil
}

// initialPredictor returns 2^(P - Pt - 1); Pt is enforced zero.
func (d *Decoder) initialPredictor() uint16 {
	return uint16(1) << uint(d.frame.precision-1)
}

// d8 and d16 adapt the byte stream getters to int results.
func d8(v uint8, err error) (int, error)   { return int(v), err }
func d16(v uint16, err error) (int, error) { return int(v), err }
