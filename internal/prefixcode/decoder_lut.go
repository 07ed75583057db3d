package prefixcode

import "github.com/deepteams/rawcodec/internal/bitio"

// LUT entry layout: payload:23 | flag:1 | len:8. The payload is either
// the fully decoded difference or the code value; the len field is the
// total number of bits the lookup consumed. A zero entry means the
// code was too long to fit the table.
const (
	lutPayloadShift = 9
	lutFlagMask     = 0x100
	lutLenMask      = 0xff
	// lutDepth is the lookup depth in bits; 11 is a good fit for
	// baseline JPEG tables.
	lutDepth = 11
)

// LUTDecoder accelerates any backing decoder with a 2^11-entry direct
// lookup table. Symbols no longer than the depth resolve in a single
// peek; in full-decode mode the difference bits are folded into the
// entry whenever they fit too. Misses fall back to the backing decoder,
// resuming from the already-consumed partial code.
type LUTDecoder struct {
	backend Backend
	lut     []int32
}

// NewLUTDecoder wraps backend with a lookup table. The table itself is
// built during Setup.
func NewLUTDecoder(backend Backend) *LUTDecoder {
	return &LUTDecoder{backend: backend}
}

// Setup sets up the backend, then populates the lookup table by
// enumerating every symbol of length <= lutDepth and filling every
// slot whose high bits match it.
func (d *LUTDecoder) Setup(fullDecode, fixDNGBug16 bool) error {
	if err := d.backend.Setup(fullDecode, fixDNGBug16); err != nil {
		return err
	}
	s := d.backend.state()
	code := &s.code

	d.lut = make([]int32, 1<<lutDepth)
	for i, sym := range code.Symbols {
		codeLen := sym.Len
		if codeLen > lutDepth {
			break // symbols are length-sorted
		}

		// The slot range covered by this symbol.
		ll := sym.Code << uint(lutDepth-codeLen)
		ul := ll | (uint32(1)<<uint(lutDepth-codeLen) - 1)
		diffLen := code.CodeValues[i]

		for c := ll; c <= ul; c++ {
			if !s.fullDecode || (codeLen+int(diffLen) > lutDepth && diffLen != 16) {
				// The lookup depth is too small to also hold the
				// difference: store the code value and symbol length
				// only. Outside full decode that already is the whole
				// answer.
				d.lut[c] = int32(diffLen)<<lutPayloadShift | int32(codeLen)
				if !s.fullDecode {
					d.lut[c] |= lutFlagMask
				}
				continue
			}

			// The depth suffices to fold in the final value.
			lenField := codeLen
			if diffLen != 16 || s.fixDNGBug16 {
				lenField += int(diffLen)
			}
			entry := int32(lutFlagMask | lenField)
			if diffLen != 0 {
				var diff uint32
				if diffLen != 16 {
					diff = c >> uint(lutDepth-codeLen-int(diffLen)) &
						(uint32(1)<<diffLen - 1)
				} else {
					sentinel := int32(dngBug16Sentinel)
					diff = uint32(sentinel)
				}
				entry |= int32(uint32(Extend(diff, int(diffLen))) << lutPayloadShift)
			}
			d.lut[c] = entry
		}
	}
	return nil
}

func (d *LUTDecoder) decode(bs bitio.Reader) (int32, error) {
	if err := bs.Fill(bitio.MaxGetBits); err != nil {
		return 0, err
	}

	idx := bs.PeekBitsNoFill(lutDepth)
	entry := d.lut[idx]
	payload := entry >> lutPayloadShift
	length := int(entry) & lutLenMask

	// However far those lutDepth bits actually moved us forward.
	bs.SkipBitsNoFill(length)

	// Flag set: every needed bit is already consumed and the payload is
	// the answer.
	if entry&lutFlagMask != 0 {
		return payload, nil
	}

	var codeValue uint32
	if entry != 0 {
		// Flag clear but entry present: the payload is the code value
		// and only the symbol bits were consumed.
		codeValue = uint32(payload)
	} else {
		// Miss: the symbol is longer than the table depth (or the
		// input is corrupt). Resume the walk from the recorded partial
		// symbol.
		bs.SkipBitsNoFill(lutDepth)
		partial := CodeSymbol{Code: idx, Len: lutDepth}
		var err error
		_, codeValue, err = d.backend.finishReadingPartialSymbol(bs, partial)
		if err != nil {
			return 0, err
		}
	}

	s := d.backend.state()
	if !s.fullDecode {
		return int32(codeValue), nil
	}
	return s.processDifference(bs, codeValue), nil
}

// DecodeCodeValue implements Decoder.
func (d *LUTDecoder) DecodeCodeValue(bs bitio.Reader) (uint32, error) {
	v, err := d.decode(bs)
	return uint32(v), err
}

// DecodeDifference implements Decoder.
func (d *LUTDecoder) DecodeDifference(bs bitio.Reader) (int32, error) {
	return d.decode(bs)
}
