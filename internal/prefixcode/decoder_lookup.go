package prefixcode

import (
	"fmt"
	"math"

	"github.com/deepteams/rawcodec/internal/bitio"
)

// lookupSentinel marks lengths that have no codes.
const lookupSentinel = math.MaxUint32

// LookupDecoder decodes with the classic per-length decoding tables of
// JPEG figure F.15 (as in the IJG library): maxCode[l] is the last
// assigned code of length l and codeOffset[l] maps a code to its index
// in the alphabet. The walk reads bits until the partial code is no
// greater than maxCode[len].
type LookupDecoder struct {
	transcoderState
	// Index 1 based, so a code length looks up directly.
	maxCodeOL    []uint32
	codeOffsetOL []uint32
}

// NewLookupDecoder creates a lookup decoder for code.
func NewLookupDecoder(code Code) *LookupDecoder {
	return &LookupDecoder{transcoderState: transcoderState{code: code}}
}

// Setup generates the decoding tables. See Decoder.Setup.
func (d *LookupDecoder) Setup(fullDecode, fixDNGBug16 bool) error {
	if err := d.setup(fullDecode, fixDNGBug16); err != nil {
		return err
	}

	d.maxCodeOL = make([]uint32, 1+d.maxCodeLength())
	d.codeOffsetOL = make([]uint32, 1+d.maxCodeLength())
	for l := range d.maxCodeOL {
		d.maxCodeOL[l] = lookupSentinel
		d.codeOffsetOL[l] = lookupSentinel
	}

	numCodesSoFar := 0
	for codeLen := 1; codeLen <= d.maxCodeLength(); codeLen++ {
		if d.code.CodesPerLength[codeLen] == 0 {
			continue
		}
		d.codeOffsetOL[codeLen] = d.code.Symbols[numCodesSoFar].Code - uint32(numCodesSoFar)
		numCodesSoFar += d.code.CodesPerLength[codeLen]
		d.maxCodeOL[codeLen] = d.code.Symbols[numCodesSoFar-1].Code
	}
	return nil
}

func (d *LookupDecoder) state() *transcoderState { return &d.transcoderState }

func (d *LookupDecoder) finishReadingPartialSymbol(bs bitio.Reader, partial CodeSymbol) (CodeSymbol, uint32, error) {
	for partial.Len < d.maxCodeLength() &&
		(d.maxCodeOL[partial.Len] == lookupSentinel || partial.Code > d.maxCodeOL[partial.Len]) {
		bit := bs.GetBitsNoFill(1)
		partial.Code = partial.Code<<1 | bit
		partial.Len++
	}

	// When resuming a partial symbol from the LUT accelerator the
	// partial length can exceed this table's maximum length, which is
	// a symptom of a corrupt code.
	if partial.Len > d.maxCodeLength() || partial.Code > d.maxCodeOL[partial.Len] {
		return CodeSymbol{}, 0, fmt.Errorf("%w: %#x (len %d)",
			ErrBadCode, partial.Code, partial.Len)
	}

	codeIndex := partial.Code - d.codeOffsetOL[partial.Len]
	if codeIndex >= uint32(len(d.code.CodeValues)) {
		return CodeSymbol{}, 0, fmt.Errorf("%w: %#x (len %d)",
			ErrBadCode, partial.Code, partial.Len)
	}
	return partial, d.code.CodeValues[codeIndex], nil
}

func (d *LookupDecoder) readSymbol(bs bitio.Reader) (CodeSymbol, uint32, error) {
	return d.finishReadingPartialSymbol(bs, CodeSymbol{})
}

// DecodeCodeValue implements Decoder.
func (d *LookupDecoder) DecodeCodeValue(bs bitio.Reader) (uint32, error) {
	if err := bs.Fill(bitio.MaxGetBits); err != nil {
		return 0, err
	}
	_, codeValue, err := d.readSymbol(bs)
	return codeValue, err
}

// DecodeDifference implements Decoder.
func (d *LookupDecoder) DecodeDifference(bs bitio.Reader) (int32, error) {
	if err := bs.Fill(bitio.MaxGetBits); err != nil {
		return 0, err
	}
	_, codeValue, err := d.readSymbol(bs)
	if err != nil {
		return 0, err
	}
	return d.processDifference(bs, codeValue), nil
}
