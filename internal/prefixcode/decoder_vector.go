package prefixcode

import (
	"fmt"

	"github.com/deepteams/rawcodec/internal/bitio"
)

// VectorDecoder keeps the code in its parallel-vector form. For each
// bit read it extends the partial code and scans the slice of symbols
// of the current length for an equality match. Worst case is slower
// than the lookup decoder, but the invariants are simpler and cache
// behavior is better when tables are tiny.
type VectorDecoder struct {
	transcoderState
	// minCodeIDForLen[l] is the index of the first symbol of length l;
	// minCodeIDForLen[l+1] is one past the last. Length is
	// maxCodeLength + 2.
	minCodeIDForLen []int
}

// NewVectorDecoder creates a vector decoder for code.
func NewVectorDecoder(code Code) *VectorDecoder {
	return &VectorDecoder{transcoderState: transcoderState{code: code}}
}

// Setup computes the per-length symbol index ranges. See Decoder.Setup.
func (d *VectorDecoder) Setup(fullDecode, fixDNGBug16 bool) error {
	if err := d.setup(fullDecode, fixDNGBug16); err != nil {
		return err
	}
	// For lengths 0 and 1 the minimum code id is always 0.
	d.minCodeIDForLen = make([]int, 2, 2+d.maxCodeLength())
	for l := 1; l <= d.maxCodeLength(); l++ {
		d.minCodeIDForLen = append(d.minCodeIDForLen,
			d.minCodeIDForLen[l]+d.code.CodesPerLength[l])
	}
	return nil
}

func (d *VectorDecoder) state() *transcoderState { return &d.transcoderState }

func (d *VectorDecoder) finishReadingPartialSymbol(bs bitio.Reader, partial CodeSymbol) (CodeSymbol, uint32, error) {
	for partial.Len < d.maxCodeLength() {
		bit := bs.GetBitsNoFill(1)
		partial.Code = partial.Code<<1 | bit
		partial.Len++

		// Global length ordering gives the code id range for this
		// length directly.
		for id := d.minCodeIDForLen[partial.Len]; id < d.minCodeIDForLen[1+partial.Len]; id++ {
			if d.code.Symbols[id] == partial {
				return partial, d.code.CodeValues[id], nil
			}
		}
	}
	return CodeSymbol{}, 0, fmt.Errorf("%w: %#x (len %d)",
		ErrBadCode, partial.Code, partial.Len)
}

func (d *VectorDecoder) readSymbol(bs bitio.Reader) (CodeSymbol, uint32, error) {
	return d.finishReadingPartialSymbol(bs, CodeSymbol{})
}

// DecodeCodeValue implements Decoder.
func (d *VectorDecoder) DecodeCodeValue(bs bitio.Reader) (uint32, error) {
	if err := bs.Fill(bitio.MaxGetBits); err != nil {
		return 0, err
	}
	_, codeValue, err := d.readSymbol(bs)
	return codeValue, err
}

// DecodeDifference implements Decoder.
func (d *VectorDecoder) DecodeDifference(bs bitio.Reader) (int32, error) {
	if err := bs.Fill(bitio.MaxGetBits); err != nil {
		return 0, err
	}
	_, codeValue, err := d.readSymbol(bs)
	if err != nil {
		return 0, err
	}
	return d.processDifference(bs, codeValue), nil
}
