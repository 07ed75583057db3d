package prefixcode

import (
	"fmt"

	"github.com/deepteams/rawcodec/internal/bitio"
)

// VectorEncoder emits prefix-coded symbols into a bit vacuumer. Code
// values are located by a linear scan over the alphabet; encoder tables
// are small enough that nothing fancier pays off.
type VectorEncoder struct {
	transcoderState
}

// NewVectorEncoder creates an encoder for code.
func NewVectorEncoder(code Code) *VectorEncoder {
	return &VectorEncoder{transcoderState: transcoderState{code: code}}
}

// Setup finalizes the encoder; the flags mirror Decoder.Setup.
func (e *VectorEncoder) Setup(fullDecode, fixDNGBug16 bool) error {
	return e.setup(fullDecode, fixDNGBug16)
}

func (e *VectorEncoder) codeIndexOf(value uint32) (int, error) {
	for i, v := range e.code.CodeValues {
		if v == value {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: value %d is not in the alphabet", ErrBadCode, value)
}

func (e *VectorEncoder) putSymbol(bv bitio.Writer, codeIndex int) error {
	sym := e.code.Symbols[codeIndex]
	return bv.Put(sym.Code, sym.Len)
}

// EncodeCodeValue emits the symbol for codeValue. Valid only when the
// encoder was set up with fullDecode false.
func (e *VectorEncoder) EncodeCodeValue(bv bitio.Writer, codeValue uint32) error {
	i, err := e.codeIndexOf(codeValue)
	if err != nil {
		return err
	}
	return e.putSymbol(bv, i)
}

// EncodeDifference reduces the extended difference to its magnitude
// bits, emits the symbol for their length, then the bits themselves.
// At length 16 the bits are emitted only in fix-DNG-bug-16 mode, as
// padding. Valid only in full-decode mode.
func (e *VectorEncoder) EncodeDifference(bv bitio.Writer, value int32) error {
	diff, diffLen := Reduce(value)
	i, err := e.codeIndexOf(uint32(diffLen))
	if err != nil {
		return err
	}
	if err := e.putSymbol(bv, i); err != nil {
		return err
	}
	if diffLen != 16 || e.fixDNGBug16 {
		return bv.Put(diff, diffLen)
	}
	return nil
}
