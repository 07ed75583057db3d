// Package prefixcode implements the abstract Huffman/prefix-code model
// used by RAW bitstream decompressors, together with three decoder
// representations (tree, vector, lookup), a LUT accelerator wrapping
// any of them, and a vector encoder.
//
// Two code families are supported: Baseline (JPEG DC Huffman, 16-bit
// symbols, full-decode capable) and VC5 (26-bit symbols, code values
// only).
package prefixcode

import (
	"errors"
	"fmt"
)

// Errors returned by code construction and decoding.
var (
	// ErrCorruptCode reports a structurally invalid code definition:
	// length/count bounds violated, code values out of range, symbols
	// out of order, or shared prefixes.
	ErrCorruptCode = errors.New("prefixcode: corrupt code")
	// ErrBadCode reports that a decode walk ran off the code: a missing
	// tree branch or a partial code exceeding the maximum length.
	ErrBadCode = errors.New("prefixcode: bad code in bitstream")
)

// Traits fixes the limits of a code family.
type Traits struct {
	// MaxCodeLengthBits is the longest permitted symbol, in bits.
	MaxCodeLengthBits int
	// MaxNumCodeValues bounds the alphabet size.
	MaxNumCodeValues int
	// MaxCodeValue bounds each decoded value.
	MaxCodeValue uint32
	// MaxDiffLength bounds code values when they are interpreted as
	// difference bit lengths (full decode); meaningful only when
	// SupportsFullDecode is set.
	MaxDiffLength uint32
	// SupportsFullDecode reports whether code values may be interpreted
	// as the bit length of a following signed difference.
	SupportsFullDecode bool
}

// The two supported code families.
var (
	// Baseline is the JPEG Huffman family: symbols up to 16 bits, at
	// most 162 code values, each at most 255, full decode supported
	// with differences up to 16 bits (so symbol + difference fit one
	// 32-bit fill).
	Baseline = Traits{
		MaxCodeLengthBits:  16,
		MaxNumCodeValues:   162,
		MaxCodeValue:       255,
		MaxDiffLength:      16,
		SupportsFullDecode: true,
	}
	// VC5 is the GoPro VC-5 family: symbols up to 26 bits, at most 264
	// code values, each at most 524287, no difference extension.
	VC5 = Traits{
		MaxCodeLengthBits:  26,
		MaxNumCodeValues:   264,
		MaxCodeValue:       524287,
		SupportsFullDecode: false,
	}
)

// CodeSymbol is one prefix code: the bit pattern and its length.
type CodeSymbol struct {
	Code uint32 // right-aligned bit pattern
	Len  int    // length in bits, >= 1
}

// haveCommonPrefix reports whether the shorter of the two symbols is a
// prefix of the longer one. partial must not be longer than sym.
func haveCommonPrefix(sym, partial CodeSymbol) bool {
	return sym.Code>>uint(sym.Len-partial.Len) == partial.Code
}

// Code is a validated prefix code: the per-length histogram, the
// symbols in non-decreasing length order, and the parallel alphabet of
// decoded values.
type Code struct {
	Traits Traits
	// CodesPerLength[l] is the number of symbols of length l, for
	// l in [1, maxCodeLength]; index 0 is unused. Trailing zero
	// entries are trimmed.
	CodesPerLength []int
	Symbols        []CodeSymbol
	CodeValues     []uint32
}

// maxCodeLength returns the longest symbol length present.
func (c *Code) maxCodeLength() int { return len(c.CodesPerLength) - 1 }

// NewCodeFromSymbols builds a Code from explicit (symbol, value) pairs,
// validating symbol ranges, global non-decreasing length order,
// per-length count limits, and absence of common prefixes.
func NewCodeFromSymbols(traits Traits, symbols []CodeSymbol, codeValues []uint32) (Code, error) {
	if len(symbols) == 0 || len(codeValues) == 0 || len(symbols) != len(codeValues) {
		return Code{}, fmt.Errorf("%w: malformed code: %d symbols, %d values",
			ErrCorruptCode, len(symbols), len(codeValues))
	}
	if len(symbols) > traits.MaxNumCodeValues {
		return Code{}, fmt.Errorf("%w: too many code values (%d > %d)",
			ErrCorruptCode, len(symbols), traits.MaxNumCodeValues)
	}

	codesPerLength := make([]int, 1+traits.MaxCodeLengthBits)
	for _, s := range symbols {
		if s.Len < 1 || s.Len > traits.MaxCodeLengthBits {
			return Code{}, fmt.Errorf("%w: symbol length %d out of [1,%d]",
				ErrCorruptCode, s.Len, traits.MaxCodeLengthBits)
		}
		if s.Code > uint32(1)<<uint(s.Len)-1 {
			return Code{}, fmt.Errorf("%w: code %#x does not fit %d bits",
				ErrCorruptCode, s.Code, s.Len)
		}
		codesPerLength[s.Len]++
	}
	for len(codesPerLength) > 1 && codesPerLength[len(codesPerLength)-1] == 0 {
		codesPerLength = codesPerLength[:len(codesPerLength)-1]
	}

	for _, v := range codeValues {
		if v > traits.MaxCodeValue {
			return Code{}, fmt.Errorf("%w: code value %d is larger than maximum %d",
				ErrCorruptCode, v, traits.MaxCodeValue)
		}
	}

	// Walking down the tree level by level, codes of each length may
	// not outnumber the leaves remaining at that level.
	maxCodes := 2
	for l := 1; l < len(codesPerLength); l++ {
		n := codesPerLength[l]
		if n > maxCodes {
			return Code{}, fmt.Errorf("%w: too many codes of length %d",
				ErrCorruptCode, l)
		}
		maxCodes -= n
		maxCodes *= 2
	}

	// Symbols must be ordered so that lengths never decrease.
	for i := 1; i < len(symbols); i++ {
		if symbols[i-1].Len > symbols[i].Len {
			return Code{}, fmt.Errorf("%w: code symbols are not globally ordered",
				ErrCorruptCode)
		}
	}

	// No two symbols may share a prefix. Lower triangle only; symbols
	// are length-sorted so symbols[j] is never longer than symbols[i].
	for i := range symbols {
		for j := 0; j < i; j++ {
			if haveCommonPrefix(symbols[i], symbols[j]) {
				return Code{}, fmt.Errorf("%w: symbols %d and %d share a prefix",
					ErrCorruptCode, i, j)
			}
		}
	}

	return Code{
		Traits:         traits,
		CodesPerLength: codesPerLength,
		Symbols:        symbols,
		CodeValues:     codeValues,
	}, nil
}
