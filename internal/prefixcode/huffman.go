package prefixcode

import "fmt"

// HuffmanCode is a true Huffman code in its JPEG DHT form: the number
// of codes per bit length plus the flat list of code values. The code
// symbols themselves are implicit and generated canonically.
type HuffmanCode struct {
	traits Traits
	// codesPerLength[l] is the count of codes of length l; index 0 is
	// unused and always zero. Trailing zero entries are trimmed.
	codesPerLength []int
	codeValues     []uint32
}

// NewHuffmanCode creates an empty Huffman code of the given family.
func NewHuffmanCode(traits Traits) *HuffmanCode {
	return &HuffmanCode{traits: traits}
}

// numCodes returns the total symbol count.
func (hc *HuffmanCode) numCodes() int {
	n := 0
	for _, c := range hc.codesPerLength {
		n += c
	}
	return n
}

// SetNCodesPerLength installs the DHT codes-per-length table (one byte
// per length, 1-based, exactly MaxCodeLengthBits entries) and returns
// the total code count. It validates that each level of the implied
// tree can hold its leaves.
func (hc *HuffmanCode) SetNCodesPerLength(counts []byte) (int, error) {
	if len(counts) != hc.traits.MaxCodeLengthBits {
		return 0, fmt.Errorf("%w: %d codes-per-length entries, want %d",
			ErrCorruptCode, len(counts), hc.traits.MaxCodeLengthBits)
	}

	hc.codesPerLength = make([]int, 1+len(counts))
	for l, c := range counts {
		hc.codesPerLength[1+l] = int(c)
	}
	for len(hc.codesPerLength) > 0 && hc.codesPerLength[len(hc.codesPerLength)-1] == 0 {
		hc.codesPerLength = hc.codesPerLength[:len(hc.codesPerLength)-1]
	}
	if len(hc.codesPerLength) <= 1 {
		return 0, fmt.Errorf("%w: codes-per-length table is empty", ErrCorruptCode)
	}

	count := hc.numCodes()
	if count > hc.traits.MaxNumCodeValues {
		return 0, fmt.Errorf("%w: too big code-values table (%d > %d)",
			ErrCorruptCode, count, hc.traits.MaxNumCodeValues)
	}

	// At the root there are two possible child nodes; each level's
	// leaves reduce the branches available below it.
	maxCodes := 2
	for l := 1; l < len(hc.codesPerLength); l++ {
		n := hc.codesPerLength[l]
		if n > 1<<uint(l) {
			return 0, fmt.Errorf("%w: can never have %d codes of %d-bit length",
				ErrCorruptCode, n, l)
		}
		if n > maxCodes {
			return 0, fmt.Errorf("%w: can only fit %d out of %d codes of %d-bit length",
				ErrCorruptCode, maxCodes, n, l)
		}
		maxCodes -= n
		maxCodes *= 2
	}

	return count, nil
}

// SetCodeValues installs the alphabet; the count must match the
// codes-per-length table installed before.
func (hc *HuffmanCode) SetCodeValues(values []uint32) error {
	if len(values) != hc.numCodes() {
		return fmt.Errorf("%w: %d code values for %d codes",
			ErrCorruptCode, len(values), hc.numCodes())
	}
	for _, v := range values {
		if v > hc.traits.MaxCodeValue {
			return fmt.Errorf("%w: code value %d is larger than maximum %d",
				ErrCorruptCode, v, hc.traits.MaxCodeValue)
		}
	}
	hc.codeValues = append([]uint32(nil), values...)
	return nil
}

// Equal reports whether two Huffman codes define the same table.
func (hc *HuffmanCode) Equal(other *HuffmanCode) bool {
	if len(hc.codesPerLength) != len(other.codesPerLength) ||
		len(hc.codeValues) != len(other.codeValues) {
		return false
	}
	for i := range hc.codesPerLength {
		if hc.codesPerLength[i] != other.codesPerLength[i] {
			return false
		}
	}
	for i := range hc.codeValues {
		if hc.codeValues[i] != other.codeValues[i] {
			return false
		}
	}
	return true
}

// generateCodeSymbols assigns codes canonically: codes of each length
// are consecutive integers, and each length's first code is the
// previous length's last code plus one, shifted left once.
// (JPEG Annex C, figures C.1 and C.2.)
func (hc *HuffmanCode) generateCodeSymbols() []CodeSymbol {
	symbols := make([]CodeSymbol, 0, hc.numCodes())
	code := uint32(0)
	for l := 1; l < len(hc.codesPerLength); l++ {
		for i := 0; i < hc.codesPerLength[l]; i++ {
			symbols = append(symbols, CodeSymbol{Code: code, Len: l})
			code++
		}
		code <<= 1
	}
	return symbols
}

// Code converts the Huffman form into a validated prefix Code.
func (hc *HuffmanCode) Code() (Code, error) {
	if len(hc.codesPerLength) == 0 || len(hc.codeValues) == 0 {
		return Code{}, fmt.Errorf("%w: incomplete Huffman code", ErrCorruptCode)
	}
	return NewCodeFromSymbols(hc.traits, hc.generateCodeSymbols(), hc.codeValues)
}
