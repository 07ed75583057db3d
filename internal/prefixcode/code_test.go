package prefixcode

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

// dcLumaCounts and dcLumaValues form the standard JPEG Annex K DC
// luminance table.
var (
	dcLumaCounts = []byte{0, 1, 5, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0}
	dcLumaValues = []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
)

func dcLumaCode(t testing.TB) Code {
	t.Helper()
	hc := NewHuffmanCode(Baseline)
	if _, err := hc.SetNCodesPerLength(dcLumaCounts); err != nil {
		t.Fatal(err)
	}
	if err := hc.SetCodeValues(dcLumaValues); err != nil {
		t.Fatal(err)
	}
	code, err := hc.Code()
	if err != nil {
		t.Fatal(err)
	}
	return code
}

func TestCanonicalCodeAssignment(t *testing.T) {
	c := qt.New(t)
	code := dcLumaCode(t)

	wantLens := []int{2, 3, 3, 3, 3, 3, 4, 5, 6, 7, 8, 9}
	wantCodes := []uint32{
		0b00,
		0b010, 0b011, 0b100, 0b101, 0b110,
		0b1110,
		0b11110,
		0b111110,
		0b1111110,
		0b11111110,
		0b111111110,
	}
	c.Assert(len(code.Symbols), qt.Equals, len(wantLens))
	for i, sym := range code.Symbols {
		c.Assert(sym.Len, qt.Equals, wantLens[i], qt.Commentf("symbol %d", i))
		c.Assert(sym.Code, qt.Equals, wantCodes[i], qt.Commentf("symbol %d", i))
	}
}

func TestHuffmanCodeRejectsOverfullLevel(t *testing.T) {
	c := qt.New(t)
	hc := NewHuffmanCode(Baseline)

	// Three codes of length 1 can never exist.
	counts := []byte{3, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	_, err := hc.SetNCodesPerLength(counts)
	c.Assert(err, qt.ErrorIs, ErrCorruptCode)

	// Two codes of length 1 leave no room at length 2.
	counts = []byte{2, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	_, err = hc.SetNCodesPerLength(counts)
	c.Assert(err, qt.ErrorIs, ErrCorruptCode)
}

func TestHuffmanCodeRejectsEmptyTable(t *testing.T) {
	c := qt.New(t)
	hc := NewHuffmanCode(Baseline)
	_, err := hc.SetNCodesPerLength(make([]byte, 16))
	c.Assert(err, qt.ErrorIs, ErrCorruptCode)
}

func TestHuffmanCodeRejectsOversizedValues(t *testing.T) {
	c := qt.New(t)
	hc := NewHuffmanCode(Baseline)
	_, err := hc.SetNCodesPerLength([]byte{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	c.Assert(err, qt.IsNil)
	err = hc.SetCodeValues([]uint32{256})
	c.Assert(err, qt.ErrorIs, ErrCorruptCode)
}

func TestNewCodeFromSymbolsValidation(t *testing.T) {
	c := qt.New(t)

	// A valid two-symbol code.
	_, err := NewCodeFromSymbols(Baseline,
		[]CodeSymbol{{Code: 0, Len: 1}, {Code: 1, Len: 1}},
		[]uint32{1, 2})
	c.Assert(err, qt.IsNil)

	// Shared prefix: 0b0 is a prefix of 0b01.
	_, err = NewCodeFromSymbols(Baseline,
		[]CodeSymbol{{Code: 0, Len: 1}, {Code: 1, Len: 2}},
		[]uint32{1, 2})
	c.Assert(err, qt.ErrorIs, ErrCorruptCode)

	// Lengths must not decrease.
	_, err = NewCodeFromSymbols(Baseline,
		[]CodeSymbol{{Code: 2, Len: 2}, {Code: 0, Len: 1}},
		[]uint32{1, 2})
	c.Assert(err, qt.ErrorIs, ErrCorruptCode)

	// A code must fit its length.
	_, err = NewCodeFromSymbols(Baseline,
		[]CodeSymbol{{Code: 4, Len: 2}},
		[]uint32{1})
	c.Assert(err, qt.ErrorIs, ErrCorruptCode)

	// Symbol length above the family limit.
	_, err = NewCodeFromSymbols(Baseline,
		[]CodeSymbol{{Code: 0, Len: 17}},
		[]uint32{1})
	c.Assert(err, qt.ErrorIs, ErrCorruptCode)
}

func TestSetupRejectsLongDiffLengths(t *testing.T) {
	c := qt.New(t)
	code, err := NewCodeFromSymbols(Baseline,
		[]CodeSymbol{{Code: 0, Len: 1}, {Code: 1, Len: 1}},
		[]uint32{0, 17})
	c.Assert(err, qt.IsNil)

	d := NewLookupDecoder(code)
	// 17 cannot be a difference bit length.
	c.Assert(d.Setup(true, false), qt.ErrorIs, ErrCorruptCode)
	// As a plain code value it is fine.
	c.Assert(d.Setup(false, false), qt.IsNil)
}

func TestVC5DoesNotSupportFullDecode(t *testing.T) {
	c := qt.New(t)
	code, err := NewCodeFromSymbols(VC5,
		[]CodeSymbol{{Code: 0, Len: 1}, {Code: 1, Len: 1}},
		[]uint32{0, 524287})
	c.Assert(err, qt.IsNil)

	d := NewVectorDecoder(code)
	c.Assert(d.Setup(true, false), qt.ErrorIs, ErrCorruptCode)
	c.Assert(d.Setup(false, false), qt.IsNil)
}

func TestExtendReduceLaw(t *testing.T) {
	c := qt.New(t)
	for length := 1; length <= 16; length++ {
		for m := uint32(0); m < uint32(1)<<uint(length); m++ {
			ext := Extend(m, length)
			gotDiff, gotLen := Reduce(ext)
			if gotDiff != m || gotLen != length {
				c.Fatalf("Reduce(Extend(%#x, %d)) = (%#x, %d)", m, length, gotDiff, gotLen)
			}
		}
	}

	// The anchor points of figure F.12 for category 4: negatives
	// -15..-8 come from magnitudes 0..7, positives are themselves.
	c.Assert(Extend(0, 4), qt.Equals, int32(-15))
	c.Assert(Extend(7, 4), qt.Equals, int32(-8))
	c.Assert(Extend(8, 4), qt.Equals, int32(8))
	c.Assert(Extend(15, 4), qt.Equals, int32(15))
}
