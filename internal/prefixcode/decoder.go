package prefixcode

import "github.com/deepteams/rawcodec/internal/bitio"

// Decoder reads prefix-coded symbols from a bit stream. A decoder must
// be Setup exactly once before use; the full-decode flag fixes which of
// the two decode entry points is valid.
type Decoder interface {
	// Setup finalizes the decoder for either code-value decoding
	// (fullDecode false) or difference decoding (fullDecode true).
	Setup(fullDecode, fixDNGBug16 bool) error
	// DecodeCodeValue reads one symbol and returns its code value.
	// Valid only when the decoder was set up with fullDecode false.
	DecodeCodeValue(bs bitio.Reader) (uint32, error)
	// DecodeDifference reads one symbol, interprets its code value as
	// the bit length of a following signed difference, and returns the
	// extended difference. Valid only in full-decode mode.
	DecodeDifference(bs bitio.Reader) (int32, error)
}

var (
	_ Backend = (*TreeDecoder)(nil)
	_ Backend = (*VectorDecoder)(nil)
	_ Backend = (*LookupDecoder)(nil)
	_ Decoder = (*LUTDecoder)(nil)
)

// Backend is a Decoder that can resume a symbol read from a partial
// code, as required by the LUT accelerator after a lookup miss.
type Backend interface {
	Decoder
	// finishReadingPartialSymbol continues a symbol read from the
	// already-consumed partial code and returns the full symbol and
	// its code value.
	finishReadingPartialSymbol(bs bitio.Reader, partial CodeSymbol) (CodeSymbol, uint32, error)
	// state exposes the shared setup state to the wrapper.
	state() *transcoderState
}
