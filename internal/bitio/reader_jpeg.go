package bitio

import "encoding/binary"

// JPEGReader streams bits MSB-first from a JPEG entropy-coded segment,
// undoing byte stuffing on the fly: every 0xFF data byte is followed by
// a 0x00 stuffing byte that is skipped. Any 0xFF followed by a non-zero
// byte is a marker: the stream ends there, further reads saturate with
// zero bits, and StreamPosition reports the byte index of the 0xFF so
// an enclosing parser can pick up the marker pair.
//
// On average only ~2% of 4-byte blocks contain an 0xFF byte, so the
// refill has a no-0xFF fast path.
type JPEGReader struct {
	readerRL
	eosPos int // byte index of the terminating 0xFF, or -1
}

// NewJPEGReader creates a JPEG-order reader over input.
func NewJPEGReader(input []byte) (*JPEGReader, error) {
	r := &JPEGReader{eosPos: -1}
	if err := r.init(input, jpegProcessBytes); err != nil {
		return nil, err
	}
	r.refill = r.fillCache
	return r, nil
}

func (r *JPEGReader) fillCache(win []byte) int {
	// Fast path: no 0xFF among the next 4 bytes.
	if win[0] != 0xFF && win[1] != 0xFF && win[2] != 0xFF && win[3] != 0xFF {
		r.cache.push(uint64(binary.BigEndian.Uint32(win[0:4])), 32)
		return 4
	}

	p := 0
	for i := 0; i < 4; i++ {
		// Pre-execute the common case of a normal, non-FF byte.
		c0 := win[p]
		r.cache.push(uint64(c0), 8)
		if c0 != 0xFF {
			p++
			continue
		}

		// Found FF. An FF/00 pair is an FF data byte plus a stuffing
		// byte to be skipped.
		if win[p+1] == 0x00 {
			p += 2
			continue
		}

		// FF/xx with xx != 00 is the end-of-stream marker. The 8 bits
		// of the speculatively pushed 0xFF must be unpushed: restore
		// the fill level and clear the stale low bits, then pin the
		// fill level so subsequent reads see zero-padded input.
		r.eosPos = r.pos + p
		r.cache.fill -= 8
		r.cache.bits &= ^(^uint64(0) >> uint(r.cache.fill))
		r.cache.fill = cacheBits

		// Claim the rest of the buffer as consumed so no further
		// refill can advance.
		return len(r.input) - r.pos
	}
	return p
}

// StreamPosition returns the recorded end-of-stream byte position once
// the marker sentinel has been seen, and the byte-aligned logical
// position otherwise.
func (r *JPEGReader) StreamPosition() int {
	if r.eosPos >= 0 {
		return r.eosPos
	}
	return r.readerRL.StreamPosition()
}

// AtEndOfStream reports whether a terminating marker has been seen.
func (r *JPEGReader) AtEndOfStream() bool { return r.eosPos >= 0 }
