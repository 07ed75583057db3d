package bitio

import "encoding/binary"

// Chunk sizes read per refill.
const (
	chunkProcessBytes = 4
	// jpegProcessBytes is larger because at worst each of the 4 logical
	// bytes is an 0xFF followed by a 0x00 stuffing byte.
	jpegProcessBytes = 8
)

var (
	_ Reader = (*LSBReader)(nil)
	_ Reader = (*MSBReader)(nil)
	_ Reader = (*MSB16Reader)(nil)
	_ Reader = (*MSB32Reader)(nil)
	_ Reader = (*JPEGReader)(nil)
)

// LSBReader streams bits LSB-first: chunks are 4 little-endian bytes and
// the first bit of a byte is its least significant one.
type LSBReader struct {
	readerLR
}

// NewLSBReader creates an LSB-order reader over input.
func NewLSBReader(input []byte) (*LSBReader, error) {
	r := &LSBReader{}
	if err := r.init(input, chunkProcessBytes); err != nil {
		return nil, err
	}
	r.refill = r.fillCache
	return r, nil
}

func (r *LSBReader) fillCache(win []byte) int {
	r.cache.push(uint64(binary.LittleEndian.Uint32(win)), 32)
	return chunkProcessBytes
}

// MSBReader streams bits MSB-first: chunks are 4 big-endian bytes and
// the first bit of a byte is its most significant one.
type MSBReader struct {
	readerRL
}

// NewMSBReader creates an MSB-order reader over input.
func NewMSBReader(input []byte) (*MSBReader, error) {
	r := &MSBReader{}
	if err := r.init(input, chunkProcessBytes); err != nil {
		return nil, err
	}
	r.refill = r.fillCache
	return r, nil
}

func (r *MSBReader) fillCache(win []byte) int {
	r.cache.push(uint64(binary.BigEndian.Uint32(win)), 32)
	return chunkProcessBytes
}

// MSB16Reader streams bits MSB-first from 16-bit little-endian words:
// each 4-byte refill loads two 2-byte little-endian halves.
type MSB16Reader struct {
	readerRL
}

// NewMSB16Reader creates an MSB16-order reader over input.
func NewMSB16Reader(input []byte) (*MSB16Reader, error) {
	r := &MSB16Reader{}
	if err := r.init(input, chunkProcessBytes); err != nil {
		return nil, err
	}
	r.refill = r.fillCache
	return r, nil
}

func (r *MSB16Reader) fillCache(win []byte) int {
	r.cache.push(uint64(binary.LittleEndian.Uint16(win[0:2])), 16)
	r.cache.push(uint64(binary.LittleEndian.Uint16(win[2:4])), 16)
	return chunkProcessBytes
}

// MSB32Reader streams bits MSB-first from 32-bit little-endian words.
type MSB32Reader struct {
	readerRL
}

// NewMSB32Reader creates an MSB32-order reader over input.
func NewMSB32Reader(input []byte) (*MSB32Reader, error) {
	r := &MSB32Reader{}
	if err := r.init(input, chunkProcessBytes); err != nil {
		return nil, err
	}
	r.refill = r.fillCache
	return r, nil
}

func (r *MSB32Reader) fillCache(win []byte) int {
	r.cache.push(uint64(binary.LittleEndian.Uint32(win)), 32)
	return chunkProcessBytes
}
