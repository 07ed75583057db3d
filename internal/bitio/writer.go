package bitio

import (
	"encoding/binary"
	"io"
)

// Writer is the bit-serial producer symmetric to Reader: it accepts
// packets of 0..32 bits and drains 32-bit chunks to an io.Writer sink
// in the order's byte layout.
//
// A Writer must be flushed before its output is complete; Flush pads
// with zero bits to the next 32-bit boundary and is idempotent.
type Writer interface {
	// Put appends the low count bits of bits to the stream; count is
	// in [0,32] and zero is a no-op.
	Put(bits uint32, count int) error
	// Flush pads with zero bits to the next 32-bit boundary and drains
	// the cache. Further Puts after a Flush are erroneous.
	Flush() error
	// Err returns the first sink error encountered, if any.
	Err() error
}

var (
	_ Writer = (*LSBWriter)(nil)
	_ Writer = (*MSBWriter)(nil)
	_ Writer = (*MSB16Writer)(nil)
	_ Writer = (*MSB32Writer)(nil)
	_ Writer = (*JPEGWriter)(nil)
)

// writerRL is the common core of the MSB-family writers. The per-order
// chunk byte layout is injected through the drain hook, which emits one
// 32-bit chunk to the sink.
type writerRL struct {
	cache   cacheRL
	out     io.Writer
	err     error
	flushed bool
	drain   func(chunk uint32)
}

func (w *writerRL) emit(buf []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.out.Write(buf)
}

func (w *writerRL) drainIfFull() {
	if w.cache.fill < MaxGetBits {
		return // does not mean the cache is empty
	}
	chunk := w.cache.peek(MaxGetBits)
	w.cache.skip(MaxGetBits)
	w.drain(chunk)
}

func (w *writerRL) Put(bits uint32, count int) error {
	if count == 0 {
		return w.err
	}
	if count < MaxGetBits {
		bits &= uint32(1)<<uint(count) - 1
	}
	w.drainIfFull()
	w.cache.push(uint64(bits), count)
	return w.err
}

func (w *writerRL) Flush() error {
	if w.flushed {
		return w.err
	}
	w.drainIfFull()
	if w.cache.fill > 0 {
		w.Put(0, MaxGetBits-w.cache.fill)
		w.drainIfFull()
	}
	w.flushed = true
	return w.err
}

func (w *writerRL) Err() error { return w.err }

// writerLR mirrors writerRL for the left-in/right-out cache used by the
// LSB order.
type writerLR struct {
	cache   cacheLR
	out     io.Writer
	err     error
	flushed bool
}

func (w *writerLR) emit(buf []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.out.Write(buf)
}

func (w *writerLR) drainIfFull() {
	if w.cache.fill < MaxGetBits {
		return
	}
	chunk := w.cache.peek(MaxGetBits)
	w.cache.skip(MaxGetBits)
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], chunk)
	w.emit(buf[:])
}

func (w *writerLR) Put(bits uint32, count int) error {
	if count == 0 {
		return w.err
	}
	if count < MaxGetBits {
		bits &= uint32(1)<<uint(count) - 1
	}
	w.drainIfFull()
	w.cache.push(uint64(bits), count)
	return w.err
}

func (w *writerLR) Flush() error {
	if w.flushed {
		return w.err
	}
	w.drainIfFull()
	if w.cache.fill > 0 {
		w.Put(0, MaxGetBits-w.cache.fill)
		w.drainIfFull()
	}
	w.flushed = true
	return w.err
}

func (w *writerLR) Err() error { return w.err }

// LSBWriter drains 32-bit chunks as 4 little-endian bytes, the exact
// inverse of LSBReader.
type LSBWriter struct {
	writerLR
}

// NewLSBWriter creates an LSB-order writer draining to out.
func NewLSBWriter(out io.Writer) *LSBWriter {
	w := &LSBWriter{}
	w.out = out
	return w
}

// MSBWriter drains 32-bit chunks as 4 big-endian bytes, the exact
// inverse of MSBReader.
type MSBWriter struct {
	writerRL
}

// NewMSBWriter creates an MSB-order writer draining to out.
func NewMSBWriter(out io.Writer) *MSBWriter {
	w := &MSBWriter{}
	w.out = out
	w.drain = w.drainChunk
	return w
}

func (w *MSBWriter) drainChunk(chunk uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], chunk)
	w.emit(buf[:])
}

// MSB16Writer drains 32-bit chunks as two 2-byte little-endian halves,
// the exact inverse of MSB16Reader.
type MSB16Writer struct {
	writerRL
}

// NewMSB16Writer creates an MSB16-order writer draining to out.
func NewMSB16Writer(out io.Writer) *MSB16Writer {
	w := &MSB16Writer{}
	w.out = out
	w.drain = w.drainChunk
	return w
}

func (w *MSB16Writer) drainChunk(chunk uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint16(buf[0:2], uint16(chunk>>16))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(chunk))
	w.emit(buf[:])
}

// MSB32Writer drains 32-bit chunks as 4 little-endian bytes, the exact
// inverse of MSB32Reader.
type MSB32Writer struct {
	writerRL
}

// NewMSB32Writer creates an MSB32-order writer draining to out.
func NewMSB32Writer(out io.Writer) *MSB32Writer {
	w := &MSB32Writer{}
	w.out = out
	w.drain = w.drainChunk
	return w
}

func (w *MSB32Writer) drainChunk(chunk uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], chunk)
	w.emit(buf[:])
}

// JPEGWriter drains 32-bit chunks as 4 big-endian bytes with JPEG byte
// stuffing: every emitted 0xFF is immediately followed by a 0x00
// stuffing byte. This is the exact inverse of JPEGReader's unstuffing.
type JPEGWriter struct {
	writerRL
}

// NewJPEGWriter creates a JPEG-order writer draining to out.
func NewJPEGWriter(out io.Writer) *JPEGWriter {
	w := &JPEGWriter{}
	w.out = out
	w.drain = w.drainChunk
	return w
}

func (w *JPEGWriter) drainChunk(chunk uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], chunk)
	// Fast path: nothing to stuff.
	if buf[0] != 0xFF && buf[1] != 0xFF && buf[2] != 0xFF && buf[3] != 0xFF {
		w.emit(buf[:])
		return
	}
	var stuffed [8]byte
	n := 0
	for _, b := range buf {
		stuffed[n] = b
		n++
		if b == 0xFF {
			stuffed[n] = 0x00
			n++
		}
	}
	w.emit(stuffed[:n])
}
