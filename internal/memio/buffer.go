// Package memio provides non-owning, bounds-checked views over byte
// buffers, plus a structured cursor-based reader that honors a
// configured endianness for multi-byte integers.
//
// All views borrow the underlying bytes; the input buffer must outlive
// every view and stream derived from it.
package memio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Errors returned by buffer and stream operations.
var (
	ErrOutOfBounds       = errors.New("memio: out of bounds access")
	ErrNotNullTerminated = errors.New("memio: string is not null-terminated")
)

// Endianness selects how multi-byte integers are assembled from bytes.
type Endianness int

const (
	LittleEndian Endianness = iota
	BigEndian
)

func (e Endianness) order() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Buffer is an immutable non-owning view of a contiguous byte range.
type Buffer struct {
	data []byte
}

// NewBuffer wraps data in a Buffer. The data is borrowed, not copied.
func NewBuffer(data []byte) Buffer {
	return Buffer{data: data}
}

// Size returns the length of the view in bytes.
func (b Buffer) Size() int { return len(b.data) }

// Bytes returns the underlying byte slice.
func (b Buffer) Bytes() []byte { return b.data }

// Sub returns the [offset, offset+size) sub-view.
func (b Buffer) Sub(offset, size int) (Buffer, error) {
	if offset < 0 || size < 0 || offset > len(b.data)-size {
		return Buffer{}, fmt.Errorf("%w: sub(%d, %d) of %d bytes",
			ErrOutOfBounds, offset, size, len(b.data))
	}
	return Buffer{data: b.data[offset : offset+size]}, nil
}

// ByteStream is a cursor over a Buffer that reads multi-byte integers
// honoring the stream's endianness.
type ByteStream struct {
	buf   Buffer
	order Endianness
	pos   int
}

// NewByteStream wraps data in a stream reading with the given endianness.
func NewByteStream(data []byte, order Endianness) *ByteStream {
	return &ByteStream{buf: NewBuffer(data), order: order}
}

// SubStream returns a new stream over the [offset, offset+size) range of
// the underlying buffer, with position reset to its start.
func (s *ByteStream) SubStream(offset, size int) (*ByteStream, error) {
	sub, err := s.buf.Sub(offset, size)
	if err != nil {
		return nil, err
	}
	return &ByteStream{buf: sub, order: s.order}, nil
}

// Stream carves off the next size bytes as a new sub-stream and advances
// past them.
func (s *ByteStream) Stream(size int) (*ByteStream, error) {
	sub, err := s.SubStream(s.pos, size)
	if err != nil {
		return nil, err
	}
	s.pos += size
	return sub, nil
}

// Size returns the total stream length in bytes.
func (s *ByteStream) Size() int { return s.buf.Size() }

// Position returns the current cursor position.
func (s *ByteStream) Position() int { return s.pos }

// SetPosition moves the cursor to pos.
func (s *ByteStream) SetPosition(pos int) error {
	if pos < 0 || pos > s.buf.Size() {
		return fmt.Errorf("%w: position %d of %d bytes",
			ErrOutOfBounds, pos, s.buf.Size())
	}
	s.pos = pos
	return nil
}

// Remaining returns the number of unread bytes.
func (s *ByteStream) Remaining() int { return s.buf.Size() - s.pos }

// check verifies that count bytes can be read at relative offset rel.
func (s *ByteStream) check(rel, count int) error {
	if rel < 0 || count < 0 || s.pos+rel > s.buf.Size()-count {
		return fmt.Errorf("%w: read of %d bytes at %d+%d of %d",
			ErrOutOfBounds, count, s.pos, rel, s.buf.Size())
	}
	return nil
}

// PeekBytes returns a view of the next count bytes without advancing.
func (s *ByteStream) PeekBytes(count int) ([]byte, error) {
	if err := s.check(0, count); err != nil {
		return nil, err
	}
	return s.buf.data[s.pos : s.pos+count], nil
}

// GetBytes returns a view of the next count bytes and advances past them.
func (s *ByteStream) GetBytes(count int) ([]byte, error) {
	b, err := s.PeekBytes(count)
	if err != nil {
		return nil, err
	}
	s.pos += count
	return b, nil
}

// SkipBytes advances the cursor by count bytes.
func (s *ByteStream) SkipBytes(count int) error {
	if err := s.check(0, count); err != nil {
		return err
	}
	s.pos += count
	return nil
}

// PeekU8 returns the byte at relative offset rel without advancing.
func (s *ByteStream) PeekU8(rel int) (uint8, error) {
	if err := s.check(rel, 1); err != nil {
		return 0, err
	}
	return s.buf.data[s.pos+rel], nil
}

// GetU8 reads one byte and advances.
func (s *ByteStream) GetU8() (uint8, error) {
	v, err := s.PeekU8(0)
	if err != nil {
		return 0, err
	}
	s.pos++
	return v, nil
}

// PeekU16 reads a 16-bit integer at relative offset rel without advancing.
func (s *ByteStream) PeekU16(rel int) (uint16, error) {
	if err := s.check(rel, 2); err != nil {
		return 0, err
	}
	return s.order.order().Uint16(s.buf.data[s.pos+rel:]), nil
}

// GetU16 reads a 16-bit integer and advances.
func (s *ByteStream) GetU16() (uint16, error) {
	v, err := s.PeekU16(0)
	if err != nil {
		return 0, err
	}
	s.pos += 2
	return v, nil
}

// PeekU32 reads a 32-bit integer at relative offset rel without advancing.
func (s *ByteStream) PeekU32(rel int) (uint32, error) {
	if err := s.check(rel, 4); err != nil {
		return 0, err
	}
	return s.order.order().Uint32(s.buf.data[s.pos+rel:]), nil
}

// GetU32 reads a 32-bit integer and advances.
func (s *ByteStream) GetU32() (uint32, error) {
	v, err := s.PeekU32(0)
	if err != nil {
		return 0, err
	}
	s.pos += 4
	return v, nil
}

// PeekI32 reads a signed 32-bit integer at relative offset rel without
// advancing.
func (s *ByteStream) PeekI32(rel int) (int32, error) {
	v, err := s.PeekU32(rel)
	return int32(v), err
}

// GetI32 reads a signed 32-bit integer and advances.
func (s *ByteStream) GetI32() (int32, error) {
	v, err := s.GetU32()
	return int32(v), err
}

// PeekF32 reads an IEEE-754 32-bit float at relative offset rel without
// advancing.
func (s *ByteStream) PeekF32(rel int) (float32, error) {
	v, err := s.PeekU32(rel)
	return math.Float32frombits(v), err
}

// GetF32 reads an IEEE-754 32-bit float and advances.
func (s *ByteStream) GetF32() (float32, error) {
	v, err := s.GetU32()
	return math.Float32frombits(v), err
}

// GetString returns a view up to and including the next 0x00 byte and
// advances past it.
func (s *ByteStream) GetString() ([]byte, error) {
	i := bytes.IndexByte(s.buf.data[s.pos:], 0x00)
	if i < 0 {
		return nil, ErrNotNullTerminated
	}
	str := s.buf.data[s.pos : s.pos+i+1]
	s.pos += i + 1
	return str, nil
}

// HasPrefix reports whether the unread bytes start with prefix.
func (s *ByteStream) HasPrefix(prefix []byte) bool {
	return bytes.HasPrefix(s.buf.data[s.pos:], prefix)
}

// SkipPrefix advances past prefix if the unread bytes start with it and
// reports whether it did.
func (s *ByteStream) SkipPrefix(prefix []byte) bool {
	if !s.HasPrefix(prefix) {
		return false
	}
	s.pos += len(prefix)
	return true
}
