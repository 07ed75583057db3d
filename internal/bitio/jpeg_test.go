package bitio

import (
	"bytes"
	"testing"
)

func TestJPEGReader_Unstuffing(t *testing.T) {
	// FF 00 is a stuffed FF data byte; the 00 is skipped.
	data := []byte{0xFF, 0x00, 0xAB, 0x00, 0x00, 0x00, 0x00, 0x00}
	r, err := NewJPEGReader(data)
	if err != nil {
		t.Fatal(err)
	}

	v, err := r.GetBits(8)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xFF {
		t.Errorf("first byte = %#x, want 0xFF", v)
	}
	v, err = r.GetBits(8)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xAB {
		t.Errorf("second byte = %#x, want 0xAB", v)
	}
}

func TestJPEGReader_MarkerAtStart(t *testing.T) {
	// FF D9 right at the start: end of stream at position 0, any read
	// saturates with zero bits.
	data := []byte{0xFF, 0xD9, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	r, err := NewJPEGReader(data)
	if err != nil {
		t.Fatal(err)
	}

	v, err := r.GetBits(16)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Errorf("GetBits(16) at marker = %#x, want 0", v)
	}
	if !r.AtEndOfStream() {
		t.Error("AtEndOfStream = false, want true")
	}
	if got := r.StreamPosition(); got != 0 {
		t.Errorf("StreamPosition = %d, want 0", got)
	}
}

func TestJPEGReader_MarkerMidStream(t *testing.T) {
	// Data bytes, then FF D9. The marker byte pair stays available to
	// an enclosing parser: StreamPosition points at the FF.
	data := []byte{0x12, 0x34, 0x56, 0xFF, 0xD9, 0x00, 0x00, 0x00, 0x00, 0x00}
	r, err := NewJPEGReader(data)
	if err != nil {
		t.Fatal(err)
	}

	v, err := r.GetBits(24)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x123456 {
		t.Errorf("data bits = %#x, want 0x123456", v)
	}
	// The refill has already scanned into the marker.
	if !r.AtEndOfStream() {
		t.Fatal("AtEndOfStream = false, want true")
	}
	if got := r.StreamPosition(); got != 3 {
		t.Errorf("StreamPosition = %d, want 3", got)
	}
	// Reads past the marker are zero.
	v, err = r.GetBits(32)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Errorf("bits past marker = %#x, want 0", v)
	}
}

func TestJPEGReader_StuffedRunFastAndSlowPaths(t *testing.T) {
	// Four stuffed FF bytes in a row take the slow path; plain bytes
	// around them take the fast path.
	data := []byte{
		0x11, 0x22, 0x33, 0x44,
		0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00,
		0x55, 0x66, 0x77, 0x88,
	}
	r, err := NewJPEGReader(data)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []uint32{0x11223344, 0xFFFFFFFF, 0x55667788} {
		v, err := r.GetBits(32)
		if err != nil {
			t.Fatal(err)
		}
		if v != want {
			t.Errorf("chunk = %#x, want %#x", v, want)
		}
	}
}

func TestJPEGWriter_Stuffing(t *testing.T) {
	var buf bytes.Buffer
	w := NewJPEGWriter(&buf)
	if err := w.Put(0xFFFFFFFF, 32); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	want := []byte{0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00, 0xFF, 0x00}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("stuffed output = %x, want %x", buf.Bytes(), want)
	}
}

func TestJPEGStuffingRoundTrip(t *testing.T) {
	// Bytes with an arbitrary distribution of FF values survive the
	// stuff/unstuff round trip, and a trailing marker is reported as
	// end of stream at the right byte index.
	payload := []byte{0xFF, 0x12, 0xFF, 0xFF, 0x00, 0xFE, 0xFF, 0x80}

	var buf bytes.Buffer
	w := NewJPEGWriter(&buf)
	for _, b := range payload {
		if err := w.Put(uint32(b), 8); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	stuffed := buf.Bytes()

	// Append a marker after the stuffed stream.
	markerAt := len(stuffed)
	stuffed = append(stuffed, 0xFF, 0xD9, 0, 0, 0, 0, 0, 0)

	r, err := NewJPEGReader(stuffed)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range payload {
		v, err := r.GetBits(8)
		if err != nil {
			t.Fatal(err)
		}
		if v != uint32(want) {
			t.Errorf("byte %d = %#x, want %#x", i, v, want)
		}
	}

	// Drain to the marker: everything until it must be zero padding.
	for !r.AtEndOfStream() {
		v, err := r.GetBits(8)
		if err != nil {
			t.Fatal(err)
		}
		if v != 0 && !r.AtEndOfStream() {
			t.Fatalf("unexpected padding byte %#x", v)
		}
	}
	if got := r.StreamPosition(); got != markerAt {
		t.Errorf("StreamPosition = %d, want %d", got, markerAt)
	}
}
