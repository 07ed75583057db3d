package bitio

import (
	"bytes"
	"io"
	"math/rand"
	"testing"
)

type packet struct {
	value uint32
	nbits int
}

// randomPackets generates a deterministic sequence of (value, len)
// packets with lengths in [0, 32].
func randomPackets(seed int64, n int) []packet {
	rng := rand.New(rand.NewSource(seed))
	packets := make([]packet, n)
	for i := range packets {
		nbits := rng.Intn(33)
		var value uint32
		if nbits > 0 {
			value = rng.Uint32() & (uint32(1)<<uint(nbits) - 1)
		}
		packets[i] = packet{value: value, nbits: nbits}
	}
	return packets
}

func TestBitStreamRoundTrip(t *testing.T) {
	cases := []struct {
		name      string
		newWriter func(w io.Writer) Writer
		newReader func(data []byte) (Reader, error)
	}{
		{"LSB",
			func(w io.Writer) Writer { return NewLSBWriter(w) },
			func(d []byte) (Reader, error) { return NewLSBReader(d) }},
		{"MSB",
			func(w io.Writer) Writer { return NewMSBWriter(w) },
			func(d []byte) (Reader, error) { return NewMSBReader(d) }},
		{"MSB16",
			func(w io.Writer) Writer { return NewMSB16Writer(w) },
			func(d []byte) (Reader, error) { return NewMSB16Reader(d) }},
		{"MSB32",
			func(w io.Writer) Writer { return NewMSB32Writer(w) },
			func(d []byte) (Reader, error) { return NewMSB32Reader(d) }},
		{"JPEG",
			func(w io.Writer) Writer { return NewJPEGWriter(w) },
			func(d []byte) (Reader, error) { return NewJPEGReader(d) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for seed := int64(1); seed <= 4; seed++ {
				packets := randomPackets(seed, 256)

				var buf bytes.Buffer
				w := tc.newWriter(&buf)
				for _, p := range packets {
					if err := w.Put(p.value, p.nbits); err != nil {
						t.Fatal(err)
					}
				}
				if err := w.Flush(); err != nil {
					t.Fatal(err)
				}

				r, err := tc.newReader(buf.Bytes())
				if err != nil {
					t.Fatal(err)
				}
				for i, p := range packets {
					if p.nbits == 0 {
						continue
					}
					v, err := r.GetBits(p.nbits)
					if err != nil {
						t.Fatalf("seed %d packet %d: %v", seed, i, err)
					}
					if v != p.value {
						t.Fatalf("seed %d packet %d: got %#x, want %#x (len %d)",
							seed, i, v, p.value, p.nbits)
					}
				}
			}
		})
	}
}
