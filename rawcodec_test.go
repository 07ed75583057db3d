package rawcodec

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/deepteams/rawcodec/internal/bitio"
	"github.com/deepteams/rawcodec/internal/prefixcode"
)

// buildLJpeg assembles a single-component P=8 lossless JPEG around the
// given entropy-coded scan bytes.
func buildLJpeg(width, height int, scan []byte) []byte {
	var buf bytes.Buffer
	seg := func(m byte, payload []byte) {
		buf.WriteByte(0xFF)
		buf.WriteByte(m)
		var l [2]byte
		binary.BigEndian.PutUint16(l[:], uint16(len(payload)+2))
		buf.Write(l[:])
		buf.Write(payload)
	}

	buf.Write([]byte{0xFF, 0xD8}) // SOI

	// DHT: the standard Annex K DC luminance table.
	dht := []byte{0x00}
	dht = append(dht, 0, 1, 5, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0)
	dht = append(dht, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11)
	seg(0xC4, dht)

	// SOF3.
	sof := []byte{8}
	var hw [4]byte
	binary.BigEndian.PutUint16(hw[0:2], uint16(height))
	binary.BigEndian.PutUint16(hw[2:4], uint16(width))
	sof = append(sof, hw[:]...)
	sof = append(sof, 1, 0x01, 0x11, 0x00)
	seg(0xC3, sof)

	// SOS, predictor mode 1.
	seg(0xDA, []byte{1, 0x01, 0x00, 0x01, 0x00, 0x00})

	buf.Write(scan)
	buf.Write([]byte{0xFF, 0xD9}) // EOI
	return buf.Bytes()
}

// encodeImage entropy-codes vals following the mode-1 predictor rule.
func encodeImage(t testing.TB, vals [][]uint16) []byte {
	t.Helper()
	hc := prefixcode.NewHuffmanCode(prefixcode.Baseline)
	if _, err := hc.SetNCodesPerLength([]byte{0, 1, 5, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := hc.SetCodeValues([]uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}); err != nil {
		t.Fatal(err)
	}
	code, err := hc.Code()
	if err != nil {
		t.Fatal(err)
	}
	enc := prefixcode.NewVectorEncoder(code)
	if err := enc.Setup(true, false); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	bv := bitio.NewJPEGWriter(&buf)
	for y, row := range vals {
		for x, v := range row {
			var pred uint16 = 128
			switch {
			case y == 0 && x == 0:
			case x == 0:
				pred = vals[y-1][0]
			default:
				pred = row[x-1]
			}
			if err := enc.EncodeDifference(bv, int32(v)-int32(pred)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := bv.Flush(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func randomImage(seed int64, width, height int) [][]uint16 {
	rng := rand.New(rand.NewSource(seed))
	vals := make([][]uint16, height)
	for y := range vals {
		vals[y] = make([]uint16, width)
		for x := range vals[y] {
			vals[y][x] = uint16(rng.Intn(256))
		}
	}
	return vals
}

func TestDecodeLJpegSmallest(t *testing.T) {
	c := qt.New(t)

	// A one-byte scan of four zero-length differences (the standard
	// table codes length 0 as the two bits 00): every pixel decodes to
	// the initial predictor 2^(8-1).
	data := buildLJpeg(2, 2, []byte{0x00})
	img := NewImage16(2, 2, 1)
	c.Assert(DecodeLJpeg(data, img, nil), qt.IsNil)
	for i, v := range img.Pix {
		c.Assert(v, qt.Equals, uint16(128), qt.Commentf("pixel %d", i))
	}
}

func TestDecodeLJpegRoundTrip(t *testing.T) {
	c := qt.New(t)
	const width, height = 32, 16

	vals := randomImage(3, width, height)
	data := buildLJpeg(width, height, encodeImage(t, vals))

	img := NewImage16(width, height, 1)
	c.Assert(DecodeLJpeg(data, img, nil), qt.IsNil)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c.Assert(img.Pix[y*img.Stride+x], qt.Equals, vals[y][x],
				qt.Commentf("(%d,%d)", y, x))
		}
	}
}

func TestDecodeLJpegIntoTile(t *testing.T) {
	c := qt.New(t)
	const width, height = 8, 4

	vals := randomImage(4, width, height)
	data := buildLJpeg(width, height, encodeImage(t, vals))

	// Decode the frame into the bottom-right tile of a larger image.
	img := NewImage16(2*width, 2*height, 1)
	err := DecodeLJpeg(data, img, &LJpegOptions{
		OffsetX: width, OffsetY: height, Width: width, Height: height,
	})
	c.Assert(err, qt.IsNil)

	// Outside the tile everything is untouched.
	c.Assert(img.Pix[0], qt.Equals, uint16(0))
	// Inside the tile the frame decoded.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c.Assert(img.Pix[(height+y)*img.Stride+width+x], qt.Equals, vals[y][x],
				qt.Commentf("(%d,%d)", y, x))
		}
	}
}

func TestDecodeLJpegValidation(t *testing.T) {
	c := qt.New(t)
	data := buildLJpeg(2, 2, []byte{0x00})

	img := NewImage16(2, 2, 1)
	err := DecodeLJpeg(data, img, &LJpegOptions{OffsetX: 5})
	c.Assert(err, qt.ErrorIs, ErrBadImageParams)

	err = DecodeLJpeg(data, img, &LJpegOptions{Width: 3})
	c.Assert(err, qt.ErrorIs, ErrBadImageParams)

	bad := &Image16{Pix: make([]uint16, 1), Width: 2, Height: 2, Stride: 2, CPP: 1}
	c.Assert(DecodeLJpeg(data, bad, nil), qt.ErrorIs, ErrBadImageParams)
}

func TestDecodeCR2PublicAPI(t *testing.T) {
	c := qt.New(t)

	// Two-component frame 4x2 feeding an 8x2 image in two slices.
	var buf bytes.Buffer
	seg := func(m byte, payload []byte) {
		buf.WriteByte(0xFF)
		buf.WriteByte(m)
		var l [2]byte
		binary.BigEndian.PutUint16(l[:], uint16(len(payload)+2))
		buf.Write(l[:])
		buf.Write(payload)
	}
	buf.Write([]byte{0xFF, 0xD8})
	dht := []byte{0x00}
	dht = append(dht, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	dht = append(dht, 0)
	seg(0xC4, dht)
	seg(0xC3, []byte{8, 0, 2, 0, 4, 2, 0x01, 0x11, 0x00, 0x02, 0x11, 0x00})
	seg(0xDA, []byte{2, 0x01, 0x00, 0x02, 0x00, 0x01, 0x00, 0x00})
	buf.Write([]byte{0x00, 0x00}) // 16 one-bit codes
	buf.Write([]byte{0xFF, 0xD9})

	img := NewImage16(8, 2, 1)
	err := DecodeCR2(buf.Bytes(), img, &CR2Options{
		Components: 2,
		SliceCount: 2, SliceWidth: 4, LastSliceWidth: 4,
	})
	c.Assert(err, qt.IsNil)
	for i, v := range img.Pix {
		c.Assert(v, qt.Equals, uint16(128), qt.Commentf("sample %d", i))
	}

	c.Assert(DecodeCR2(buf.Bytes(), img, nil), qt.ErrorIs, ErrBadTiling)
}
