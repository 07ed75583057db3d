package rawcodec

import "testing"

// FuzzDecodeLJpeg ensures that no input can cause a panic in the
// marker parser, the Huffman table builders or the scan decoder.
func FuzzDecodeLJpeg(f *testing.F) {
	f.Add(buildLJpeg(2, 2, []byte{0x00}))
	f.Add(buildLJpeg(8, 4, encodeImage(f, randomImage(1, 8, 4))))
	f.Add([]byte{0xFF, 0xD8, 0xFF, 0xD9})
	f.Add([]byte{0xFF, 0xD8, 0xFF, 0xC4, 0x00, 0x03, 0x00})

	f.Fuzz(func(t *testing.T, data []byte) {
		img := NewImage16(8, 8, 1)
		DecodeLJpeg(data, img, nil)                              //nolint:errcheck
		DecodeLJpeg(data, img, &LJpegOptions{FixDNGBug16: true}) //nolint:errcheck
	})
}

// FuzzDecodeCR2 covers the sliced decode path.
func FuzzDecodeCR2(f *testing.F) {
	f.Add(buildLJpeg(4, 2, []byte{0x00}), 2, 4, 4)

	f.Fuzz(func(t *testing.T, data []byte, slices, sliceWidth, lastWidth int) {
		if slices < 0 || slices > 64 {
			return
		}
		img := NewImage16(8, 2, 1)
		DecodeCR2(data, img, &CR2Options{ //nolint:errcheck
			Components: 2,
			SliceCount: slices, SliceWidth: sliceWidth, LastSliceWidth: lastWidth,
		})
	})
}
