// Package rawcodec implements the bitstream codec core used to decode
// proprietary RAW camera image formats.
//
// The core is a layered stack: bounds-checked byte buffer views, bit
// streamers and bit vacuumers for five bit orderings (LSB, MSB, MSB16,
// MSB32, JPEG with byte stuffing), a Huffman/prefix-code model with
// several decoder representations plus an encoder, and a lossless-JPEG
// (SOF3) decompressor driving the JPEG bit streamer, including the
// Canon CR2 sliced output layout.
//
// This package exposes the top-level decode entry points; the layers
// live in internal packages.
package rawcodec
