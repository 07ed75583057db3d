package prefixcode

import (
	"fmt"
	"math/bits"

	"github.com/deepteams/rawcodec/internal/bitio"
)

// dngBug16Sentinel is the value produced by a difference length of 16
// when it is treated as a sentinel rather than as 16 literal bits.
const dngBug16Sentinel = -32768

// transcoderState is the configuration shared by every decoder and
// encoder representation: the code plus the two setup flags.
type transcoderState struct {
	code Code
	// fullDecode: code values are bit lengths of an immediately
	// following signed difference to read and sign-extend.
	fullDecode bool
	// fixDNGBug16: a code value of 16 consumes 16 extra padding bits;
	// otherwise it is a sentinel yielding -32768 with no bits read.
	fixDNGBug16 bool
}

func (s *transcoderState) setup(fullDecode, fixDNGBug16 bool) error {
	if fullDecode && !s.code.Traits.SupportsFullDecode {
		return fmt.Errorf("%w: code family does not support full decode",
			ErrCorruptCode)
	}
	s.fullDecode = fullDecode
	s.fixDNGBug16 = fixDNGBug16

	if fullDecode {
		// Code values will be interpreted as bit lengths of the
		// following difference; symbol length plus difference length
		// must fit a single 32-bit fill.
		for _, v := range s.code.CodeValues {
			if v > s.code.Traits.MaxDiffLength {
				return fmt.Errorf("%w: difference length %d longer than %d",
					ErrCorruptCode, v, s.code.Traits.MaxDiffLength)
			}
		}
	}
	return nil
}

func (s *transcoderState) isFullDecode() bool { return s.fullDecode }

func (s *transcoderState) maxCodeLength() int { return s.code.maxCodeLength() }

// processDifference finishes a full decode after the symbol has been
// read: the code value is the bit length of the signed difference that
// follows. The caller must have filled the bit reader so that the
// difference bits are resident.
func (s *transcoderState) processDifference(bs bitio.Reader, codeValue uint32) int32 {
	diffLen := int(codeValue)
	if diffLen == 16 {
		if s.fixDNGBug16 {
			bs.SkipBitsNoFill(16)
		}
		return dngBug16Sentinel
	}
	if diffLen == 0 {
		return 0
	}
	return Extend(bs.GetBitsNoFill(diffLen), diffLen)
}

// Extend performs the sign extension of JPEG figure F.12. This is not
// two's complement: a diff whose high bit is clear maps to
// diff - (2^len - 1).
func Extend(diff uint32, length int) int32 {
	ret := int32(diff)
	if diff&(uint32(1)<<uint(length-1)) == 0 {
		ret -= int32(1)<<uint(length) - 1
	}
	return ret
}

// Reduce is the inverse of Extend: it maps an extended difference back
// to its magnitude bits and their length.
func Reduce(extended int32) (diff uint32, length int) {
	if extended >= 0 {
		diff = uint32(extended)
		return diff, bits.Len32(diff)
	}
	extended--
	diff = uint32(extended)
	length = 32 - bits.LeadingZeros32(^diff)
	return diff & (uint32(1)<<uint(length) - 1), length
}
