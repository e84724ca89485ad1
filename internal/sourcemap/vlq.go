package sourcemap

import (
	"math"
	"strings"
)

// Base64 alphabet used for VLQ encoding in source maps
const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// base64Values is a lookup table for decoding base64 characters
var base64Values [256]int8

func init() {
	// Initialize lookup table with -1 for invalid characters
	for i := range base64Values {
		base64Values[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		base64Values[base64Alphabet[i]] = int8(i)
	}
}

// VLQ constants
const (
	vlqBaseShift       = 5
	vlqBase            = 1 << vlqBaseShift // 32
	vlqBaseMask        = vlqBase - 1       // 31 (0x1F)
	vlqContinuationBit = vlqBase           // 32 (0x20)
	vlqSignBit         = 1

	// vlqMaxBits is the widest unsigned value a single group may carry.
	vlqMaxBits = 32
)

// Base64Value returns the 6-bit value of a base64 alphabet character.
func Base64Value(c byte) (int, error) {
	v := base64Values[c]
	if v < 0 {
		return 0, ErrInvalidCharacter
	}
	return int(v), nil
}

// DecodeSigned converts the unsigned VLQ representation into a signed value.
// The least significant bit carries the sign; "negative zero" decodes to 0.
func DecodeSigned(u uint32) int {
	magnitude := int(u >> 1)
	if u&vlqSignBit != 0 {
		return -magnitude
	}
	return magnitude
}

// EncodeVLQ encodes a signed integer as a VLQ base64 string.
func EncodeVLQ(value int) string {
	var buf strings.Builder

	// Positive numbers: value << 1
	// Negative numbers: ((-value) << 1) | 1
	var vlq uint64
	if value < 0 {
		vlq = uint64(-value)<<1 | vlqSignBit
	} else {
		vlq = uint64(value) << 1
	}

	for {
		digit := vlq & vlqBaseMask
		vlq >>= vlqBaseShift

		if vlq > 0 {
			digit |= vlqContinuationBit
		}

		buf.WriteByte(base64Alphabet[digit])

		if vlq == 0 {
			break
		}
	}

	return buf.String()
}

// DecodeVLQ decodes the first VLQ group of input and returns the value and
// the number of bytes consumed.
func DecodeVLQ(input string) (int, int, error) {
	var vlq uint64
	var shift uint

	for i := 0; i < len(input); i++ {
		digit, err := Base64Value(input[i])
		if err != nil {
			return 0, 0, err
		}

		continuation := digit&vlqContinuationBit != 0
		digit &= vlqBaseMask

		if digit != 0 {
			if shift >= vlqMaxBits {
				return 0, 0, ErrVLQOverflow
			}
			vlq |= uint64(digit) << shift
			if vlq > math.MaxUint32 {
				return 0, 0, ErrVLQOverflow
			}
		}
		shift += vlqBaseShift

		if !continuation {
			return DecodeSigned(uint32(vlq)), i + 1, nil
		}
	}

	// Continuation bit set on the last digit, or empty input
	return 0, 0, ErrUnterminatedVLQ
}
