// Package bitmap provides densely-packed bit strings for raw, sifted and final
// keys.
package bitmap

import (
	"fmt"
	"math/bits"
	"strings"
)

// TODO: this could be more efficient on many architectures if we used larger
// blocks than 8-bit bytes.
const byteSize = 8

// Empty returns an empty, dense bit array.
func Empty() Dense {
	return Dense{}
}

// FromString converts a string of '1's and '0's to a Dense. Spaces are ignored
// so that fixtures can be grouped by byte.
func FromString(s string) (Dense, error) {
	d := Dense{}
	for _, c := range s {
		switch c {
		case '1':
			d.AppendBit(true)
		case '0':
			d.AppendBit(false)
		case ' ':
			continue
		default:
			return Dense{}, fmt.Errorf("invalid bitmap string rep: %s", s)
		}
	}
	return d, nil
}

// FromBits builds a Dense from a slice of 0/1 values. Any non-zero value is
// treated as a 1.
func FromBits(vals []byte) Dense {
	d := Dense{bits: make([]byte, 0, BytesFor(len(vals)))}
	for _, v := range vals {
		d.AppendBit(v != 0)
	}
	return d
}

// Select selects a subset of bits from data, according to which bits are set in
// mask.
func Select(data, mask Dense) Dense {
	var d Dense
	for i := 0; i < data.Size(); i++ {
		if !mask.Get(i) {
			continue
		}
		d.AppendBit(data.Get(i))
	}
	return d
}

// Parity returns the overall parity of d, with true corresponding to 1 and
// false to 0.
func Parity(d Dense) bool {
	var sum byte
	for _, b := range d.bits {
		sum ^= b
	}
	return bits.OnesCount8(sum)%2 == 1
}

// CountOnes returns the total number of bits set in d.
func CountOnes(d Dense) int {
	var sum int
	for _, b := range d.bits {
		sum += bits.OnesCount8(b)
	}
	return sum
}

// Equal returns true iff a and b have the same length and contain the same
// bits.
func Equal(a, b Dense) bool {
	return a.len == b.len && CountOnes(XOr(a, b)) == 0
}

// String renders d as a string of '0's and '1's, first bit first.
func (d Dense) String() string {
	var sb strings.Builder
	sb.Grow(d.len)
	for i := 0; i < d.len; i++ {
		if d.Get(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// BytesFor returns the number of bytes necessary to hold the provided number of
// bits.
func BytesFor(bits int) int {
	return (bits + byteSize - 1) / byteSize
}
