package bitmap

import "fmt"

// And returns the bitwise AND of two bitmaps. The result is as long as the
// shorter operand.
func And(a, b Dense) Dense {
	short := a
	if b.len < a.len {
		short = b
	}
	r := Dense{
		bits: make([]byte, short.SizeBytes()),
		len:  short.len,
	}
	for i := range r.bits {
		r.bits[i] = a.bits[i] & b.bits[i]
	}
	r.clearTail()
	return r
}

// XOr returns the bitwise XOR of two bitmaps. The shorter operand is padded
// with implicit zeros.
func XOr(a, b Dense) Dense {
	short, long := a, b
	if b.len < a.len {
		short, long = b, a
	}
	r := NewDense(long.bits, long.len)
	for i := 0; i < short.SizeBytes(); i++ {
		r.bits[i] ^= short.bits[i]
	}
	return r
}

// Slice copies out bits [start, end) of d.
func Slice(d Dense, start, end int) (Dense, error) {
	if start < 0 {
		return Dense{}, fmt.Errorf("slicing bitmap with negative start: %d", start)
	}
	if end < start {
		return Dense{}, fmt.Errorf("slicing bitmap to negative length: %d", end-start)
	}
	if end > d.len {
		return Dense{}, fmt.Errorf("slicing bitmap of len %d up to %d", d.len, end)
	}
	if start%byteSize == 0 {
		j := start / byteSize
		return NewDense(d.bits[j:j+BytesFor(end-start)], end-start), nil
	}
	r := Dense{bits: make([]byte, 0, BytesFor(end-start))}
	for i := start; i < end; i++ {
		r.AppendBit(d.Get(i))
	}
	return r, nil
}

// Prefix returns the first n bits of d, or all of d if it is shorter than n.
func Prefix(d Dense, n int) Dense {
	if n <= 0 {
		return Dense{}
	}
	if n > d.len {
		n = d.len
	}
	r, _ := Slice(d, 0, n)
	return r
}
