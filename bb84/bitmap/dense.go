package bitmap

// A Dense is a bitmap where every bit is explicitly represented. Bits are
// packed least-significant first within each byte. Bits past the end of a
// Dense are implicitly zero, and are always stored as zero.
type Dense struct {
	bits []byte
	len  int
}

// NewDense returns a new dense bitmap whose contents are a copy of data, and
// whose length is bitLen. If bitLen is longer than data, then trailing zeros
// are added. If bitLen is negative, then it is inferred from data.
func NewDense(data []byte, bitLen int) Dense {
	if bitLen < 0 {
		bitLen = len(data) * byteSize
	}
	r := Dense{
		bits: make([]byte, BytesFor(bitLen)),
		len:  bitLen,
	}
	copy(r.bits, data)
	r.clearTail()
	return r
}

// Get returns the i-th bit in this bitmap.
func (d Dense) Get(i int) bool {
	if i < 0 || i >= d.len {
		return false
	}
	j, pos := i/byteSize, i%byteSize
	return 0 < d.bits[j]&(1<<pos)
}

// Size returns the number of bits in this bitmap, excluding implicit trailing
// zeros.
func (d Dense) Size() int {
	return d.len
}

// SizeBytes returns the number of bytes in this bitmap, excluding implicit
// trailing zeros.
func (d Dense) SizeBytes() int {
	return BytesFor(d.len)
}

// Data returns a copy of the bytes underlying this bitmap.
func (d Dense) Data() []byte {
	r := make([]byte, d.SizeBytes())
	copy(r, d.bits)
	return r
}

// Bits returns the contents of d as a slice of 0/1 values.
func (d Dense) Bits() []byte {
	r := make([]byte, d.len)
	for i := range r {
		if d.Get(i) {
			r[i] = 1
		}
	}
	return r
}

// Flip inverts the i-th bit of d. Flipping past the end of d is a no-op.
func (d *Dense) Flip(i int) {
	if i < 0 || i >= d.len {
		return
	}
	j, pos := i/byteSize, i%byteSize
	d.bits[j] ^= 1 << pos
}

// AppendBit adds a single bit to the end of d.
func (d *Dense) AppendBit(bit bool) {
	i, pos := d.len/byteSize, d.len%byteSize
	d.len++
	if pos == 0 {
		d.bits = append(d.bits, 0)
	}
	if bit {
		d.bits[i] |= 1 << pos
	} else {
		d.bits[i] &= ^(1 << pos)
	}
}

// Append adds the contents of d2 to the end of d.
func (d *Dense) Append(d2 Dense) {
	if d.len%byteSize == 0 {
		d.bits = append(d.bits[:d.SizeBytes()], d2.bits[:d2.SizeBytes()]...)
		d.len += d2.len
		return
	}
	for i := 0; i < d2.len; i++ {
		d.AppendBit(d2.Get(i))
	}
}

func (d *Dense) clearTail() {
	off := d.len % byteSize
	if off == 0 || len(d.bits) == 0 {
		return
	}
	d.bits[len(d.bits)-1] &= 0xFF >> (byteSize - off)
}
