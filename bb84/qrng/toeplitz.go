package qrng

import (
	"fmt"

	"github.com/alan-christopher/bb84sim/bb84/bitmap"
)

// A toeplitz represents a matrix whose diagonals are all constant. It operates
// in F_2, i.e. all of its scalars are 0 or 1. Random Toeplitz matrices form a
// universal hash family, which makes them a seeded randomness extractor.
type toeplitz struct {
	// The diagonal constants for this toeplitz matrix, starting from the bottom
	// left and ending with the top right.
	diags bitmap.Dense

	m int
	n int
}

// Mul computes the matrix product Av between the toeplitz matrix t and the
// provided vector.
//
// TODO: exploit the Toeplitz structure for a better than O(mn) product once
// extraction over large raw pools matters.
func (t toeplitz) Mul(vec bitmap.Dense) (bitmap.Dense, error) {
	if t.diags.Size() < t.m+t.n-1 {
		return bitmap.Empty(), fmt.Errorf("improper toeplitz construction, has %d diagonals, needs %d", t.diags.Size(), t.m+t.n-1)
	}
	if t.n != vec.Size() {
		return bitmap.Empty(), fmt.Errorf("multiplying %dx%d matrix into %d-dim vector", t.m, t.n, vec.Size())
	}

	r := bitmap.Empty()
	for off := t.m - 1; off >= 0; off-- {
		row, err := bitmap.Slice(t.diags, off, off+t.n)
		if err != nil {
			return bitmap.Empty(), err
		}
		r.AppendBit(bitmap.Parity(bitmap.And(row, vec)))
	}
	return r, nil
}

// Extract compresses raw into m bits by hashing it with the Toeplitz matrix
// whose diagonals are given by seed. seed must hold at least
// m+raw.Size()-1 bits, and should be independent of raw.
func Extract(raw, seed bitmap.Dense, m int) (bitmap.Dense, error) {
	if m < 0 || m > raw.Size() {
		return bitmap.Empty(), fmt.Errorf("extracting %d bits from %d raw bits", m, raw.Size())
	}
	t := toeplitz{diags: seed, m: m, n: raw.Size()}
	return t.Mul(raw)
}
