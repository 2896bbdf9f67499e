package bb84

import "github.com/alan-christopher/bb84sim/bb84/bitmap"

// Finalize returns the final key: the first max(0, len(sifted)-overhead) bits
// of sifted. The overhead stands in for the bits that error correction and
// privacy amplification would consume. An exhausted key is empty, not an
// error.
func Finalize(sifted bitmap.Dense, overhead int) bitmap.Dense {
	if overhead < 0 {
		overhead = 0
	}
	return bitmap.Prefix(sifted, sifted.Size()-overhead)
}
