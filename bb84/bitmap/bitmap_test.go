package bitmap

import (
	"bytes"
	"reflect"
	"testing"
)

func mustDense(t *testing.T, s string) Dense {
	d, err := FromString(s)
	if err != nil {
		t.Fatalf("bugged test setup: %v", err)
	}
	return d
}

func TestSelect(t *testing.T) {
	tcs := []struct {
		name string
		data Dense
		mask Dense
		eout Dense
	}{
		{
			name: "all",
			data: mustDense(t, "101"),
			mask: mustDense(t, "111"),
			eout: mustDense(t, "101"),
		}, {
			name: "some",
			data: mustDense(t, "10100011"),
			mask: mustDense(t, "11111100"),
			eout: mustDense(t, "101000"),
		}, {
			name: "none",
			data: mustDense(t, "10100011 111"),
			mask: mustDense(t, "00000000 000"),
			eout: mustDense(t, ""),
		}, {
			name: "short mask",
			data: mustDense(t, "10100011 111"),
			mask: mustDense(t, "1"),
			eout: mustDense(t, "1"),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out := Select(tc.data, tc.mask)
			if !Equal(out, tc.eout) {
				t.Errorf("Select(%v, %v) == %v, want %v", tc.data, tc.mask, out, tc.eout)
			}
		})
	}
}

func TestParity(t *testing.T) {
	tcs := []struct {
		name string
		data Dense
		eout bool
	}{
		{"short even", mustDense(t, "101"), false},
		{"short odd", mustDense(t, "111"), true},
		{"empty", mustDense(t, ""), false},
		{"multibyte even", mustDense(t, "1111 1111 11"), false},
		{"multibyte odd", mustDense(t, "1111 1111 10"), true},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if out := Parity(tc.data); out != tc.eout {
				t.Errorf("Parity(%v) == %v, want %v", tc.data, out, tc.eout)
			}
		})
	}
}

func TestCountOnes(t *testing.T) {
	tcs := []struct {
		name string
		data Dense
		eout int
	}{
		{"short", mustDense(t, "101"), 2},
		{"empty", mustDense(t, ""), 0},
		{"multibyte one", mustDense(t, "1111 1111 11"), 10},
		{"multibyte two", mustDense(t, "1011 1011 10"), 7},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if out := CountOnes(tc.data); out != tc.eout {
				t.Errorf("CountOnes(%v) == %v, want %v", tc.data, out, tc.eout)
			}
		})
	}
}

func TestFromStringRejectsGarbage(t *testing.T) {
	if _, err := FromString("10x1"); err == nil {
		t.Errorf("FromString(%q) succeeded, want error", "10x1")
	}
}

func TestFromBitsRoundTrip(t *testing.T) {
	vals := []byte{1, 0, 1, 1, 0, 0, 0, 0, 1, 1}
	d := FromBits(vals)
	if d.String() != "1011000011" {
		t.Errorf("String() == %q, want %q", d.String(), "1011000011")
	}
	if !reflect.DeepEqual(d.Bits(), vals) {
		t.Errorf("Bits() == %v, want %v", d.Bits(), vals)
	}
}

func TestDenseGet(t *testing.T) {
	tcs := []struct {
		name  string
		data  Dense
		edata []bool
	}{
		{"explicit zeros", NewDense(nil, 3), []bool{false, false, false}},
		{"aligned", mustDense(t, "10101010"), []bool{true, false, true, false, true, false, true, false}},
		{"multibyte",
			mustDense(t, "00000000 101"),
			[]bool{false, false, false, false, false, false, false, false, true, false, true}},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			var d []bool
			for i := 0; i < tc.data.Size(); i++ {
				d = append(d, tc.data.Get(i))
			}
			if !reflect.DeepEqual(d, tc.edata) {
				t.Errorf("Get() == %v, want %v", d, tc.edata)
			}
			if tc.data.Get(tc.data.Size()) {
				t.Errorf("Get past the end returned true")
			}
		})
	}
}

func TestNewDenseClearsTail(t *testing.T) {
	d := NewDense([]byte{0xFF}, 3)
	if !bytes.Equal(d.Data(), []byte{0b111}) {
		t.Errorf("Data() == %b, want %b", d.Data(), []byte{0b111})
	}
}

func TestDenseAppend(t *testing.T) {
	tcs := []struct {
		name string
		a, b Dense
		eout Dense
	}{
		{
			name: "no alloc",
			a:    mustDense(t, "101"),
			b:    mustDense(t, "111"),
			eout: mustDense(t, "101111"),
		}, {
			name: "aligned",
			a:    mustDense(t, "10101010"),
			b:    mustDense(t, "01010101"),
			eout: mustDense(t, "10101010 01010101"),
		}, {
			name: "unaligned",
			a:    mustDense(t, "10101010 01"),
			b:    mustDense(t, "01010101"),
			eout: mustDense(t, "10101010 01 01010101"),
		}, {
			name: "onto empty",
			a:    Empty(),
			b:    mustDense(t, "11010100 1"),
			eout: mustDense(t, "11010100 1"),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			tc.a.Append(tc.b)
			if tc.a.Size() != tc.eout.Size() {
				t.Errorf("got bitmap of len %d, want %d", tc.a.Size(), tc.eout.Size())
			}
			if !bytes.Equal(tc.a.Data(), tc.eout.Data()) {
				t.Errorf("got %v, want %v", tc.a, tc.eout)
			}
		})
	}
}

func TestFlip(t *testing.T) {
	d := mustDense(t, "0000 0000 00")
	d.Flip(9)
	d.Flip(0)
	d.Flip(42)
	if want := "1000000001"; d.String() != want {
		t.Errorf("got %s, want %s", d, want)
	}
}

func TestBinaryOperators(t *testing.T) {
	tcs := []struct {
		name string
		a, b Dense
		eout Dense
		op   func(a, b Dense) Dense
	}{
		{
			name: "AND aligned",
			a:    mustDense(t, "10100000"),
			b:    mustDense(t, "01100000"),
			eout: mustDense(t, "00100000"),
			op:   And,
		}, {
			name: "AND short a",
			a:    mustDense(t, "101"),
			b:    mustDense(t, "01111000"),
			eout: mustDense(t, "001"),
			op:   And,
		}, {
			name: "AND multibyte",
			b:    mustDense(t, "0111 1000 1011 1011"),
			a:    mustDense(t, "1010 1010 1100 0110"),
			eout: mustDense(t, "0010 1000 1000 0010"),
			op:   And,
		}, {
			name: "XOR aligned",
			a:    mustDense(t, "10100000"),
			b:    mustDense(t, "01100000"),
			eout: mustDense(t, "11000000"),
			op:   XOr,
		}, {
			name: "XOR short a",
			a:    mustDense(t, "101"),
			b:    mustDense(t, "01111000"),
			eout: mustDense(t, "11011000"),
			op:   XOr,
		}, {
			name: "XOR multibyte",
			b:    mustDense(t, "0111 1000 1011 1011"),
			a:    mustDense(t, "1010 1010 1100 0110"),
			eout: mustDense(t, "1101 0010 0111 1101"),
			op:   XOr,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out := tc.op(tc.a, tc.b)
			if out.Size() != tc.eout.Size() {
				t.Fatalf("got bitmap of len %d, want %d", out.Size(), tc.eout.Size())
			}
			if !bytes.Equal(out.Data(), tc.eout.Data()) {
				t.Errorf("Data() == %v, want %v", out.Data(), tc.eout.Data())
			}
		})
	}
}

func TestSlice(t *testing.T) {
	tcs := []struct {
		name  string
		start int
		end   int
		bits  Dense
		eout  Dense
	}{
		{
			name:  "full slice",
			bits:  mustDense(t, "11101101"),
			start: 0,
			end:   8,
			eout:  mustDense(t, "11101101"),
		}, {
			name: "empty slice",
			bits: mustDense(t, "11101101"),
			eout: mustDense(t, ""),
		}, {
			name:  "aligned",
			bits:  mustDense(t, "10000010 11101101 01000001"),
			start: 8,
			end:   16,
			eout:  mustDense(t, "11101101"),
		}, {
			name:  "unaligned start",
			bits:  mustDense(t, "10000010 11101101 01000001"),
			start: 1,
			end:   16,
			eout:  mustDense(t, "0000010 11101101"),
		}, {
			name:  "unaligned end",
			bits:  mustDense(t, "11111111 00000000 1000 0000"),
			start: 8,
			end:   17,
			eout:  mustDense(t, "00000000 1"),
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Slice(tc.bits, tc.start, tc.end)
			if err != nil {
				t.Fatalf("Slice(%d, %d) = %v, want nil error", tc.start, tc.end, err)
			}
			if !Equal(out, tc.eout) {
				t.Errorf("Slice(%d, %d) == %v, want %v", tc.start, tc.end, out, tc.eout)
			}
		})
	}
}

func TestSliceErrors(t *testing.T) {
	d := mustDense(t, "1010")
	for _, r := range [][2]int{{-1, 2}, {3, 2}, {0, 5}} {
		if _, err := Slice(d, r[0], r[1]); err == nil {
			t.Errorf("Slice(%d, %d) succeeded, want error", r[0], r[1])
		}
	}
}

func TestPrefix(t *testing.T) {
	d := mustDense(t, "1100 1010 11")
	tcs := []struct {
		n    int
		eout string
	}{
		{0, ""},
		{-3, ""},
		{4, "1100"},
		{10, "1100101011"},
		{99, "1100101011"},
	}
	for _, tc := range tcs {
		if got := Prefix(d, tc.n).String(); got != tc.eout {
			t.Errorf("Prefix(%d) == %q, want %q", tc.n, got, tc.eout)
		}
	}
}
