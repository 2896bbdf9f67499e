package qubit

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/alan-christopher/bb84sim/bb84/random"
)

// fixedUniform replays a fixed list of samples.
type fixedUniform struct {
	vals []float64
}

func (f *fixedUniform) Float64() float64 {
	v := f.vals[0]
	f.vals = f.vals[1:]
	return v
}

func TestNewNormalizes(t *testing.T) {
	tcs := []struct {
		name   string
		a0, a1 complex128
	}{
		{"max amplitude", 1, 1},
		{"basis", 3, 0},
		{"complex", complex(1, 2), complex(-3, 0.5)},
		{"tiny", 1e-200, 1e-200},
		{"huge", 1e200, 1e200},
		{"huge complex", complex(1e300, -1e300), complex(0, 1e300)},
		{"subnormal", 5e-324, 0},
		{"minus", 1, -1},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(tc.a0, tc.a1)
			if err != nil {
				t.Fatalf("New(%v, %v) = %v", tc.a0, tc.a1, err)
			}
			if n := s.Norm(); math.Abs(n-1) > 1e-9 {
				t.Errorf("Norm() = %.15f, want 1", n)
			}
		})
	}
}

func TestNewPreservesDirection(t *testing.T) {
	s, err := New(3, 4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a0, a1 := s.Amplitudes()
	if cmplx.Abs(a0-0.6) > 1e-12 || cmplx.Abs(a1-0.8) > 1e-12 {
		t.Errorf("Amplitudes() = (%v, %v), want (0.6, 0.8)", a0, a1)
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	tcs := []struct {
		name   string
		a0, a1 complex128
	}{
		{"zero", 0, 0},
		{"nan", cmplx.NaN(), 1},
		{"inf", 1, cmplx.Inf()},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.a0, tc.a1); !errors.Is(err, ErrInvalidState) {
				t.Errorf("New(%v, %v) = %v, want ErrInvalidState", tc.a0, tc.a1, err)
			}
		})
	}
}

func TestPreparedStatesAreNormalized(t *testing.T) {
	for _, basis := range []Basis{Computational, Hadamard} {
		for _, bit := range []byte{0, 1} {
			if n := Prepare(bit, basis).Norm(); math.Abs(n-1) > 1e-9 {
				t.Errorf("Prepare(%d, %v).Norm() = %.15f", bit, basis, n)
			}
		}
	}
}

func TestMatchingBasisIsDeterministic(t *testing.T) {
	// Samples at the very edges of [0, 1) are where rounding would bite.
	samples := []float64{0, 1e-17, 0.5, 1 - 1e-16, math.Nextafter(1, 0)}
	for _, basis := range []Basis{Computational, Hadamard} {
		for _, bit := range []byte{0, 1} {
			s := Prepare(bit, basis)
			for _, u := range samples {
				got, collapsed := s.Measure(basis, &fixedUniform{[]float64{u}})
				if got != bit {
					t.Errorf("Prepare(%d, %v) measured with sample %g = %d", bit, basis, u, got)
				}
				if collapsed != s {
					t.Errorf("measuring an eigenstate changed it: %v -> %v", s, collapsed)
				}
			}
		}
	}
}

func TestMismatchedBasisIsUniform(t *testing.T) {
	r := random.NewSeeded(1234)
	const trials = 20000
	for _, prep := range []Basis{Computational, Hadamard} {
		meas := Computational
		if prep == Computational {
			meas = Hadamard
		}
		for _, bit := range []byte{0, 1} {
			s := Prepare(bit, prep)
			if p := s.Prob0(meas); math.Abs(p-0.5) > 1e-12 {
				t.Errorf("Prepare(%d, %v).Prob0(%v) = %f, want 0.5", bit, prep, meas, p)
			}
			ones := 0
			for i := 0; i < trials; i++ {
				out, _ := s.Measure(meas, r)
				ones += int(out)
			}
			if frac := float64(ones) / trials; frac < 0.47 || frac > 0.53 {
				t.Errorf("Prepare(%d, %v) measured in %v gave %f ones", bit, prep, meas, frac)
			}
		}
	}
}

func TestMeasureCollapses(t *testing.T) {
	s, err := New(1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, collapsed := s.Measure(Computational, &fixedUniform{[]float64{0.9}})
	if out != 1 {
		t.Fatalf("outcome = %d, want 1", out)
	}
	if collapsed != Prepare(1, Computational) {
		t.Errorf("collapsed to %v, want |1⟩", collapsed)
	}
	if n := collapsed.Norm(); math.Abs(n-1) > 1e-9 {
		t.Errorf("collapsed Norm() = %f", n)
	}
	if s2, _ := New(1, 1); s != s2 {
		t.Errorf("Measure mutated its receiver")
	}
}

func TestBasisString(t *testing.T) {
	if Computational.String() != "computational" || Hadamard.String() != "hadamard" {
		t.Errorf("unexpected basis names: %v, %v", Computational, Hadamard)
	}
	if Basis(7).String() != "Basis(7)" {
		t.Errorf("Basis(7).String() = %q", Basis(7).String())
	}
}
