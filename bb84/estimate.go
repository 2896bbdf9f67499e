package bb84

import (
	"github.com/alan-christopher/bb84sim/bb84/bitmap"
	"github.com/alan-christopher/bb84sim/bb84/random"
)

// An Estimator approximates the QBER of a sifted key under a fixed channel
// noise model.
//
// The sample is always the first SampleSize sifted bits. Each sampled bit is
// copied and flipped with probability ErrorProbability, independently; the
// QBER is the fraction of flipped bits. The errors are injected, not measured
// against the receiver's copy, so the estimate says nothing about whether the
// sifted key itself is correct.
type Estimator struct {
	SampleSize       int
	ErrorProbability float64
	// Rand provides the noise trials. Must be non-nil.
	Rand *random.Rand
}

// An Estimation is the outcome of estimating a QBER.
type Estimation struct {
	QBER float64
	// Sampled is the number of bits sampled; 0 if the key was too short.
	Sampled int
	// Errors is the number of injected errors among the sampled bits.
	Errors int
}

// Estimate returns the estimated QBER of sifted. A key shorter than
// SampleSize yields the worst case QBER of 1, without drawing any randomness,
// so that a run still completes and the channel reads as unusable.
func (e Estimator) Estimate(sifted bitmap.Dense) Estimation {
	if e.SampleSize <= 0 || sifted.Size() < e.SampleSize {
		return Estimation{QBER: 1}
	}
	sample := bitmap.Prefix(sifted, e.SampleSize)
	noisy := bitmap.NewDense(sample.Data(), sample.Size())
	for i := 0; i < noisy.Size(); i++ {
		if e.Rand.Bernoulli(e.ErrorProbability) {
			noisy.Flip(i)
		}
	}
	errs := bitmap.CountOnes(bitmap.XOr(sample, noisy))
	return Estimation{
		QBER:    float64(errs) / float64(e.SampleSize),
		Sampled: e.SampleSize,
		Errors:  errs,
	}
}
