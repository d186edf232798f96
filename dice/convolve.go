package dice

import (
	"math/bits"

	"gonum.org/v1/gonum/dsp/fourier"
)

// DefaultSpectralThreshold is the product of input lengths above which
// Convolve switches from the direct sum to an FFT.
const DefaultSpectralThreshold = 1 << 16

// Convolve returns the pmf of the sum of two independent totals.
func Convolve(a, b PMF, spectralThreshold int) PMF {
	if len(a) == 0 || len(b) == 0 {
		return PMF{}
	}
	if len(a)*len(b) <= spectralThreshold {
		return direct(a, b)
	}
	return spectral(a, b)
}

func direct(a, b PMF) PMF {
	out := make(PMF, len(a)+len(b)-1)
	for i, pa := range a {
		if pa == 0 {
			continue
		}
		for j, pb := range b {
			out[i+j] += pa * pb
		}
	}
	return out
}

func spectral(a, b PMF) PMF {
	n := len(a) + len(b) - 1
	size := 1 << bits.Len(uint(n-1))

	fft := fourier.NewFFT(size)
	pa := make([]float64, size)
	pb := make([]float64, size)
	copy(pa, a)
	copy(pb, b)

	ca := fft.Coefficients(nil, pa)
	cb := fft.Coefficients(nil, pb)
	for i := range ca {
		ca[i] *= cb[i]
	}
	seq := fft.Sequence(nil, ca)

	// The transform pair is unnormalized.
	out := make(PMF, n)
	scale := 1 / float64(size)
	for i := range out {
		out[i] = seq[i] * scale
	}
	return out
}
