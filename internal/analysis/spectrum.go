package analysis

import (
	"math/cmplx"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

var ErrTooShort = errors.New("analysis: series needs at least 4 samples")

// PowerSpectrum returns the magnitude of each non-negative frequency
// coefficient of data with its mean removed.
func PowerSpectrum(data []float64) []float64 {
	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, x := range data {
		centered[i] = x - mean
	}
	coeff := fourier.NewFFT(len(data)).Coefficients(nil, centered)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency is the frequency in Hz of the strongest non-zero
// spectral peak of a series sampled every dt seconds.
func DominantFrequency(data []float64, dt float64) (float64, error) {
	if len(data) < 4 {
		return 0, ErrTooShort
	}
	if dt <= 0 {
		return 0, errors.Errorf("analysis: sample period must be positive, got %g", dt)
	}
	ps := PowerSpectrum(data)
	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	return fourier.NewFFT(len(data)).Freq(best) / dt, nil
}
