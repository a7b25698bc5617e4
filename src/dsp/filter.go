// Package dsp provides the small amount of signal conditioning the viewer
// needs: constant detrending and causal Butterworth lowpass/highpass filters.
package dsp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrInvalidValue reports a malformed filter parameter.
var ErrInvalidValue = errors.New("invalid value")

// Detrend returns x with its mean subtracted ("constant" detrend).
func Detrend(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	mean := stat.Mean(x, nil)
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v - mean
	}
	return out
}

// biquad is one causal second-order IIR section in direct form II transposed.
type biquad struct {
	b0, b1, b2, a1, a2 float64
}

func (s biquad) apply(x []float64) []float64 {
	out := make([]float64, len(x))
	var z1, z2 float64
	for i, v := range x {
		y := s.b0*v + z1
		z1 = s.b1*v - s.a1*y + z2
		z2 = s.b2*v - s.a2*y
		out[i] = y
	}
	return out
}

// Butterworth 4th order = two cascaded second-order sections with these pole
// quality factors (poles at 22.5 and 67.5 degrees).
var butterQ = [2]float64{0.5411961001461970, 1.3065629648763766}

// normalizedCutoff validates cutoff/fs and returns the prewarp angular
// frequency. Cutoffs at or above Nyquist are clamped just below it, the same
// way obspy clamps them with a warning instead of failing.
func normalizedCutoff(cutoff, fs float64) (float64, error) {
	if fs <= 0 {
		return 0, fmt.Errorf("%w: sampling rate must be strictly positive", ErrInvalidValue)
	}
	if cutoff <= 0 {
		return 0, fmt.Errorf("%w: cutoff frequency must be strictly positive", ErrInvalidValue)
	}
	nyquist := fs / 2
	if cutoff >= nyquist {
		cutoff = nyquist * 0.999
	}
	// Bilinear transform prewarp.
	return math.Tan(math.Pi * cutoff / fs), nil
}

// Lowpass applies a causal 4th-order Butterworth lowpass with the given
// cutoff frequency (Hz) to x.
func Lowpass(x []float64, cutoff, fs float64) ([]float64, error) {
	k, err := normalizedCutoff(cutoff, fs)
	if err != nil {
		return nil, err
	}
	out := x
	for _, q := range butterQ {
		out = lowpassSection(k, q).apply(out)
	}
	return out, nil
}

// Highpass applies a causal 4th-order Butterworth highpass with the given
// cutoff frequency (Hz) to x.
func Highpass(x []float64, cutoff, fs float64) ([]float64, error) {
	k, err := normalizedCutoff(cutoff, fs)
	if err != nil {
		return nil, err
	}
	out := x
	for _, q := range butterQ {
		out = highpassSection(k, q).apply(out)
	}
	return out, nil
}

func lowpassSection(k, q float64) biquad {
	norm := 1 / (1 + k/q + k*k)
	return biquad{
		b0: k * k * norm,
		b1: 2 * k * k * norm,
		b2: k * k * norm,
		a1: 2 * (k*k - 1) * norm,
		a2: (1 - k/q + k*k) * norm,
	}
}

func highpassSection(k, q float64) biquad {
	norm := 1 / (1 + k/q + k*k)
	return biquad{
		b0: norm,
		b1: -2 * norm,
		b2: norm,
		a1: 2 * (k*k - 1) * norm,
		a2: (1 - k/q + k*k) * norm,
	}
}
