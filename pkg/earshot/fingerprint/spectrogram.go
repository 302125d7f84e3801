package fingerprint

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// STFT tunables. WindowSize bins cover 0..rate/2, so frequency resolution is
// rate/WindowSize Hz per bin.
const (
	WindowSize = 1024
	HopSize    = 256
)

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

func magnitudes(spectrum []complex128) []float64 {
	half := len(spectrum) / 2
	mag := make([]float64, half)
	for i := 0; i < half; i++ {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}

// Spectrogram computes the magnitude STFT of mono samples: one slice of
// positive-frequency magnitudes per hop.
func Spectrogram(samples []float64) ([][]float64, error) {
	if len(samples) < WindowSize {
		return nil, errors.New("audio shorter than analysis window")
	}

	window := hannWindow(WindowSize)
	frame := make([]float64, WindowSize)

	spec := make([][]float64, 0, (len(samples)-WindowSize)/HopSize+1)
	for start := 0; start+WindowSize <= len(samples); start += HopSize {
		for i := 0; i < WindowSize; i++ {
			frame[i] = samples[start+i] * window[i]
		}
		spec = append(spec, magnitudes(fft.FFTReal(frame)))
	}
	return spec, nil
}
