// Package fingerprint implements the spectral-landmark fingerprint extractor:
// STFT spectrogram, band-wise peak picking and anchor/target pair hashing.
package fingerprint

import (
	"context"
	"errors"

	"github.com/earshot/earshot/pkg/earshot"
)

// Extractor computes (hash, offset) fingerprints from WAV containers. It
// implements earshot.FingerprintExtractor.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// Extract reads the container, computes its spectrogram and returns the
// hashed landmark pairs. Malformed or too-short audio yields an
// *earshot.ExtractionError.
func (e *Extractor) Extract(ctx context.Context, wavPath string) ([]earshot.Fingerprint, error) {
	samples, sampleRate, err := readWavMono(wavPath)
	if err != nil {
		return nil, &earshot.ExtractionError{Path: wavPath, Err: err}
	}
	if len(samples) == 0 {
		return nil, &earshot.ExtractionError{Path: wavPath, Err: errors.New("empty audio")}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	spec, err := Spectrogram(samples)
	if err != nil {
		return nil, &earshot.ExtractionError{Path: wavPath, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	peaks := ExtractPeaks(spec, sampleRate)
	return HashPeaks(peaks), nil
}
