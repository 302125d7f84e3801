package fingerprint

import (
	"math"
	"testing"
)

func TestHannWindow(t *testing.T) {
	for _, size := range []int{128, 256, 1024} {
		window := hannWindow(size)

		if len(window) != size {
			t.Fatalf("Expected window size %d, got %d", size, len(window))
		}
		for i, val := range window {
			if val < 0 || val > 1 {
				t.Errorf("Window value %d out of range [0,1]: %f", i, val)
			}
		}
		// Hann tapers to zero at the edges and peaks in the middle.
		if window[0] > 1e-9 || window[size-1] > 1e-9 {
			t.Error("Expected window edges near zero")
		}
		if window[size/2] < 0.99 {
			t.Errorf("Expected window center near 1, got %f", window[size/2])
		}
	}
}

func TestSpectrogramTooShort(t *testing.T) {
	if _, err := Spectrogram(make([]float64, WindowSize-1)); err == nil {
		t.Error("Expected error for audio shorter than the analysis window")
	}
}

func TestSpectrogramFrameCount(t *testing.T) {
	samples := make([]float64, WindowSize+5*HopSize)
	spec, err := Spectrogram(samples)
	if err != nil {
		t.Fatalf("Spectrogram: %v", err)
	}
	if len(spec) != 6 {
		t.Errorf("Expected 6 frames, got %d", len(spec))
	}
	for i, frame := range spec {
		if len(frame) != WindowSize/2 {
			t.Errorf("frame %d: expected %d bins, got %d", i, WindowSize/2, len(frame))
		}
	}
}

func TestSpectrogramToneLocation(t *testing.T) {
	const sampleRate = 11025
	const toneFreq = 1000.0

	samples := make([]float64, sampleRate) // 1 second
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * toneFreq * float64(i) / sampleRate)
	}

	spec, err := Spectrogram(samples)
	if err != nil {
		t.Fatalf("Spectrogram: %v", err)
	}

	// The strongest bin of the middle frame should sit at the tone.
	frame := spec[len(spec)/2]
	maxBin := 0
	for i, mag := range frame {
		if mag > frame[maxBin] {
			maxBin = i
		}
	}

	freqRes := float64(sampleRate) / WindowSize
	got := float64(maxBin) * freqRes
	if math.Abs(got-toneFreq) > freqRes {
		t.Errorf("Expected dominant bin near %v Hz, got %v Hz", toneFreq, got)
	}
}
