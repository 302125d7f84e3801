package fingerprint

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/earshot/earshot/pkg/earshot"
)

// writeToneWAV writes a mono 16-bit WAV of summed sine tones.
func writeToneWAV(t *testing.T, path string, freqs []float64, seconds float64, sampleRate int) {
	t.Helper()

	n := int(seconds * float64(sampleRate))
	pcm := make([]byte, n*2)
	for i := 0; i < n; i++ {
		var v float64
		for _, f := range freqs {
			v += math.Sin(2 * math.Pi * f * float64(i) / float64(sampleRate))
		}
		v /= float64(len(freqs))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(v*20000)))
	}

	if err := earshot.WriteWAVFile(path, pcm, sampleRate); err != nil {
		t.Fatalf("WriteWAVFile: %v", err)
	}
}

func TestExtractProducesFingerprints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tones.wav")
	writeToneWAV(t, path, []float64{800, 1800}, 2.0, 11025)

	fps, err := NewExtractor().Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(fps) == 0 {
		t.Fatal("Expected fingerprints for tonal audio")
	}
	for _, fp := range fps {
		if fp.Offset < 0 || fp.Offset > 2.0 {
			t.Errorf("Offset out of range: %v", fp.Offset)
		}
	}
}

func TestExtractDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tones.wav")
	writeToneWAV(t, path, []float64{440, 2500}, 1.5, 11025)

	ext := NewExtractor()
	first, err := ext.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	second, err := ext.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical fingerprints across runs")
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := NewExtractor().Extract(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))

	var extErr *earshot.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("Expected ExtractionError, got %v", err)
	}
}

func TestExtractInvalidContainer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("not a wav file"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var extErr *earshot.ExtractionError
	if _, err := NewExtractor().Extract(context.Background(), path); !errors.As(err, &extErr) {
		t.Fatalf("Expected ExtractionError, got %v", err)
	}
}

func TestExtractTooShort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blip.wav")
	// Well under one analysis window.
	writeToneWAV(t, path, []float64{1000}, 0.01, 11025)

	var extErr *earshot.ExtractionError
	if _, err := NewExtractor().Extract(context.Background(), path); !errors.As(err, &extErr) {
		t.Fatalf("Expected ExtractionError, got %v", err)
	}
}

func TestExtractCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tones.wav")
	writeToneWAV(t, path, []float64{1000}, 1.0, 11025)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewExtractor().Extract(ctx, path); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
}
