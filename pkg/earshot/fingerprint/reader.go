package fingerprint

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// readWavMono decodes a 16-bit PCM WAV file into mono samples normalized to
// [-1, 1] and returns them with the sample rate. Stereo input is downmixed by
// averaging channels.
func readWavMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding PCM data: %w", err)
	}
	if dec.BitDepth != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d: only 16-bit PCM supported", dec.BitDepth)
	}

	const scale = 1.0 / 32768.0
	rate := int(dec.SampleRate)

	switch dec.NumChans {
	case 1:
		out := make([]float64, len(buf.Data))
		for i, s := range buf.Data {
			out[i] = float64(s) * scale
		}
		return out, rate, nil
	case 2:
		frames := len(buf.Data) / 2
		out := make([]float64, frames)
		for i := 0; i < frames; i++ {
			l := float64(buf.Data[2*i]) * scale
			r := float64(buf.Data[2*i+1]) * scale
			out[i] = (l + r) * 0.5
		}
		return out, rate, nil
	default:
		return nil, 0, fmt.Errorf("unsupported channel count %d: only mono/stereo supported", dec.NumChans)
	}
}
