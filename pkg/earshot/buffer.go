package earshot

// bytesPerSample assumes 16-bit signed little-endian mono PCM throughout.
const bytesPerSample = 2

// AudioBuffer accumulates raw PCM bytes for one session and derives the
// buffered duration from its byte count. The sample rate is whatever the most
// recent chunk declared: a device may renegotiate its rate mid-session, so the
// rate is deliberately not pinned to the first-seen value, even though mixed
// rates skew the duration math for the older bytes.
//
// AudioBuffer is not safe for concurrent use; the owning session serializes
// access.
type AudioBuffer struct {
	data       []byte
	sampleRate int
}

// NewAudioBuffer returns an empty buffer at the declared rate.
func NewAudioBuffer(sampleRate int) (*AudioBuffer, error) {
	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}
	return &AudioBuffer{sampleRate: sampleRate}, nil
}

// Append adds a chunk and adopts its declared sample rate.
func (b *AudioBuffer) Append(chunk []byte, sampleRate int) error {
	if sampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	b.data = append(b.data, chunk...)
	b.sampleRate = sampleRate
	return nil
}

// Duration returns the buffered audio length in seconds.
func (b *AudioBuffer) Duration() float64 {
	return float64(len(b.data)) / bytesPerSample / float64(b.sampleRate)
}

// Len returns the buffered byte count.
func (b *AudioBuffer) Len() int { return len(b.data) }

// SampleRate returns the rate declared by the most recent chunk.
func (b *AudioBuffer) SampleRate() int { return b.sampleRate }

// Clear resets the buffer to zero length, retaining the sample rate.
func (b *AudioBuffer) Clear() { b.data = nil }

// TrimToLast keeps only the trailing seconds of audio. It is a no-op when the
// buffered duration is already within the requested window.
func (b *AudioBuffer) TrimToLast(seconds int) {
	keep := seconds * b.sampleRate * bytesPerSample
	if len(b.data) <= keep {
		return
	}
	// Copy so the discarded prefix can be collected.
	trimmed := make([]byte, keep)
	copy(trimmed, b.data[len(b.data)-keep:])
	b.data = trimmed
}

// Snapshot returns a copy of the buffered bytes and the current rate, safe to
// use after the session lock is released.
func (b *AudioBuffer) Snapshot() ([]byte, int) {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, b.sampleRate
}
