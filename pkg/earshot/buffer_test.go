package earshot

import (
	"bytes"
	"testing"
)

// pcmSeconds returns a chunk holding the given number of seconds of 16-bit
// mono PCM at the given rate.
func pcmSeconds(seconds float64, sampleRate int) []byte {
	return make([]byte, int(seconds*float64(sampleRate))*bytesPerSample)
}

// TestNewAudioBufferInvalidRate tests sample rate validation
func TestNewAudioBufferInvalidRate(t *testing.T) {
	for _, rate := range []int{0, -1, -16000} {
		if _, err := NewAudioBuffer(rate); err != ErrInvalidSampleRate {
			t.Errorf("NewAudioBuffer(%d): expected ErrInvalidSampleRate, got %v", rate, err)
		}
	}
}

// TestAudioBufferDuration tests the bytes-to-seconds relationship
func TestAudioBufferDuration(t *testing.T) {
	buf, err := NewAudioBuffer(16000)
	if err != nil {
		t.Fatalf("NewAudioBuffer: %v", err)
	}

	if got := buf.Duration(); got != 0 {
		t.Errorf("empty buffer duration: expected 0, got %v", got)
	}

	if err := buf.Append(pcmSeconds(5, 16000), 16000); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := buf.Duration(); got != 5.0 {
		t.Errorf("expected 5s duration, got %v", got)
	}

	if err := buf.Append(pcmSeconds(2.5, 16000), 16000); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := buf.Duration(); got != 7.5 {
		t.Errorf("expected 7.5s duration, got %v", got)
	}
}

// TestAudioBufferLatestRateWins tests that a new chunk's declared rate
// reinterprets the accumulated bytes
func TestAudioBufferLatestRateWins(t *testing.T) {
	buf, err := NewAudioBuffer(16000)
	if err != nil {
		t.Fatalf("NewAudioBuffer: %v", err)
	}

	if err := buf.Append(pcmSeconds(4, 16000), 16000); err != nil {
		t.Fatalf("Append: %v", err)
	}
	// Same byte count appended with a different declared rate. The
	// buffer now holds 16000*4 + 8000*2 samples, all read at 8000 Hz.
	if err := buf.Append(pcmSeconds(2, 8000), 8000); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if got := buf.SampleRate(); got != 8000 {
		t.Errorf("expected sample rate 8000, got %d", got)
	}
	if got := buf.Duration(); got != 10.0 {
		t.Errorf("expected 10s duration at the new rate, got %v", got)
	}
}

// TestAudioBufferAppendInvalidRate tests per-chunk rate validation
func TestAudioBufferAppendInvalidRate(t *testing.T) {
	buf, _ := NewAudioBuffer(16000)
	if err := buf.Append(pcmSeconds(1, 16000), 0); err != ErrInvalidSampleRate {
		t.Errorf("expected ErrInvalidSampleRate, got %v", err)
	}
	if got := buf.Len(); got != 0 {
		t.Errorf("rejected chunk must not be stored, got %d bytes", got)
	}
}

// TestAudioBufferClear tests that clearing resets duration but keeps the rate
func TestAudioBufferClear(t *testing.T) {
	buf, _ := NewAudioBuffer(16000)
	if err := buf.Append(pcmSeconds(12, 16000), 16000); err != nil {
		t.Fatalf("Append: %v", err)
	}

	buf.Clear()

	if got := buf.Duration(); got != 0 {
		t.Errorf("expected 0 duration after clear, got %v", got)
	}
	if got := buf.SampleRate(); got != 16000 {
		t.Errorf("expected rate to survive clear, got %d", got)
	}
}

// TestAudioBufferTrimToLast tests the sliding window trim
func TestAudioBufferTrimToLast(t *testing.T) {
	buf, _ := NewAudioBuffer(8000)

	// Fill 70 seconds with a recognizable tail so we can verify which
	// end survives the trim.
	head := bytes.Repeat([]byte{0x01, 0x01}, 40*8000)
	tail := bytes.Repeat([]byte{0x7f, 0x7f}, 30*8000)
	if err := buf.Append(head, 8000); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := buf.Append(tail, 8000); err != nil {
		t.Fatalf("Append: %v", err)
	}

	buf.TrimToLast(30)

	if got := buf.Duration(); got != 30.0 {
		t.Fatalf("expected 30s after trim, got %v", got)
	}
	data, _ := buf.Snapshot()
	if !bytes.Equal(data, tail) {
		t.Error("expected trim to keep the most recent audio")
	}

	// Trimming again is a no-op.
	buf.TrimToLast(30)
	if got := buf.Duration(); got != 30.0 {
		t.Errorf("expected trim to be idempotent, got %v", got)
	}
}

// TestAudioBufferTrimNoOpWhenShort tests that short buffers are untouched
func TestAudioBufferTrimNoOpWhenShort(t *testing.T) {
	buf, _ := NewAudioBuffer(16000)
	chunk := pcmSeconds(12, 16000)
	if err := buf.Append(chunk, 16000); err != nil {
		t.Fatalf("Append: %v", err)
	}

	buf.TrimToLast(30)

	if got := buf.Duration(); got != 12.0 {
		t.Errorf("expected 12s untouched, got %v", got)
	}
}

// TestAudioBufferSnapshotIsCopy tests snapshot isolation
func TestAudioBufferSnapshotIsCopy(t *testing.T) {
	buf, _ := NewAudioBuffer(16000)
	if err := buf.Append([]byte{1, 2, 3, 4}, 16000); err != nil {
		t.Fatalf("Append: %v", err)
	}

	snap, rate := buf.Snapshot()
	if rate != 16000 {
		t.Errorf("expected snapshot rate 16000, got %d", rate)
	}
	snap[0] = 0xff

	again, _ := buf.Snapshot()
	if again[0] != 1 {
		t.Error("expected snapshot mutation to not affect the buffer")
	}
}
