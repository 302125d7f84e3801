package earshot

import "time"

// Fingerprint is an opaque (hash, time-offset) pair produced by the extractor.
// The core never interprets hash internals; it only counts occurrences per
// candidate during scoring. Offset is the anchor time in seconds.
type Fingerprint struct {
	Hash   int64
	Offset float64
}

// HashMatch is one stored hash → owning-song association returned by a batch
// lookup.
type HashMatch struct {
	Hash   int64
	SongID string
}

// SongInfo is the metadata for a registered song.
type SongInfo struct {
	SongID string `json:"song_id"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Title  string `json:"title"`
}

// MatchCandidate is the best candidate produced by a scoring pass: identity,
// raw tally and the calibrated confidence derived from it.
type MatchCandidate struct {
	SongID     string  `json:"song_id"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album"`
	Title      string  `json:"title"`
	Score      int     `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Confident reports whether the candidate clears the recognition threshold.
// Only the top two confidence bands (0.9 and 1.0) qualify.
func (c MatchCandidate) Confident() bool { return c.Confidence > 0.5 }

// Recognition is the cached result of the most recent confident match for a
// session. It is kept for inspection only and never suppresses later
// notifications.
type Recognition struct {
	Artist       string    `json:"artist"`
	Album        string    `json:"album"`
	Title        string    `json:"title"`
	Score        int       `json:"score"`
	Confidence   float64   `json:"confidence"`
	RecognizedAt time.Time `json:"recognized_at"`
}

// SessionStats is a consistent point-in-time view of one session's buffer.
type SessionStats struct {
	UID             string       `json:"uid"`
	BufferBytes     int          `json:"buffer_size_bytes"`
	DurationSeconds float64      `json:"buffer_duration_seconds"`
	SampleRate      int          `json:"sample_rate"`
	LastRecognition *Recognition `json:"last_recognition,omitempty"`
}
