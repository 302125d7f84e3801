package earshot

import "context"

// FingerprintExtractor turns a materialized audio container into a set of
// (hash, offset) fingerprints. The caller owns the container artifact and
// removes it after the call; implementations must not retain the path.
type FingerprintExtractor interface {
	Extract(ctx context.Context, wavPath string) ([]Fingerprint, error)
}

// FingerprintStore is the persistent hash → song index plus song metadata.
type FingerprintStore interface {
	// LookupHashes returns every stored association for the given hashes.
	// Callers batch their queries; a single call never exceeds the configured
	// match batch size.
	LookupHashes(ctx context.Context, hashes []int64) ([]HashMatch, error)

	// GetSongInfo returns metadata for a song id, or ErrSongNotFound.
	GetSongInfo(ctx context.Context, songID string) (*SongInfo, error)

	// RegisterSong stores song metadata and returns its id. Registering the
	// same artist/title again returns the existing id.
	RegisterSong(ctx context.Context, artist, album, title string) (string, error)

	// StoreFingerprints persists the fingerprint set for a registered song.
	StoreFingerprints(ctx context.Context, songID string, fps []Fingerprint) error

	ListSongs(ctx context.Context) ([]SongInfo, error)

	DeleteSong(ctx context.Context, songID string) error

	Close() error
}

// Notifier delivers a recognized match to the user. It reports delivery as a
// bool; failures are logged, never raised.
type Notifier interface {
	Notify(ctx context.Context, uid string, candidate MatchCandidate) bool
}

// Logger is the narrow logging surface the core depends on.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
