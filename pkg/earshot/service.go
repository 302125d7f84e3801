package earshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/earshot/earshot/pkg/earshot/audio"
	"github.com/earshot/earshot/pkg/logger"
)

// Service is the streaming session manager and match-decision engine. It owns
// the session registry, gates recognition attempts on buffered duration, and
// drives the extractor/store/notifier collaborators.
type Service struct {
	cfg      *Config
	registry *SessionRegistry
	scorer   *MatchScorer
	log      Logger
}

func New(opts ...Option) (*Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("fingerprint extractor is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("fingerprint store is required")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}

	return &Service{
		cfg:      cfg,
		registry: NewSessionRegistry(),
		scorer:   NewMatchScorer(cfg.Store, cfg.MatchBatchSize, cfg.Logger),
		log:      cfg.Logger,
	}, nil
}

// Ingest appends one chunk to the user's session and runs the recognition
// gate. It returns the received byte count. Pipeline failures (extraction,
// store, notification) degrade to "no result" and never surface here; only a
// rejected sample rate is an error.
func (s *Service) Ingest(ctx context.Context, uid string, sampleRate int, chunk []byte) (int, error) {
	if sampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}

	sess, err := s.registry.getOrCreate(uid, sampleRate)
	if err != nil {
		return 0, err
	}

	sess.mu.Lock()
	if err := sess.buf.Append(chunk, sampleRate); err != nil {
		sess.mu.Unlock()
		return 0, err
	}
	duration := sess.buf.Duration()
	s.log.Debugf("user %s buffer: %.2f seconds of audio", uid, duration)

	if duration < float64(s.cfg.MinAudioLength) {
		sess.mu.Unlock()
		return len(chunk), nil
	}

	// Snapshot under the lock; the slow extract+match runs without it, so
	// chunks arriving mid-evaluation are tolerated against a stale snapshot.
	pcm, rate := sess.buf.Snapshot()
	sess.mu.Unlock()

	candidate := s.evaluate(ctx, uid, pcm, rate)

	sess.mu.Lock()
	if candidate != nil {
		sess.last = &Recognition{
			Artist:       candidate.Artist,
			Album:        candidate.Album,
			Title:        candidate.Title,
			Score:        candidate.Score,
			Confidence:   candidate.Confidence,
			RecognizedAt: time.Now(),
		}
		sess.buf.Clear()
		sess.mu.Unlock()

		s.log.Infof("song recognized for user %s: '%s' by %s (score=%d confidence=%.1f)",
			uid, candidate.Title, candidate.Artist, candidate.Score, candidate.Confidence)
		if !s.cfg.Notifier.Notify(ctx, uid, *candidate) {
			s.log.Warnf("could not notify user %s", uid)
		}
		return len(chunk), nil
	}

	// Duration is re-read under the lock so chunks that arrived during a slow
	// evaluation count toward the ceiling.
	if sess.buf.Duration() > float64(s.cfg.MaxBufferDuration) {
		sess.buf.TrimToLast(s.cfg.TrimToSeconds)
		s.log.Infof("trimmed buffer for user %s to %d seconds", uid, s.cfg.TrimToSeconds)
	}
	sess.mu.Unlock()
	return len(chunk), nil
}

// evaluate runs one recognition attempt over a buffer snapshot. Any failure
// is logged with the user id and stage, then reported as no candidate.
func (s *Service) evaluate(ctx context.Context, uid string, pcm []byte, sampleRate int) *MatchCandidate {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.MatchTimeout)
	defer cancel()

	wavPath := filepath.Join(s.cfg.TempDir, fmt.Sprintf("earshot_%s.wav", uuid.NewString()))
	if err := WriteWAVFile(wavPath, pcm, sampleRate); err != nil {
		s.log.Errorf("user %s: materializing audio container: %v", uid, err)
		return nil
	}
	defer os.Remove(wavPath)

	fps, err := s.cfg.Extractor.Extract(ctx, wavPath)
	if err != nil {
		s.log.Errorf("user %s: extraction: %v", uid, err)
		return nil
	}

	candidate, err := s.scorer.BestMatch(ctx, fps)
	if err != nil {
		s.log.Errorf("user %s: match lookup: %v", uid, err)
		return nil
	}
	if candidate == nil {
		s.log.Debugf("user %s: no match in database", uid)
		return nil
	}
	if !candidate.Confident() {
		s.log.Infof("user %s: no song recognized (score %d too low)", uid, candidate.Score)
		return nil
	}
	return candidate
}

// Stats returns a consistent snapshot of the user's buffer, or
// ErrUnknownSession.
func (s *Service) Stats(uid string) (*SessionStats, error) {
	return s.registry.Stats(uid)
}

// ClearSession destroys the user's session, or returns ErrUnknownSession.
func (s *Service) ClearSession(uid string) error {
	if !s.registry.Remove(uid) {
		return ErrUnknownSession
	}
	s.log.Infof("cleared session for user %s", uid)
	return nil
}

// ActiveSessions returns the number of live sessions.
func (s *Service) ActiveSessions() int { return s.registry.Len() }

// RegisterSongFile transcodes an audio file to the corpus format, fingerprints
// it and stores the result. It returns the stored song info and the number of
// fingerprints registered.
func (s *Service) RegisterSongFile(ctx context.Context, path, artist, album, title string) (*SongInfo, int, error) {
	wavPath, err := audio.ConvertToMonoWAV(ctx, path, s.cfg.TempDir, audio.ConvertWAVConfig{
		SampleRate: s.cfg.CorpusSampleRate,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("audio conversion failed: %w", err)
	}
	defer os.Remove(wavPath)

	fps, err := s.cfg.Extractor.Extract(ctx, wavPath)
	if err != nil {
		return nil, 0, fmt.Errorf("extracting fingerprints: %w", err)
	}
	if len(fps) == 0 {
		return nil, 0, &ExtractionError{Path: wavPath, Err: fmt.Errorf("no fingerprints produced")}
	}

	songID, err := s.cfg.Store.RegisterSong(ctx, artist, album, title)
	if err != nil {
		return nil, 0, fmt.Errorf("registering song: %w", err)
	}

	if err := s.cfg.Store.StoreFingerprints(ctx, songID, fps); err != nil {
		// Roll back the metadata row so a retry starts clean.
		if delErr := s.cfg.Store.DeleteSong(ctx, songID); delErr != nil {
			s.log.Warnf("rollback of song %s failed: %v", songID, delErr)
		}
		return nil, 0, fmt.Errorf("storing fingerprints: %w", err)
	}

	s.log.Infof("registered song '%s' by %s (%d fingerprints)", title, artist, len(fps))
	return &SongInfo{SongID: songID, Artist: artist, Album: album, Title: title}, len(fps), nil
}

// ListSongs returns every registered song.
func (s *Service) ListSongs(ctx context.Context) ([]SongInfo, error) {
	return s.cfg.Store.ListSongs(ctx)
}

// Close releases the store.
func (s *Service) Close() error {
	return s.cfg.Store.Close()
}
