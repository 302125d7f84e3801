package earshot

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// MatchScorer reduces a sample fingerprint set to the single best candidate
// with a calibrated confidence.
//
// Scoring is a plain frequency count: every stored hash occurrence votes once
// for its owning song, regardless of time offset. No offset-alignment
// histogram is applied, which caps the achievable precision; the step-function
// confidence bands below are calibrated for exactly this tally.
type MatchScorer struct {
	store     FingerprintStore
	batchSize int
	log       Logger
}

func NewMatchScorer(store FingerprintStore, batchSize int, log Logger) *MatchScorer {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &MatchScorer{store: store, batchSize: batchSize, log: log}
}

// ConfidenceForScore maps a raw match tally to a confidence in [0, 1] via a
// fixed step function. The breakpoints are load-bearing: recognition requires
// confidence > 0.5, so only the top two bands qualify.
func ConfidenceForScore(score int) float64 {
	switch {
	case score > 1000:
		return 1.0
	case score > 100:
		return 0.9
	case score > 50:
		return 0.7
	case score > 10:
		return 0.4
	default:
		return 0.1
	}
}

// BestMatch looks up every sample hash, tallies votes per song and returns the
// winner with its confidence. An empty fingerprint set or an empty match set
// yields (nil, nil); no candidate is not an error. Ties are broken in favor
// of the song first seen in lookup order, which keeps repeated scoring of the
// same sample deterministic.
func (m *MatchScorer) BestMatch(ctx context.Context, fps []Fingerprint) (*MatchCandidate, error) {
	if len(fps) == 0 {
		return nil, nil
	}

	hashes := make([]int64, len(fps))
	for i, fp := range fps {
		hashes[i] = fp.Hash
	}

	batches := make([][]int64, 0, len(hashes)/m.batchSize+1)
	for start := 0; start < len(hashes); start += m.batchSize {
		end := min(start+m.batchSize, len(hashes))
		batches = append(batches, hashes[start:end])
	}

	// Batches query concurrently, but results merge in batch order so the
	// first-seen tie-break does not depend on scheduling.
	results := make([][]HashMatch, len(batches))
	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			matches, err := m.store.LookupHashes(gctx, batch)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			results[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	votes := make(map[string]int)
	var order []string
	for _, matches := range results {
		for _, match := range matches {
			if _, seen := votes[match.SongID]; !seen {
				order = append(order, match.SongID)
			}
			votes[match.SongID]++
		}
	}
	if len(order) == 0 {
		return nil, nil
	}

	best := order[0]
	for _, songID := range order[1:] {
		if votes[songID] > votes[best] {
			best = songID
		}
	}
	score := votes[best]

	info, err := m.store.GetSongInfo(ctx, best)
	if err != nil {
		if errors.Is(err, ErrSongNotFound) {
			m.log.Warnf("matched song %s has no metadata; dropping candidate", best)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &MatchCandidate{
		SongID:     best,
		Artist:     info.Artist,
		Album:      info.Album,
		Title:      info.Title,
		Score:      score,
		Confidence: ConfidenceForScore(score),
	}, nil
}
