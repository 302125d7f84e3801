package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/earshot/earshot/pkg/earshot"
)

// setupTestDB creates a client backed by a temporary database file.
func setupTestDB(t *testing.T) *DBClient {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_earshot.sqlite3")
	client, err := NewDBClientWithPath(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test DB client: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client
}

// TestNewDBClientEnv tests that the env var selects the database path
func TestNewDBClientEnv(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "env_earshot.sqlite3")

	oldPath := os.Getenv("EARSHOT_DB_PATH")
	os.Setenv("EARSHOT_DB_PATH", dbPath)
	t.Cleanup(func() {
		if oldPath == "" {
			os.Unsetenv("EARSHOT_DB_PATH")
		} else {
			os.Setenv("EARSHOT_DB_PATH", oldPath)
		}
	})

	client, err := NewDBClient()
	if err != nil {
		t.Fatalf("Failed to create DB client: %v", err)
	}
	defer client.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("Expected database file at %s: %v", dbPath, err)
	}
}

// TestRegisterSong tests registration and idempotency on artist/title
func TestRegisterSong(t *testing.T) {
	client := setupTestDB(t)
	ctx := context.Background()

	id, err := client.RegisterSong(ctx, "Daft Punk", "Discovery", "One More Time")
	if err != nil {
		t.Fatalf("RegisterSong: %v", err)
	}
	if id == "" {
		t.Fatal("Expected a non-empty song id")
	}

	// Registering the same artist/title again returns the existing id.
	again, err := client.RegisterSong(ctx, "Daft Punk", "Discovery", "One More Time")
	if err != nil {
		t.Fatalf("RegisterSong (repeat): %v", err)
	}
	if again != id {
		t.Errorf("Expected the existing id %s, got %s", id, again)
	}

	other, err := client.RegisterSong(ctx, "Daft Punk", "Discovery", "Aerodynamic")
	if err != nil {
		t.Fatalf("RegisterSong (other): %v", err)
	}
	if other == id {
		t.Error("Expected a distinct id for a different title")
	}
}

// TestGetSongInfo tests metadata retrieval and the not-found sentinel
func TestGetSongInfo(t *testing.T) {
	client := setupTestDB(t)
	ctx := context.Background()

	id, err := client.RegisterSong(ctx, "Queen", "A Night at the Opera", "Bohemian Rhapsody")
	if err != nil {
		t.Fatalf("RegisterSong: %v", err)
	}

	info, err := client.GetSongInfo(ctx, id)
	if err != nil {
		t.Fatalf("GetSongInfo: %v", err)
	}
	if info.SongID != id || info.Artist != "Queen" || info.Album != "A Night at the Opera" || info.Title != "Bohemian Rhapsody" {
		t.Errorf("Unexpected song info: %+v", info)
	}

	if _, err := client.GetSongInfo(ctx, "no-such-id"); !errors.Is(err, earshot.ErrSongNotFound) {
		t.Errorf("Expected ErrSongNotFound, got %v", err)
	}
}

// TestStoreAndLookupHashes tests fingerprint persistence and batch lookup
func TestStoreAndLookupHashes(t *testing.T) {
	client := setupTestDB(t)
	ctx := context.Background()

	id, err := client.RegisterSong(ctx, "Artist", "", "Song")
	if err != nil {
		t.Fatalf("RegisterSong: %v", err)
	}

	fps := []earshot.Fingerprint{
		{Hash: 101, Offset: 0.5},
		{Hash: 202, Offset: 1.0},
		{Hash: 303, Offset: 1.5},
		{Hash: 101, Offset: 7.0}, // repeated hash at a later offset
	}
	if err := client.StoreFingerprints(ctx, id, fps); err != nil {
		t.Fatalf("StoreFingerprints: %v", err)
	}

	matches, err := client.LookupHashes(ctx, []int64{101, 303, 999})
	if err != nil {
		t.Fatalf("LookupHashes: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("Expected 3 matches, got %d", len(matches))
	}
	for _, m := range matches {
		if m.SongID != id {
			t.Errorf("Expected owner %s, got %s", id, m.SongID)
		}
	}

	// Empty and unmatched lookups yield nothing.
	if matches, err := client.LookupHashes(ctx, nil); err != nil || len(matches) != 0 {
		t.Errorf("Expected no matches for empty lookup, got %v / %v", matches, err)
	}
	if matches, err := client.LookupHashes(ctx, []int64{999}); err != nil || len(matches) != 0 {
		t.Errorf("Expected no matches for unknown hash, got %v / %v", matches, err)
	}
}

// TestStoreFingerprintsLargeBatch tests that inserts exceed one batch
func TestStoreFingerprintsLargeBatch(t *testing.T) {
	client := setupTestDB(t)
	ctx := context.Background()

	id, err := client.RegisterSong(ctx, "Artist", "", "Long Song")
	if err != nil {
		t.Fatalf("RegisterSong: %v", err)
	}

	n := insertBatchSize*2 + 17
	fps := make([]earshot.Fingerprint, n)
	hashes := make([]int64, n)
	for i := range fps {
		fps[i] = earshot.Fingerprint{Hash: int64(i + 1), Offset: float64(i) * 0.01}
		hashes[i] = int64(i + 1)
	}
	if err := client.StoreFingerprints(ctx, id, fps); err != nil {
		t.Fatalf("StoreFingerprints: %v", err)
	}

	matches, err := client.LookupHashes(ctx, hashes)
	if err != nil {
		t.Fatalf("LookupHashes: %v", err)
	}
	if len(matches) != n {
		t.Errorf("Expected %d matches, got %d", n, len(matches))
	}
}

// TestStoreFingerprintsEmpty tests that an empty set is a no-op
func TestStoreFingerprintsEmpty(t *testing.T) {
	client := setupTestDB(t)
	if err := client.StoreFingerprints(context.Background(), "any", nil); err != nil {
		t.Errorf("Expected no error for empty set, got %v", err)
	}
}

// TestListSongs tests registration-ordered listing
func TestListSongs(t *testing.T) {
	client := setupTestDB(t)
	ctx := context.Background()

	songs, err := client.ListSongs(ctx)
	if err != nil {
		t.Fatalf("ListSongs: %v", err)
	}
	if len(songs) != 0 {
		t.Fatalf("Expected empty corpus, got %d songs", len(songs))
	}

	client.RegisterSong(ctx, "A", "", "First")
	client.RegisterSong(ctx, "B", "", "Second")

	songs, err = client.ListSongs(ctx)
	if err != nil {
		t.Fatalf("ListSongs: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("Expected 2 songs, got %d", len(songs))
	}
}

// TestDeleteSong tests that deletion removes metadata and fingerprints
func TestDeleteSong(t *testing.T) {
	client := setupTestDB(t)
	ctx := context.Background()

	id, err := client.RegisterSong(ctx, "Artist", "", "Doomed Song")
	if err != nil {
		t.Fatalf("RegisterSong: %v", err)
	}
	if err := client.StoreFingerprints(ctx, id, []earshot.Fingerprint{{Hash: 42, Offset: 1.0}}); err != nil {
		t.Fatalf("StoreFingerprints: %v", err)
	}

	if err := client.DeleteSong(ctx, id); err != nil {
		t.Fatalf("DeleteSong: %v", err)
	}

	if _, err := client.GetSongInfo(ctx, id); !errors.Is(err, earshot.ErrSongNotFound) {
		t.Errorf("Expected ErrSongNotFound after delete, got %v", err)
	}
	matches, err := client.LookupHashes(ctx, []int64{42})
	if err != nil {
		t.Fatalf("LookupHashes: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Expected fingerprints removed, got %d", len(matches))
	}
}
