// Package storage provides the SQLite-backed fingerprint store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/earshot/earshot/pkg/earshot"
)

const DefaultDBFile = "earshot.sqlite3"

const insertBatchSize = 500

// Song is the metadata row for one registered song.
type Song struct {
	SongID    string `gorm:"primaryKey;type:varchar(36)"`
	Artist    string `gorm:"uniqueIndex:idx_song_unique,priority:1"`
	Album     string
	Title     string `gorm:"uniqueIndex:idx_song_unique,priority:2"`
	CreatedAt time.Time
}

func (Song) TableName() string { return "song_info" }

// HashEntry is one stored fingerprint: a hash owned by a song at an offset.
type HashEntry struct {
	ID              uint    `gorm:"primaryKey;autoIncrement"`
	FingerprintHash int64   `gorm:"index:idx_fingerprint_hash"`
	Offset          float64 `gorm:"column:offset"`
	SongID          string  `gorm:"type:varchar(36);index:idx_song"`
}

func (HashEntry) TableName() string { return "hashes" }

// DBClient is the SQLite fingerprint store. It implements
// earshot.FingerprintStore.
type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("EARSHOT_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Song{}, &HashEntry{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// LookupHashes returns every stored association for the given hashes. Rows
// come back in insertion order, which keeps downstream first-seen tie-breaks
// stable across calls.
func (c *DBClient) LookupHashes(ctx context.Context, hashes []int64) ([]earshot.HashMatch, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	var rows []HashEntry
	err := c.DB.WithContext(ctx).
		Where("fingerprint_hash IN ?", hashes).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("querying hashes: %w", err)
	}

	out := make([]earshot.HashMatch, len(rows))
	for i, r := range rows {
		out[i] = earshot.HashMatch{Hash: r.FingerprintHash, SongID: r.SongID}
	}
	return out, nil
}

// GetSongInfo returns metadata for songID, or earshot.ErrSongNotFound.
func (c *DBClient) GetSongInfo(ctx context.Context, songID string) (*earshot.SongInfo, error) {
	var song Song
	err := c.DB.WithContext(ctx).Where("song_id = ?", songID).First(&song).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, earshot.ErrSongNotFound
		}
		return nil, fmt.Errorf("querying song %s: %w", songID, err)
	}
	return &earshot.SongInfo{
		SongID: song.SongID,
		Artist: song.Artist,
		Album:  song.Album,
		Title:  song.Title,
	}, nil
}

// RegisterSong stores song metadata, returning the existing id when the same
// artist/title is already registered.
func (c *DBClient) RegisterSong(ctx context.Context, artist, album, title string) (string, error) {
	db := c.DB.WithContext(ctx)

	var song Song
	err := db.Where("artist = ? AND title = ?", artist, title).First(&song).Error
	if err == nil {
		return song.SongID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("querying existing song: %w", err)
	}

	song = Song{SongID: uuid.NewString(), Artist: artist, Album: album, Title: title}
	if err := db.Create(&song).Error; err != nil {
		// A concurrent register may have won the unique index race.
		if fetchErr := db.Where("artist = ? AND title = ?", artist, title).First(&song).Error; fetchErr == nil {
			return song.SongID, nil
		}
		return "", fmt.Errorf("creating song: %w", err)
	}
	return song.SongID, nil
}

// StoreFingerprints persists the fingerprint set for songID in batches.
func (c *DBClient) StoreFingerprints(ctx context.Context, songID string, fps []earshot.Fingerprint) error {
	if len(fps) == 0 {
		return nil
	}
	entries := make([]HashEntry, len(fps))
	for i, fp := range fps {
		entries[i] = HashEntry{
			FingerprintHash: fp.Hash,
			Offset:          fp.Offset,
			SongID:          songID,
		}
	}
	if err := c.DB.WithContext(ctx).CreateInBatches(entries, insertBatchSize).Error; err != nil {
		return fmt.Errorf("batch insert fingerprints: %w", err)
	}
	return nil
}

func (c *DBClient) ListSongs(ctx context.Context) ([]earshot.SongInfo, error) {
	var rows []Song
	if err := c.DB.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing songs: %w", err)
	}
	out := make([]earshot.SongInfo, len(rows))
	for i, r := range rows {
		out[i] = earshot.SongInfo{SongID: r.SongID, Artist: r.Artist, Album: r.Album, Title: r.Title}
	}
	return out, nil
}

// DeleteSong removes a song and all its fingerprints.
func (c *DBClient) DeleteSong(ctx context.Context, songID string) error {
	return c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("song_id = ?", songID).Delete(&HashEntry{}).Error; err != nil {
			return err
		}
		return tx.Where("song_id = ?", songID).Delete(&Song{}).Error
	})
}
