package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/earshot/earshot/pkg/earshot"
	"github.com/earshot/earshot/pkg/earshot/fingerprint"
	"github.com/earshot/earshot/pkg/earshot/storage"
)

var (
	dbPath  string
	file    string
	dir     string
	artist  string
	album   string
	title   string
	tempDir string
)

func init() {
	flag.StringVar(&dbPath, "db", getEnvOrDefault("EARSHOT_DB_PATH", storage.DefaultDBFile), "Path to SQLite database")
	flag.StringVar(&file, "file", "", "Audio file to register")
	flag.StringVar(&dir, "dir", "", "Directory of audio files to register")
	flag.StringVar(&artist, "artist", "", "Artist name (defaults to filename metadata)")
	flag.StringVar(&album, "album", "", "Album name")
	flag.StringVar(&title, "title", "", "Song title (defaults to filename metadata)")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("EARSHOT_TEMP_DIR", os.TempDir()), "Temporary directory")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
}

// metadataFromFilename parses "Artist - Title.ext" style names, falling
// back to the bare stem as the title.
func metadataFromFilename(path string) (string, string) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if idx := strings.Index(stem, " - "); idx != -1 {
		return strings.TrimSpace(stem[:idx]), strings.TrimSpace(stem[idx+3:])
	}
	return "Unknown Artist", stem
}

func registerOne(ctx context.Context, svc *earshot.Service, path string) error {
	fileArtist, fileTitle := artist, title
	if fileArtist == "" || fileTitle == "" {
		a, t := metadataFromFilename(path)
		if fileArtist == "" {
			fileArtist = a
		}
		if fileTitle == "" {
			fileTitle = t
		}
	}

	info, count, err := svc.RegisterSongFile(ctx, path, fileArtist, album, fileTitle)
	if err != nil {
		return err
	}
	fmt.Printf("registered %q by %q (%s): %d fingerprints\n", info.Title, info.Artist, info.SongID, count)
	return nil
}

func main() {
	flag.Parse()

	if file == "" && dir == "" {
		log.Fatal("one of -file or -dir is required")
	}
	if file != "" && dir != "" {
		log.Fatal("-file and -dir are mutually exclusive")
	}

	store, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	svc, err := earshot.New(
		earshot.WithStore(store),
		earshot.WithExtractor(fingerprint.NewExtractor()),
		earshot.WithNotifier(earshot.NewDispatcher(earshot.DispatcherConfig{})),
		earshot.WithTempDir(tempDir),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	ctx := context.Background()

	if file != "" {
		if err := registerOne(ctx, svc, file); err != nil {
			log.Fatalf("Failed to register %s: %v", file, err)
		}
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatalf("Failed to read directory: %v", err)
	}
	var failed int
	for _, entry := range entries {
		if entry.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := registerOne(ctx, svc, path); err != nil {
			log.Printf("skipping %s: %v", path, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
