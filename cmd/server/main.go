package main

import (
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/earshot/earshot/pkg/earshot"
	"github.com/earshot/earshot/pkg/earshot/fingerprint"
	"github.com/earshot/earshot/pkg/earshot/storage"
)

var (
	port           int
	dbPath         string
	tempDir        string
	configPath     string
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
	flag.StringVar(&tempDir, "temp", "", "Temporary directory (overrides config)")
	flag.StringVar(&configPath, "config", "", "Path to YAML configuration file")
	flag.StringVar(&allowedOrigins, "origins", "", "Comma-separated list of allowed CORS origins (use * for all)")
}

func main() {
	flag.Parse()

	cfg := defaultServerConfig()
	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	cfg.applyEnv()

	// Flags win over file and environment.
	portSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "port" {
			portSet = true
		}
	})
	if portSet || cfg.Port == 0 {
		cfg.Port = port
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if tempDir != "" {
		cfg.TempDir = tempDir
	}
	if allowedOrigins != "" {
		origins := strings.Split(allowedOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.AllowedOrigins = origins
	}

	store, err := storage.NewDBClientWithPath(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	dispatcher := earshot.NewDispatcher(earshot.DispatcherConfig{
		Endpoint: cfg.Notify.Endpoint,
		AppID:    cfg.Notify.AppID,
		APIKey:   cfg.Notify.APIKey,
		Timeout:  time.Duration(cfg.Notify.TimeoutSeconds) * time.Second,
	})

	service, err := earshot.New(
		earshot.WithStore(store),
		earshot.WithExtractor(fingerprint.NewExtractor()),
		earshot.WithNotifier(dispatcher),
		earshot.WithMinAudioLength(cfg.MinAudioLength),
		earshot.WithMaxBufferDuration(cfg.MaxBufferDuration),
		earshot.WithMatchBatchSize(cfg.MatchBatchSize),
		earshot.WithMatchTimeout(time.Duration(cfg.MatchTimeoutSeconds)*time.Second),
		earshot.WithTempDir(cfg.TempDir),
		earshot.WithCorpusSampleRate(cfg.CorpusSampleRate),
	)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	if cfg.Notify.AppID == "" || cfg.Notify.APIKey == "" {
		log.Printf("WARNING: NOTIFY_APP_ID / NOTIFY_API_KEY not set, notifications disabled")
	}
	if err := os.MkdirAll(cfg.TempDir, 0o755); err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}

	server := NewServer(service, cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
