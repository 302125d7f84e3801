package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the full server configuration. Values come from
// defaults, then an optional YAML file, then environment variables.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	DBPath         string   `yaml:"db_path"`
	TempDir        string   `yaml:"temp_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	MinAudioLength      int `yaml:"min_audio_length"`
	MaxBufferDuration   int `yaml:"max_buffer_duration"`
	MatchBatchSize      int `yaml:"match_batch_size"`
	MatchTimeoutSeconds int `yaml:"match_timeout_seconds"`
	CorpusSampleRate    int `yaml:"corpus_sample_rate"`

	Notify NotifyConfig `yaml:"notify"`
}

// NotifyConfig configures the outbound push-notification transport.
type NotifyConfig struct {
	Endpoint       string `yaml:"endpoint"`
	AppID          string `yaml:"app_id"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

func defaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:                8080,
		DBPath:              "earshot.sqlite3",
		TempDir:             os.TempDir(),
		AllowedOrigins:      []string{"*"},
		MinAudioLength:      10,
		MaxBufferDuration:   60,
		MatchBatchSize:      1000,
		MatchTimeoutSeconds: 30,
		CorpusSampleRate:    11025,
		Notify: NotifyConfig{
			Endpoint:       "https://api.omi.me/v2/integrations",
			TimeoutSeconds: 30,
		},
	}
}

// loadConfigFile overlays the YAML file at path onto cfg. Unknown keys are
// rejected so typos fail loudly.
func loadConfigFile(path string, cfg *ServerConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("config: decode %q: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables onto cfg.
func (c *ServerConfig) applyEnv() {
	if v := os.Getenv("EARSHOT_DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("EARSHOT_TEMP_DIR"); v != "" {
		c.TempDir = v
	}
	envInt("MIN_AUDIO_LENGTH", &c.MinAudioLength)
	envInt("MAX_BUFFER_DURATION", &c.MaxBufferDuration)
	envInt("MATCH_BATCH_SIZE", &c.MatchBatchSize)
	envInt("MATCH_TIMEOUT", &c.MatchTimeoutSeconds)
	envInt("NOTIFY_TIMEOUT", &c.Notify.TimeoutSeconds)
	if v := os.Getenv("NOTIFY_ENDPOINT"); v != "" {
		c.Notify.Endpoint = v
	}
	if v := os.Getenv("NOTIFY_APP_ID"); v != "" {
		c.Notify.AppID = v
	}
	if v := os.Getenv("NOTIFY_API_KEY"); v != "" {
		c.Notify.APIKey = v
	}
}

func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*dst = n
}
