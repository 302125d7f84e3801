package earshot

import "time"

// Config holds the recognition service tunables. The threshold and trim
// constants are observable behavior; changing them changes when evaluations
// fire and how buffers shrink.
type Config struct {
	// MinAudioLength is the buffered duration, in seconds, required before a
	// recognition attempt.
	MinAudioLength int

	// MaxBufferDuration is the buffered duration, in seconds, above which an
	// unmatched buffer is trimmed.
	MaxBufferDuration int

	// TrimToSeconds is the trailing window kept when a buffer is trimmed.
	TrimToSeconds int

	// MatchBatchSize caps the number of hashes per store lookup.
	MatchBatchSize int

	// MatchTimeout bounds one extract+lookup evaluation.
	MatchTimeout time.Duration

	// TempDir receives the transient WAV containers handed to the extractor.
	TempDir string

	// CorpusSampleRate is the rate reference songs are transcoded to before
	// fingerprinting. Ingested chunks keep their declared device rate; the
	// extractor's frequency quantization makes the two comparable.
	CorpusSampleRate int

	Extractor FingerprintExtractor
	Store     FingerprintStore
	Notifier  Notifier
	Logger    Logger
}

type Option func(*Config)

func WithMinAudioLength(seconds int) Option {
	return func(c *Config) { c.MinAudioLength = seconds }
}

func WithMaxBufferDuration(seconds int) Option {
	return func(c *Config) { c.MaxBufferDuration = seconds }
}

func WithTrimToSeconds(seconds int) Option {
	return func(c *Config) { c.TrimToSeconds = seconds }
}

func WithMatchBatchSize(n int) Option {
	return func(c *Config) { c.MatchBatchSize = n }
}

func WithMatchTimeout(d time.Duration) Option {
	return func(c *Config) { c.MatchTimeout = d }
}

func WithTempDir(dir string) Option {
	return func(c *Config) { c.TempDir = dir }
}

func WithCorpusSampleRate(rate int) Option {
	return func(c *Config) { c.CorpusSampleRate = rate }
}

func WithExtractor(e FingerprintExtractor) Option {
	return func(c *Config) { c.Extractor = e }
}

func WithStore(s FingerprintStore) Option {
	return func(c *Config) { c.Store = s }
}

func WithNotifier(n Notifier) Option {
	return func(c *Config) { c.Notifier = n }
}

func WithLogger(log Logger) Option {
	return func(c *Config) { c.Logger = log }
}

func defaultConfig() *Config {
	return &Config{
		MinAudioLength:    10,
		MaxBufferDuration: 60,
		TrimToSeconds:     30,
		MatchBatchSize:    1000,
		MatchTimeout:      30 * time.Second,
		TempDir:           "/tmp",
		CorpusSampleRate:  11025,
	}
}
