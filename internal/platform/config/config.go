package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

var (
	errInvalidPort           = errors.New("config: invalid PORT number")
	errConcurrencyOutOfRange = errors.New("config: concurrency must be 1-100")
	errInvalidBatch          = errors.New("config: invalid batch settings")
	errInvalidLengthBounds   = errors.New("config: invalid length bounds")
	errInvalidThresholds     = errors.New("config: score thresholds must satisfy 0 <= SCORE_YELLOW_MIN <= SCORE_GREEN_MIN <= 100")
	errInvalidRateLimit      = errors.New("config: rate limits must be non-negative numbers")
	errInvalidCache          = errors.New("config: invalid cache settings")
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	LinkCheckEnabled     bool
	LinkCheckConcurrency int
	AllowPrivateTargets  bool
	FetchRatePerSecond   float64

	BatchConcurrency int
	BatchItemTimeout time.Duration
	MaxBatchSize     int

	TitleMinLength       int
	TitleMaxLength       int
	DescriptionMinLength int
	DescriptionMaxLength int
	MinWordCount         int

	ScoreGreenMin  int
	ScoreYellowMin int

	RateLimitPerSecond float64
	RateLimitBurst     int

	CacheTTL        time.Duration
	CacheMaxEntries int
	RedisURL        string

	SettingsFile string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:            getEnv("PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "ERROR"),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		LinkCheckEnabled:     getEnvAsBool("LINK_CHECK_ENABLED", true),
		LinkCheckConcurrency: getEnvAsInt("LINK_CHECK_CONCURRENCY", 10),
		AllowPrivateTargets:  getEnvAsBool("ALLOW_PRIVATE_TARGETS", false),
		FetchRatePerSecond:   getEnvAsFloat("FETCH_RATE_PER_SECOND", 0),

		BatchConcurrency: getEnvAsInt("BATCH_CONCURRENCY", 10),
		BatchItemTimeout: getEnvAsDuration("BATCH_ITEM_TIMEOUT", 15*time.Second),
		MaxBatchSize:     getEnvAsInt("MAX_BATCH_SIZE", 50),

		TitleMinLength:       getEnvAsInt("TITLE_MIN_LENGTH", 30),
		TitleMaxLength:       getEnvAsInt("TITLE_MAX_LENGTH", 60),
		DescriptionMinLength: getEnvAsInt("DESCRIPTION_MIN_LENGTH", 50),
		DescriptionMaxLength: getEnvAsInt("DESCRIPTION_MAX_LENGTH", 160),
		MinWordCount:         getEnvAsInt("MIN_WORD_COUNT", 300),

		ScoreGreenMin:  getEnvAsInt("SCORE_GREEN_MIN", 80),
		ScoreYellowMin: getEnvAsInt("SCORE_YELLOW_MIN", 50),

		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 20),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 40),

		CacheTTL:        getEnvAsDuration("CACHE_TTL", 10*time.Minute),
		CacheMaxEntries: getEnvAsInt("CACHE_MAX_ENTRIES", 1000),
		RedisURL:        os.Getenv("REDIS_URL"),

		SettingsFile: os.Getenv("SETTINGS_FILE"),
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if c.LinkCheckConcurrency < 1 || c.LinkCheckConcurrency > 100 {
		return fmt.Errorf("%w: LINK_CHECK_CONCURRENCY got %d", errConcurrencyOutOfRange, c.LinkCheckConcurrency)
	}
	if c.BatchConcurrency < 1 || c.BatchConcurrency > 100 {
		return fmt.Errorf("%w: BATCH_CONCURRENCY got %d", errConcurrencyOutOfRange, c.BatchConcurrency)
	}

	if c.MaxBatchSize < 1 || c.BatchItemTimeout <= 0 {
		return fmt.Errorf("%w: MAX_BATCH_SIZE=%d BATCH_ITEM_TIMEOUT=%s", errInvalidBatch, c.MaxBatchSize, c.BatchItemTimeout)
	}

	if c.TitleMinLength < 0 || c.TitleMaxLength < c.TitleMinLength {
		return fmt.Errorf("%w: title %d-%d", errInvalidLengthBounds, c.TitleMinLength, c.TitleMaxLength)
	}
	if c.DescriptionMinLength < 0 || c.DescriptionMaxLength < c.DescriptionMinLength {
		return fmt.Errorf("%w: description %d-%d", errInvalidLengthBounds, c.DescriptionMinLength, c.DescriptionMaxLength)
	}
	if c.MinWordCount < 0 {
		return fmt.Errorf("%w: MIN_WORD_COUNT got %d", errInvalidLengthBounds, c.MinWordCount)
	}

	if c.ScoreYellowMin < 0 || c.ScoreGreenMin > 100 || c.ScoreYellowMin > c.ScoreGreenMin {
		return fmt.Errorf("%w: green=%d yellow=%d", errInvalidThresholds, c.ScoreGreenMin, c.ScoreYellowMin)
	}

	if !(c.RateLimitPerSecond >= 0) || !(c.FetchRatePerSecond >= 0) || c.RateLimitBurst < 0 {
		return errInvalidRateLimit
	}

	if c.CacheTTL < 0 || c.CacheMaxEntries < 0 {
		return fmt.Errorf("%w: CACHE_TTL=%s CACHE_MAX_ENTRIES=%d", errInvalidCache, c.CacheTTL, c.CacheMaxEntries)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsFloat(key string, fallback float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsBool(key string, fallback bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return v
}
