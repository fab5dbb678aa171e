// ABOUTME: Centralized configuration for the jek assistant core
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// Config holds all configuration for the assistant.
type Config struct {
	// Storage settings
	DataDir string
	DBPath  string

	// OpenAI settings
	OpenAIKey      string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Memory settings
	DedupThreshold     float64
	RelevanceThreshold float64
	RetrievalLimit     int
	VectorDimension    int

	// Scheduler settings
	ReminderInterval      time.Duration
	TrainingSweepInterval time.Duration
	StatusSweepInterval   time.Duration

	// Serving settings
	ListenAddr  string
	MetricsAddr string
	LogLevel    string
	LogPretty   bool

	// Calendar-day comparisons for the archive prompt use one fixed zone.
	ArchiveTimeZone string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dataDir := getEnv("JEK_DATA_DIR", filepath.Join(xdg.DataHome, "jek"))

	cfg := &Config{
		DataDir:               dataDir,
		DBPath:                getEnv("JEK_DB_PATH", filepath.Join(dataDir, "jek.db")),
		OpenAIKey:             os.Getenv("OPENAI_API_KEY"),
		ChatModel:             getEnv("JEK_CHAT_MODEL", "gpt-4o-mini"),
		EmbeddingModel:        getEnv("JEK_EMBEDDING_MODEL", "text-embedding-3-small"),
		Timeout:               getEnvDuration("OPENAI_TIMEOUT", 30*time.Second),
		MaxRetries:            getEnvInt("OPENAI_MAX_RETRIES", 3),
		RetryDelay:            getEnvDuration("OPENAI_RETRY_DELAY", 2*time.Second),
		DedupThreshold:        getEnvFloat("JEK_DEDUP_THRESHOLD", 0.9),
		RelevanceThreshold:    getEnvFloat("JEK_RELEVANCE_THRESHOLD", 0.75),
		RetrievalLimit:        getEnvInt("JEK_RETRIEVAL_LIMIT", 3),
		VectorDimension:       getEnvInt("JEK_VECTOR_DIMENSION", 1536),
		ReminderInterval:      getEnvDuration("JEK_REMINDER_INTERVAL", 60*time.Second),
		TrainingSweepInterval: getEnvDuration("JEK_TRAINING_SWEEP_INTERVAL", 6*time.Hour),
		StatusSweepInterval:   getEnvDuration("JEK_STATUS_SWEEP_INTERVAL", 30*time.Minute),
		ListenAddr:            getEnv("JEK_LISTEN_ADDR", ":8080"),
		MetricsAddr:           getEnv("JEK_METRICS_ADDR", ":9090"),
		LogLevel:              getEnv("JEK_LOG_LEVEL", "info"),
		LogPretty:             getEnvBool("JEK_LOG_PRETTY", false),
		ArchiveTimeZone:       getEnv("JEK_ARCHIVE_TZ", "Asia/Jakarta"),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.DedupThreshold < 0 || c.DedupThreshold > 1 {
		return fmt.Errorf("JEK_DEDUP_THRESHOLD must be 0-1, got %f", c.DedupThreshold)
	}
	if c.RelevanceThreshold < 0 || c.RelevanceThreshold > 1 {
		return fmt.Errorf("JEK_RELEVANCE_THRESHOLD must be 0-1, got %f", c.RelevanceThreshold)
	}
	if c.RetrievalLimit <= 0 {
		return fmt.Errorf("JEK_RETRIEVAL_LIMIT must be positive, got %d", c.RetrievalLimit)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("JEK_REMINDER_INTERVAL must be positive, got %s", c.ReminderInterval)
	}
	return nil
}

// ArchiveLocation resolves the fixed zone for calendar-day comparisons.
// Falls back to a fixed UTC+7 zone when tzdata is unavailable.
func (c *Config) ArchiveLocation() *time.Location {
	loc, err := time.LoadLocation(c.ArchiveTimeZone)
	if err != nil {
		return time.FixedZone("WIB", 7*60*60)
	}
	return loc
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
