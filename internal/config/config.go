package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// Config holds all application configuration
type Config struct {
	BotToken    string // empty disables the Telegram surface
	BotPassword string
	HTTPAddr    string
	Database    DatabaseConfig
	Pipeline    PipelineConfig
	Backends    BackendConfig
	Tasks       TaskConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// PipelineConfig holds chunk pipeline settings
type PipelineConfig struct {
	MediaDir         string
	OutputDir        string
	Language         string
	NativeLanguage   string
	BlockerThreshold float64
	FFmpegBinary     string
}

// BackendConfig selects and configures the speech and translation adapters
type BackendConfig struct {
	Transcription      string
	Translation        string
	OpenAIBaseURL      string
	OpenAIAPIKey       string
	TranscriptionModel string
	TranslationModel   string
}

// TaskConfig controls task registry retention
type TaskConfig struct {
	TTL           time.Duration // 0 keeps finished tasks forever
	PruneInterval time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:    os.Getenv("BOT_TOKEN"),
		BotPassword: os.Getenv("BOT_PASSWORD"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "sublearn"),
			User:     getEnv("DB_USER", "sublearn"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		Pipeline: PipelineConfig{
			MediaDir:     getEnv("MEDIA_DIR", "media"),
			OutputDir:    os.Getenv("OUTPUT_DIR"),
			FFmpegBinary: getEnv("FFMPEG_BINARY", "ffmpeg"),
		},
		Backends: BackendConfig{
			OpenAIBaseURL:      os.Getenv("OPENAI_BASE_URL"),
			OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
			TranscriptionModel: os.Getenv("TRANSCRIPTION_MODEL"),
			TranslationModel:   os.Getenv("TRANSLATION_MODEL"),
		},
	}

	defaultBackend := "none"
	if cfg.Backends.OpenAIAPIKey != "" {
		defaultBackend = "openai"
	}
	cfg.Backends.Transcription = strings.ToLower(getEnv("TRANSCRIPTION_BACKEND", defaultBackend))
	cfg.Backends.Translation = strings.ToLower(getEnv("TRANSLATION_BACKEND", defaultBackend))

	// Validate required fields
	if cfg.BotToken != "" && cfg.BotPassword == "" {
		return nil, fmt.Errorf("BOT_PASSWORD is required when BOT_TOKEN is set")
	}
	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	var err error
	if cfg.Pipeline.Language, err = parseLanguage("TARGET_LANGUAGE", getEnv("TARGET_LANGUAGE", "de")); err != nil {
		return nil, err
	}
	if cfg.Pipeline.NativeLanguage, err = parseLanguage("NATIVE_LANGUAGE", getEnv("NATIVE_LANGUAGE", "en")); err != nil {
		return nil, err
	}
	if cfg.Pipeline.BlockerThreshold, err = parseThreshold(getEnv("BLOCKER_THRESHOLD", "0.5")); err != nil {
		return nil, err
	}
	if cfg.Tasks.TTL, err = parseDuration("TASK_TTL", getEnv("TASK_TTL", "0")); err != nil {
		return nil, err
	}
	if cfg.Tasks.PruneInterval, err = parseDuration("TASK_PRUNE_INTERVAL", getEnv("TASK_PRUNE_INTERVAL", "10m")); err != nil {
		return nil, err
	}
	if cfg.Tasks.PruneInterval <= 0 {
		return nil, fmt.Errorf("TASK_PRUNE_INTERVAL must be positive")
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

// BotEnabled reports whether the Telegram surface should start
func (c *Config) BotEnabled() bool {
	return c.BotToken != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseLanguage(key, value string) (string, error) {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("%s: invalid language %q: %w", key, value, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

func parseThreshold(value string) (float64, error) {
	threshold, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("BLOCKER_THRESHOLD: %w", err)
	}
	if threshold <= 0 || threshold > 1 {
		return 0, fmt.Errorf("BLOCKER_THRESHOLD must be in (0, 1], got %g", threshold)
	}
	return threshold, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
