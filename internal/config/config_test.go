package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"BOT_TOKEN", "BOT_PASSWORD", "HTTP_ADDR",
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"MEDIA_DIR", "OUTPUT_DIR", "TARGET_LANGUAGE", "NATIVE_LANGUAGE", "BLOCKER_THRESHOLD", "FFMPEG_BINARY",
	"TRANSCRIPTION_BACKEND", "TRANSLATION_BACKEND", "OPENAI_BASE_URL", "OPENAI_API_KEY",
	"TRANSCRIPTION_MODEL", "TRANSLATION_MODEL", "TASK_TTL", "TASK_PRUNE_INTERVAL",
}

// clearEnv blanks every key Load reads; t.Setenv restores them after the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
	t.Setenv("DB_PASSWORD", "test_db_password")
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		setEnv       bool
		envValue     string
		expected     string
	}{
		{
			name:         "env variable set",
			key:          "TEST_KEY",
			defaultValue: "default",
			setEnv:       true,
			envValue:     "custom",
			expected:     "custom",
		},
		{
			name:         "env variable not set",
			key:          "TEST_KEY_NOT_SET",
			defaultValue: "default",
			setEnv:       false,
			expected:     "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				os.Setenv(tt.key, tt.envValue)
				defer os.Unsetenv(tt.key)
			}

			result := getEnv(tt.key, tt.defaultValue)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5432",
			User:     "testuser",
			Password: "testpass",
			Name:     "testdb",
		},
	}

	dsn := cfg.DSN()
	expected := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	assert.Equal(t, expected, dsn)
}

func TestLoad_WithDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.BotEnabled())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "sublearn", cfg.Database.Name)
	assert.Equal(t, "sublearn", cfg.Database.User)
	assert.Equal(t, "media", cfg.Pipeline.MediaDir)
	assert.Equal(t, "de", cfg.Pipeline.Language)
	assert.Equal(t, "en", cfg.Pipeline.NativeLanguage)
	assert.Equal(t, 0.5, cfg.Pipeline.BlockerThreshold)
	assert.Equal(t, "ffmpeg", cfg.Pipeline.FFmpegBinary)
	assert.Equal(t, "none", cfg.Backends.Transcription)
	assert.Equal(t, "none", cfg.Backends.Translation)
	assert.Equal(t, time.Duration(0), cfg.Tasks.TTL)
	assert.Equal(t, 10*time.Minute, cfg.Tasks.PruneInterval)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "test_token")
	t.Setenv("BOT_PASSWORD", "test_password")
	t.Setenv("TARGET_LANGUAGE", "es-419")
	t.Setenv("NATIVE_LANGUAGE", "ru")
	t.Setenv("BLOCKER_THRESHOLD", "0.3")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TRANSLATION_BACKEND", "NONE")
	t.Setenv("TASK_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.BotEnabled())
	assert.Equal(t, "test_password", cfg.BotPassword)
	assert.Equal(t, "es", cfg.Pipeline.Language)
	assert.Equal(t, "ru", cfg.Pipeline.NativeLanguage)
	assert.Equal(t, 0.3, cfg.Pipeline.BlockerThreshold)
	assert.Equal(t, "openai", cfg.Backends.Transcription)
	assert.Equal(t, "none", cfg.Backends.Translation)
	assert.Equal(t, time.Hour, cfg.Tasks.TTL)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name          string
		key           string
		value         string
		expectedError string
	}{
		{
			name:          "missing DB password",
			key:           "DB_PASSWORD",
			value:         "",
			expectedError: "DB_PASSWORD",
		},
		{
			name:          "bot token without password",
			key:           "BOT_TOKEN",
			value:         "test_token",
			expectedError: "BOT_PASSWORD",
		},
		{
			name:          "bad language",
			key:           "TARGET_LANGUAGE",
			value:         "not a language",
			expectedError: "TARGET_LANGUAGE",
		},
		{
			name:          "threshold out of range",
			key:           "BLOCKER_THRESHOLD",
			value:         "1.5",
			expectedError: "BLOCKER_THRESHOLD",
		},
		{
			name:          "threshold not a number",
			key:           "BLOCKER_THRESHOLD",
			value:         "half",
			expectedError: "BLOCKER_THRESHOLD",
		},
		{
			name:          "bad ttl",
			key:           "TASK_TTL",
			value:         "soon",
			expectedError: "TASK_TTL",
		},
		{
			name:          "negative ttl",
			key:           "TASK_TTL",
			value:         "-1m",
			expectedError: "TASK_TTL",
		},
		{
			name:          "zero prune interval",
			key:           "TASK_PRUNE_INTERVAL",
			value:         "0s",
			expectedError: "TASK_PRUNE_INTERVAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}
