package app

import (
	"testing"
	"time"

	"sublearn/internal/config"
	"sublearn/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		BotPassword: "secret",
		Pipeline: config.PipelineConfig{
			MediaDir:         "media",
			Language:         "de",
			NativeLanguage:   "en",
			BlockerThreshold: 0.5,
			FFmpegBinary:     "ffmpeg",
		},
		Backends: config.BackendConfig{
			Transcription: "none",
			Translation:   "none",
		},
		Tasks: config.TaskConfig{
			TTL:           time.Hour,
			PruneInterval: time.Minute,
		},
	}
}

func TestNew(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a, err := New(testConfig(), db, testutil.NewTestLogger())

	require.NoError(t, err)
	assert.NotNil(t, a.Orchestrator)
	assert.NotNil(t, a.API)
	assert.NotNil(t, a.Scheduler)
	assert.NotNil(t, a.Importer)
	assert.Equal(t, time.Hour, a.Registry.TTL())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_OpenAIBackend(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := testConfig()
	cfg.Backends.Transcription = "openai"
	cfg.Backends.Translation = "openai"
	cfg.Backends.OpenAIAPIKey = "sk-test"
	cfg.Backends.OpenAIBaseURL = "http://localhost:9/v1"

	_, err = New(cfg, db, testutil.NewTestLogger())

	assert.NoError(t, err)
}

func TestNew_UnknownBackend(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *config.Config)
	}{
		{
			name:   "transcription",
			modify: func(cfg *config.Config) { cfg.Backends.Transcription = "whisper-cpp" },
		},
		{
			name:   "translation",
			modify: func(cfg *config.Config) { cfg.Backends.Translation = "deepl" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, _, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			cfg := testConfig()
			tt.modify(cfg)

			a, err := New(cfg, db, testutil.NewTestLogger())

			assert.Error(t, err)
			assert.Nil(t, a)
			assert.Contains(t, err.Error(), tt.name)
		})
	}
}
