package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkFileName(t *testing.T) {
	tests := []struct {
		name     string
		start    float64
		end      float64
		expected string
	}{
		{"whole seconds", 0, 600, "film_chunk_0_600.srt"},
		{"fractional", 12.5, 30.25, "film_chunk_12.5_30.25.srt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ChunkFileName("film", tt.start, tt.end))
		})
	}
}

func TestTaskArtifactName(t *testing.T) {
	assert.Equal(t, "film_chunk_0_600_1f2e_filtered.srt", TaskArtifactName("film", 0, 600, "1f2e", "filtered"))
	assert.NotEqual(t,
		TaskArtifactName("film", 0, 600, "a", "translation"),
		TaskArtifactName("film", 0, 600, "b", "translation"))
}

func TestVideoStem(t *testing.T) {
	assert.Equal(t, "Der Tatort.S01E02", VideoStem("/media/Der Tatort.S01E02.mkv"))
	assert.Equal(t, "film", VideoStem("film"))
}

func TestSelectSubtitle(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		expected   string
		found      bool
	}{
		{
			name:       "exact stem wins over language suffix",
			candidates: []string{"/m/film.de.srt", "/m/film.srt"},
			expected:   "/m/film.srt",
			found:      true,
		},
		{
			name:       "exact stem wins over longer name",
			candidates: []string{"/m/film2.srt", "/m/film_chunk_0_600.srt", "/m/film.SRT"},
			expected:   "/m/film.SRT",
			found:      true,
		},
		{
			name:       "partial matches only",
			candidates: []string{"/m/film.de.srt", "/m/my film.srt"},
		},
		{
			name:       "same stem but not srt",
			candidates: []string{"/m/film.vtt", "/m/film.mp4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectSubtitle("film", tt.candidates)

			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFindSubtitle(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"film.mp4", "film.en.srt", "film.srt", "filmmaker.srt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	got, ok := FindSubtitle(filepath.Join(dir, "film.mp4"))
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "film.srt"), got)

	_, ok = FindSubtitle(filepath.Join(dir, "other.mp4"))
	assert.False(t, ok)
}
