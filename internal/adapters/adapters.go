// Package adapters holds the transcription, translation and audio extraction
// collaborators of the chunk pipeline.
package adapters

import (
	"context"
	"errors"

	"sublearn/internal/domain"
)

// ErrServiceUnavailable marks an adapter that is not configured or cannot be
// reached. The pipeline fails the current stage without retrying.
var ErrServiceUnavailable = errors.New("service unavailable")

// TranscriptionResult holds segments relative to the start of the audio.
type TranscriptionResult struct {
	Segments []domain.Segment
	Duration float64
	Language string
}

// Transcriber turns an audio file into timed segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (*TranscriptionResult, error)
}

// Translation is one translated text.
type Translation struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Translator translates texts in one round trip. The result has the same
// length and order as the input.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]Translation, error)
}
