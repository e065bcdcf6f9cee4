package adapters

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Backend names accepted by TRANSCRIPTION_BACKEND and TRANSLATION_BACKEND.
const (
	BackendOpenAI = "openai"
	BackendNone   = "none"
)

// Options configures adapter construction.
type Options struct {
	BaseURL            string
	APIKey             string
	TranscriptionModel string
	TranslationModel   string
	Logger             *zap.Logger
}

// TranscriberFactory builds a transcriber. A nil Transcriber with a nil
// error means the backend is disabled.
type TranscriberFactory func(Options) (Transcriber, error)

// TranslatorFactory builds a translator. A nil Translator with a nil error
// means the backend is disabled.
type TranslatorFactory func(Options) (Translator, error)

// TranscriberKinds lists every transcription backend compiled into the binary.
var TranscriberKinds = map[string]TranscriberFactory{
	BackendOpenAI: func(opts Options) (Transcriber, error) {
		return NewOpenAITranscriber(opts)
	},
	BackendNone: func(Options) (Transcriber, error) {
		return nil, nil
	},
}

// TranslatorKinds lists every translation backend compiled into the binary.
var TranslatorKinds = map[string]TranslatorFactory{
	BackendOpenAI: func(opts Options) (Translator, error) {
		return NewOpenAITranslator(opts)
	},
	BackendNone: func(Options) (Translator, error) {
		return nil, nil
	},
}

// NewTranscriber builds the named transcription backend.
func NewTranscriber(kind string, opts Options) (Transcriber, error) {
	factory, ok := TranscriberKinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown transcription backend %q (available: %v)", kind, kindNames(TranscriberKinds))
	}
	t, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("create %s transcriber: %w", kind, err)
	}
	return t, nil
}

// NewTranslator builds the named translation backend.
func NewTranslator(kind string, opts Options) (Translator, error) {
	factory, ok := TranslatorKinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown translation backend %q (available: %v)", kind, kindNames(TranslatorKinds))
	}
	t, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("create %s translator: %w", kind, err)
	}
	return t, nil
}

func kindNames[F any](kinds map[string]F) []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
