package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"sublearn/internal/domain"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const defaultTranslationModel = openai.GPT4oMini

// OpenAITranscriber calls an OpenAI-compatible /audio/transcriptions endpoint.
type OpenAITranscriber struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAITranscriber creates a Whisper transcriber. An empty BaseURL uses
// the public API; a self-hosted server only needs its URL.
func NewOpenAITranscriber(opts Options) (*OpenAITranscriber, error) {
	client, err := newOpenAIClient(opts)
	if err != nil {
		return nil, err
	}
	model := opts.TranscriptionModel
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAITranscriber{client: client, model: model, logger: loggerOrNop(opts.Logger)}, nil
}

// Transcribe uploads the audio file and returns its timed segments.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audioPath, language string) (*TranscriptionResult, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Language: language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, classifyOpenAIError("transcribe", err)
	}

	result := &TranscriptionResult{
		Duration: resp.Duration,
		Language: resp.Language,
		Segments: make([]domain.Segment, 0, len(resp.Segments)),
	}
	for _, s := range resp.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" || s.End <= s.Start {
			continue
		}
		result.Segments = append(result.Segments, domain.Segment{
			Index:     len(result.Segments) + 1,
			StartTime: s.Start,
			EndTime:   s.End,
			Text:      text,
		})
	}
	// Servers without segment output still return the full text.
	if len(result.Segments) == 0 && strings.TrimSpace(resp.Text) != "" && resp.Duration > 0 {
		result.Segments = append(result.Segments, domain.Segment{
			Index:     1,
			StartTime: 0,
			EndTime:   resp.Duration,
			Text:      strings.TrimSpace(resp.Text),
		})
	}

	t.logger.Debug("Transcription received",
		zap.String("model", t.model),
		zap.Int("segments", len(result.Segments)),
		zap.Float64("duration", result.Duration),
	)
	return result, nil
}

// OpenAITranslator translates through a chat completion that answers with a
// JSON object.
type OpenAITranslator struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAITranslator creates a chat-completion translator.
func NewOpenAITranslator(opts Options) (*OpenAITranslator, error) {
	client, err := newOpenAIClient(opts)
	if err != nil {
		return nil, err
	}
	model := opts.TranslationModel
	if model == "" {
		model = defaultTranslationModel
	}
	return &OpenAITranslator{client: client, model: model, logger: loggerOrNop(opts.Logger)}, nil
}

type translationReply struct {
	Translations []Translation `json:"translations"`
}

const translationPrompt = `You translate subtitle lines from %s to %s.
The user message is a JSON array of lines. Reply with a JSON object of the form
{"translations": [{"text": "...", "confidence": 0.0}]} holding exactly one item per line,
in the same order. confidence is your certainty between 0 and 1.`

// TranslateBatch translates all texts in a single request.
func (t *OpenAITranslator) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]Translation, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("encode texts: %w", err)
	}

	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(translationPrompt, sourceLang, targetLang)},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0,
	})
	if err != nil {
		return nil, classifyOpenAIError("translate", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("translate: empty completion")
	}

	var reply translationReply
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &reply); err != nil {
		return nil, fmt.Errorf("translate: decode reply: %w", err)
	}
	if len(reply.Translations) != len(texts) {
		return nil, fmt.Errorf("translate: got %d translations for %d lines", len(reply.Translations), len(texts))
	}

	for i := range reply.Translations {
		reply.Translations[i].Text = strings.TrimSpace(reply.Translations[i].Text)
		c := reply.Translations[i].Confidence
		if c <= 0 || c > 1 {
			reply.Translations[i].Confidence = 1
		}
	}

	t.logger.Debug("Translation received",
		zap.String("model", t.model),
		zap.Int("lines", len(texts)),
	)
	return reply.Translations, nil
}

func newOpenAIClient(opts Options) (*openai.Client, error) {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
			return nil, fmt.Errorf("invalid base url %q: %w", opts.BaseURL, err)
		}
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	return openai.NewClientWithConfig(cfg), nil
}

// classifyOpenAIError maps transport failures, throttling and server errors
// to ErrServiceUnavailable.
func classifyOpenAIError(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && unavailableStatus(apiErr.HTTPStatusCode) {
		return fmt.Errorf("%s: %w: %v", op, ErrServiceUnavailable, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && unavailableStatus(reqErr.HTTPStatusCode) {
		return fmt.Errorf("%s: %w: %v", op, ErrServiceUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%s: %w: %v", op, ErrServiceUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func unavailableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
