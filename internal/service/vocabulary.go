package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"sublearn/internal/domain"
	"sublearn/internal/filter"
	"sublearn/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// ErrInvalidInput is returned for malformed lemmas, languages or levels
var ErrInvalidInput = errors.New("invalid input")

// VocabularyService handles what a learner knows
type VocabularyService struct {
	userRepo     repository.UserRepository
	progressRepo repository.ProgressRepository
	conceptRepo  repository.ConceptRepository
	logger       *zap.Logger
}

// NewVocabularyService creates a new vocabulary service
func NewVocabularyService(
	userRepo repository.UserRepository,
	progressRepo repository.ProgressRepository,
	conceptRepo repository.ConceptRepository,
	logger *zap.Logger,
) *VocabularyService {
	return &VocabularyService{
		userRepo:     userRepo,
		progressRepo: progressRepo,
		conceptRepo:  conceptRepo,
		logger:       logger,
	}
}

// Snapshot loads the learner's known lemmas, level and the catalog for one language.
// The result is detached from the store and safe to use for a whole chunk.
func (s *VocabularyService) Snapshot(ctx context.Context, userID int64, lang string) (filter.Profile, error) {
	lang, err := NormalizeLanguage(lang)
	if err != nil {
		return filter.Profile{}, err
	}

	known, err := s.progressRepo.GetKnownWords(ctx, userID, lang)
	if err != nil {
		return filter.Profile{}, fmt.Errorf("load known words: %w", err)
	}

	level, err := s.userRepo.GetLevel(ctx, userID)
	if err != nil {
		return filter.Profile{}, fmt.Errorf("load level: %w", err)
	}

	catalog, err := s.conceptRepo.LevelIndex(ctx, lang)
	if err != nil {
		return filter.Profile{}, fmt.Errorf("load catalog: %w", err)
	}

	s.logger.Debug("Vocabulary snapshot loaded",
		zap.Int64("user_id", userID),
		zap.String("language", lang),
		zap.String("level", string(level)),
		zap.Int("known", len(known)),
		zap.Int("catalog", len(catalog)))

	return filter.Profile{
		Language: lang,
		Level:    level,
		Known:    known,
		Catalog:  catalog,
	}, nil
}

// MarkWordKnown records that the learner knows (or no longer knows) a lemma
func (s *VocabularyService) MarkWordKnown(ctx context.Context, userID int64, lemma, lang string, known bool) (*domain.UserVocabularyProgress, error) {
	lemma, err := normalizeLemma(lemma)
	if err != nil {
		return nil, err
	}
	lang, err = NormalizeLanguage(lang)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.EnsureUserExists(ctx, userID); err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}

	progress, err := s.progressRepo.MarkWordKnown(ctx, userID, lemma, lang, known)
	if err != nil {
		s.logger.Error("Failed to mark word",
			zap.Int64("user_id", userID),
			zap.String("lemma", lemma),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Word marked",
		zap.Int64("user_id", userID),
		zap.String("lemma", lemma),
		zap.String("language", lang),
		zap.Bool("known", known),
		zap.Int("confidence", progress.ConfidenceLevel))
	return progress, nil
}

// GetKnownWords returns known lemmas sorted alphabetically
func (s *VocabularyService) GetKnownWords(ctx context.Context, userID int64, lang string) ([]string, error) {
	lang, err := NormalizeLanguage(lang)
	if err != nil {
		return nil, err
	}

	known, err := s.progressRepo.GetKnownWords(ctx, userID, lang)
	if err != nil {
		return nil, err
	}

	words := make([]string, 0, len(known))
	for w := range known {
		words = append(words, w)
	}
	sort.Strings(words)
	return words, nil
}

// GetLevel returns the learner's CEFR level
func (s *VocabularyService) GetLevel(ctx context.Context, userID int64) (domain.CEFRLevel, error) {
	return s.userRepo.GetLevel(ctx, userID)
}

// SetLevel parses and stores the learner's CEFR level
func (s *VocabularyService) SetLevel(ctx context.Context, userID int64, raw string) (domain.CEFRLevel, error) {
	level, err := domain.ParseCEFRLevel(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.userRepo.SetLevel(ctx, userID, level); err != nil {
		return "", err
	}
	return level, nil
}

// NormalizeLanguage reduces a language tag such as "de-AT" to its base "de"
func NormalizeLanguage(lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "", fmt.Errorf("%w: language is required", ErrInvalidInput)
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "", fmt.Errorf("%w: language %q: %v", ErrInvalidInput, lang, err)
	}
	base, _ := tag.Base()
	return base.String(), nil
}

func normalizeLemma(lemma string) (string, error) {
	lemma = strings.ToLower(strings.TrimSpace(lemma))
	if lemma == "" {
		return "", fmt.Errorf("%w: lemma is required", ErrInvalidInput)
	}
	for _, r := range lemma {
		if unicode.IsSpace(r) {
			return "", fmt.Errorf("%w: lemma %q must be a single word", ErrInvalidInput, lemma)
		}
	}
	return lemma, nil
}
