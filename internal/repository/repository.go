package repository

import (
	"context"

	"sublearn/internal/domain"
)

// UserRepository defines user data operations
type UserRepository interface {
	IsAuthorized(ctx context.Context, userID int64) (bool, error)
	AuthorizeUser(ctx context.Context, userID int64) error
	EnsureUserExists(ctx context.Context, userID int64) error
	GetLevel(ctx context.Context, userID int64) (domain.CEFRLevel, error)
	SetLevel(ctx context.Context, userID int64, level domain.CEFRLevel) error
}

// ProgressRepository defines per-user vocabulary knowledge operations
type ProgressRepository interface {
	GetKnownWords(ctx context.Context, userID int64, language string) (map[string]struct{}, error)
	MarkWordKnown(ctx context.Context, userID int64, lemma, language string, known bool) (*domain.UserVocabularyProgress, error)
	CountKnown(ctx context.Context, userID int64, language string) (int, error)
}

// ConceptRepository defines vocabulary catalog operations
type ConceptRepository interface {
	LevelIndex(ctx context.Context, language string) (map[string]domain.CEFRLevel, error)
	Find(ctx context.Context, lemma, language string) (*domain.VocabularyConcept, error)
	UpsertConcepts(ctx context.Context, concepts []domain.VocabularyConcept) (int, error)
}
