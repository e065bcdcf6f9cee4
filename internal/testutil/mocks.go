package testutil

import (
	"context"

	"sublearn/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock for UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) IsAuthorized(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) AuthorizeUser(ctx context.Context, userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockUserRepository) EnsureUserExists(ctx context.Context, userID int64) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockUserRepository) GetLevel(ctx context.Context, userID int64) (domain.CEFRLevel, error) {
	args := m.Called(userID)
	return args.Get(0).(domain.CEFRLevel), args.Error(1)
}

func (m *MockUserRepository) SetLevel(ctx context.Context, userID int64, level domain.CEFRLevel) error {
	args := m.Called(userID, level)
	return args.Error(0)
}

// MockProgressRepository is a mock for ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) GetKnownWords(ctx context.Context, userID int64, language string) (map[string]struct{}, error) {
	args := m.Called(userID, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func (m *MockProgressRepository) MarkWordKnown(ctx context.Context, userID int64, lemma, language string, known bool) (*domain.UserVocabularyProgress, error) {
	args := m.Called(userID, lemma, language, known)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserVocabularyProgress), args.Error(1)
}

func (m *MockProgressRepository) CountKnown(ctx context.Context, userID int64, language string) (int, error) {
	args := m.Called(userID, language)
	return args.Int(0), args.Error(1)
}

// MockConceptRepository is a mock for ConceptRepository
type MockConceptRepository struct {
	mock.Mock
}

func (m *MockConceptRepository) LevelIndex(ctx context.Context, language string) (map[string]domain.CEFRLevel, error) {
	args := m.Called(language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.CEFRLevel), args.Error(1)
}

func (m *MockConceptRepository) Find(ctx context.Context, lemma, language string) (*domain.VocabularyConcept, error) {
	args := m.Called(lemma, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VocabularyConcept), args.Error(1)
}

func (m *MockConceptRepository) UpsertConcepts(ctx context.Context, concepts []domain.VocabularyConcept) (int, error) {
	args := m.Called(concepts)
	return args.Int(0), args.Error(1)
}
