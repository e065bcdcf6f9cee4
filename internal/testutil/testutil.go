package testutil

import (
	"time"

	"sublearn/internal/domain"

	"go.uber.org/zap"
)

// NewTestLogger creates a no-op logger for tests
func NewTestLogger() *zap.Logger {
	return zap.NewNop()
}

// NewTestUser creates a test user
func NewTestUser(userID int64, authorized bool) *domain.User {
	return &domain.User{
		UserID:     userID,
		Authorized: authorized,
		Level:      domain.LevelA1,
		CreatedAt:  time.Now(),
	}
}

// NewTestProgress creates a progress row as returned after a mark
func NewTestProgress(userID int64, lemma, language string, confidence, reviews int) *domain.UserVocabularyProgress {
	return &domain.UserVocabularyProgress{
		ID:              1,
		UserID:          userID,
		Lemma:           lemma,
		Language:        language,
		IsKnown:         confidence > 0,
		ConfidenceLevel: confidence,
		ReviewCount:     reviews,
		UpdatedAt:       time.Now(),
	}
}
