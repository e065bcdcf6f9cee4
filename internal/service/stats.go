package service

import (
	"context"
	"time"

	"sublearn/internal/domain"
	"sublearn/internal/repository"
	"sublearn/internal/tasks"

	"go.uber.org/zap"
)

// UserStats summarises a learner's progress in one language
type UserStats struct {
	Language   string           `json:"language"`
	Level      domain.CEFRLevel `json:"level"`
	KnownWords int              `json:"known_words"`
}

// StatsService handles statistics and cleanup
type StatsService struct {
	userRepo     repository.UserRepository
	progressRepo repository.ProgressRepository
	registry     *tasks.Registry
	logger       *zap.Logger
}

// NewStatsService creates a new stats service
func NewStatsService(userRepo repository.UserRepository, progressRepo repository.ProgressRepository, registry *tasks.Registry, logger *zap.Logger) *StatsService {
	return &StatsService{
		userRepo:     userRepo,
		progressRepo: progressRepo,
		registry:     registry,
		logger:       logger,
	}
}

// UserStats returns the learner's level and known-word count
func (s *StatsService) UserStats(ctx context.Context, userID int64, lang string) (UserStats, error) {
	lang, err := NormalizeLanguage(lang)
	if err != nil {
		return UserStats{}, err
	}

	level, err := s.userRepo.GetLevel(ctx, userID)
	if err != nil {
		return UserStats{}, err
	}

	count, err := s.progressRepo.CountKnown(ctx, userID, lang)
	if err != nil {
		return UserStats{}, err
	}

	return UserStats{Language: lang, Level: level, KnownWords: count}, nil
}

// PruneTasks evicts finished tasks older than the registry TTL
func (s *StatsService) PruneTasks(now time.Time) int {
	if s.registry.TTL() <= 0 {
		return 0
	}

	evicted := s.registry.Prune(now)
	s.logger.Info("Task registry pruned",
		zap.Int("evicted", evicted),
		zap.Int("remaining", s.registry.Len()),
		zap.Duration("ttl", s.registry.TTL()))
	return evicted
}
