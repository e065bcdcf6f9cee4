// Package app wires the application's components together.
package app

import (
	"database/sql"
	"fmt"

	"sublearn/internal/adapters"
	"sublearn/internal/api"
	"sublearn/internal/catalog"
	"sublearn/internal/config"
	"sublearn/internal/filter"
	"sublearn/internal/metrics"
	"sublearn/internal/pipeline"
	"sublearn/internal/repository"
	"sublearn/internal/repository/postgres"
	"sublearn/internal/scheduler"
	"sublearn/internal/service"
	"sublearn/internal/tasks"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// App holds every long-lived component. It is built once at startup.
type App struct {
	Config *config.Config
	Logger *zap.Logger

	Users    repository.UserRepository
	Progress repository.ProgressRepository
	Concepts repository.ConceptRepository

	Auth       *service.AuthService
	Vocabulary *service.VocabularyService
	Stats      *service.StatsService
	Importer   *catalog.Importer

	Registry     *tasks.Registry
	Metrics      *metrics.Metrics
	Orchestrator *pipeline.Orchestrator
	Scheduler    *scheduler.Scheduler
	API          *api.Server
}

// New builds the container on top of an open database
func New(cfg *config.Config, db *sql.DB, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	// Repositories
	a.Users = postgres.NewUserRepo(db)
	a.Progress = postgres.NewProgressRepo(db)
	a.Concepts = postgres.NewConceptRepo(sqlx.NewDb(db, "postgres"))

	// Task state
	a.Registry = tasks.NewRegistry(cfg.Tasks.TTL)
	a.Metrics = metrics.New()

	// Services
	a.Auth = service.NewAuthService(a.Users, cfg.BotPassword)
	a.Vocabulary = service.NewVocabularyService(a.Users, a.Progress, a.Concepts, logger)
	a.Stats = service.NewStatsService(a.Users, a.Progress, a.Registry, logger)
	a.Importer = catalog.NewImporter(a.Concepts, logger)

	// Adapters
	opts := adapters.Options{
		BaseURL:            cfg.Backends.OpenAIBaseURL,
		APIKey:             cfg.Backends.OpenAIAPIKey,
		TranscriptionModel: cfg.Backends.TranscriptionModel,
		TranslationModel:   cfg.Backends.TranslationModel,
		Logger:             logger,
	}
	transcriber, err := adapters.NewTranscriber(cfg.Backends.Transcription, opts)
	if err != nil {
		return nil, fmt.Errorf("transcription backend: %w", err)
	}
	translator, err := adapters.NewTranslator(cfg.Backends.Translation, opts)
	if err != nil {
		return nil, fmt.Errorf("translation backend: %w", err)
	}

	logger.Info("Adapters configured",
		zap.String("transcription", cfg.Backends.Transcription),
		zap.String("translation", cfg.Backends.Translation))

	a.Orchestrator = pipeline.NewOrchestrator(pipeline.Deps{
		Registry:    a.Registry,
		Engine:      filter.NewEngine(filter.NewRuleLemmatizer(), cfg.Pipeline.BlockerThreshold, logger),
		Profiles:    a.Vocabulary,
		Extractor:   adapters.NewAudioExtractor(cfg.Pipeline.FFmpegBinary, logger),
		Transcriber: transcriber,
		Translator:  translator,
		Metrics:     a.Metrics,
	}, pipeline.Config{
		MediaDir:       cfg.Pipeline.MediaDir,
		OutputDir:      cfg.Pipeline.OutputDir,
		Language:       cfg.Pipeline.Language,
		NativeLanguage: cfg.Pipeline.NativeLanguage,
	}, logger)

	a.Scheduler = scheduler.New(a.Stats, cfg.Tasks.PruneInterval, logger)
	a.API = api.NewServer(a.Orchestrator, a.Registry, a.Vocabulary, cfg.Pipeline.Language, logger)

	return a, nil
}
