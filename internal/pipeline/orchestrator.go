// Package pipeline runs chunk jobs: transcription, vocabulary filtering and
// translation of one time range of a video.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sublearn/internal/adapters"
	"sublearn/internal/domain"
	"sublearn/internal/filter"
	"sublearn/internal/srt"
	"sublearn/internal/tasks"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Progress checkpoints reported to pollers.
const (
	progressTranscribing = 10
	progressTranscribed  = 40
	progressFiltering    = 50
	progressFiltered     = 70
	progressTranslating  = 80
)

// ChunkRequest describes one chunk job.
type ChunkRequest struct {
	VideoPath      string  `json:"video_path"`
	Start          float64 `json:"start_time"`
	End            float64 `json:"end_time"`
	UserID         int64   `json:"user_id"`
	Language       string  `json:"language,omitempty"`
	NativeLanguage string  `json:"native_language,omitempty"`
}

// ProfileLoader loads a learner's vocabulary snapshot.
type ProfileLoader interface {
	Snapshot(ctx context.Context, userID int64, language string) (filter.Profile, error)
}

// AudioExtractor cuts the chunk's audio out of the video.
type AudioExtractor interface {
	Extract(ctx context.Context, source string, start, end float64, dest string) error
}

// Recorder receives pipeline metrics.
type Recorder interface {
	TaskStarted()
	TaskFinished(status domain.TaskStatus)
	StageFinished(stage domain.Stage, elapsed time.Duration)
	BucketsObserved(stats filter.Stats)
}

// Deps are the collaborators of an Orchestrator. Transcriber and Translator
// may be nil when the backend is disabled.
type Deps struct {
	Registry    *tasks.Registry
	Engine      *filter.Engine
	Profiles    ProfileLoader
	Extractor   AudioExtractor
	Transcriber adapters.Transcriber
	Translator  adapters.Translator
	Metrics     Recorder
}

// Config holds orchestrator settings.
type Config struct {
	MediaDir       string
	OutputDir      string
	Language       string
	NativeLanguage string
}

// Orchestrator starts chunk jobs and drives them through their stages.
type Orchestrator struct {
	deps   Deps
	cfg    Config
	newID  func() string
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(deps Deps, cfg Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}
	if deps.Engine == nil {
		deps.Engine = filter.NewEngine(filter.NewRuleLemmatizer(), filter.DefaultBlockerThreshold, logger)
	}
	return &Orchestrator{
		deps:   deps,
		cfg:    cfg,
		newID:  uuid.NewString,
		logger: logger,
	}
}

type chunkJob struct {
	id         string
	videoPath  string
	start, end float64
	userID     int64
	language   string
	native     string
	outputDir  string
	baseName   string
}

func (j chunkJob) artifactName(kind string) string {
	return TaskArtifactName(VideoStem(j.videoPath), j.start, j.end, j.id, kind)
}

// Start validates the request, registers a task and runs the job in the
// background. Validation failures create no task.
func (o *Orchestrator) Start(ctx context.Context, req ChunkRequest) (string, error) {
	job, err := o.prepare(req)
	if err != nil {
		return "", err
	}

	job.id = o.newID()
	if _, err := o.deps.Registry.Create(job.id); err != nil {
		return "", fmt.Errorf("register task: %w", err)
	}
	o.deps.Metrics.TaskStarted()

	o.logger.Info("Chunk job started",
		zap.String("task_id", job.id),
		zap.String("video", job.videoPath),
		zap.Float64("start", job.start),
		zap.Float64("end", job.end),
		zap.Int64("user_id", job.userID),
	)

	// The job outlives the request that started it.
	jobCtx := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.run(jobCtx, job)
	}()

	return job.id, nil
}

// Wait blocks until every started job reached a terminal state.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) prepare(req ChunkRequest) (chunkJob, error) {
	if math.IsNaN(req.Start) || math.IsNaN(req.End) || math.IsInf(req.End, 0) {
		return chunkJob{}, validationError("chunk bounds must be finite")
	}
	if req.Start < 0 {
		return chunkJob{}, validationError("start time %g is negative", req.Start)
	}
	if req.End <= req.Start {
		return chunkJob{}, validationError("end time %g must be after start time %g", req.End, req.Start)
	}

	videoPath := strings.TrimSpace(req.VideoPath)
	if videoPath == "" {
		return chunkJob{}, validationError("video path is required")
	}
	if !filepath.IsAbs(videoPath) && o.cfg.MediaDir != "" {
		videoPath = filepath.Join(o.cfg.MediaDir, videoPath)
	}
	info, err := os.Stat(videoPath)
	if err != nil {
		return chunkJob{}, validationError("media %s not found", req.VideoPath)
	}
	if info.IsDir() {
		return chunkJob{}, validationError("media %s is a directory", req.VideoPath)
	}

	language := firstNonEmpty(req.Language, o.cfg.Language)
	if language == "" {
		return chunkJob{}, validationError("language is required")
	}

	outputDir := o.cfg.OutputDir
	if outputDir == "" {
		outputDir = filepath.Dir(videoPath)
	}

	return chunkJob{
		videoPath: videoPath,
		start:     req.Start,
		end:       req.End,
		userID:    req.UserID,
		language:  language,
		native:    firstNonEmpty(req.NativeLanguage, o.cfg.NativeLanguage),
		outputDir: outputDir,
		baseName:  ChunkBaseName(VideoStem(videoPath), req.Start, req.End),
	}, nil
}

func (o *Orchestrator) run(ctx context.Context, job chunkJob) {
	logger := o.logger.With(zap.String("task_id", job.id))

	if err := os.MkdirAll(job.outputDir, 0o755); err != nil {
		o.fail(job, logger, domain.StageTranscribing, wrapStage("setup", "create output directory", err))
		return
	}

	var segments []domain.Segment
	err := o.stage(job, logger, domain.StageTranscribing, func() error {
		o.advance(job.id, domain.StageTranscribing, progressTranscribing, "Transcribing audio", nil)
		segs, err := o.transcribe(ctx, job, logger)
		if err != nil {
			return err
		}
		rawPath := filepath.Join(job.outputDir, job.baseName+".srt")
		if err := srt.WriteFile(rawPath, segs); err != nil {
			return wrapStage("transcription", "write subtitles", err)
		}
		segments = segs
		o.advance(job.id, domain.StageTranscribing, progressTranscribed,
			fmt.Sprintf("Transcribed %d segments", len(segs)), nil)
		return nil
	})
	if err != nil {
		return
	}

	var result filter.Result
	err = o.stage(job, logger, domain.StageFiltering, func() error {
		o.advance(job.id, domain.StageFiltering, progressFiltering, "Filtering vocabulary", nil)
		res, path, err := o.filter(ctx, job, segments)
		if err != nil {
			return err
		}
		result = res
		o.deps.Metrics.BucketsObserved(res.Stats)
		o.advance(job.id, domain.StageFiltering, progressFiltered,
			fmt.Sprintf("%d learning, %d blocker, %d hidden segments",
				res.Stats.LearningCount, res.Stats.BlockerCount, res.Stats.EmptyCount),
			func(t *domain.ProcessingTask) { t.SubtitlePath = path })
		return nil
	})
	if err != nil {
		return
	}

	if len(result.Blockers) > 0 {
		err = o.stage(job, logger, domain.StageTranslating, func() error {
			o.advance(job.id, domain.StageTranslating, progressTranslating,
				fmt.Sprintf("Translating %d segments", len(result.Blockers)), nil)
			path, err := o.translate(ctx, job, result.Blockers)
			if err != nil {
				return err
			}
			o.advance(job.id, domain.StageTranslating, progressTranslating, "Translation written",
				func(t *domain.ProcessingTask) { t.TranslationPath = path })
			return nil
		})
		if err != nil {
			return
		}
	}

	o.complete(job, logger, result.Stats)
}

// stage runs fn with start/finish logging and marks the task failed when fn
// returns an error.
func (o *Orchestrator) stage(job chunkJob, logger *zap.Logger, stage domain.Stage, fn func() error) error {
	started := time.Now()
	logger.Info("Stage started", zap.String("stage", string(stage)))

	err := fn()
	elapsed := time.Since(started)
	o.deps.Metrics.StageFinished(stage, elapsed)
	if err != nil {
		o.fail(job, logger, stage, err)
		return err
	}

	logger.Info("Stage finished",
		zap.String("stage", string(stage)),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

// advance records progress for a running task. Updates on tasks that are
// already finished are ignored.
func (o *Orchestrator) advance(taskID string, stage domain.Stage, progress float64, message string, extra func(*domain.ProcessingTask)) {
	_, err := o.deps.Registry.Update(taskID, func(t *domain.ProcessingTask) {
		t.CurrentStep = stage
		t.Progress = progress
		t.Message = message
		if extra != nil {
			extra(t)
		}
	})
	if err != nil && !errors.Is(err, tasks.ErrTerminal) {
		o.logger.Warn("Failed to update task", zap.String("task_id", taskID), zap.Error(err))
	}
}

func (o *Orchestrator) fail(job chunkJob, logger *zap.Logger, stage domain.Stage, err error) {
	logger.Error("Chunk job failed", zap.String("stage", string(stage)), zap.Error(err))

	message := err.Error()
	if errors.Is(err, adapters.ErrServiceUnavailable) {
		message = fmt.Sprintf("%s (service unavailable, start the chunk again once it is back)", message)
	}
	_, updateErr := o.deps.Registry.Update(job.id, func(t *domain.ProcessingTask) {
		t.Status = domain.TaskError
		t.Message = message
	})
	if updateErr != nil {
		logger.Warn("Failed to record task failure", zap.Error(updateErr))
	}
	o.deps.Metrics.TaskFinished(domain.TaskError)
}

func (o *Orchestrator) complete(job chunkJob, logger *zap.Logger, stats filter.Stats) {
	message := fmt.Sprintf("Done: %d learning segments, %d blockers, %d unknown words",
		stats.LearningCount, stats.BlockerCount, stats.UniqueUnknown)
	_, err := o.deps.Registry.Update(job.id, func(t *domain.ProcessingTask) {
		t.Status = domain.TaskCompleted
		t.Message = message
	})
	if err != nil {
		logger.Warn("Failed to record task completion", zap.Error(err))
	}
	o.deps.Metrics.TaskFinished(domain.TaskCompleted)
	logger.Info("Chunk job completed",
		zap.Int("learning", stats.LearningCount),
		zap.Int("blockers", stats.BlockerCount),
		zap.Int("unknown", stats.UniqueUnknown),
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

type nopRecorder struct{}

func (nopRecorder) TaskStarted()                              {}
func (nopRecorder) TaskFinished(domain.TaskStatus)            {}
func (nopRecorder) StageFinished(domain.Stage, time.Duration) {}
func (nopRecorder) BucketsObserved(filter.Stats)              {}
