package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sublearn/internal/adapters"
	"sublearn/internal/domain"
	"sublearn/internal/filter"
	"sublearn/internal/srt"

	"go.uber.org/zap"
)

// transcribe returns the chunk's segments in video time. A sidecar SRT with
// the video's exact stem is preferred over running the transcriber.
func (o *Orchestrator) transcribe(ctx context.Context, job chunkJob, logger *zap.Logger) ([]domain.Segment, error) {
	if path, ok := FindSubtitle(job.videoPath); ok {
		segs, skipped, err := srt.ParseFile(path)
		if err == nil {
			logger.Info("Reusing existing subtitles",
				zap.String("subtitle", path),
				zap.Int("skipped_blocks", skipped),
			)
			return segmentsInRange(segs, job.start, job.end), nil
		}
		logger.Warn("Existing subtitles unusable, transcribing instead",
			zap.String("subtitle", path),
			zap.Error(err),
		)
	}

	if o.deps.Transcriber == nil {
		return nil, wrapStage("transcription", "", fmt.Errorf("%w: no transcription backend configured", adapters.ErrServiceUnavailable))
	}
	if o.deps.Extractor == nil {
		return nil, wrapStage("transcription", "", fmt.Errorf("%w: no audio extractor configured", adapters.ErrServiceUnavailable))
	}

	workDir, err := os.MkdirTemp("", "sublearn-chunk-*")
	if err != nil {
		return nil, wrapStage("transcription", "create work directory", err)
	}
	defer os.RemoveAll(workDir)

	audioPath := filepath.Join(workDir, "audio.wav")
	if err := o.deps.Extractor.Extract(ctx, job.videoPath, job.start, job.end, audioPath); err != nil {
		return nil, wrapStage("transcription", "extract audio", err)
	}

	result, err := o.deps.Transcriber.Transcribe(ctx, audioPath, job.language)
	if err != nil {
		return nil, wrapStage("transcription", "", err)
	}
	if result == nil {
		return nil, wrapStage("transcription", "", errors.New("transcriber returned no result"))
	}

	return shiftSegments(result.Segments, job.start, job.end), nil
}

// segmentsInRange keeps segments that overlap [start, end). Segments that
// straddle a boundary are kept whole and can appear in two adjacent chunks.
func segmentsInRange(segments []domain.Segment, start, end float64) []domain.Segment {
	var out []domain.Segment
	for _, s := range segments {
		if s.Overlaps(start, end) {
			out = append(out, s)
		}
	}
	return out
}

// shiftSegments moves chunk-relative times into video time, capped at the
// chunk end.
func shiftSegments(segments []domain.Segment, start, end float64) []domain.Segment {
	out := make([]domain.Segment, 0, len(segments))
	for _, s := range segments {
		s.StartTime += start
		s.EndTime += start
		if s.EndTime > end {
			s.EndTime = end
		}
		if s.EndTime <= s.StartTime || strings.TrimSpace(s.Text) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (o *Orchestrator) filter(ctx context.Context, job chunkJob, segments []domain.Segment) (filter.Result, string, error) {
	profile := filter.Profile{Language: job.language}
	if o.deps.Profiles != nil {
		p, err := o.deps.Profiles.Snapshot(ctx, job.userID, job.language)
		if err != nil {
			return filter.Result{}, "", wrapStage("filtering", "load vocabulary", err)
		}
		profile = p
	}

	result := o.deps.Engine.Filter(segments, profile)

	path := filepath.Join(job.outputDir, job.artifactName("filtered"))
	if err := srt.WriteFile(path, filter.LearnerSegments(result)); err != nil {
		return filter.Result{}, "", wrapStage("filtering", "write subtitles", err)
	}
	return result, path, nil
}

func (o *Orchestrator) translate(ctx context.Context, job chunkJob, blockers []domain.FilteredSubtitle) (string, error) {
	if o.deps.Translator == nil {
		return "", wrapStage("translation", "", fmt.Errorf("%w: no translation backend configured", adapters.ErrServiceUnavailable))
	}
	if job.native == "" {
		return "", wrapStage("translation", "", errors.New("no native language set"))
	}

	texts := make([]string, len(blockers))
	for i, b := range blockers {
		texts[i] = filter.CleanText(b.OriginalText)
	}

	translations, err := o.deps.Translator.TranslateBatch(ctx, texts, job.language, job.native)
	if err != nil {
		return "", wrapStage("translation", "", err)
	}
	if len(translations) != len(texts) {
		return "", wrapStage("translation", "", fmt.Errorf("got %d translations for %d segments", len(translations), len(texts)))
	}

	segments := make([]domain.Segment, 0, len(blockers))
	for i, b := range blockers {
		text := texts[i]
		if translated := strings.TrimSpace(translations[i].Text); translated != "" {
			text += "\n<i>" + translated + "</i>"
		}
		segments = append(segments, domain.Segment{
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
			Text:      text,
		})
	}

	path := filepath.Join(job.outputDir, job.artifactName("translation"))
	if err := srt.WriteFile(path, segments); err != nil {
		return "", wrapStage("translation", "write subtitles", err)
	}
	return path, nil
}
