package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"sublearn/internal/adapters"
	"sublearn/internal/domain"
	"sublearn/internal/filter"
	"sublearn/internal/srt"
	"sublearn/internal/tasks"
	"sublearn/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct{}

func (fakeExtractor) Extract(_ context.Context, _ string, _, _ float64, dest string) error {
	return os.WriteFile(dest, []byte("RIFF"), 0o644)
}

type fakeTranscriber struct {
	segments []domain.Segment
	err      error
	gate     chan struct{}

	mu    sync.Mutex
	calls int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath, language string) (*adapters.TranscriptionResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	if _, err := os.Stat(audioPath); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &adapters.TranscriptionResult{Segments: f.segments, Language: language}, nil
}

func (f *fakeTranscriber) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTranslator struct {
	err error

	mu    sync.Mutex
	texts []string
}

func (f *fakeTranslator) TranslateBatch(_ context.Context, texts []string, _, _ string) ([]adapters.Translation, error) {
	f.mu.Lock()
	f.texts = texts
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]adapters.Translation, len(texts))
	for i := range texts {
		out[i] = adapters.Translation{Text: "translated " + texts[i], Confidence: 1}
	}
	return out, nil
}

type fakeProfiles struct {
	profile filter.Profile
	byUser  map[int64]filter.Profile
	err     error
}

func (f fakeProfiles) Snapshot(_ context.Context, userID int64, language string) (filter.Profile, error) {
	if f.err != nil {
		return filter.Profile{}, f.err
	}
	p := f.profile
	if up, ok := f.byUser[userID]; ok {
		p = up
	}
	p.Language = language
	return p, nil
}

var chunkSegments = []domain.Segment{
	{StartTime: 0, EndTime: 2.5, Text: "Das Haus ist groß."},
	{StartTime: 3, EndTime: 5, Text: "Wir fahren morgen weg."},
}

func learnerProfiles() fakeProfiles {
	return fakeProfiles{profile: filter.Profile{
		Level: domain.LevelA1,
		Known: map[string]struct{}{"der": {}, "haus": {}, "sein": {}},
	}}
}

type fixture struct {
	dir         string
	video       string
	registry    *tasks.Registry
	transcriber *fakeTranscriber
	translator  *fakeTranslator
	orch        *Orchestrator
}

func newFixture(t *testing.T, deps Deps) *fixture {
	t.Helper()
	dir := t.TempDir()
	video := filepath.Join(dir, "film.mp4")
	require.NoError(t, os.WriteFile(video, []byte("video"), 0o644))

	f := &fixture{dir: dir, video: video, registry: tasks.NewRegistry(0)}
	deps.Registry = f.registry
	if deps.Extractor == nil {
		deps.Extractor = fakeExtractor{}
	}
	if deps.Profiles == nil {
		deps.Profiles = learnerProfiles()
	}
	if tr, ok := deps.Transcriber.(*fakeTranscriber); ok {
		f.transcriber = tr
	}
	if tr, ok := deps.Translator.(*fakeTranslator); ok {
		f.translator = tr
	}
	f.orch = NewOrchestrator(deps, Config{
		MediaDir:       dir,
		OutputDir:      filepath.Join(dir, "out"),
		Language:       "de",
		NativeLanguage: "en",
	}, testutil.NewTestLogger())
	return f
}

func (f *fixture) startAndWait(t *testing.T, req ChunkRequest) domain.ProcessingTask {
	t.Helper()
	id, err := f.orch.Start(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	f.orch.Wait()
	task, err := f.registry.Get(id)
	require.NoError(t, err)
	return task
}

func TestOrchestrator_StartValidation(t *testing.T) {
	tests := []struct {
		name string
		req  ChunkRequest
	}{
		{"negative start", ChunkRequest{VideoPath: "film.mp4", Start: -1, End: 10}},
		{"end equals start", ChunkRequest{VideoPath: "film.mp4", Start: 10, End: 10}},
		{"end before start", ChunkRequest{VideoPath: "film.mp4", Start: 20, End: 10}},
		{"missing media", ChunkRequest{VideoPath: "missing.mp4", Start: 0, End: 10}},
		{"directory", ChunkRequest{VideoPath: ".", Start: 0, End: 10}},
		{"empty path", ChunkRequest{Start: 0, End: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Deps{Transcriber: &fakeTranscriber{}})

			id, err := f.orch.Start(context.Background(), tt.req)

			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, id)
			assert.Equal(t, 0, f.registry.Len())
		})
	}
}

func TestOrchestrator_CompletesChunk(t *testing.T) {
	f := newFixture(t, Deps{
		Transcriber: &fakeTranscriber{segments: chunkSegments},
		Translator:  &fakeTranslator{},
	})

	task := f.startAndWait(t, ChunkRequest{VideoPath: "film.mp4", Start: 0, End: 600, UserID: 7})

	assert.Equal(t, domain.TaskCompleted, task.Status)
	assert.Equal(t, 100.0, task.Progress)
	assert.Equal(t, domain.StageCompleted, task.CurrentStep)

	raw := filepath.Join(f.dir, "out", "film_chunk_0_600.srt")
	segs, _, err := srt.ParseFile(raw)
	require.NoError(t, err)
	assert.Len(t, segs, 2)

	assert.Equal(t, filepath.Join(f.dir, "out", "film_chunk_0_600_"+task.TaskID+"_filtered.srt"), task.SubtitlePath)
	assert.Equal(t, filepath.Join(f.dir, "out", "film_chunk_0_600_"+task.TaskID+"_translation.srt"), task.TranslationPath)
	filtered, err := os.ReadFile(task.SubtitlePath)
	require.NoError(t, err)
	assert.Contains(t, string(filtered), filter.HighlightOpen+"groß"+filter.HighlightClose)

	assert.Equal(t, []string{"Wir fahren morgen weg."}, f.translator.texts)
	translation, err := os.ReadFile(task.TranslationPath)
	require.NoError(t, err)
	assert.Contains(t, string(translation), "translated Wir fahren morgen weg.")
}

func TestOrchestrator_SkipsTranslationWithoutBlockers(t *testing.T) {
	f := newFixture(t, Deps{
		Transcriber: &fakeTranscriber{segments: chunkSegments[:1]},
	})

	task := f.startAndWait(t, ChunkRequest{VideoPath: f.video, Start: 0, End: 60})

	assert.Equal(t, domain.TaskCompleted, task.Status)
	assert.Empty(t, task.TranslationPath)
	assert.NotEmpty(t, task.SubtitlePath)
}

func TestOrchestrator_TranslationFailure(t *testing.T) {
	f := newFixture(t, Deps{
		Transcriber: &fakeTranscriber{segments: chunkSegments},
		Translator:  &fakeTranslator{err: errors.New("quota exceeded")},
	})

	task := f.startAndWait(t, ChunkRequest{VideoPath: "film.mp4", Start: 0, End: 600})

	assert.Equal(t, domain.TaskError, task.Status)
	assert.Equal(t, domain.StageError, task.CurrentStep)
	assert.Contains(t, task.Message, "quota exceeded")
	assert.Equal(t, float64(progressTranslating), task.Progress)
	assert.NotEmpty(t, task.SubtitlePath)
	assert.Empty(t, task.TranslationPath)
}

func TestOrchestrator_TranscriptionUnavailable(t *testing.T) {
	f := newFixture(t, Deps{})

	task := f.startAndWait(t, ChunkRequest{VideoPath: "film.mp4", Start: 0, End: 600})

	assert.Equal(t, domain.TaskError, task.Status)
	assert.Contains(t, task.Message, "service unavailable")
	assert.Equal(t, float64(progressTranscribing), task.Progress)
	assert.Empty(t, task.SubtitlePath)
}

func TestOrchestrator_ProfileFailure(t *testing.T) {
	f := newFixture(t, Deps{
		Transcriber: &fakeTranscriber{segments: chunkSegments},
		Profiles:    fakeProfiles{err: errors.New("connection reset")},
	})

	task := f.startAndWait(t, ChunkRequest{VideoPath: "film.mp4", Start: 0, End: 600})

	assert.Equal(t, domain.TaskError, task.Status)
	assert.Contains(t, task.Message, "load vocabulary")
	assert.Equal(t, float64(progressFiltering), task.Progress)
}

func TestOrchestrator_ReusesExactSidecar(t *testing.T) {
	transcriber := &fakeTranscriber{err: errors.New("must not be called")}
	f := newFixture(t, Deps{Transcriber: transcriber, Translator: &fakeTranslator{}})

	require.NoError(t, srt.WriteFile(filepath.Join(f.dir, "film.srt"), []domain.Segment{
		{StartTime: 1, EndTime: 3, Text: "Das Haus ist groß."},
		{StartTime: 598, EndTime: 603, Text: "Wir fahren morgen weg."},
		{StartTime: 700, EndTime: 702, Text: "Später."},
	}))
	require.NoError(t, srt.WriteFile(filepath.Join(f.dir, "film.en.srt"), []domain.Segment{
		{StartTime: 1, EndTime: 3, Text: "The house is big."},
	}))

	task := f.startAndWait(t, ChunkRequest{VideoPath: "film.mp4", Start: 0, End: 600})

	require.Equal(t, domain.TaskCompleted, task.Status, task.Message)
	assert.Equal(t, 0, transcriber.Calls())

	segs, _, err := srt.ParseFile(filepath.Join(f.dir, "out", "film_chunk_0_600.srt"))
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.Equal(t, "Das Haus ist groß.", segs[0].Text)
	assert.Equal(t, 603.0, segs[1].EndTime)
}

func TestOrchestrator_ShiftsTranscribedTimes(t *testing.T) {
	f := newFixture(t, Deps{
		Transcriber: &fakeTranscriber{segments: []domain.Segment{
			{StartTime: 0.5, EndTime: 2, Text: "Das Haus ist groß."},
			{StartTime: 58, EndTime: 64, Text: "Das Haus ist groß."},
		}},
	})

	task := f.startAndWait(t, ChunkRequest{VideoPath: "film.mp4", Start: 600, End: 660})
	require.Equal(t, domain.TaskCompleted, task.Status, task.Message)

	segs, _, err := srt.ParseFile(filepath.Join(f.dir, "out", "film_chunk_600_660.srt"))
	require.NoError(t, err)
	require.Len(t, segs, 2)
	assert.InDelta(t, 600.5, segs[0].StartTime, 0.001)
	assert.InDelta(t, 602, segs[0].EndTime, 0.001)
	assert.InDelta(t, 660, segs[1].EndTime, 0.001)
}

func TestOrchestrator_ProgressIsMonotonic(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t, Deps{
		Transcriber: &fakeTranscriber{segments: chunkSegments, gate: gate},
		Translator:  &fakeTranslator{},
	})

	id, err := f.orch.Start(context.Background(), ChunkRequest{VideoPath: "film.mp4", Start: 0, End: 600})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		task, err := f.registry.Get(id)
		return err == nil && task.CurrentStep == domain.StageTranscribing
	}, time.Second, 5*time.Millisecond)

	close(gate)

	last := 0.0
	for i := 0; i < 200; i++ {
		task, err := f.registry.Get(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, task.Progress, last)
		last = task.Progress
		if task.Terminal() {
			break
		}
		time.Sleep(time.Millisecond)
	}

	f.orch.Wait()
	task, err := f.registry.Get(id)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, task.Status)
}

func TestOrchestrator_StartOutlivesCallerContext(t *testing.T) {
	f := newFixture(t, Deps{Transcriber: &fakeTranscriber{segments: chunkSegments}, Translator: &fakeTranslator{}})

	ctx, cancel := context.WithCancel(context.Background())
	id, err := f.orch.Start(ctx, ChunkRequest{VideoPath: "film.mp4", Start: 0, End: 30})
	require.NoError(t, err)
	cancel()

	f.orch.Wait()
	task, err := f.registry.Get(id)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskCompleted, task.Status)
}

func TestOrchestrator_ConcurrentChunks(t *testing.T) {
	f := newFixture(t, Deps{Transcriber: &fakeTranscriber{segments: chunkSegments}, Translator: &fakeTranslator{}})

	var ids []string
	for _, bounds := range [][2]float64{{0, 600}, {600, 1200}, {1200, 1800}} {
		id, err := f.orch.Start(context.Background(), ChunkRequest{VideoPath: "film.mp4", Start: bounds[0], End: bounds[1]})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	f.orch.Wait()

	for _, id := range ids {
		task, err := f.registry.Get(id)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskCompleted, task.Status)
		assert.True(t, strings.HasSuffix(task.SubtitlePath, "_filtered.srt"))
	}
}

func TestOrchestrator_SameChunkForTwoUsers(t *testing.T) {
	profiles := learnerProfiles()
	profiles.byUser = map[int64]filter.Profile{
		2: {
			Level: domain.LevelA1,
			Known: map[string]struct{}{
				"der": {}, "haus": {}, "sein": {}, "groß": {},
				"wir": {}, "fahren": {}, "morgen": {}, "weg": {},
			},
		},
	}
	f := newFixture(t, Deps{
		Transcriber: &fakeTranscriber{segments: chunkSegments},
		Translator:  &fakeTranslator{},
		Profiles:    profiles,
	})

	first := f.startAndWait(t, ChunkRequest{VideoPath: "film.mp4", Start: 0, End: 10, UserID: 1})
	before, err := os.ReadFile(first.SubtitlePath)
	require.NoError(t, err)
	require.Contains(t, string(before), filter.HighlightOpen)

	second := f.startAndWait(t, ChunkRequest{VideoPath: "film.mp4", Start: 0, End: 10, UserID: 2})

	assert.Equal(t, domain.TaskCompleted, first.Status)
	assert.Equal(t, domain.TaskCompleted, second.Status)
	assert.NotEqual(t, first.SubtitlePath, second.SubtitlePath)
	assert.NotEmpty(t, first.TranslationPath)

	after, err := os.ReadFile(first.SubtitlePath)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	// both tasks share the raw transcript of the chunk
	_, err = os.Stat(filepath.Join(f.dir, "out", "film_chunk_0_10.srt"))
	assert.NoError(t, err)
}
