package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jonghyeuk/auto-mpeg/application/ports/inbound"
	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/domain"
	"github.com/jonghyeuk/auto-mpeg/infrastructure/adapters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReviewer struct {
	issues []domain.QualityIssue
	err    error
}

func (s *stubReviewer) Review(ctx context.Context, sourceText string, script domain.Script) ([]domain.QualityIssue, error) {
	return s.issues, s.err
}

func offlinePipeline(t *testing.T, reviewer outbound.ScriptReviewerPort) (inbound.PipelineOrchestratorPort, outbound.JobStorePort, string) {
	t.Helper()
	return offlinePipelineWith(t, reviewer, adapters.NewOfflineSpeechSynthesizer(), nil)
}

func offlinePipelineWith(t *testing.T, reviewer outbound.ScriptReviewerPort, synth outbound.SpeechSynthesizerPort, progress outbound.ProgressSink) (inbound.PipelineOrchestratorPort, outbound.JobStorePort, string) {
	t.Helper()
	logger := adapters.NewZerologWrapper()
	pool := newTestPool(t)
	baseDir := t.TempDir()

	generator := adapters.NewOfflineTextGenerator(logger)
	if reviewer == nil {
		reviewer = adapters.NewLLMScriptReviewer(generator, logger)
	}
	if progress == nil {
		progress = adapters.NewLogProgressSink(logger)
	}
	jobStore := adapters.NewMemoryJobStore()

	orchestrator := NewPipelineOrchestrator(OrchestratorConfig{
		BaseOutputDir:   baseDir,
		FrameWidth:      1920,
		FrameHeight:     1080,
		DefaultDuration: 120,
		DefaultVoiceID:  "narrator",
	}, OrchestratorDeps{
		Logger:          logger,
		Progress:        progress,
		ContentResolver: adapters.NewContentResolver(adapters.NewContentFetcher(logger), logger),
		DeckParser:      adapters.NewSlideDeckParser(logger),
		ScriptWriter:    NewScriptWriter(logger, generator),
		Reviewer:        reviewer,
		QualityGate:     NewQualityGate(),
		Narration:       NewNarrationSynthesizer(logger, synth, adapters.NewOfflineTranscriber(), pool),
		Captions:        NewCaptionComposer(),
		Alignment:       NewAlignmentEngine(logger),
		Renderer:        adapters.NewOfflineRenderer(),
		Packager:        NewArtifactPackager(logger),
		JobStore:        jobStore,
	})
	return orchestrator, jobStore, baseDir
}

const sourceMaterial = "Plasma is the fourth state of matter. It forms when gas is energized " +
	"until electrons break free from their atoms. Stars, lightning and neon signs all contain plasma."

func TestPipelineOrchestrator_EndToEnd(t *testing.T) {
	orchestrator, jobStore, _ := offlinePipeline(t, nil)

	pkg, err := orchestrator.Execute(context.Background(), inbound.PipelineInput{
		SourceRef:      sourceMaterial,
		Kind:           inbound.InputText,
		TargetDuration: 60,
	})
	require.NoError(t, err)
	require.NotNil(t, pkg)

	for _, path := range []string{pkg.VideoPath, pkg.AudioPath, pkg.CaptionsPath, pkg.ScriptPath, pkg.MetadataPath} {
		assert.FileExists(t, path)
	}
	assert.Equal(t, "final.mp4", filepath.Base(pkg.VideoPath))

	job, err := jobStore.Get(context.Background(), pkg.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobCompleted, job.Status)
	assert.Equal(t, "100", job.Metadata["quality_score"])

	payload, err := os.ReadFile(pkg.MetadataPath)
	require.NoError(t, err)
	var metadata struct {
		Duration   float64 `json:"duration_seconds"`
		Resolution string  `json:"resolution"`
	}
	require.NoError(t, json.Unmarshal(payload, &metadata))
	assert.Equal(t, "1920x1080", metadata.Resolution)
	assert.InDelta(t, 60, metadata.Duration, 6, "narration length should track the requested duration")

	// The packaged script carries the gapless master timeline.
	scriptPayload, err := os.ReadFile(pkg.ScriptPath)
	require.NoError(t, err)
	var script domain.Script
	require.NoError(t, json.Unmarshal(scriptPayload, &script))
	lines := script.Lines()
	require.NotEmpty(t, lines)
	assert.Equal(t, 0.0, lines[0].Start)
	for i := 1; i < len(lines); i++ {
		assert.Equal(t, lines[i-1].End, lines[i].Start, "line %d must start where line %d ended", i, i-1)
	}

	// The working area is removed after success, final artifacts remain.
	assert.NoDirExists(t, filepath.Join(pkg.Job.OutputDir, "work"))
}

func TestPipelineOrchestrator_QualityReject(t *testing.T) {
	reviewer := &stubReviewer{issues: []domain.QualityIssue{
		{Severity: domain.SeverityCritical, Description: "fabricated claim"},
		{Severity: domain.SeverityCritical, Description: "contradicts source"},
	}}
	orchestrator, _, baseDir := offlinePipeline(t, reviewer)

	_, err := orchestrator.Execute(context.Background(), inbound.PipelineInput{
		SourceRef: sourceMaterial,
		Kind:      inbound.InputText,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrQualityRejected)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageReview, stageErr.Stage)

	// No video may exist anywhere under the output root.
	var videos []string
	_ = filepath.Walk(baseDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr == nil && !info.IsDir() && filepath.Base(path) == "final.mp4" {
			videos = append(videos, path)
		}
		return nil
	})
	assert.Empty(t, videos)
}

func TestPipelineOrchestrator_ReviseIsNotFatal(t *testing.T) {
	reviewer := &stubReviewer{issues: []domain.QualityIssue{
		{Severity: domain.SeverityHigh, Description: "weak hook"},
		{Severity: domain.SeverityHigh, Description: "rushed ending"},
	}}
	orchestrator, jobStore, _ := offlinePipeline(t, reviewer)

	pkg, err := orchestrator.Execute(context.Background(), inbound.PipelineInput{
		SourceRef: sourceMaterial,
		Kind:      inbound.InputText,
	})
	require.NoError(t, err)

	job, err := jobStore.Get(context.Background(), pkg.Job.ID)
	require.NoError(t, err)
	assert.Equal(t, "60", job.Metadata["quality_score"])
	assert.Equal(t, string(domain.RecommendRevise), job.Metadata["quality_recommendation"])
}

func TestPipelineOrchestrator_SkipReviewBypassesGate(t *testing.T) {
	reviewer := &stubReviewer{err: domain.TransientErrorf("reviewer down")}
	orchestrator, _, _ := offlinePipeline(t, reviewer)

	_, err := orchestrator.Execute(context.Background(), inbound.PipelineInput{
		SourceRef:  sourceMaterial,
		Kind:       inbound.InputText,
		SkipReview: true,
	})
	assert.NoError(t, err, "review stage must not run at all when skipped")
}

func TestPipelineOrchestrator_ReviewFailureKeepsWorkArea(t *testing.T) {
	reviewer := &stubReviewer{err: domain.TransientErrorf("reviewer down")}
	orchestrator, _, baseDir := offlinePipeline(t, reviewer)

	_, err := orchestrator.Execute(context.Background(), inbound.PipelineInput{
		SourceRef: sourceMaterial,
		Kind:      inbound.InputText,
	})
	require.Error(t, err)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageReview, stageErr.Stage)

	// The working area survives for diagnostics.
	entries, err := os.ReadDir(baseDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	workDir := filepath.Join(baseDir, entries[0].Name(), "work")
	assert.DirExists(t, workDir)
}

func TestPipelineOrchestrator_CleanupRemovesWorkArea(t *testing.T) {
	reviewer := &stubReviewer{err: domain.TransientErrorf("reviewer down")}
	orchestrator, _, baseDir := offlinePipeline(t, reviewer)

	_, err := orchestrator.Execute(context.Background(), inbound.PipelineInput{
		SourceRef: sourceMaterial,
		Kind:      inbound.InputText,
		Cleanup:   true,
	})
	require.Error(t, err)

	entries, err := os.ReadDir(baseDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NoDirExists(t, filepath.Join(baseDir, entries[0].Name(), "work"))
}

func TestPipelineOrchestrator_EmptySourceRejected(t *testing.T) {
	orchestrator, _, _ := offlinePipeline(t, nil)

	_, err := orchestrator.Execute(context.Background(), inbound.PipelineInput{
		SourceRef: "   ",
		Kind:      inbound.InputText,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageIntake, stageErr.Stage)
}

func TestPipelineOrchestrator_CancelledContext(t *testing.T) {
	orchestrator, _, _ := offlinePipeline(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orchestrator.Execute(ctx, inbound.PipelineInput{
		SourceRef: sourceMaterial,
		Kind:      inbound.InputText,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipelineOrchestrator_SlideDeckInput(t *testing.T) {
	orchestrator, _, _ := offlinePipeline(t, nil)

	deckDir := t.TempDir()
	deck := map[string]interface{}{
		"slides": []map[string]interface{}{
			{
				"index": 0,
				"title": "Plasma",
				"body":  "Plasma is ionized gas.",
				"elements": []map[string]interface{}{
					{"role": "title", "text": "Plasma", "left": 100, "top": 50, "width": 800, "height": 150},
				},
			},
			{
				"index": 1,
				"title": "Stars",
				"body":  "Stars are made of plasma.",
			},
		},
	}
	payload, err := json.Marshal(deck)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(deckDir, "elements.json"), payload, 0o644))

	pkg, err := orchestrator.Execute(context.Background(), inbound.PipelineInput{
		SourceRef:      deckDir,
		Kind:           inbound.InputSlides,
		TargetDuration: 30,
	})
	require.NoError(t, err)
	assert.FileExists(t, pkg.VideoPath)
}

func TestSlideShow_PairsImagesWithNarratedWindows(t *testing.T) {
	slides := []domain.Slide{
		{Index: 0, ImagePath: "s0.png"},
		{Index: 1, ImagePath: "s1.png"},
		{Index: 2, ImagePath: "s2.png"},
	}
	// Narration skips slide 1 entirely, so its image must not appear.
	lines := []domain.ScriptLine{
		{SlideIndex: 0, Start: 0, End: 2},
		{SlideIndex: 0, Start: 2, End: 3},
		{SlideIndex: 2, Start: 3, End: 5},
	}

	images, windows := slideShow(slides, lines)
	require.Len(t, images, len(windows))
	assert.Equal(t, []string{"s0.png", "s2.png"}, images)
	assert.Equal(t, 0.0, windows[0].Start)
	assert.Equal(t, 3.0, windows[0].End)
	assert.Equal(t, 3.0, windows[1].Start)
	assert.Equal(t, 5.0, windows[1].End)
}

func TestSlideShow_FoldsImagelessWindows(t *testing.T) {
	slides := []domain.Slide{
		{Index: 0},
		{Index: 1, ImagePath: "s1.png"},
		{Index: 2},
	}
	lines := []domain.ScriptLine{
		{SlideIndex: 0, Start: 0, End: 1},
		{SlideIndex: 1, Start: 1, End: 3},
		{SlideIndex: 2, Start: 3, End: 4},
	}

	images, windows := slideShow(slides, lines)
	require.Len(t, images, 1)
	require.Len(t, windows, 1)
	assert.Equal(t, "s1.png", images[0])
	assert.Equal(t, 0.0, windows[0].Start, "a leading window without an image extends the first image window")
	assert.Equal(t, 4.0, windows[0].End)

	images, windows = slideShow([]domain.Slide{{Index: 0}}, lines)
	assert.Empty(t, images)
	assert.Empty(t, windows)
}

func TestPipelineOrchestrator_DeckNarratedOnSomeSlides(t *testing.T) {
	orchestrator, _, _ := offlinePipeline(t, nil)

	deckDir := t.TempDir()
	imageDir := t.TempDir()
	slides := make([]map[string]interface{}, 3)
	for i := range slides {
		imagePath := filepath.Join(imageDir, fmt.Sprintf("slide%d.png", i))
		require.NoError(t, os.WriteFile(imagePath, []byte("png"), 0o644))
		slides[i] = map[string]interface{}{
			"index": i,
			"title": "Slide",
			"body":  "Plasma is ionized gas found in stars.",
			"image": imagePath,
		}
	}
	payload, err := json.Marshal(map[string]interface{}{"slides": slides})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(deckDir, "elements.json"), payload, 0o644))

	// A short outline narrates fewer slides than the deck holds, so the
	// render request must still pair every image with a window.
	pkg, err := orchestrator.Execute(context.Background(), inbound.PipelineInput{
		SourceRef:      deckDir,
		Kind:           inbound.InputSlides,
		TargetDuration: 30,
	})
	require.NoError(t, err)
	assert.FileExists(t, pkg.VideoPath)
}

// cancelAfterFirstSegment synthesizes normally, then cancels the supplied
// context once the first segment has been written.
type cancelAfterFirstSegment struct {
	inner  outbound.SpeechSynthesizerPort
	cancel context.CancelFunc
	once   sync.Once
}

func (c *cancelAfterFirstSegment) Synthesize(ctx context.Context, req outbound.SynthesizeRequest) (*outbound.SynthesizeResult, error) {
	res, err := c.inner.Synthesize(ctx, req)
	if err == nil {
		c.once.Do(c.cancel)
	}
	return res, err
}

type recordingSink struct {
	mu     sync.Mutex
	events []outbound.ProgressEvent
}

func (r *recordingSink) Publish(event outbound.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingSink) jobID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.JobID != "" {
			return event.JobID
		}
	}
	return ""
}

func TestPipelineOrchestrator_CancelDuringSynthesis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	synth := &cancelAfterFirstSegment{inner: adapters.NewOfflineSpeechSynthesizer(), cancel: cancel}
	progress := &recordingSink{}
	orchestrator, jobStore, baseDir := offlinePipelineWith(t, nil, synth, progress)

	_, err := orchestrator.Execute(ctx, inbound.PipelineInput{
		SourceRef: sourceMaterial,
		Kind:      inbound.InputText,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageSynthesis, stageErr.Stage)

	// The failure is on record even though the context is gone.
	job, err := jobStore.Get(context.Background(), progress.jobID())
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, job.Status)

	// No video was produced, but the synthesized segments survive for
	// inspection.
	var videos, segments []string
	require.NoError(t, filepath.Walk(baseDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil || info.IsDir() {
			return walkErr
		}
		name := filepath.Base(path)
		switch {
		case name == VideoArtifact:
			videos = append(videos, path)
		case strings.HasPrefix(name, "line_"):
			segments = append(segments, path)
		}
		return nil
	}))
	assert.Empty(t, videos)
	assert.NotEmpty(t, segments)
}
