package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonghyeuk/auto-mpeg/application/ports/inbound"
	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

// OrchestratorConfig carries the orchestrator's own knobs; collaborator
// configuration lives with the adapters.
type OrchestratorConfig struct {
	BaseOutputDir string
	FrameWidth    int
	FrameHeight   int
	// DefaultDuration is the target narration length when the caller gives
	// none, in seconds.
	DefaultDuration float64
	DefaultVoiceID  string
}

type pipelineOrchestrator struct {
	cfg             OrchestratorConfig
	logger          outbound.LoggerPort
	progress        outbound.ProgressSink
	contentResolver outbound.ContentResolverPort
	deckParser      outbound.SlideDeckParserPort
	scriptWriter    inbound.ScriptWriterPort
	reviewer        outbound.ScriptReviewerPort
	qualityGate     inbound.QualityGatePort
	narration       inbound.NarrationSynthesizerPort
	captions        inbound.CaptionComposerPort
	alignment       inbound.AlignmentEnginePort
	renderer        outbound.RendererPort
	packager        inbound.ArtifactPackagerPort
	jobStore        outbound.JobStorePort
	publisher       outbound.ArtifactPublisherPort
}

type OrchestratorDeps struct {
	Logger          outbound.LoggerPort
	Progress        outbound.ProgressSink
	ContentResolver outbound.ContentResolverPort
	DeckParser      outbound.SlideDeckParserPort
	ScriptWriter    inbound.ScriptWriterPort
	Reviewer        outbound.ScriptReviewerPort
	QualityGate     inbound.QualityGatePort
	Narration       inbound.NarrationSynthesizerPort
	Captions        inbound.CaptionComposerPort
	Alignment       inbound.AlignmentEnginePort
	Renderer        outbound.RendererPort
	Packager        inbound.ArtifactPackagerPort
	JobStore        outbound.JobStorePort
	// Publisher is optional; nil disables remote publishing.
	Publisher outbound.ArtifactPublisherPort
}

func NewPipelineOrchestrator(cfg OrchestratorConfig, deps OrchestratorDeps) inbound.PipelineOrchestratorPort {
	return &pipelineOrchestrator{
		cfg:             cfg,
		logger:          deps.Logger,
		progress:        deps.Progress,
		contentResolver: deps.ContentResolver,
		deckParser:      deps.DeckParser,
		scriptWriter:    deps.ScriptWriter,
		reviewer:        deps.Reviewer,
		qualityGate:     deps.QualityGate,
		narration:       deps.Narration,
		captions:        deps.Captions,
		alignment:       deps.Alignment,
		renderer:        deps.Renderer,
		packager:        deps.Packager,
		jobStore:        deps.JobStore,
		publisher:       deps.Publisher,
	}
}

// Execute runs every stage strictly in sequence. Each stage's output is the
// next stage's precondition, failures abort immediately, and only the
// quality gate's revise verdict is non-fatal.
func (o *pipelineOrchestrator) Execute(ctx context.Context, input inbound.PipelineInput) (*domain.OutputPackage, error) {
	started := time.Now()

	if strings.TrimSpace(input.SourceRef) == "" {
		return nil, domain.WrapStage(domain.StageIntake, domain.ValidationErrorf("source reference is empty"))
	}
	if input.TargetDuration <= 0 {
		input.TargetDuration = o.cfg.DefaultDuration
	}
	if input.VoiceID == "" {
		input.VoiceID = o.cfg.DefaultVoiceID
	}

	jobID := uuid.NewString()
	job := domain.NewJob(jobID, input.SourceRef, filepath.Join(o.cfg.BaseOutputDir, "job-"+jobID[:8]))
	workDir := filepath.Join(job.OutputDir, "work")
	// Re-creating an existing directory is not an error.
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, domain.WrapStage(domain.StageIntake, err)
	}
	o.saveJob(ctx, job)
	job.SetStatus(domain.JobInProgress)
	o.saveJob(ctx, job)

	// Intake.
	o.announce(job, domain.StageIntake, "resolving source")
	sourceText, slides, err := o.intake(ctx, input)
	if err != nil {
		return nil, o.fail(ctx, job, workDir, input.Cleanup, domain.StageIntake, err)
	}

	// Analysis.
	o.announce(job, domain.StageAnalysis, "analyzing source")
	analysis, err := o.scriptWriter.Analyze(ctx, sourceText)
	if err != nil {
		return nil, o.fail(ctx, job, workDir, input.Cleanup, domain.StageAnalysis, err)
	}

	// Structural plan.
	o.announce(job, domain.StagePlan, "planning structure")
	outline, err := o.scriptWriter.Plan(ctx, sourceText, analysis, input.TargetDuration, slides)
	if err != nil {
		return nil, o.fail(ctx, job, workDir, input.Cleanup, domain.StagePlan, err)
	}

	// Script writing.
	o.announce(job, domain.StageScript, "writing script")
	script, err := o.scriptWriter.Write(ctx, inbound.WriteScriptParams{
		SourceText: sourceText,
		Title:      outline.Title,
		Analysis:   analysis,
		Outline:    outline,
	})
	if err != nil {
		return nil, o.fail(ctx, job, workDir, input.Cleanup, domain.StageScript, err)
	}

	// Quality gate. A revise verdict is logged and the pipeline continues;
	// reject aborts with its own error kind.
	if !input.SkipReview {
		o.announce(job, domain.StageReview, "reviewing script quality")
		issues, reviewErr := o.reviewer.Review(ctx, sourceText, script)
		if reviewErr != nil {
			return nil, o.fail(ctx, job, workDir, input.Cleanup, domain.StageReview, reviewErr)
		}
		verdict := o.qualityGate.Evaluate(issues)
		job.Metadata["quality_score"] = strconv.Itoa(verdict.Score)
		job.Metadata["quality_recommendation"] = string(verdict.Recommendation)
		switch verdict.Recommendation {
		case domain.RecommendReject:
			return nil, o.fail(ctx, job, workDir, input.Cleanup, domain.StageReview,
				fmt.Errorf("%w: score %d", domain.ErrQualityRejected, verdict.Score))
		case domain.RecommendRevise:
			o.logger.InfoWithFields("quality gate suggests revision, continuing", map[string]interface{}{
				"job":    job.ID,
				"score":  verdict.Score,
				"issues": len(verdict.Issues),
			})
		}
	}

	// Speech synthesis fills the gapless master timeline.
	o.announce(job, domain.StageSynthesis, "synthesizing narration")
	narration, err := o.narration.Synthesize(ctx, inbound.SynthesizeNarrationParams{
		Lines:   script.Lines(),
		VoiceID: input.VoiceID,
		WorkDir: workDir,
	})
	if err != nil {
		return nil, o.fail(ctx, job, workDir, input.Cleanup, domain.StageSynthesis, err)
	}
	script = applyTiming(script, narration.Lines)

	// Captions.
	o.announce(job, domain.StageCaptions, "composing captions")
	captionDoc := o.captions.RenderASS(o.captions.Compose(narration.Lines))
	captionsPath := filepath.Join(workDir, "captions.ass")
	if err = os.WriteFile(captionsPath, []byte(captionDoc), 0o644); err != nil {
		return nil, o.fail(ctx, job, workDir, input.Cleanup, domain.StageCaptions, err)
	}

	// Overlay alignment runs only when positioned element data exists.
	var cues []domain.OverlayCue
	elements := collectElements(slides)
	if len(elements) > 0 {
		o.announce(job, domain.StageAlignment, "aligning keyword overlays")
		cues = o.alignment.Resolve(inbound.ResolveCuesParams{
			Timeline:        narration.Timeline,
			Lines:           narration.Lines,
			Elements:        elements,
			Words:           narration.Words,
			EstimatedTiming: narration.EstimatedTiming,
			FrameWidth:      float64(o.cfg.FrameWidth),
			FrameHeight:     float64(o.cfg.FrameHeight),
		})
	}

	// Render.
	o.announce(job, domain.StageRender, "rendering video")
	images, windows := slideShow(slides, narration.Lines)
	rendered, err := o.renderer.Render(ctx, outbound.RenderRequest{
		WorkDir:       workDir,
		SlideImages:   images,
		AudioSegments: narration.AudioPaths,
		CaptionsPath:  captionsPath,
		Cues:          cues,
		SlideWindows:  windows,
	})
	if err != nil {
		return nil, o.fail(ctx, job, workDir, input.Cleanup, domain.StageRender, err)
	}

	// Packaging happens only after every stage succeeded.
	o.announce(job, domain.StagePackage, "packaging artifacts")
	job.SetStatus(domain.JobCompleted)
	pkg, err := o.packager.Package(ctx, inbound.PackageParams{
		Job:               job,
		Script:            script,
		VideoPath:         rendered.VideoPath,
		PlainVideo:        rendered.PlainVideoPath,
		AudioPath:         rendered.AudioPath,
		Captions:          captionDoc,
		Thumbnail:         rendered.ThumbnailPath,
		ProcessingSeconds: time.Since(started).Seconds(),
		Duration:          narration.Timeline.Duration(),
		Width:             o.cfg.FrameWidth,
		Height:            o.cfg.FrameHeight,
	})
	if err != nil {
		return nil, o.fail(ctx, job, workDir, input.Cleanup, domain.StagePackage, err)
	}
	o.saveJob(ctx, job)
	o.publish(ctx, job, pkg)
	o.progress.Publish(outbound.ProgressEvent{JobID: job.ID, Stage: domain.StagePackage, Message: "completed", Done: true})

	if err = os.RemoveAll(workDir); err != nil {
		o.logger.Error(err, "failed to remove working area")
	}
	return pkg, nil
}

func (o *pipelineOrchestrator) intake(ctx context.Context, input inbound.PipelineInput) (string, []domain.Slide, error) {
	if input.Kind == inbound.InputSlides {
		slides, err := o.deckParser.Parse(ctx, input.SourceRef)
		if err != nil {
			return "", nil, err
		}
		if len(slides) == 0 {
			return "", nil, domain.ValidationErrorf("deck %q contains no slides", input.SourceRef)
		}
		var b strings.Builder
		for _, slide := range slides {
			b.WriteString(slide.Title)
			b.WriteString("\n")
			b.WriteString(slide.Body)
			b.WriteString("\n")
		}
		return b.String(), slides, nil
	}

	content, err := o.contentResolver.Resolve(ctx, input.SourceRef)
	if err != nil {
		return "", nil, err
	}
	return content.Text, nil, nil
}

// fail marks the job failed, keeps temporary artifacts for postmortem unless
// cleanup was requested, and returns the stage-attributed error.
func (o *pipelineOrchestrator) fail(ctx context.Context, job *domain.Job, workDir string, cleanup bool, stage domain.Stage, err error) error {
	job.SetStatus(domain.JobFailed)
	// Record the failure even when the job's own context was cancelled.
	o.saveJob(context.WithoutCancel(ctx), job)
	wrapped := domain.WrapStage(stage, err)
	o.logger.ErrorWithFields(wrapped, "pipeline failed", map[string]interface{}{
		"job":   job.ID,
		"stage": string(stage),
	})
	o.progress.Publish(outbound.ProgressEvent{JobID: job.ID, Stage: stage, Message: wrapped.Error(), Done: true})
	if cleanup {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			o.logger.Error(rmErr, "failed to clean working area")
		}
	}
	return wrapped
}

func (o *pipelineOrchestrator) announce(job *domain.Job, stage domain.Stage, message string) {
	o.logger.InfoWithFields(message, map[string]interface{}{"job": job.ID, "stage": string(stage)})
	o.progress.Publish(outbound.ProgressEvent{JobID: job.ID, Stage: stage, Message: message})
}

func (o *pipelineOrchestrator) saveJob(ctx context.Context, job *domain.Job) {
	if err := o.jobStore.Save(ctx, job); err != nil {
		o.logger.Error(err, "failed to persist job record")
	}
}

// publish uploads packaged artifacts when a publisher is configured.
// Publishing is best-effort: the local package is already complete.
func (o *pipelineOrchestrator) publish(ctx context.Context, job *domain.Job, pkg *domain.OutputPackage) {
	if o.publisher == nil {
		return
	}
	for name, path := range map[string]string{
		VideoArtifact:    pkg.VideoPath,
		AudioArtifact:    pkg.AudioPath,
		MetadataArtifact: pkg.MetadataPath,
	} {
		if path == "" {
			continue
		}
		if _, err := o.publisher.Publish(ctx, outbound.PublishArtifactRequest{JobID: job.ID, LocalPath: path, Name: name}); err != nil {
			o.logger.ErrorWithFields(err, "artifact publish failed", map[string]interface{}{"artifact": name})
		}
	}
}

func applyTiming(script domain.Script, timed []domain.ScriptLine) domain.Script {
	byID := make(map[string]domain.ScriptLine, len(timed))
	for _, line := range timed {
		byID[line.ID] = line
	}
	for si := range script.Sections {
		for li := range script.Sections[si].Lines {
			if t, ok := byID[script.Sections[si].Lines[li].ID]; ok {
				script.Sections[si].Lines[li].Start = t.Start
				script.Sections[si].Lines[li].End = t.End
			}
		}
	}
	return script
}

func collectElements(slides []domain.Slide) []domain.SlideElement {
	var elements []domain.SlideElement
	for _, slide := range slides {
		elements = append(elements, slide.Elements...)
	}
	return elements
}

// slideShow pairs each narrated display window with the image of the slide
// it narrates, keeping the two slices the same length. Windows whose slide
// has no image fold into the neighbouring image window so later slides keep
// their absolute timing; slides that are never narrated contribute nothing.
func slideShow(slides []domain.Slide, lines []domain.ScriptLine) ([]string, []domain.TimelineSegment) {
	imageByIndex := make(map[int]string, len(slides))
	for _, slide := range slides {
		if slide.ImagePath != "" {
			imageByIndex[slide.Index] = slide.ImagePath
		}
	}
	if len(imageByIndex) == 0 {
		return nil, nil
	}

	var images []string
	var windows []domain.TimelineSegment
	carryStart := -1.0
	for _, w := range narratedWindows(lines) {
		image, ok := imageByIndex[w.slideIndex]
		if !ok {
			if n := len(windows); n > 0 {
				windows[n-1].End = w.end
			} else if carryStart < 0 {
				carryStart = w.start
			}
			continue
		}
		start := w.start
		if carryStart >= 0 {
			start = carryStart
			carryStart = -1
		}
		images = append(images, image)
		windows = append(windows, domain.TimelineSegment{
			LineID: strconv.Itoa(w.slideIndex),
			Start:  start,
			End:    w.end,
		})
	}
	return images, windows
}

type narratedWindow struct {
	slideIndex int
	start, end float64
}

// narratedWindows merges contiguous runs of the same slide index in the
// timed lines into one display window each.
func narratedWindows(lines []domain.ScriptLine) []narratedWindow {
	var windows []narratedWindow
	for _, line := range lines {
		if n := len(windows); n > 0 && windows[n-1].slideIndex == line.SlideIndex {
			windows[n-1].end = line.End
			continue
		}
		windows = append(windows, narratedWindow{slideIndex: line.SlideIndex, start: line.Start, end: line.End})
	}
	return windows
}
