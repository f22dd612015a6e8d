package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

// The offline adapters replace every network dependency with deterministic
// local behavior, so the whole pipeline runs without credentials.

type offlineTextGenerator struct {
	logger        outbound.LoggerPort
	secondsRegexp *regexp.Regexp
	topicRegexp   *regexp.Regexp
}

func NewOfflineTextGenerator(logger outbound.LoggerPort) outbound.TextGeneratorPort {
	return &offlineTextGenerator{
		logger:        logger,
		secondsRegexp: regexp.MustCompile(`about (\d+) seconds`),
		topicRegexp:   regexp.MustCompile(`Topic for this section: (.+)`),
	}
}

func (g *offlineTextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch {
	case strings.Contains(prompt, `"issues"`):
		return `{"issues": []}`, nil
	case strings.Contains(prompt, "Respond with JSON only"):
		return g.outlineJSON(prompt), nil
	case strings.Contains(prompt, "Topic for this section"):
		return g.sectionProse(prompt), nil
	default:
		return "The material introduces its central topic step by step and closes with a short practical summary.", nil
	}
}

func (g *offlineTextGenerator) Stream(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		text, err := g.Generate(ctx, prompt)
		if err != nil {
			errCh <- err
			return
		}
		select {
		case out <- text:
		case <-ctx.Done():
		}
	}()
	return out, errCh
}

func (g *offlineTextGenerator) outlineJSON(prompt string) string {
	total := 120.0
	if m := g.secondsRegexp.FindStringSubmatch(prompt); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			total = v
		}
	}

	sections := []struct {
		kind  string
		share float64
	}{
		{"hook", 0.10},
		{"introduction", 0.15},
		{"main", 0.50},
		{"summary", 0.10},
		{"conclusion", 0.10},
		{"call_to_action", 0.05},
	}

	doc := map[string]interface{}{"title": "Lecture"}
	var list []map[string]interface{}
	for _, sec := range sections {
		list = append(list, map[string]interface{}{
			"kind":           sec.kind,
			"topic":          "the main ideas of the source material",
			"slide_index":    0,
			"target_seconds": total * sec.share,
		})
	}
	doc["sections"] = list

	payload, _ := json.Marshal(doc)
	return string(payload)
}

// sectionProse writes bracket-marked narration sized to the word budget
// embedded in the prompt.
func (g *offlineTextGenerator) sectionProse(prompt string) string {
	topic := "the topic"
	if m := g.topicRegexp.FindStringSubmatch(prompt); m != nil {
		topic = strings.TrimSpace(m[1])
	}

	wordBudget := 40
	if m := regexp.MustCompile(`about (\d+) words`).FindStringSubmatch(prompt); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
			wordBudget = v
		}
	}

	sentences := []string{
		fmt.Sprintf("Let us take a careful look at [%s] together.", topic),
		fmt.Sprintf("The source material explains how %s fits into the bigger picture.", topic),
		"Keep this point in mind, because the next part builds directly on it.",
	}

	var b strings.Builder
	words := 0
	for i := 0; words < wordBudget; i++ {
		sentence := sentences[i%len(sentences)]
		b.WriteString(sentence)
		b.WriteString(" ")
		words += len(strings.Fields(sentence))
	}

	// Trim to the budget so narration length tracks the requested duration.
	fields := strings.Fields(b.String())
	if len(fields) > wordBudget {
		fields = fields[:wordBudget]
	}
	prose := strings.Join(fields, " ")
	if strings.Count(prose, "[") > strings.Count(prose, "]") {
		prose += "]"
	}
	if !strings.HasSuffix(prose, ".") && !strings.HasSuffix(prose, "]") {
		prose += "."
	}
	return prose
}

type offlineSpeechSynthesizer struct{}

func NewOfflineSpeechSynthesizer() outbound.SpeechSynthesizerPort {
	return &offlineSpeechSynthesizer{}
}

// Synthesize writes a placeholder file and reports a duration derived from
// the narration pace, so timelines stay realistic without a speech service.
func (s *offlineSpeechSynthesizer) Synthesize(ctx context.Context, req outbound.SynthesizeRequest) (*outbound.SynthesizeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.WriteFile(req.OutputPath, []byte("offline-audio:"+req.Text), 0o644); err != nil {
		return nil, err
	}
	const wordsPerSecond = 2.5
	return &outbound.SynthesizeResult{
		AudioPath: req.OutputPath,
		Duration:  float64(len(strings.Fields(req.Text))) / wordsPerSecond,
	}, nil
}

type offlineTranscriber struct{}

func NewOfflineTranscriber() outbound.TranscriberPort {
	return &offlineTranscriber{}
}

// Transcribe always fails, which pushes callers onto their even-split
// estimation path.
func (t *offlineTranscriber) Transcribe(ctx context.Context, audioPath string) ([]domain.WordTimestamp, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, domain.TransientErrorf("transcription service unavailable offline")
}

type offlineRenderer struct{}

func NewOfflineRenderer() outbound.RendererPort {
	return &offlineRenderer{}
}

// Render writes placeholder outputs with the real artifact layout.
func (r *offlineRenderer) Render(ctx context.Context, req outbound.RenderRequest) (*outbound.RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(req.AudioSegments) == 0 {
		return nil, domain.ValidationErrorf("no audio segments to render")
	}

	audioPath := filepath.Join(req.WorkDir, "narration.mp3")
	var audio []byte
	for _, segment := range req.AudioSegments {
		payload, err := os.ReadFile(segment)
		if err != nil {
			return nil, err
		}
		audio = append(audio, payload...)
	}
	if err := os.WriteFile(audioPath, audio, 0o644); err != nil {
		return nil, err
	}

	plainPath := filepath.Join(req.WorkDir, "video_nocaptions.mp4")
	videoPath := filepath.Join(req.WorkDir, "video_captions.mp4")
	thumbnailPath := filepath.Join(req.WorkDir, "thumbnail.png")
	stub := fmt.Sprintf("offline-video: %d segments, %d cues", len(req.AudioSegments), len(req.Cues))
	for _, path := range []string{plainPath, videoPath, thumbnailPath} {
		if err := os.WriteFile(path, []byte(stub), 0o644); err != nil {
			return nil, err
		}
	}

	return &outbound.RenderResult{
		VideoPath:      videoPath,
		PlainVideoPath: plainPath,
		AudioPath:      audioPath,
		ThumbnailPath:  thumbnailPath,
	}, nil
}

type memoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job
}

func NewMemoryJobStore() outbound.JobStorePort {
	return &memoryJobStore{jobs: make(map[string]domain.Job)}
}

func (s *memoryJobStore) Save(ctx context.Context, job *domain.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *memoryJobStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ValidationErrorf("job %s not found", jobID)
	}
	return &job, nil
}

type logProgressSink struct {
	logger outbound.LoggerPort
}

func NewLogProgressSink(logger outbound.LoggerPort) outbound.ProgressSink {
	return &logProgressSink{logger: logger}
}

func (s *logProgressSink) Publish(event outbound.ProgressEvent) {
	s.logger.InfoWithFields(event.Message, map[string]interface{}{
		"job":   event.JobID,
		"stage": string(event.Stage),
		"done":  event.Done,
	})
}
