package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/jonghyeuk/auto-mpeg/application/ports/inbound"
	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

type lineAudio struct {
	audioPath string
	duration  float64
	words     []domain.WordTimestamp
	estimated bool
	err       error
}

type narrationSynthesizer struct {
	logger      outbound.LoggerPort
	synthesizer outbound.SpeechSynthesizerPort
	transcriber outbound.TranscriberPort
	workerPool  outbound.TaskDispatcher
}

func NewNarrationSynthesizer(logger outbound.LoggerPort, synthesizer outbound.SpeechSynthesizerPort,
	transcriber outbound.TranscriberPort, workerPool outbound.TaskDispatcher) inbound.NarrationSynthesizerPort {
	return &narrationSynthesizer{
		logger:      logger,
		synthesizer: synthesizer,
		transcriber: transcriber,
		workerPool:  workerPool,
	}
}

// Synthesize voices all lines concurrently through the worker pool, then
// applies durations to the timeline strictly in line order. Concurrency
// never reorders the timeline: results land in an indexed slice and are
// appended sequentially afterwards.
func (n *narrationSynthesizer) Synthesize(ctx context.Context, params inbound.SynthesizeNarrationParams) (*inbound.NarrationResult, error) {
	if len(params.Lines) == 0 {
		return nil, domain.ValidationErrorf("no script lines to synthesize")
	}

	newCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]lineAudio, len(params.Lines))
	var wg sync.WaitGroup

	for i, line := range params.Lines {
		i, line := i, line
		wg.Add(1)
		err := n.workerPool.Submit(func() {
			defer wg.Done()
			select {
			case <-newCtx.Done():
				results[i].err = newCtx.Err()
				return
			default:
			}
			results[i] = n.synthesizeLine(newCtx, line, params)
			if results[i].err != nil {
				cancel()
			}
		})
		if err != nil {
			wg.Done()
			cancel()
			results[i].err = err
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, res := range results {
		if res.err != nil {
			return nil, fmt.Errorf("line %d: %w", i, res.err)
		}
	}

	timeline := domain.NewTimeline()
	lines := make([]domain.ScriptLine, len(params.Lines))
	audioPaths := make([]string, len(params.Lines))
	words := make(map[string][]domain.WordTimestamp, len(params.Lines))
	estimated := make(map[string]bool)
	for i, line := range params.Lines {
		start, end := timeline.Append(line.ID, results[i].duration)
		line.Start = start
		line.End = end
		lines[i] = line
		audioPaths[i] = results[i].audioPath
		words[line.ID] = results[i].words
		if results[i].estimated {
			estimated[line.ID] = true
		}
	}

	return &inbound.NarrationResult{
		Timeline:        timeline,
		Lines:           lines,
		AudioPaths:      audioPaths,
		Words:           words,
		EstimatedTiming: estimated,
	}, nil
}

func (n *narrationSynthesizer) synthesizeLine(ctx context.Context, line domain.ScriptLine, params inbound.SynthesizeNarrationParams) lineAudio {
	outputPath := filepath.Join(params.WorkDir, fmt.Sprintf("line_%03d.mp3", line.Ordinal))
	res, err := n.synthesizer.Synthesize(ctx, outbound.SynthesizeRequest{
		Text:       line.Text,
		VoiceID:    params.VoiceID,
		OutputPath: outputPath,
	})
	if err != nil {
		return lineAudio{err: err}
	}

	wordStamps, err := n.transcriber.Transcribe(ctx, res.AudioPath)
	if err != nil {
		if ctx.Err() != nil {
			return lineAudio{err: ctx.Err()}
		}
		n.logger.ErrorWithFields(err, "transcription unavailable, estimating word timing", map[string]interface{}{
			"line": line.ID,
		})
		return lineAudio{audioPath: res.AudioPath, duration: res.Duration,
			words: EstimateWordTimestamps(line.Text, res.Duration), estimated: true}
	}

	return lineAudio{audioPath: res.AudioPath, duration: res.Duration, words: wordStamps}
}

// EstimateWordTimestamps divides a segment's duration evenly across its word
// count, the documented fallback when transcription is unavailable.
func EstimateWordTimestamps(text string, duration float64) []domain.WordTimestamp {
	tokens := domain.SplitWords(text)
	if len(tokens) == 0 || duration <= 0 {
		return nil
	}
	per := duration / float64(len(tokens))
	stamps := make([]domain.WordTimestamp, len(tokens))
	for i, tok := range tokens {
		stamps[i] = domain.WordTimestamp{
			Word:  tok,
			Start: float64(i) * per,
			End:   float64(i+1) * per,
		}
	}
	return stamps
}
