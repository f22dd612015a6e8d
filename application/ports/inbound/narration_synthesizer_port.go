package inbound

import (
	"context"

	"github.com/jonghyeuk/auto-mpeg/domain"
)

type SynthesizeNarrationParams struct {
	Lines   []domain.ScriptLine
	VoiceID string
	// WorkDir receives one audio file per line.
	WorkDir string
}

type NarrationResult struct {
	Timeline *domain.Timeline
	// Lines carries the input lines with Start/End filled in.
	Lines []domain.ScriptLine
	// AudioPaths holds one file per line, in line order.
	AudioPaths []string
	// Words maps line ID to segment-relative word timestamps.
	Words map[string][]domain.WordTimestamp
	// EstimatedTiming flags lines whose word timestamps were estimated
	// rather than transcribed.
	EstimatedTiming map[string]bool
}

// NarrationSynthesizerPort voices every script line and assembles the
// gapless master timeline.
type NarrationSynthesizerPort interface {
	Synthesize(ctx context.Context, params SynthesizeNarrationParams) (*NarrationResult, error)
}
