package inbound

import "github.com/jonghyeuk/auto-mpeg/domain"

type ResolveCuesParams struct {
	Timeline *domain.Timeline
	Lines    []domain.ScriptLine
	Elements []domain.SlideElement
	// Words maps line ID to its segment-relative word timestamps.
	Words map[string][]domain.WordTimestamp
	// EstimatedTiming flags lines whose word timestamps are estimates;
	// matches against them are reported with interpolated confidence.
	EstimatedTiming map[string]bool
	// FrameWidth and FrameHeight bound cue boxes in output pixels.
	FrameWidth  float64
	FrameHeight float64
}

// AlignmentEnginePort resolves spoken keywords to screen regions and time
// windows. Pure: identical inputs produce an identical cue list.
type AlignmentEnginePort interface {
	Resolve(params ResolveCuesParams) []domain.OverlayCue
}
