package outbound

import (
	"context"

	"github.com/jonghyeuk/auto-mpeg/domain"
)

type RenderRequest struct {
	WorkDir string
	// SlideImages are background frames in slide order; empty means a plain
	// generated background.
	SlideImages []string
	// AudioSegments are per-line narration files in timeline order.
	AudioSegments []string
	// CaptionsPath is the subtitle document to burn in; empty skips captions.
	CaptionsPath string
	Cues         []domain.OverlayCue
	// SlideWindows pairs one absolute display window with each entry of
	// SlideImages, in the same order.
	SlideWindows []domain.TimelineSegment
}

type RenderResult struct {
	VideoPath string
	// PlainVideoPath is the caption-free variant, when captions were burned.
	PlainVideoPath string
	// AudioPath is the concatenated master narration track.
	AudioPath     string
	ThumbnailPath string
}

type RendererPort interface {
	Render(ctx context.Context, req RenderRequest) (*RenderResult, error)
}
