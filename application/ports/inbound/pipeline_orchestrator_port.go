package inbound

import (
	"context"

	"github.com/jonghyeuk/auto-mpeg/domain"
)

type InputKind string

const (
	InputText   InputKind = "text"
	InputFile   InputKind = "file"
	InputSlides InputKind = "slides"
)

type PipelineInput struct {
	SourceRef string
	Kind      InputKind
	// TargetDuration in seconds; 0 uses the configured default.
	TargetDuration float64
	VoiceID        string
	SkipReview     bool
	// Cleanup removes the temporary working area after a failed run instead
	// of keeping it for diagnostics.
	Cleanup bool
}

type PipelineOrchestratorPort interface {
	Execute(ctx context.Context, input PipelineInput) (*domain.OutputPackage, error)
}
