package inbound

import (
	"context"

	"github.com/jonghyeuk/auto-mpeg/domain"
)

type PackageParams struct {
	Job        *domain.Job
	Script     domain.Script
	VideoPath  string
	PlainVideo string
	AudioPath  string
	Captions   string
	Thumbnail  string
	// ProcessingSeconds is wall-clock time spent in the pipeline.
	ProcessingSeconds float64
	Duration          float64
	Width             int
	Height            int
}

// ArtifactPackagerPort copies final artifacts into the job directory under
// the fixed naming contract and writes the metadata document.
type ArtifactPackagerPort interface {
	Package(ctx context.Context, params PackageParams) (*domain.OutputPackage, error)
}
