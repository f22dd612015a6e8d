package inbound

import (
	"context"

	"github.com/jonghyeuk/auto-mpeg/domain"
)

type WriteScriptParams struct {
	SourceText string
	Title      string
	Analysis   string
	Outline    domain.Outline
}

// ScriptWriterPort turns the analysed source and its outline into a
// sectioned narration script.
type ScriptWriterPort interface {
	Analyze(ctx context.Context, sourceText string) (string, error)
	Plan(ctx context.Context, sourceText, analysis string, targetDuration float64, slides []domain.Slide) (domain.Outline, error)
	Write(ctx context.Context, params WriteScriptParams) (domain.Script, error)
}
