package outbound

import (
	"context"

	"github.com/jonghyeuk/auto-mpeg/domain"
)

// ScriptReviewerPort compares a generated script with its source text and
// reports quality issues. Scoring the issues is the quality gate's job.
type ScriptReviewerPort interface {
	Review(ctx context.Context, sourceText string, script domain.Script) ([]domain.QualityIssue, error)
}
