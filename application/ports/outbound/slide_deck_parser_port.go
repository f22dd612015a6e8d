package outbound

import (
	"context"

	"github.com/jonghyeuk/auto-mpeg/domain"
)

// SlideDeckParserPort reads a parsed deck: per-slide text fields plus
// positioned elements in output pixel space.
type SlideDeckParserPort interface {
	Parse(ctx context.Context, ref string) ([]domain.Slide, error)
}
