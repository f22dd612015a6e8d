package outbound

import (
	"context"

	"github.com/jonghyeuk/auto-mpeg/domain"
)

// TranscriberPort returns word-level timestamps for one audio segment,
// relative to the segment start. Callers fall back to even-split estimation
// when the service is unavailable.
type TranscriberPort interface {
	Transcribe(ctx context.Context, audioPath string) ([]domain.WordTimestamp, error)
}
