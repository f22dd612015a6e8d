package inbound

import "github.com/jonghyeuk/auto-mpeg/domain"

// CaptionComposerPort turns timed script lines into a subtitle track and its
// serialized document.
type CaptionComposerPort interface {
	Compose(lines []domain.ScriptLine) []domain.Caption
	RenderASS(captions []domain.Caption) string
}
