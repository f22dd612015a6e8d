package services

import (
	"fmt"
	"strings"

	"github.com/jonghyeuk/auto-mpeg/application/ports/inbound"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

const (
	maxCaptionChars = 42
	maxCaptionLines = 2
	fadeMillis      = 200
)

const assHeader = `[Script Info]
Title: Auto Generated Subtitles
ScriptType: v4.00+
PlayResX: 1920
PlayResY: 1080
WrapStyle: 0

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Noto Sans,64,&H00FFFFFF,&H000000FF,&H00000000,&H80000000,-1,0,0,0,100,100,0,0,1,3,1,2,50,50,50,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`

type captionComposer struct{}

func NewCaptionComposer() inbound.CaptionComposerPort {
	return &captionComposer{}
}

// Compose builds one caption per timed line: text wrapped to at most two
// display lines, starts clamped so no caption overlaps its predecessor,
// fade-in on the first event and fade-out on the last.
func (c *captionComposer) Compose(lines []domain.ScriptLine) []domain.Caption {
	var captions []domain.Caption
	previousEnd := 0.0
	for _, line := range lines {
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		start := line.Start
		if start < previousEnd {
			start = previousEnd
		}
		end := line.End
		if end < start {
			end = start
		}
		captions = append(captions, domain.Caption{
			Index: len(captions),
			Start: start,
			End:   end,
			Text:  wrapCaption(text),
		})
		previousEnd = end
	}
	if len(captions) > 0 {
		captions[0].FadeIn = true
		captions[len(captions)-1].FadeOut = true
	}
	return captions
}

func (c *captionComposer) RenderASS(captions []domain.Caption) string {
	var b strings.Builder
	b.WriteString(assHeader)
	for _, caption := range captions {
		b.WriteString(fmt.Sprintf("Dialogue: 0,%s,%s,Default,,0,0,0,,%s%s\n",
			assTime(caption.Start), assTime(caption.End), fadeTag(caption), caption.Text))
	}
	return b.String()
}

func fadeTag(caption domain.Caption) string {
	switch {
	case caption.FadeIn && caption.FadeOut:
		return fmt.Sprintf(`{\fad(%d,%d)}`, fadeMillis, fadeMillis)
	case caption.FadeIn:
		return fmt.Sprintf(`{\fad(%d,0)}`, fadeMillis)
	case caption.FadeOut:
		return fmt.Sprintf(`{\fad(0,%d)}`, fadeMillis)
	default:
		return ""
	}
}

func assTime(seconds float64) string {
	h := int(seconds) / 3600
	m := int(seconds) % 3600 / 60
	s := int(seconds) % 60
	cs := int((seconds - float64(int(seconds))) * 100)
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

// wrapCaption greedily packs words into display lines, joined with the ASS
// line break. Text that would need more than two lines is truncated to two;
// narration lines are short enough that this is the rare case.
func wrapCaption(text string) string {
	words := strings.Fields(text)
	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if len(candidate) > maxCaptionChars && current != "" {
			lines = append(lines, current)
			current = word
			if len(lines) == maxCaptionLines {
				break
			}
			continue
		}
		current = candidate
	}
	if len(lines) < maxCaptionLines && current != "" {
		lines = append(lines, current)
	}
	return strings.Join(lines, `\N`)
}
