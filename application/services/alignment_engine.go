package services

import (
	"strings"

	"github.com/jonghyeuk/auto-mpeg/application/ports/inbound"
	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

const maxExtractedKeywords = 3
const minKeywordLength = 4

// slideWord is one transcript word positioned on the master clock.
type slideWord struct {
	token     string
	start     float64
	end       float64
	lineStart float64
	estimated bool
}

type alignmentEngine struct {
	logger outbound.LoggerPort
}

func NewAlignmentEngine(logger outbound.LoggerPort) inbound.AlignmentEnginePort {
	return &alignmentEngine{logger: logger}
}

// Resolve maps every candidate keyword of every line to a screen region and
// a time window. Lines are walked in ordinal order and keywords in
// appearance order, so the output ordering is a pure function of the input.
func (a *alignmentEngine) Resolve(params inbound.ResolveCuesParams) []domain.OverlayCue {
	streams := buildSlideStreams(params)
	cursors := make(map[int]int)

	var cues []domain.OverlayCue
	for _, line := range params.Lines {
		keywords := line.Keywords
		if len(keywords) == 0 {
			keywords = ExtractKeywords(line.Text)
		}
		for _, keyword := range keywords {
			element, ok := resolveElement(params.Elements, line.SlideIndex, keyword)
			if !ok {
				// Never fabricate a location.
				a.logger.DebugWithFields("no element match for keyword", map[string]interface{}{
					"keyword": keyword,
					"slide":   line.SlideIndex,
				})
				continue
			}

			start, end, confidence := resolveWindow(streams, cursors, line, keyword)
			cues = append(cues, domain.OverlayCue{
				Box:        clampBox(element.Box, params.FrameWidth, params.FrameHeight),
				Start:      start,
				End:        end,
				Text:       keyword,
				Confidence: confidence,
			})
		}
	}
	return cues
}

// buildSlideStreams concatenates each slide's transcript words in line order,
// shifted onto the master clock, so repeated keywords consume forward.
func buildSlideStreams(params inbound.ResolveCuesParams) map[int][]slideWord {
	streams := make(map[int][]slideWord)
	for _, line := range params.Lines {
		lineStart := line.Start
		if params.Timeline != nil {
			if s, ok := params.Timeline.StartOf(line.ID); ok {
				lineStart = s
			}
		}
		for _, w := range params.Words[line.ID] {
			streams[line.SlideIndex] = append(streams[line.SlideIndex], slideWord{
				token:     domain.NormalizeToken(w.Word),
				start:     w.Start,
				end:       w.End,
				lineStart: lineStart,
				estimated: params.EstimatedTiming[line.ID],
			})
		}
	}
	return streams
}

// resolveElement picks the matching element with the smallest bounding box,
// breaking remaining ties by topmost then leftmost.
func resolveElement(elements []domain.SlideElement, slideIndex int, keyword string) (domain.SlideElement, bool) {
	var best domain.SlideElement
	found := false
	for _, el := range elements {
		if el.SlideIndex != slideIndex || !domain.ContainsToken(el.Text, keyword) {
			continue
		}
		if !found || betterElement(el, best) {
			best = el
			found = true
		}
	}
	return best, found
}

func betterElement(candidate, current domain.SlideElement) bool {
	if candidate.Box.Area() != current.Box.Area() {
		return candidate.Box.Area() < current.Box.Area()
	}
	if candidate.Box.Y != current.Box.Y {
		return candidate.Box.Y < current.Box.Y
	}
	return candidate.Box.X < current.Box.X
}

// resolveWindow finds the keyword's next unconsumed transcript occurrence on
// the line's slide, or interpolates from word position when none exists.
// Matches against estimated timestamps never report exact confidence.
func resolveWindow(streams map[int][]slideWord, cursors map[int]int, line domain.ScriptLine, keyword string) (float64, float64, domain.CueConfidence) {
	want := domain.NormalizeToken(keyword)
	stream := streams[line.SlideIndex]
	for i := cursors[line.SlideIndex]; i < len(stream); i++ {
		if stream[i].token == want {
			cursors[line.SlideIndex] = i + 1
			confidence := domain.CueExact
			if stream[i].estimated {
				confidence = domain.CueInterpolated
			}
			return stream[i].lineStart + stream[i].start, stream[i].lineStart + stream[i].end, confidence
		}
	}

	return interpolateWindow(line, want)
}

func interpolateWindow(line domain.ScriptLine, want string) (float64, float64, domain.CueConfidence) {
	tokens := domain.SplitWords(line.Text)
	total := len(tokens)
	if total == 0 {
		return line.Start, line.End, domain.CueInterpolated
	}

	wordIndex := 0
	for i, tok := range tokens {
		if strings.ToLower(tok) == want {
			wordIndex = i
			break
		}
	}

	segmentDuration := line.End - line.Start
	averageWordDuration := segmentDuration / float64(total)
	start := line.Start + float64(wordIndex)/float64(total)*segmentDuration
	return start, start + averageWordDuration, domain.CueInterpolated
}

func clampBox(box domain.BoundingBox, frameWidth, frameHeight float64) domain.BoundingBox {
	if frameWidth <= 0 || frameHeight <= 0 {
		return box
	}
	if box.X < 0 {
		box.Width += box.X
		box.X = 0
	}
	if box.Y < 0 {
		box.Height += box.Y
		box.Y = 0
	}
	if box.X > frameWidth {
		box.X = frameWidth
	}
	if box.Y > frameHeight {
		box.Y = frameHeight
	}
	if box.X+box.Width > frameWidth {
		box.Width = frameWidth - box.X
	}
	if box.Y+box.Height > frameHeight {
		box.Height = frameHeight - box.Y
	}
	if box.Width < 0 {
		box.Width = 0
	}
	if box.Height < 0 {
		box.Height = 0
	}
	return box
}

// ExtractKeywords derives candidate keywords for a line that carries no
// visual-cue hints: word-boundary tokens of minimum length, in order of
// first appearance, case-folded dedupe.
func ExtractKeywords(text string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, tok := range domain.SplitWords(text) {
		if len([]rune(tok)) < minKeywordLength {
			continue
		}
		folded := strings.ToLower(tok)
		if seen[folded] {
			continue
		}
		seen[folded] = true
		keywords = append(keywords, tok)
		if len(keywords) == maxExtractedKeywords {
			break
		}
	}
	return keywords
}
