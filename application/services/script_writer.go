package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jonghyeuk/auto-mpeg/application/ports/inbound"
	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

// WordsPerSecond is the narration pace used for duration budgeting,
// roughly 150 words per minute.
const WordsPerSecond = 2.5

var sectionShares = []struct {
	kind  domain.SectionKind
	share float64
}{
	{domain.SectionHook, 0.10},
	{domain.SectionIntroduction, 0.15},
	{domain.SectionMain, 0.50},
	{domain.SectionSummary, 0.10},
	{domain.SectionConclusion, 0.10},
	{domain.SectionCallToAction, 0.05},
}

type scriptWriter struct {
	logger        outbound.LoggerPort
	textGenerator outbound.TextGeneratorPort
	keywordRegexp *regexp.Regexp
}

func NewScriptWriter(logger outbound.LoggerPort, textGenerator outbound.TextGeneratorPort) inbound.ScriptWriterPort {
	return &scriptWriter{
		logger:        logger,
		textGenerator: textGenerator,
		keywordRegexp: regexp.MustCompile(`\[(.*?)]`),
	}
}

func (s *scriptWriter) Analyze(ctx context.Context, sourceText string) (string, error) {
	if strings.TrimSpace(sourceText) == "" {
		return "", domain.ValidationErrorf("source text is empty")
	}

	prompt := fmt.Sprintf("Summarize the following material for a lecture writer. "+
		"Name the central topic, the intended audience, and the three most important points, in plain prose.\n\n%s", sourceText)

	analysis, err := s.textGenerator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(analysis), nil
}

type outlineResponse struct {
	Title    string `json:"title"`
	Sections []struct {
		Kind          string  `json:"kind"`
		Topic         string  `json:"topic"`
		SlideIndex    int     `json:"slide_index"`
		TargetSeconds float64 `json:"target_seconds"`
	} `json:"sections"`
}

func (s *scriptWriter) Plan(ctx context.Context, sourceText, analysis string, targetDuration float64, slides []domain.Slide) (domain.Outline, error) {
	prompt := fmt.Sprintf(`Plan a narrated lecture of about %.0f seconds from the analysis below.
Respond with JSON only, in this shape:
{"title": "...", "sections": [{"kind": "hook|introduction|main|summary|conclusion|call_to_action", "topic": "...", "slide_index": 0, "target_seconds": 10}]}
Use every section kind at most once except "main", keep the target seconds summing to the total, and assign slide_index 0 unless slides are listed.

Analysis:
%s
%s`, targetDuration, analysis, describeSlides(slides))

	raw, err := s.textGenerator.Generate(ctx, prompt)
	if err != nil {
		return domain.Outline{}, err
	}

	var parsed outlineResponse
	if jsonErr := json.Unmarshal([]byte(stripCodeFence(raw)), &parsed); jsonErr != nil || len(parsed.Sections) == 0 {
		s.logger.Warn("outline response was not parseable, falling back to the default structure")
		return defaultOutline(analysis, targetDuration, slides), nil
	}

	outline := domain.Outline{Title: parsed.Title}
	for _, sec := range parsed.Sections {
		outline.Sections = append(outline.Sections, domain.OutlineSection{
			Kind:          domain.SectionKind(sec.Kind),
			Topic:         sec.Topic,
			SlideIndex:    sec.SlideIndex,
			TargetSeconds: sec.TargetSeconds,
		})
	}
	return outline, nil
}

// Write streams prose for each planned section, threading a running
// context accumulator through successive calls so later sections continue
// naturally from earlier ones.
func (s *scriptWriter) Write(ctx context.Context, params inbound.WriteScriptParams) (domain.Script, error) {
	if len(params.Outline.Sections) == 0 {
		return domain.Script{}, domain.ValidationErrorf("outline has no sections")
	}

	script := domain.Script{Title: params.Outline.Title}
	previousContext := ""
	ordinal := 0

	for i, section := range params.Outline.Sections {
		wordBudget := int(section.TargetSeconds * WordsPerSecond)
		prompt := s.sectionPrompt(section, params, previousContext, wordBudget)

		prose, err := s.streamProse(ctx, prompt)
		if err != nil {
			return domain.Script{}, err
		}

		sectionID := uuid.NewString()
		scriptSection := domain.ScriptSection{
			ID:      sectionID,
			Kind:    section.Kind,
			Ordinal: i,
		}
		for _, sentence := range splitSentences(prose) {
			text, keywords := s.extractKeywordMarkers(sentence)
			if text == "" {
				continue
			}
			scriptSection.Lines = append(scriptSection.Lines, domain.ScriptLine{
				ID:         uuid.NewString(),
				SectionID:  sectionID,
				Text:       text,
				Ordinal:    ordinal,
				SlideIndex: section.SlideIndex,
				Keywords:   keywords,
			})
			ordinal++
		}
		script.Sections = append(script.Sections, scriptSection)
		previousContext = accumulateContext(previousContext, prose)
	}

	if len(script.Lines()) == 0 {
		return domain.Script{}, domain.ValidationErrorf("script generation produced no lines")
	}
	return script, nil
}

// streamProse consumes the generator's token stream and assembles the
// section prose, surfacing any error reported after the stream ends.
func (s *scriptWriter) streamProse(ctx context.Context, prompt string) (string, error) {
	tokens, errs := s.textGenerator.Stream(ctx, prompt)
	var b strings.Builder
	for token := range tokens {
		b.WriteString(token)
	}
	if err := <-errs; err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *scriptWriter) sectionPrompt(section domain.OutlineSection, params inbound.WriteScriptParams, previousContext string, wordBudget int) string {
	var b strings.Builder
	b.WriteString("You are a friendly lecturer speaking to students. ")
	fmt.Fprintf(&b, "Write the %s section of the lecture, about %d words of natural spoken prose. ", section.Kind, wordBudget)
	b.WriteString("Do not read slide text aloud verbatim; explain it in your own words. ")
	b.WriteString("Wrap the one or two most important terms of each sentence in [square brackets]. ")
	b.WriteString("Output the narration only.\n\n")
	fmt.Fprintf(&b, "Topic for this section: %s\n", section.Topic)
	fmt.Fprintf(&b, "Lecture analysis: %s\n", params.Analysis)
	if previousContext != "" {
		fmt.Fprintf(&b, "What you said so far: %s\n", previousContext)
	}
	return b.String()
}

// extractKeywordMarkers strips [bracketed] markers from a sentence,
// returning the clean text and the marked keywords in appearance order.
func (s *scriptWriter) extractKeywordMarkers(sentence string) (string, []string) {
	var keywords []string
	for _, match := range s.keywordRegexp.FindAllStringSubmatch(sentence, -1) {
		keyword := strings.TrimSpace(match[1])
		if keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	text := s.keywordRegexp.ReplaceAllString(sentence, "$1")
	return normalizeNarrationText(text), keywords
}

// stripCodeFence removes a surrounding markdown fence that models sometimes
// wrap JSON responses in.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func normalizeNarrationText(input string) string {
	replacer := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\\", "")
	return strings.TrimSpace(strings.Join(strings.Fields(replacer.Replace(input)), " "))
}

func splitSentences(prose string) []string {
	var sentences []string
	var current strings.Builder
	for _, r := range prose {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// accumulateContext keeps the tail of everything said so far, enough for
// continuity without growing prompts unboundedly.
func accumulateContext(previous, addition string) string {
	const maxContextWords = 200
	combined := strings.Fields(previous + " " + addition)
	if len(combined) > maxContextWords {
		combined = combined[len(combined)-maxContextWords:]
	}
	return strings.Join(combined, " ")
}

func describeSlides(slides []domain.Slide) string {
	if len(slides) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nSlides:\n")
	for _, slide := range slides {
		fmt.Fprintf(&b, "- slide %d: %s\n", slide.Index, slide.Title)
	}
	return b.String()
}

func defaultOutline(analysis string, targetDuration float64, slides []domain.Slide) domain.Outline {
	title := "Lecture"
	if first := strings.SplitN(strings.TrimSpace(analysis), "\n", 2); len(first) > 0 && first[0] != "" {
		title = first[0]
	}
	outline := domain.Outline{Title: title}
	for i, share := range sectionShares {
		slideIndex := 0
		if len(slides) > 0 {
			slideIndex = slides[i*len(slides)/len(sectionShares)].Index
		}
		outline.Sections = append(outline.Sections, domain.OutlineSection{
			Kind:          share.kind,
			Topic:         string(share.kind) + " of the lecture",
			SlideIndex:    slideIndex,
			TargetSeconds: targetDuration * share.share,
		})
	}
	return outline
}
