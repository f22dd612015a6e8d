package services

import (
	"testing"

	"github.com/jonghyeuk/auto-mpeg/application/ports/inbound"
	"github.com/jonghyeuk/auto-mpeg/domain"
	"github.com/jonghyeuk/auto-mpeg/infrastructure/adapters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alignmentFixture() inbound.ResolveCuesParams {
	timeline := domain.NewTimeline()
	timeline.Append("l0", 3.0)
	timeline.Append("l1", 2.0)

	return inbound.ResolveCuesParams{
		Timeline: timeline,
		Lines: []domain.ScriptLine{
			{ID: "l0", SlideIndex: 0, Ordinal: 0, Text: "Welcome to the lecture.", Start: 0, End: 3},
			{ID: "l1", SlideIndex: 0, Ordinal: 1, Text: "The plasma glows brightly.", Start: 3, End: 5,
				Keywords: []string{"plasma"}},
		},
		Elements: []domain.SlideElement{
			{SlideIndex: 0, Role: domain.RoleBody, Text: "Plasma temperature rises",
				Box: domain.BoundingBox{X: 100, Y: 50, Width: 800, Height: 150}},
		},
		Words: map[string][]domain.WordTimestamp{
			"l1": {
				{Word: "The", Start: 0.0, End: 0.2},
				{Word: "plasma", Start: 0.2, End: 0.8},
				{Word: "glows", Start: 0.8, End: 1.2},
				{Word: "brightly", Start: 1.2, End: 1.8},
			},
		},
		FrameWidth:  1920,
		FrameHeight: 1080,
	}
}

func TestAlignmentEngine_ExactMatch(t *testing.T) {
	engine := NewAlignmentEngine(adapters.NewZerologWrapper())

	cues := engine.Resolve(alignmentFixture())

	require.Len(t, cues, 1)
	cue := cues[0]
	assert.Equal(t, "plasma", cue.Text)
	assert.Equal(t, domain.CueExact, cue.Confidence)
	assert.InDelta(t, 3.2, cue.Start, 1e-9)
	assert.InDelta(t, 3.8, cue.End, 1e-9)
	assert.Equal(t, domain.BoundingBox{X: 100, Y: 50, Width: 800, Height: 150}, cue.Box)
}

func TestAlignmentEngine_EstimatedTimingReportsInterpolated(t *testing.T) {
	engine := NewAlignmentEngine(adapters.NewZerologWrapper())

	params := alignmentFixture()
	params.EstimatedTiming = map[string]bool{"l1": true}

	cues := engine.Resolve(params)
	require.Len(t, cues, 1)
	assert.Equal(t, domain.CueInterpolated, cues[0].Confidence)
	// The estimated window is still used, only the confidence drops.
	assert.InDelta(t, 3.2, cues[0].Start, 1e-9)
	assert.InDelta(t, 3.8, cues[0].End, 1e-9)
}

func TestAlignmentEngine_NeverFabricates(t *testing.T) {
	engine := NewAlignmentEngine(adapters.NewZerologWrapper())

	params := alignmentFixture()
	params.Lines[1].Keywords = []string{"neutrino"}

	cues := engine.Resolve(params)
	assert.Empty(t, cues, "a keyword without an on-slide element must produce no cue")
}

func TestAlignmentEngine_SmallestElementWins(t *testing.T) {
	engine := NewAlignmentEngine(adapters.NewZerologWrapper())

	params := alignmentFixture()
	params.Elements = []domain.SlideElement{
		{SlideIndex: 0, Text: "plasma overview", Box: domain.BoundingBox{X: 0, Y: 0, Width: 1900, Height: 900}},
		{SlideIndex: 0, Text: "plasma detail", Box: domain.BoundingBox{X: 400, Y: 600, Width: 300, Height: 100}},
	}

	cues := engine.Resolve(params)
	require.Len(t, cues, 1)
	assert.Equal(t, 300.0, cues[0].Box.Width)
}

func TestAlignmentEngine_AreaTieBreaksByPosition(t *testing.T) {
	engine := NewAlignmentEngine(adapters.NewZerologWrapper())

	params := alignmentFixture()
	params.Elements = []domain.SlideElement{
		{SlideIndex: 0, Text: "plasma right", Box: domain.BoundingBox{X: 900, Y: 100, Width: 200, Height: 100}},
		{SlideIndex: 0, Text: "plasma left", Box: domain.BoundingBox{X: 100, Y: 100, Width: 200, Height: 100}},
		{SlideIndex: 0, Text: "plasma lower", Box: domain.BoundingBox{X: 100, Y: 500, Width: 200, Height: 100}},
	}

	cues := engine.Resolve(params)
	require.Len(t, cues, 1)
	assert.Equal(t, 100.0, cues[0].Box.X)
	assert.Equal(t, 100.0, cues[0].Box.Y)
}

func TestAlignmentEngine_InterpolatesWithoutTranscript(t *testing.T) {
	engine := NewAlignmentEngine(adapters.NewZerologWrapper())

	params := alignmentFixture()
	params.Words = nil

	cues := engine.Resolve(params)
	require.Len(t, cues, 1)
	cue := cues[0]
	assert.Equal(t, domain.CueInterpolated, cue.Confidence)

	// "plasma" is word 1 of 4 in a 2 second line starting at 3.0.
	assert.InDelta(t, 3.5, cue.Start, 1e-9)
	assert.InDelta(t, 4.0, cue.End, 1e-9)
}

func TestAlignmentEngine_CursorConsumesForward(t *testing.T) {
	engine := NewAlignmentEngine(adapters.NewZerologWrapper())

	timeline := domain.NewTimeline()
	timeline.Append("a", 2.0)
	timeline.Append("b", 2.0)

	params := inbound.ResolveCuesParams{
		Timeline: timeline,
		Lines: []domain.ScriptLine{
			{ID: "a", SlideIndex: 0, Ordinal: 0, Text: "First plasma mention.", Start: 0, End: 2,
				Keywords: []string{"plasma"}},
			{ID: "b", SlideIndex: 0, Ordinal: 1, Text: "Second plasma mention.", Start: 2, End: 4,
				Keywords: []string{"plasma"}},
		},
		Elements: []domain.SlideElement{
			{SlideIndex: 0, Text: "plasma", Box: domain.BoundingBox{X: 10, Y: 10, Width: 100, Height: 50}},
		},
		Words: map[string][]domain.WordTimestamp{
			"a": {{Word: "First", Start: 0, End: 0.5}, {Word: "plasma", Start: 0.5, End: 1.0}, {Word: "mention", Start: 1.0, End: 1.5}},
			"b": {{Word: "Second", Start: 0, End: 0.5}, {Word: "plasma", Start: 0.5, End: 1.0}, {Word: "mention", Start: 1.0, End: 1.5}},
		},
		FrameWidth:  1920,
		FrameHeight: 1080,
	}

	cues := engine.Resolve(params)
	require.Len(t, cues, 2)
	assert.InDelta(t, 0.5, cues[0].Start, 1e-9)
	assert.InDelta(t, 2.5, cues[1].Start, 1e-9, "second occurrence must come from the second line's words")
	assert.Less(t, cues[0].Start, cues[1].Start)
}

func TestAlignmentEngine_Deterministic(t *testing.T) {
	engine := NewAlignmentEngine(adapters.NewZerologWrapper())

	first := engine.Resolve(alignmentFixture())
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, engine.Resolve(alignmentFixture()))
	}
}

func TestAlignmentEngine_ClampsBoxToFrame(t *testing.T) {
	engine := NewAlignmentEngine(adapters.NewZerologWrapper())

	params := alignmentFixture()
	params.Elements[0].Box = domain.BoundingBox{X: 1800, Y: 1000, Width: 400, Height: 300}

	cues := engine.Resolve(params)
	require.Len(t, cues, 1)
	box := cues[0].Box
	assert.LessOrEqual(t, box.X+box.Width, 1920.0)
	assert.LessOrEqual(t, box.Y+box.Height, 1080.0)
}

func TestExtractKeywords(t *testing.T) {
	keywords := ExtractKeywords("The Plasma state of the plasma matter holds energy and heat")

	// Minimum four runes, case-folded dedupe, first-appearance order, cap 3.
	assert.Equal(t, []string{"Plasma", "state", "matter"}, keywords)

	assert.Empty(t, ExtractKeywords("a an to of"))
}
