package services

import (
	"strings"
	"testing"

	"github.com/jonghyeuk/auto-mpeg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptionComposer_Compose(t *testing.T) {
	composer := NewCaptionComposer()

	captions := composer.Compose([]domain.ScriptLine{
		{Text: "Welcome everyone.", Start: 0, End: 2},
		{Text: "Today we study plasma.", Start: 2, End: 5},
		{Text: "Thanks for listening.", Start: 5, End: 7},
	})

	require.Len(t, captions, 3)
	assert.True(t, captions[0].FadeIn)
	assert.False(t, captions[0].FadeOut)
	assert.True(t, captions[2].FadeOut)
	for i, caption := range captions {
		assert.Equal(t, i, caption.Index)
	}
}

func TestCaptionComposer_ClampsOverlap(t *testing.T) {
	composer := NewCaptionComposer()

	captions := composer.Compose([]domain.ScriptLine{
		{Text: "First line.", Start: 0, End: 3},
		{Text: "Overlapping line.", Start: 2, End: 5},
	})

	require.Len(t, captions, 2)
	assert.Equal(t, 3.0, captions[1].Start, "a caption may not start before its predecessor ends")
	assert.Equal(t, 5.0, captions[1].End)
}

func TestCaptionComposer_SkipsEmptyLines(t *testing.T) {
	composer := NewCaptionComposer()

	captions := composer.Compose([]domain.ScriptLine{
		{Text: "   ", Start: 0, End: 1},
		{Text: "Real text.", Start: 1, End: 2},
	})

	require.Len(t, captions, 1)
	assert.Equal(t, "Real text.", captions[0].Text)
}

func TestCaptionComposer_WrapsLongText(t *testing.T) {
	composer := NewCaptionComposer()

	long := "This sentence is deliberately made long enough that it cannot fit on one caption line."
	captions := composer.Compose([]domain.ScriptLine{{Text: long, Start: 0, End: 4}})

	require.Len(t, captions, 1)
	parts := strings.Split(captions[0].Text, `\N`)
	assert.LessOrEqual(t, len(parts), 2)
	for _, part := range parts {
		assert.LessOrEqual(t, len(part), 42)
	}
}

func TestCaptionComposer_RenderASS(t *testing.T) {
	composer := NewCaptionComposer()

	doc := composer.RenderASS(composer.Compose([]domain.ScriptLine{
		{Text: "Hello.", Start: 0, End: 1.5},
		{Text: "World.", Start: 1.5, End: 65.25},
	}))

	assert.Contains(t, doc, "[Script Info]")
	assert.Contains(t, doc, "[Events]")
	assert.Contains(t, doc, `{\fad(200,0)}Hello.`)
	assert.Contains(t, doc, `{\fad(0,200)}World.`)
	assert.Contains(t, doc, "Dialogue: 0,0:00:00.00,0:00:01.50,Default")
	assert.Contains(t, doc, "0:01:05.25")
}

func TestCaptionComposer_SingleCaptionFadesBothWays(t *testing.T) {
	composer := NewCaptionComposer()

	doc := composer.RenderASS(composer.Compose([]domain.ScriptLine{
		{Text: "Only line.", Start: 0, End: 2},
	}))

	assert.Contains(t, doc, `{\fad(200,200)}Only line.`)
}
