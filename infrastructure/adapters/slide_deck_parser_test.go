package adapters

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonghyeuk/auto-mpeg/domain"
)

func writeDeck(t *testing.T, doc string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, elementsFileName), []byte(doc), 0o644))
	return dir
}

func TestSlideDeckParser_OrdersAndResolves(t *testing.T) {
	deck := writeDeck(t, `{"slides": [
		{"index": 1, "title": "Second", "image": "slide1.png", "elements": []},
		{"index": 0, "title": "First", "elements": [
			{"role": "title", "text": " Plasma ", "left": 100, "top": 40, "width": 800, "height": 120},
			{"role": "body", "text": "", "left": 0, "top": 0, "width": 10, "height": 10},
			{"role": "picture", "text": "", "left": 200, "top": 300, "width": 400, "height": 300}
		]}
	]}`)

	parser := NewSlideDeckParser(NewZerologWrapper())
	slides, err := parser.Parse(context.Background(), deck)
	require.NoError(t, err)
	require.Len(t, slides, 2)

	assert.Equal(t, "First", slides[0].Title)
	assert.Equal(t, "Second", slides[1].Title)
	assert.Equal(t, filepath.Join(deck, "slide1.png"), slides[1].ImagePath)

	// Empty text elements are dropped unless they are pictures.
	require.Len(t, slides[0].Elements, 2)
	assert.Equal(t, domain.RoleTitle, slides[0].Elements[0].Role)
	assert.Equal(t, "Plasma", slides[0].Elements[0].Text)
	assert.Equal(t, domain.RolePicture, slides[0].Elements[1].Role)
	assert.Equal(t, 100.0, slides[0].Elements[0].Box.X)
}

func TestSlideDeckParser_DuplicateIndex(t *testing.T) {
	deck := writeDeck(t, `{"slides": [
		{"index": 0, "title": "A"},
		{"index": 0, "title": "B"}
	]}`)

	parser := NewSlideDeckParser(NewZerologWrapper())
	_, err := parser.Parse(context.Background(), deck)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSlideDeckParser_MissingPath(t *testing.T) {
	parser := NewSlideDeckParser(NewZerologWrapper())
	_, err := parser.Parse(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseElementRole(t *testing.T) {
	assert.Equal(t, domain.RoleTitle, parseElementRole("Title"))
	assert.Equal(t, domain.RolePicture, parseElementRole("image"))
	assert.Equal(t, domain.RoleTextbox, parseElementRole("textbox"))
	assert.Equal(t, domain.RoleTextbox, parseElementRole("text_box"))
	assert.Equal(t, domain.RoleBody, parseElementRole("chart"))
}
