package adapters

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

const elementsFileName = "elements.json"

// deckDocument is the on-disk format produced by the external deck
// extractor: one entry per slide with positioned elements in output pixels.
type deckDocument struct {
	Slides []deckSlide `json:"slides"`
}

type deckSlide struct {
	Index    int           `json:"index"`
	Title    string        `json:"title"`
	Body     string        `json:"body"`
	Notes    string        `json:"notes"`
	Image    string        `json:"image"`
	Elements []deckElement `json:"elements"`
}

type deckElement struct {
	Role   string  `json:"role"`
	Text   string  `json:"text"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type slideDeckParser struct {
	logger outbound.LoggerPort
}

func NewSlideDeckParser(logger outbound.LoggerPort) outbound.SlideDeckParserPort {
	return &slideDeckParser{logger: logger}
}

// Parse loads a pre-extracted deck directory: elements.json plus optional
// per-slide images. Slides come back ordered by index.
func (p *slideDeckParser) Parse(ctx context.Context, ref string) ([]domain.Slide, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(ref)
	if err != nil {
		return nil, domain.ValidationErrorf("deck path %q: %v", ref, err)
	}

	docPath := ref
	baseDir := filepath.Dir(ref)
	if info.IsDir() {
		docPath = filepath.Join(ref, elementsFileName)
		baseDir = ref
	}

	payload, err := os.ReadFile(docPath)
	if err != nil {
		return nil, domain.ValidationErrorf("reading deck document: %v", err)
	}

	var doc deckDocument
	if err = json.Unmarshal(payload, &doc); err != nil {
		p.logger.Error(err, "Failed to parse deck document")
		return nil, domain.ValidationErrorf("parsing deck document: %v", err)
	}

	slides := make([]domain.Slide, 0, len(doc.Slides))
	for _, ds := range doc.Slides {
		slide := domain.Slide{
			Index: ds.Index,
			Title: strings.TrimSpace(ds.Title),
			Body:  strings.TrimSpace(ds.Body),
			Notes: strings.TrimSpace(ds.Notes),
		}
		if ds.Image != "" {
			slide.ImagePath = resolveDeckPath(baseDir, ds.Image)
		}
		for _, de := range ds.Elements {
			if strings.TrimSpace(de.Text) == "" && de.Role != string(domain.RolePicture) {
				continue
			}
			slide.Elements = append(slide.Elements, domain.SlideElement{
				SlideIndex: ds.Index,
				Role:       parseElementRole(de.Role),
				Text:       strings.TrimSpace(de.Text),
				Box: domain.BoundingBox{
					X:      de.Left,
					Y:      de.Top,
					Width:  de.Width,
					Height: de.Height,
				},
			})
		}
		slides = append(slides, slide)
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].Index < slides[j].Index })
	for i := 1; i < len(slides); i++ {
		if slides[i].Index == slides[i-1].Index {
			return nil, domain.ValidationErrorf("duplicate slide index %d", slides[i].Index)
		}
	}

	p.logger.InfoWithFields("parsed slide deck", map[string]interface{}{
		"path":   ref,
		"slides": len(slides),
	})
	return slides, nil
}

func parseElementRole(role string) domain.ElementRole {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "title":
		return domain.RoleTitle
	case "textbox", "text_box":
		return domain.RoleTextbox
	case "picture", "image":
		return domain.RolePicture
	default:
		return domain.RoleBody
	}
}

func resolveDeckPath(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
