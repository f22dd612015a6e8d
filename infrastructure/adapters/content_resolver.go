package adapters

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

type contentResolver struct {
	logger  outbound.LoggerPort
	fetcher ContentFetcher
}

func NewContentResolver(fetcher ContentFetcher, logger outbound.LoggerPort) outbound.ContentResolverPort {
	return &contentResolver{
		logger:  logger,
		fetcher: fetcher,
	}
}

// Resolve turns a source reference into raw text. URLs are fetched, readable
// paths are loaded from disk, anything else is inline text.
func (c *contentResolver) Resolve(ctx context.Context, ref string) (*outbound.ResolvedContent, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		payload, err := c.fetcher.FetchContent(ctx, func(ctx context.Context) (*http.Request, error) {
			return http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		})
		if err != nil {
			return nil, err
		}
		return &outbound.ResolvedContent{
			Text:     string(payload),
			Title:    ref,
			Metadata: map[string]string{"origin": "url", "ref": ref},
		}, nil
	}

	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		payload, readErr := os.ReadFile(ref)
		if readErr != nil {
			c.logger.Error(readErr, "Failed to read source file")
			return nil, readErr
		}
		name := strings.TrimSuffix(filepath.Base(ref), filepath.Ext(ref))
		return &outbound.ResolvedContent{
			Text:     string(payload),
			Title:    name,
			Metadata: map[string]string{"origin": "file", "ref": ref},
		}, nil
	}

	if strings.TrimSpace(ref) == "" {
		return nil, domain.ValidationErrorf("empty source text")
	}
	return &outbound.ResolvedContent{
		Text:     ref,
		Title:    firstLine(ref),
		Metadata: map[string]string{"origin": "inline"},
	}, nil
}

func firstLine(text string) string {
	line := strings.TrimSpace(text)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	const maxTitleRunes = 60
	runes := []rune(line)
	if len(runes) > maxTitleRunes {
		line = string(runes[:maxTitleRunes])
	}
	return strings.TrimSpace(line)
}
