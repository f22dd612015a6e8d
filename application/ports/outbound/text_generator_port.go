package outbound

import "context"

// TextGeneratorPort is the narrow contract to the language-model service,
// shared by analysis, planning, script writing and review.
type TextGeneratorPort interface {
	// Generate returns the full completion for a prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	// Stream returns completion tokens as they arrive. Both channels close
	// when the stream ends.
	Stream(ctx context.Context, prompt string) (<-chan string, <-chan error)
}
