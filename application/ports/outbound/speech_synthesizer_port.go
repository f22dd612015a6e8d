package outbound

import "context"

type SynthesizeRequest struct {
	Text    string
	VoiceID string
	// OutputPath is where the adapter writes the audio segment.
	OutputPath string
}

type SynthesizeResult struct {
	AudioPath string
	// Duration of the rendered audio in seconds.
	Duration float64
}

type SpeechSynthesizerPort interface {
	Synthesize(ctx context.Context, req SynthesizeRequest) (*SynthesizeResult, error)
}
