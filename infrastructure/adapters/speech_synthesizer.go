package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/config"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelId       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechSynthesizer struct {
	logger       outbound.LoggerPort
	fetcher      ContentFetcher
	speechConfig *config.SpeechConfig
	renderConfig *config.RenderConfig
}

func NewSpeechSynthesizer(speechConfig *config.SpeechConfig, renderConfig *config.RenderConfig, fetcher ContentFetcher, logger outbound.LoggerPort) outbound.SpeechSynthesizerPort {
	return &speechSynthesizer{
		logger:       logger,
		fetcher:      fetcher,
		speechConfig: speechConfig,
		renderConfig: renderConfig,
	}
}

// Synthesize voices one text segment, writes the audio to the requested path
// and measures its duration.
func (s *speechSynthesizer) Synthesize(ctx context.Context, req outbound.SynthesizeRequest) (*outbound.SynthesizeResult, error) {
	audio, err := s.fetcher.FetchContent(ctx, func(ctx context.Context) (*http.Request, error) {
		return s.createRequest(ctx, req.Text, req.VoiceID)
	})
	if err != nil {
		return nil, err
	}

	if err = os.WriteFile(req.OutputPath, audio, 0o644); err != nil {
		s.logger.Error(err, "Failed to write audio segment")
		return nil, err
	}

	duration, err := s.probeDuration(ctx, req.OutputPath)
	if err != nil {
		return nil, err
	}

	return &outbound.SynthesizeResult{
		AudioPath: req.OutputPath,
		Duration:  duration,
	}, nil
}

func (s *speechSynthesizer) createRequest(ctx context.Context, text, voiceID string) (*http.Request, error) {
	reqBody := ttsRequest{
		Text:    text,
		ModelId: s.speechConfig.ModelId,
		VoiceSettings: voiceSettings{
			Stability:       s.speechConfig.Stability,
			SimilarityBoost: s.speechConfig.SimilarityBoost,
		},
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		s.logger.Error(err, "Failed to marshal the speech request body")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.speechConfig.ApiUrl+"/"+voiceID, bytes.NewBuffer(jsonPayload))
	if err != nil {
		s.logger.Error(err, "Failed to create the speech HTTP request")
		return nil, err
	}

	req.Header.Add("Accept", "audio/mpeg")
	req.Header.Add("xi-api-key", s.speechConfig.ApiKey)
	req.Header.Add("Content-Type", "application/json")

	return req, nil
}

// probeDuration reads the container duration in seconds via ffprobe.
func (s *speechSynthesizer) probeDuration(ctx context.Context, audioPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, s.renderConfig.FfprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath)
	out, err := cmd.Output()
	if err != nil {
		s.logger.ErrorWithFields(err, "ffprobe failed", map[string]interface{}{"path": audioPath})
		return 0, domain.TransientErrorf("ffprobe %s: %v", audioPath, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, domain.ValidationErrorf("unparseable ffprobe duration %q", strings.TrimSpace(string(out)))
	}
	return duration, nil
}
