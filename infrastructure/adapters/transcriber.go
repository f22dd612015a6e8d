package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/config"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

type sttResponse struct {
	Text  string    `json:"text"`
	Words []sttWord `json:"words"`
}

// sttWord is one word or spacing entry from the transcription service.
type sttWord struct {
	Text        string  `json:"text"`
	Type        string  `json:"type"`
	StartTimeMs float64 `json:"start_time_ms"`
	EndTimeMs   float64 `json:"end_time_ms"`
}

type sttTranscriber struct {
	logger            outbound.LoggerPort
	fetcher           ContentFetcher
	transcriberConfig *config.TranscriberConfig
}

func NewSTTTranscriber(transcriberConfig *config.TranscriberConfig, fetcher ContentFetcher, logger outbound.LoggerPort) outbound.TranscriberPort {
	return &sttTranscriber{
		logger:            logger,
		fetcher:           fetcher,
		transcriberConfig: transcriberConfig,
	}
}

// Transcribe uploads one audio segment and returns word timestamps relative
// to the segment start. Spacing entries are dropped.
func (t *sttTranscriber) Transcribe(ctx context.Context, audioPath string) ([]domain.WordTimestamp, error) {
	payload, err := t.fetcher.FetchContent(ctx, func(ctx context.Context) (*http.Request, error) {
		return t.createRequest(ctx, audioPath)
	})
	if err != nil {
		return nil, err
	}

	var result sttResponse
	if err = json.Unmarshal(payload, &result); err != nil {
		t.logger.Error(err, "Failed to decode transcription response")
		return nil, err
	}

	var words []domain.WordTimestamp
	for _, word := range result.Words {
		if word.Type != "word" {
			continue
		}
		words = append(words, domain.WordTimestamp{
			Word:  word.Text,
			Start: word.StartTimeMs / 1000.0,
			End:   word.EndTimeMs / 1000.0,
		})
	}
	return words, nil
}

func (t *sttTranscriber) createRequest(ctx context.Context, audioPath string) (*http.Request, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, err
	}
	defer func(f *os.File) {
		if closeErr := f.Close(); closeErr != nil {
			t.logger.Error(closeErr, "Failed to close audio file")
		}
	}(f)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	if _, err = io.Copy(part, f); err != nil {
		return nil, err
	}

	_ = w.WriteField("model_id", t.transcriberConfig.ModelId)
	_ = w.WriteField("timestamps_granularity", "word")
	if err = w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.transcriberConfig.ApiUrl, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("xi-api-key", t.transcriberConfig.ApiKey)

	return req, nil
}
