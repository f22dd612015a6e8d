package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/donovanhide/eventsource"
	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/config"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

const doneSignal = "[DONE]"
const maxStreamRetries = 3

type chatRequest struct {
	Stream   bool          `json:"stream"`
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChunkBody struct {
	Choices []chatChunkChoice `json:"choices"`
}

type chatChunkChoice struct {
	Index int `json:"index"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
}

type chatCompletionBody struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type llmTextGenerator struct {
	logger     outbound.LoggerPort
	fetcher    ContentFetcher
	llmConfig  *config.LLMConfig
	workerPool outbound.TaskDispatcher
}

func NewLLMTextGenerator(llmConfig *config.LLMConfig, fetcher ContentFetcher, workerPool outbound.TaskDispatcher, logger outbound.LoggerPort) outbound.TextGeneratorPort {
	return &llmTextGenerator{
		logger:     logger,
		fetcher:    fetcher,
		llmConfig:  llmConfig,
		workerPool: workerPool,
	}
}

// Generate sends a blocking completion request and returns the whole answer.
func (g *llmTextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := g.fetcher.FetchContent(ctx, func(ctx context.Context) (*http.Request, error) {
		return g.createRequest(ctx, prompt, false)
	})
	if err != nil {
		return "", err
	}

	var body chatCompletionBody
	if err = json.Unmarshal(payload, &body); err != nil {
		g.logger.Error(err, "Failed to unmarshal completion response")
		return "", err
	}
	if len(body.Choices) == 0 {
		return "", domain.TransientErrorf("completion response has no choices")
	}
	return strings.TrimSpace(body.Choices[0].Message.Content), nil
}

// Stream subscribes to the completion event stream and forwards content
// tokens. Both channels close when the stream ends.
func (g *llmTextGenerator) Stream(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	out := make(chan string)
	errCh := make(chan error, 1)

	retryCount := 0
	newCtx, cancel := context.WithCancel(ctx)

	err := g.workerPool.Submit(func() {
		defer close(out)
		defer close(errCh)
		defer cancel()
		req, err := g.createRequest(ctx, prompt, true)
		if err != nil {
			g.logger.Error(err, "Failed to create HTTP request for completion stream")
			errCh <- err
			return
		}

		stream, err := eventsource.SubscribeWithRequest("", req)
		if err != nil {
			g.logger.Error(err, "Failed to subscribe to completion stream")
			errCh <- err
			return
		}
		for {
			select {
			case <-newCtx.Done():
				return
			case ev := <-stream.Events:
				if ev.Data() != doneSignal {
					payload, err := g.extractPayload(ev)
					if err != nil {
						errCh <- err
						cancel()
						return
					}
					out <- payload
				}
				retryCount = 0
			case err := <-stream.Errors:
				if err == io.EOF {
					g.logger.Debug("Completion stream closed")
					return
				} else if retryCount < maxStreamRetries {
					g.logger.ErrorWithFields(err, "Error occurred during streaming, retrying", map[string]interface{}{
						"retry_count": retryCount})
					retryCount++
					continue
				}
				g.logger.Error(err, "Error occurred during streaming, max retries reached")
				errCh <- domain.TransientErrorf("completion stream: %v", err)
				cancel()
				return
			}
		}
	})
	if err != nil {
		g.logger.Error(err, "Failed to submit task to worker pool")
		errCh <- err
		close(out)
		close(errCh)
	}

	return out, errCh
}

func (g *llmTextGenerator) extractPayload(event eventsource.Event) (string, error) {
	var chunkBody chatChunkBody
	if err := json.Unmarshal([]byte(event.Data()), &chunkBody); err != nil {
		g.logger.Error(err, "Failed to unmarshal event data")
		return "", err
	}
	if len(chunkBody.Choices) == 0 {
		return "", nil
	}
	return chunkBody.Choices[0].Delta.Content, nil
}

func (g *llmTextGenerator) createRequest(ctx context.Context, prompt string, stream bool) (*http.Request, error) {
	promptReq := chatRequest{
		Stream: stream,
		Model:  g.llmConfig.Model,
		Messages: []chatMessage{{
			Role:    "user",
			Content: prompt,
		}},
	}

	payloadBytes, err := json.Marshal(promptReq)
	if err != nil {
		g.logger.Error(err, "Failed to marshal the request body")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.llmConfig.ApiUrl, bytes.NewBuffer(payloadBytes))
	if err != nil {
		g.logger.Error(err, "Failed to create the HTTP request")
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+g.llmConfig.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}
