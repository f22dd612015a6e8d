package adapters

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/jonghyeuk/auto-mpeg/application/ports/outbound"
	"github.com/jonghyeuk/auto-mpeg/domain"
)

// backoffSchedule drives transient retries. An attempt past the last slot is
// the final one.
var backoffSchedule = []time.Duration{2 * time.Second, 8 * time.Second, 32 * time.Second}

// ContentFetcher sends HTTP requests with transient retries. Requests are
// built fresh per attempt so bodies can be re-read.
type ContentFetcher interface {
	FetchContent(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) ([]byte, error)
}

type contentFetcher struct {
	logger outbound.LoggerPort
	client *http.Client
}

func NewContentFetcher(logger outbound.LoggerPort) ContentFetcher {
	return &contentFetcher{
		logger: logger,
		client: &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *contentFetcher) FetchContent(ctx context.Context, build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= len(backoffSchedule); attempt++ {
		if attempt > 0 {
			c.logger.InfoWithFields("retrying HTTP request", map[string]interface{}{
				"attempt": attempt,
				"wait":    backoffSchedule[attempt-1].String(),
			})
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffSchedule[attempt-1]):
			}
		}

		req, err := build(ctx)
		if err != nil {
			return nil, err
		}

		payload, err := c.fetchOnce(req)
		if err == nil {
			return payload, nil
		}
		lastErr = err
		if !isTransient(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *contentFetcher) fetchOnce(req *http.Request) ([]byte, error) {
	res, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to send the HTTP request", map[string]interface{}{
			"method": req.Method,
			"URL":    req.URL.String(),
		})
		return nil, domain.TransientErrorf("%s %s: %v", req.Method, req.URL.String(), err)
	}

	defer func(body io.ReadCloser) {
		if closeErr := body.Close(); closeErr != nil {
			c.logger.Error(closeErr, "Failed to close the response body")
		}
	}(res.Body)

	if res.StatusCode != http.StatusOK {
		bodyPayload, _ := io.ReadAll(res.Body)
		c.logger.ErrorWithFields(nil, "HTTP request returned non-OK status code", map[string]interface{}{
			"method":  req.Method,
			"URL":     req.URL.String(),
			"status":  res.StatusCode,
			"message": string(bodyPayload),
		})
		if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
			return nil, domain.TransientErrorf("%s %s: status %d", req.Method, req.URL.String(), res.StatusCode)
		}
		return nil, domain.ValidationErrorf("%s %s: status %d", req.Method, req.URL.String(), res.StatusCode)
	}

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		c.logger.Error(err, "Failed to read the response body")
		return nil, domain.TransientErrorf("reading response body: %v", err)
	}
	return payload, nil
}

func isTransient(err error) bool {
	return errors.Is(err, domain.ErrTransient)
}
