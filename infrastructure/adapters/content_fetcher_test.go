package adapters

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonghyeuk/auto-mpeg/domain"
)

func getRequest(url string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestContentFetcher_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	fetcher := NewContentFetcher(NewZerologWrapper())
	payload, err := fetcher.FetchContent(context.Background(), getRequest(server.URL))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(payload))
}

func TestContentFetcher_ClientErrorDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewContentFetcher(NewZerologWrapper())
	_, err := fetcher.FetchContent(context.Background(), getRequest(server.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, int32(1), calls.Load())
}

func TestContentFetcher_ServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher := NewContentFetcher(NewZerologWrapper())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The first attempt fails transiently and the cancelled context stops the
	// backoff wait before the next attempt.
	_, err := fetcher.FetchContent(ctx, getRequest(server.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestContentFetcher_RateLimitClassifiedTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	fetcher := NewContentFetcher(NewZerologWrapper())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.FetchContent(ctx, getRequest(server.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
