package httputil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/matzehuels/appshell/pkg/errors"
	"github.com/matzehuels/appshell/pkg/observability"
)

// maxBodySize is the default response body limit.
const maxBodySize = 8 << 20

// Fetcher performs JSON GET requests with retry.
type Fetcher struct {
	Client   *http.Client
	Attempts int
	Delay    time.Duration

	// MaxBodySize is the largest body accepted, in bytes. Larger responses
	// fail instead of being truncated. Zero means 8 MiB.
	MaxBodySize int64
}

// NewFetcher returns a Fetcher with a 30 second client timeout and
// 3 attempts starting at a 1 second delay. A nil client uses that default.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{Client: client, Attempts: 3, Delay: time.Second, MaxBodySize: maxBodySize}
}

// FetchJSON GETs url and decodes the JSON body into v.
//
// 5xx, 429 and transport errors are retried. A 404 returns an error with
// code NOT_FOUND, a body over MaxBodySize INVALID_INPUT, other failures
// NETWORK_ERROR or RATE_LIMITED.
func (f *Fetcher) FetchJSON(ctx context.Context, url string, v any) error {
	if err := apperrors.ValidateURL(url); err != nil {
		return err
	}
	return Retry(ctx, f.Attempts, f.Delay, func() error {
		return f.fetchOnce(ctx, url, v)
	})
}

// FetchJSON is a convenience wrapper around a default [Fetcher].
func FetchJSON(ctx context.Context, client *http.Client, url string, v any) error {
	return NewFetcher(client).FetchJSON(ctx, url, v)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)

	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return Retryable(apperrors.Wrap(apperrors.ErrCodeNetwork, err, "GET %s", url))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.New(apperrors.ErrCodeNotFound, "GET %s: 404 not found", url)
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return Retryable(&apperrors.RateLimitedError{RetryAfter: retryAfter, Message: url})
	case resp.StatusCode >= 500:
		return Retryable(apperrors.New(apperrors.ErrCodeNetwork, "GET %s: status %d", url, resp.StatusCode))
	case resp.StatusCode >= 400:
		return apperrors.New(apperrors.ErrCodeNetwork, "GET %s: status %d", url, resp.StatusCode)
	}

	limit := f.MaxBodySize
	if limit <= 0 {
		limit = maxBodySize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Retryable(apperrors.Wrap(apperrors.ErrCodeNetwork, err, "read body %s", url))
	}
	if int64(len(body)) > limit {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "GET %s: response body exceeds %d bytes", url, limit)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode %s", url)
	}
	return nil
}

